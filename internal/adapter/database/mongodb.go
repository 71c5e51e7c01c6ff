package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/semmidev/mongobak/internal/config"
	"github.com/semmidev/mongobak/internal/domain"
	"github.com/semmidev/mongobak/internal/infrastructure/logger"
)

const disconnectTimeout = 10 * time.Second

// client is the part of the driver the connector relies on.
type client interface {
	Ping(ctx context.Context) error
	RunCommand(ctx context.Context, database string, cmd any, out any) error
	Disconnect(ctx context.Context) error
}

type dialFunc func(uri string, timeout time.Duration) (client, error)

type driverClient struct {
	*mongo.Client
}

func (c driverClient) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx, readpref.Primary())
}

func (c driverClient) RunCommand(ctx context.Context, database string, cmd any, out any) error {
	return c.Client.Database(database).RunCommand(ctx, cmd).Decode(out)
}

func dialDriver(uri string, timeout time.Duration) (client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetTimeout(timeout)

	c, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	return driverClient{c}, nil
}

// MongoConnector establishes verified MongoDB connections and owns the
// lifetime of the client it hands out.
type MongoConnector struct {
	uri         string
	database    string
	host        string
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration

	dial   dialFunc
	sleep  func(ctx context.Context, d time.Duration) error
	logger *logger.Logger

	mu     sync.Mutex
	client client
}

func NewMongo(cfg *config.MongoConfig, log *logger.Logger) *MongoConnector {
	return &MongoConnector{
		uri:         cfg.ConnectionString(),
		database:    cfg.Database,
		host:        cfg.Host,
		timeout:     cfg.ConnectTimeout,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.RetryBaseDelay,
		dial:        dialDriver,
		sleep:       sleepContext,
		logger:      log,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retrySchedule yields base, 2*base, 4*base, ... without jitter or cap.
func (m *MongoConnector) retrySchedule() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(1<<62 - 1)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Connect dials and pings the database, retrying with exponential backoff.
// A half-open client from a failed attempt is closed before the next one.
func (m *MongoConnector) Connect(ctx context.Context) (domain.Session, error) {
	attempts := m.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	schedule := m.retrySchedule()

	var lastErr error
	var lastMsg string
	for attempt := 1; attempt <= attempts; attempt++ {
		m.closeClient()

		m.logger.Infow("Attempting MongoDB connection",
			"attempt", attempt, "max_attempts", attempts, "host", m.host)

		c, err := m.dial(m.uri, m.timeout)
		if err == nil {
			m.setClient(c)
			err = m.ping(ctx, c)
		}
		if err == nil {
			m.logger.Infow("Connected to MongoDB", "host", m.host, "attempt", attempt)
			return &session{client: c, uri: m.uri, database: m.database}, nil
		}

		lastErr = err
		lastMsg = formatConnectionError(err, attempt, attempts)

		if attempt == attempts {
			m.logger.Errorw("MongoDB connection failed after all attempts", "error", lastMsg)
			break
		}

		delay := schedule.NextBackOff()
		m.logger.Warnw("MongoDB connection attempt failed, retrying",
			"attempt", attempt, "max_attempts", attempts, "delay", delay, "error", lastMsg)
		if err := m.sleep(ctx, delay); err != nil {
			m.closeClient()
			return nil, domain.NewError(domain.KindConnection, "connect",
				fmt.Sprintf("connection retry interrupted: %v. Last error: %s", err, lastMsg), lastErr)
		}
	}

	m.closeClient()

	kind := domain.KindConnection
	if isDNSError(lastErr.Error()) {
		kind = domain.KindDNS
	}
	return nil, &domain.Error{
		Kind: kind,
		Message: fmt.Sprintf("Failed to connect to MongoDB after %d attempts. Last error: %s",
			attempts, formatConnectionError(lastErr, attempts, attempts)),
		Hint: hintFor(lastErr),
		Err:  lastErr,
	}
}

func (m *MongoConnector) ping(ctx context.Context, c client) error {
	if m.timeout <= 0 {
		return c.Ping(ctx)
	}
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return c.Ping(pingCtx)
}

// Disconnect closes the current client if there is one. It never fails.
func (m *MongoConnector) Disconnect() {
	if m.closeClient() {
		m.logger.Infow("Disconnected from MongoDB", "host", m.host)
	}
}

func (m *MongoConnector) setClient(c client) {
	m.mu.Lock()
	m.client = c
	m.mu.Unlock()
}

func (m *MongoConnector) closeClient() bool {
	m.mu.Lock()
	c := m.client
	m.client = nil
	m.mu.Unlock()

	if c == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := c.Disconnect(ctx); err != nil {
		m.logger.Warnw("Error while closing MongoDB client", "error", err)
	}
	return true
}

type session struct {
	client   client
	uri      string
	database string
}

func (s *session) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *session) URI() string {
	return s.uri
}

func (s *session) DatabaseName() string {
	return s.database
}

func (s *session) Stats(ctx context.Context) (domain.DatabaseStats, error) {
	var raw bson.M
	if err := s.client.RunCommand(ctx, s.database, bson.D{{Key: "dbStats", Value: 1}}, &raw); err != nil {
		return domain.DatabaseStats{}, fmt.Errorf("dbStats on %s: %w", s.database, err)
	}

	return domain.DatabaseStats{
		Collections: toInt64(raw["collections"]),
		Objects:     toInt64(raw["objects"]),
		DataSize:    toInt64(raw["dataSize"]),
		StorageSize: toInt64(raw["storageSize"]),
		IndexSize:   toInt64(raw["indexSize"]),
	}, nil
}

// dbStats reports numbers as int32, int64 or double depending on magnitude.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
