package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/semmidev/mongobak/internal/domain"
)

type fakeSession struct {
	pingErr  error
	stats    domain.DatabaseStats
	statsErr error
}

func (s *fakeSession) Ping(context.Context) error { return s.pingErr }
func (s *fakeSession) Stats(context.Context) (domain.DatabaseStats, error) {
	return s.stats, s.statsErr
}
func (s *fakeSession) URI() string          { return "mongodb+srv://u:p@cluster0.example.mongodb.net/" }
func (s *fakeSession) DatabaseName() string { return "nightscout" }

type fakeConnector struct {
	err         error
	panicMsg    string
	session     *fakeSession
	connects    int
	disconnects int
}

func (c *fakeConnector) Connect(context.Context) (domain.Session, error) {
	c.connects++
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.session == nil {
		c.session = &fakeSession{}
	}
	return c.session, nil
}

func (c *fakeConnector) Disconnect() { c.disconnects++ }

type fakeDumper struct {
	err   error
	stats *domain.DumpStats
}

func (d *fakeDumper) Dump(_ context.Context, _ domain.Session, outputDir string) (*domain.DumpStats, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.stats, nil
}

type fakeStore struct {
	uploadErr error
	ok        bool
	panicMsg  string
	uploaded  []string
	objects   []domain.ObjectInfo
	listErr   error
	deleteErr map[string]error
	deleted   []string
}

func (s *fakeStore) Upload(_ context.Context, localPath, key string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploaded = append(s.uploaded, localPath)
	return "https://nightscout-backups.s3.us-east-1.amazonaws.com/backups/1a2b3c4d-archive.tar.gz", nil
}

func (s *fakeStore) List(_ context.Context, prefix string) ([]domain.ObjectInfo, error) {
	return s.objects, s.listErr
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	if err := s.deleteErr[key]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) TestConnection(context.Context) bool {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.ok
}

type fakeArtifacts struct {
	deleteErr error
	pruneErr  error
	deleted   []string
	pruned    []string
	pruneKeep int
}

func (a *fakeArtifacts) Dir() string                          { return "backups" }
func (a *fakeArtifacts) GenerateName(p string) string         { return p + "_20250314_020000_abcdef12" }
func (a *fakeArtifacts) DiskUsage() (domain.DiskUsage, error) { return domain.DiskUsage{}, nil }

func (a *fakeArtifacts) Delete(path string) error {
	a.deleted = append(a.deleted, path)
	return a.deleteErr
}

func (a *fakeArtifacts) Prune(pattern string, keep int) (int, error) {
	a.pruned = append(a.pruned, pattern)
	a.pruneKeep = keep
	return 2, a.pruneErr
}

// recordingSink fails every message that contains failOn.
type recordingSink struct {
	failOn   string
	messages []string
}

func (r *recordingSink) Progress(_ context.Context, message string) error {
	if r.failOn != "" && strings.Contains(message, r.failOn) {
		return errors.New("sink unavailable")
	}
	r.messages = append(r.messages, message)
	return nil
}

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}
