package domain

import "context"

// Session is a verified, live database connection handed out by a Connector.
type Session interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (DatabaseStats, error)
	URI() string
	DatabaseName() string
}

// Connector owns the lifetime of the connection it hands out. Disconnect is
// its only mutator and is safe to call at any time.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
	Disconnect()
}

type Dumper interface {
	Dump(ctx context.Context, session Session, outputDir string) (*DumpStats, error)
}

type DatabaseStats struct {
	Collections int64 `json:"collections"`
	Objects     int64 `json:"objects"`
	DataSize    int64 `json:"data_size"`
	StorageSize int64 `json:"storage_size"`
	IndexSize   int64 `json:"index_size"`
}

type DatabaseReport struct {
	Database     string        `json:"database"`
	Stats        DatabaseStats `json:"stats"`
	TotalSize    string        `json:"total_size"`
	MaxSize      string        `json:"max_size,omitempty"`
	UsagePercent float64       `json:"usage_percent,omitempty"`
}
