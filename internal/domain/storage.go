package domain

import (
	"context"
	"time"
)

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectStore is the off-site destination for archives.
type ObjectStore interface {
	Upload(ctx context.Context, localPath string, key string) (string, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	TestConnection(ctx context.Context) bool
}

type DiskUsage struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
	Free  uint64 `json:"free"`
}

// ArtifactStore manages the local working directory of a run.
type ArtifactStore interface {
	Dir() string
	GenerateName(prefix string) string
	Delete(path string) error
	Prune(pattern string, keep int) (int, error)
	DiskUsage() (DiskUsage, error)
}
