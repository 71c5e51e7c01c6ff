package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/semmidev/mongobak/internal/domain"
)

// LocalStorage is the working directory where dumps are staged before upload.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

func NewLocal(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, domain.NewError(domain.KindArtifactIO, "local", "failed to create backup directory", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

func (l *LocalStorage) Dir() string {
	return l.basePath
}

// GenerateName returns prefix_YYYYMMDD_HHMMSS_xxxxxxxx. The random suffix
// keeps names unique for runs started within the same second.
func (l *LocalStorage) GenerateName(prefix string) string {
	timestamp := l.now().UTC().Format("20060102_150405")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s", prefix, timestamp, suffix)
}

// Delete removes a file. A path that does not exist is not an error.
func (l *LocalStorage) Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.NewError(domain.KindArtifactIO, "local", "failed to delete file", err)
	}
	return nil
}

// Prune keeps the newest keep files matching pattern and deletes the rest.
// It returns how many files were deleted.
func (l *LocalStorage) Prune(pattern string, keep int) (int, error) {
	matches, err := filepath.Glob(filepath.Join(l.basePath, pattern))
	if err != nil {
		return 0, fmt.Errorf("invalid prune pattern %q: %w", pattern, err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	files := make([]candidate, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, candidate{path: path, modTime: info.ModTime()})
	}

	if len(files) <= keep {
		return 0, nil
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	deleted := 0
	for _, f := range files[keep:] {
		if err := l.Delete(f.path); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// DiskUsage reports the filesystem holding the working directory.
func (l *LocalStorage) DiskUsage() (domain.DiskUsage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(l.basePath, &stat); err != nil {
		return domain.DiskUsage{}, domain.NewError(domain.KindArtifactIO, "local", "failed to read disk usage", err)
	}

	bsize := uint64(stat.Bsize)
	total := stat.Blocks * bsize
	free := stat.Bavail * bsize
	used := total - stat.Bfree*bsize
	return domain.DiskUsage{Total: total, Used: used, Free: free}, nil
}
