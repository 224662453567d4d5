package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store persists transient upload artifacts under collision-resistant names.
// File names derive from a fresh UUID, never from the user-supplied
// filename, so a hostile name cannot traverse out of the directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates the temp directory if needed and returns a store rooted
// there.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio temporal: %w", err)
	}
	return &Store{dir: dir, logger: logger.Named("storage")}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string { return s.dir }

// Save writes data to a fresh uniquely named file and returns its path. The
// extension is supplied by the caller from the sniffed content type.
func (s *Store) Save(data []byte, ext string) (string, error) {
	name := fmt.Sprintf("uniform_%s%s", uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("guardar la imagen temporal: %w", err)
	}
	return path, nil
}

// Remove deletes a previously saved artifact. A file already gone is not an
// error; every request path must be able to call Remove unconditionally.
func (s *Store) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove temp artifact", zap.String("path", path), zap.Error(err))
	}
}

// SweepOlderThan deletes artifacts whose modification time is older than
// maxAge and reports how many were removed.
func (s *Store) SweepOlderThan(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("temp sweep failed to list directory", zap.Error(err))
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("temp sweep failed to remove file", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("temp sweep removed stale artifacts", zap.Int("count", removed))
	}
	return removed
}
