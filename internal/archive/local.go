package archive

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalArchive implements Archiver on the local filesystem. Keys map to
// paths under the base directory, so "airnowapi.org/2026-08-27.xml"
// becomes a file in a per-source subdirectory.
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates the base directory if needed and returns an
// archive rooted there.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, newArchiveError("init", "", err, false)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, newArchiveError("init", "", err, false)
	}

	return &LocalArchive{basePath: absPath}, nil
}

// Store implements Archiver.Store
func (a *LocalArchive) Store(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return newArchiveError("store", key, err, false)
	}

	path := a.filePath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return newArchiveError("store", key, err, true)
	}

	// Write to a temp file and rename so readers never see a partial
	// snapshot.
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return newArchiveError("store", key, err, true)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return newArchiveError("store", key, err, true)
	}

	return nil
}

// Retrieve implements Archiver.Retrieve
func (a *LocalArchive) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, newArchiveError("retrieve", key, err, false)
	}

	data, err := os.ReadFile(a.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newArchiveError("retrieve", key, ErrNotFound, false)
		}
		return nil, newArchiveError("retrieve", key, err, true)
	}

	return data, nil
}

// List implements Archiver.List
func (a *LocalArchive) List(ctx context.Context, prefix string) ([]Snapshot, error) {
	var snapshots []Snapshot

	err := filepath.Walk(a.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		relPath, err := filepath.Rel(a.basePath, path)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(relPath)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		snapshots = append(snapshots, Snapshot{
			Key:      key,
			Size:     info.Size(),
			StoredAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, newArchiveError("list", prefix, err, true)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Key < snapshots[j].Key
	})

	return snapshots, nil
}

// Close implements Archiver.Close
func (a *LocalArchive) Close() error {
	return nil
}

func (a *LocalArchive) filePath(key string) string {
	return filepath.Join(a.basePath, filepath.FromSlash(key))
}

// validateKey rejects keys that would escape the base directory
func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}
