package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps media on the local filesystem. It is meant for development.
type DiskStore struct {
	root      string
	urlPrefix string
	maxBytes  int64
}

func NewDiskStore(root, urlPrefix string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &DiskStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/"), maxBytes: maxBytes}, nil
}

// Root is the directory files are written under.
func (s *DiskStore) Root() string { return s.root }

func (s *DiskStore) Upload(ctx context.Context, folder string, f *File) (string, error) {
	format, err := checkFile(f, s.maxBytes)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(folder, format)
	dest := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media folder: %w", err)
	}
	if err := os.WriteFile(dest, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return s.urlPrefix + "/" + key, nil
}
