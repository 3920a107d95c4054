package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const localScheme = "local://"

// LocalStore keeps blobs on the local filesystem under a single root
// directory. Keys are namespaced by the caller-supplied path with a UUID
// suffix so repeated uploads of the same filename never collide.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob root directory is required")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	key := s.buildKey(path)
	full := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return localScheme + key, nil
}

func (s *LocalStore) Get(ctx context.Context, url string) ([]byte, error) {
	full, err := s.resolve(url)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", url, err)
	}
	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, urls ...string) error {
	for _, url := range urls {
		if url == "" {
			continue
		}
		full, err := s.resolve(url)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete blob %s: %w", url, err)
		}
	}
	return nil
}

// buildKey sanitizes the caller path and appends a UUID before the extension.
func (s *LocalStore) buildKey(path string) string {
	path = strings.Trim(filepath.ToSlash(path), "/")
	dir, name := "", path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		dir, name = path[:idx], path[idx+1:]
	}

	ext := filepath.Ext(name)
	base := sanitize(strings.TrimSuffix(name, ext))
	if base == "" {
		base = "blob"
	}
	key := fmt.Sprintf("%s-%s%s", base, uuid.New().String(), strings.ToLower(ext))
	if dir != "" {
		key = sanitizeDir(dir) + "/" + key
	}
	return key
}

func (s *LocalStore) resolve(url string) (string, error) {
	if !strings.HasPrefix(url, localScheme) {
		return "", fmt.Errorf("unsupported blob url: %s", url)
	}
	key := strings.TrimPrefix(url, localScheme)

	full := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("blob url escapes store root: %s", url)
	}
	return full, nil
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

func sanitizeDir(dir string) string {
	parts := strings.Split(dir, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if clean := sanitize(p); clean != "" {
			out = append(out, clean)
		}
	}
	return strings.Join(out, "/")
}
