// Package filesystem provides read-only access to the photos root for
// photozip. All access goes through an os.Root, so tokens and walked paths
// can never escape the configured directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sagarc03/photozip"
)

// Entry is a regular file found under a photo directory.
type Entry struct {
	// Path is relative to the photos root.
	Path        string
	Name        string
	Size        int64
	ModTime     time.Time
	Mode        fs.FileMode
	ContentType string
}

// Store provides file system operations on the photos root.
type Store struct {
	root *os.Root
	dir  string
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
// dir is the absolute path the root was opened at; producers that run
// outside the process receive paths joined onto it.
func NewFileStorage(root *os.Root, dir string) *Store {
	return &Store{root: root, dir: dir}
}

// Open opens a file for reading. Returns photozip.ErrNotFound if the file does not exist.
func (s *Store) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, photozip.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

// Resolve returns the absolute path of the directory named by token.
// Returns photozip.ErrNotFound if it does not exist or is not a directory.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := s.root.Stat(token)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", photozip.ErrNotFound
		}
		return "", fmt.Errorf("resolve %q: %w", token, err)
	}

	if !info.IsDir() {
		return "", photozip.ErrNotFound
	}

	return filepath.Join(s.dir, token), nil
}

// Walk recursively lists the regular files of a photo directory in
// lexical order. dir may be a token or a path returned by Resolve.
func (s *Store) Walk(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := s.relative(dir)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	if err := s.walkDir(ctx, rel, &entries); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, photozip.ErrNotFound
		}
		return nil, fmt.Errorf("failed to walk %q: %w", rel, err)
	}

	return entries, nil
}

func (s *Store) relative(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		return dir, nil
	}

	rel, err := filepath.Rel(s.dir, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the photos root: %w", dir, photozip.ErrInvalidInput)
	}

	return rel, nil
}

func (s *Store) walkDir(ctx context.Context, path string, entries *[]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), filepath.ToSlash(path))
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := filepath.Join(path, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		// Stat through the root so symlinks are followed but stay sandboxed.
		info, err := s.root.Stat(entryPath)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		// Directory symlinks are skipped to avoid cycles.
		if !info.Mode().IsRegular() {
			continue
		}

		*entries = append(*entries, Entry{
			Path:        entryPath,
			Name:        entry.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			Mode:        info.Mode(),
			ContentType: detectContentType(entryPath),
		})
	}

	return nil
}

func detectContentType(path string) string {
	ext := filepath.Ext(path)
	contentType := mime.TypeByExtension(ext)

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
