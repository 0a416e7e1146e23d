// Package storage keeps uploaded order documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned by Put when the upload exceeds the size limit.
var ErrTooLarge = errors.New("file too large")

// Store saves blobs and hands back a URL clients can fetch them from.
type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// LocalStore writes files under Dir and exposes them below BaseURL.
type LocalStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

// NewLocalStore creates dir when missing. maxBytes <= 0 means unlimited.
func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), MaxBytes: maxBytes}, nil
}

// Put stores r under a fresh name that keeps the original extension.
func (s *LocalStore) Put(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stored := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(name)))
	full := filepath.Join(s.Dir, stored)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && n > s.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return s.BaseURL + "/" + stored, nil
}

// Delete removes the file behind url. Unknown files are not an error.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.BaseURL+"/") {
		return fmt.Errorf("url %q is not served by this store", url)
	}
	name := path.Base(url)
	if name == "." || name == "/" || name == ".." {
		return fmt.Errorf("invalid file url %q", url)
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
