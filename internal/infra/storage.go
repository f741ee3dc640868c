package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"atlascrm/internal/config"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned by Open when the key does not exist.
var ErrFileNotFound = errors.New("fichier introuvable")

// Storage keeps uploaded documents under slash-separated keys such as
// "company/<id>/invoice/FAC-0001/contract.pdf".
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, key string) error
	// DeleteFolder removes every key under prefix. Missing folders are not an error.
	DeleteFolder(ctx context.Context, prefix string) error
}

// NewStorage picks the backend named by STORAGE_DRIVER.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "gcs":
		return NewGCSStorage(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON)
	case "", "local":
		return NewLocalStorage(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}

// RecordFolder is the key prefix holding a document's attachments.
func RecordFolder(companyID uuid.UUID, kind, reference string) string {
	return path.Join("company", companyID.String(), kind, sanitizeSegment(reference))
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "-", "\\", "-", "..", "-").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}

// ── Local filesystem ─────────────────────────────────────────────────────────

type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("storage: empty key")
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *LocalStorage) Put(_ context.Context, key string, r io.Reader) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return f.Close()
}

func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	return f, err
}

func (s *LocalStorage) Copy(ctx context.Context, src, dst string) error {
	r, err := s.Open(ctx, src)
	if err != nil {
		return fmt.Errorf("storage: copy %s: %w", src, err)
	}
	defer r.Close()
	return s.Put(ctx, dst, r)
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) DeleteFolder(_ context.Context, prefix string) error {
	p, err := s.path(prefix)
	if err != nil {
		return err
	}
	return os.RemoveAll(p)
}
