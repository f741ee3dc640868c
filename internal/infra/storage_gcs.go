package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStorage keeps attachments in a Google Cloud Storage bucket.
type GCSStorage struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSStorage prefers explicit JSON credentials and falls back to
// application default credentials.
func NewGCSStorage(ctx context.Context, bucket, credentialsJSON string) (*GCSStorage, error) {
	if bucket == "" {
		return nil, errors.New("storage: GCS_BUCKET is required")
	}
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	b := client.Bucket(bucket)
	if _, err := b.Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("storage: gcs bucket %q not accessible: %w", bucket, err)
	}
	return &GCSStorage{client: client, bucket: b}, nil
}

func (s *GCSStorage) Put(ctx context.Context, key string, r io.Reader) error {
	wc := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return wc.Close()
}

func (s *GCSStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrFileNotFound
	}
	return rc, err
}

func (s *GCSStorage) Copy(ctx context.Context, src, dst string) error {
	_, err := s.bucket.Object(dst).CopierFrom(s.bucket.Object(src)).Run(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("storage: copy %s: %w", src, ErrFileNotFound)
	}
	return err
}

func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (s *GCSStorage) DeleteFolder(ctx context.Context, prefix string) error {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: strings.TrimSuffix(prefix, "/") + "/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.Delete(ctx, attrs.Name); err != nil {
			return err
		}
	}
}

func (s *GCSStorage) Close() error { return s.client.Close() }
