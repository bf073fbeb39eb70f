// Package storage keeps item images in a gocloud.dev bucket.
package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"tradepost/config"
	"tradepost/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	_ "gocloud.dev/blob/s3blob"   // s3:// buckets
	"gocloud.dev/gcerrors"
)

const (
	defaultBucketURL     = "mem://"
	defaultPublicBaseURL = "/media"
)

// ErrObjectExists is returned when a key is written twice.
var ErrObjectExists = errors.New("object already exists")

// ErrObjectNotFound is returned when reading a missing key.
var ErrObjectNotFound = errors.New("object not found")

// BlobStore is a write-once image store over a gocloud bucket.
type BlobStore struct {
	bucket        *blob.Bucket
	publicBaseURL string
}

// NewBlobStore wraps an opened bucket.
func NewBlobStore(bucket *blob.Bucket, publicBaseURL string) *BlobStore {
	if publicBaseURL == "" {
		publicBaseURL = defaultPublicBaseURL
	}

	return &BlobStore{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// StoreParams holds dependencies for the blob store, injected by Fx
type StoreParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// New opens the configured bucket and closes it on shutdown.
func New(params StoreParams) (*BlobStore, error) {
	bucketURL := defaultBucketURL
	publicBaseURL := ""
	if cfg := params.Config.Storage; cfg != nil {
		if cfg.BucketURL != "" {
			bucketURL = cfg.BucketURL
		}
		publicBaseURL = cfg.PublicBaseURL
	}

	if bucketURL == defaultBucketURL {
		params.Logger.Warn("Storage bucket not configured, images are kept in memory")
	}

	bucket, err := blob.OpenBucket(params.Ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %s", redactURL(bucketURL))
	}

	params.Logger.Info("Image bucket opened", slog.String("bucket", redactURL(bucketURL)))

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing image bucket")

			return errors.WithStack(bucket.Close())
		},
	})

	return NewBlobStore(bucket, publicBaseURL), nil
}

// AsBlobStore exposes the store through the domain port.
func AsBlobStore(s *BlobStore) service.BlobStore {
	return s
}

// Put writes data under key. Existing keys are never overwritten.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return "", errors.Wrapf(err, "check object %s", key)
	}
	if exists {
		return "", errors.Wrap(ErrObjectExists, key)
	}

	if err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType}); err != nil {
		return "", errors.Wrapf(err, "write object %s", key)
	}

	return s.URL(key), nil
}

// Delete removes an object. Missing objects are ignored.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(err, "delete object %s", key)
	}

	return nil
}

// Open streams an object for the media endpoint. The caller closes the reader.
func (s *BlobStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	reader, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, "", errors.Wrap(ErrObjectNotFound, key)
		}

		return nil, "", errors.Wrapf(err, "open object %s", key)
	}

	return reader, reader.ContentType(), nil
}

// URL builds the public address of a key.
func (s *BlobStore) URL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// redactURL hides query parameters, which may carry credentials.
func redactURL(raw string) string {
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		return raw[:idx]
	}

	return raw
}
