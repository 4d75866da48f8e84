// Package assets uploads campaign creatives to object storage.
package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/buyside/internal/logging"
)

// DefaultBucket is the bucket creatives are written to.
const DefaultBucket = "campaign-assets"

// ErrNotConfigured is logged when storage credentials are missing.
var ErrNotConfigured = errors.New("asset storage not configured")

// Uploader is the contract the creation pipeline depends on. Upload never fails:
// every failure collapses to ok == false.
type Uploader interface {
	Upload(ctx context.Context, data []byte, ext string) (url string, ok bool)
}

// Bucket is the object storage backend.
type Bucket interface {
	Put(bucket, key string, data []byte, contentType string) error
	PublicURL(bucket, key string) string
}

// Store implements Uploader over a Bucket.
type Store struct {
	bucket  Bucket
	name    string
	now     func() time.Time
	randKey func() string
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithBucketName overrides DefaultBucket.
func WithBucketName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(logger) }
}

// WithClock replaces time.Now for key generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store. A nil bucket is allowed; uploads then log and return no URL.
func NewStore(bucket Bucket, opts ...Option) *Store {
	s := &Store{
		bucket:  bucket,
		name:    DefaultBucket,
		now:     time.Now,
		randKey: randomComponent,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores data under a generated key and returns its public URL.
func (s *Store) Upload(ctx context.Context, data []byte, ext string) (string, bool) {
	if len(data) == 0 {
		return "", false
	}

	key := s.ObjectKey(data, ext)
	url, err := s.put(ctx, key, data)
	if err != nil {
		s.logger.Warn("asset upload failed",
			zap.String("bucket", s.name),
			zap.String("key", key),
			zap.Error(err))
		return "", false
	}

	s.logger.Debug("asset uploaded", zap.String("bucket", s.name), zap.String("key", key))
	return url, true
}

func (s *Store) put(ctx context.Context, key string, data []byte) (string, error) {
	if s.bucket == nil {
		return "", ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := s.bucket.Put(s.name, key, data, mimetype.Detect(data).String()); err != nil {
		return "", err
	}

	url := s.bucket.PublicURL(s.name, key)
	if url == "" {
		return "", fmt.Errorf("no public URL for %s", key)
	}
	return url, nil
}

// ObjectKey builds a collision-resistant key: random component, unix millis, extension.
func (s *Store) ObjectKey(data []byte, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = strings.TrimPrefix(mimetype.Detect(data).Extension(), ".")
	}
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s_%d.%s", s.randKey(), s.now().UnixMilli(), ext)
}

func randomComponent() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
