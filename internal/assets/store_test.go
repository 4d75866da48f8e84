package assets

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	puts    map[string][]byte
	types   map[string]string
	putErr  error
	baseURL string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{
		puts:    make(map[string][]byte),
		types:   make(map[string]string),
		baseURL: "https://proj.supabase.co/storage/v1/object/public",
	}
}

func (f *fakeBucket) Put(bucket, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts[bucket+"/"+key] = data
	f.types[bucket+"/"+key] = contentType
	return nil
}

func (f *fakeBucket) PublicURL(bucket, key string) string {
	return f.baseURL + "/" + bucket + "/" + key
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func fixedClock() time.Time { return time.UnixMilli(1700000000123) }

func TestUpload_Success(t *testing.T) {
	bucket := newFakeBucket()
	store := NewStore(bucket, WithClock(fixedClock))
	store.randKey = func() string { return "abc123" }

	url, ok := store.Upload(context.Background(), pngHeader, "PNG")

	require.True(t, ok)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/campaign-assets/abc123_1700000000123.png", url)
	assert.Equal(t, pngHeader, bucket.puts["campaign-assets/abc123_1700000000123.png"])
	assert.Equal(t, "image/png", bucket.types["campaign-assets/abc123_1700000000123.png"])
}

func TestUpload_FailureIsAbsent(t *testing.T) {
	bucket := newFakeBucket()
	bucket.putErr = errors.New("403 forbidden")

	url, ok := NewStore(bucket).Upload(context.Background(), pngHeader, "png")

	assert.False(t, ok)
	assert.Empty(t, url)
}

func TestUpload_NotConfigured(t *testing.T) {
	url, ok := NewStore(nil).Upload(context.Background(), pngHeader, "png")
	assert.False(t, ok)
	assert.Empty(t, url)

	var nilBucket *SupabaseBucket
	url, ok = NewStore(nilBucket).Upload(context.Background(), pngHeader, "png")
	assert.False(t, ok)
	assert.Empty(t, url)
}

func TestUpload_EmptyPayload(t *testing.T) {
	bucket := newFakeBucket()
	_, ok := NewStore(bucket).Upload(context.Background(), nil, "png")
	assert.False(t, ok)
	assert.Empty(t, bucket.puts)
}

func TestUpload_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bucket := newFakeBucket()
	_, ok := NewStore(bucket).Upload(ctx, pngHeader, "png")
	assert.False(t, ok)
	assert.Empty(t, bucket.puts)
}

func TestUpload_CustomBucket(t *testing.T) {
	bucket := newFakeBucket()
	url, ok := NewStore(bucket, WithBucketName("creatives")).Upload(context.Background(), pngHeader, "png")
	require.True(t, ok)
	assert.Contains(t, url, "/creatives/")
}

func TestObjectKey(t *testing.T) {
	store := NewStore(nil, WithClock(fixedClock))

	key := store.ObjectKey(pngHeader, ".JPG")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{12}_1700000000123\.jpg$`), key)

	key = store.ObjectKey(pngHeader, "")
	assert.Regexp(t, regexp.MustCompile(`_1700000000123\.png$`), key, "extension sniffed from payload")

	key = store.ObjectKey([]byte{0x00, 0x01}, "")
	assert.Regexp(t, regexp.MustCompile(`\.bin$`), key)
}

func TestObjectKey_Unique(t *testing.T) {
	store := NewStore(nil, WithClock(fixedClock))
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := store.ObjectKey(pngHeader, "png")
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestNewSupabaseBucket_RequiresCredentials(t *testing.T) {
	assert.Nil(t, NewSupabaseBucket("", "key"))
	assert.Nil(t, NewSupabaseBucket("https://proj.supabase.co", ""))
	assert.NotNil(t, NewSupabaseBucket("https://proj.supabase.co/", "key"))
}
