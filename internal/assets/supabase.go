package assets

import (
	"bytes"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseBucket adapts the Supabase storage client to Bucket.
type SupabaseBucket struct {
	client *storage_go.Client
}

// NewSupabaseBucket connects to the storage API of a Supabase project.
// Returns nil when either value is empty.
func NewSupabaseBucket(projectURL, apiKey string) *SupabaseBucket {
	if projectURL == "" || apiKey == "" {
		return nil
	}
	endpoint := strings.TrimRight(projectURL, "/") + "/storage/v1"
	client := storage_go.NewClient(endpoint, apiKey, map[string]string{"apikey": apiKey})
	return &SupabaseBucket{client: client}
}

// Put uploads data under key.
func (b *SupabaseBucket) Put(bucket, key string, data []byte, contentType string) error {
	if b == nil {
		return ErrNotConfigured
	}
	upsert := false
	_, err := b.client.UploadFile(bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	return err
}

// PublicURL returns the public URL for key.
func (b *SupabaseBucket) PublicURL(bucket, key string) string {
	if b == nil {
		return ""
	}
	return b.client.GetPublicUrl(bucket, key).SignedURL
}
