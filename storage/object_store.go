package storage

import (
	"context"
	"io"
)

// ContentTypeJSON is the content type of archived result documents.
const ContentTypeJSON = "application/json"

// StoredObject describes an object written to the archive bucket.
type StoredObject struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	ETag string `json:"etag,omitempty"`
}

// ObjectStore is the write side of the bucket that holds tournament results.
type ObjectStore interface {
	// Put writes body under key, replacing any previous version.
	Put(ctx context.Context, key, contentType string, body io.Reader) (*StoredObject, error)
	// PublicURL builds the link for key without calling the bucket.
	PublicURL(key string) string
}
