package attachments

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectExists is returned by Upload when Upsert is false and the key is taken.
var ErrObjectExists = errors.New("attachments: object already exists")

// UploadInput describes one object to store.
type UploadInput struct {
	Key          string
	Body         io.Reader
	ContentType  string
	CacheControl string
	// Upsert allows overwriting an existing object.
	Upsert bool
}

// ObjectStorage abstracts the bucket holding invoice and receipt files.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) error
	// Remove deletes keys and reports the outcome per key. The error is set
	// only when the request as a whole could not be made.
	Remove(ctx context.Context, keys []string) (BatchResult, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ItemResult is the outcome for one key of a batch.
type ItemResult struct {
	Key string `json:"key"`
	Err error  `json:"-"`
}

// BatchResult collects per-item outcomes; a failed item does not stop the batch.
type BatchResult struct {
	Items []ItemResult `json:"items"`
}

// Add records the outcome for key.
func (b *BatchResult) Add(key string, err error) {
	b.Items = append(b.Items, ItemResult{Key: key, Err: err})
}

// Succeeded lists keys that completed.
func (b BatchResult) Succeeded() []string {
	out := make([]string, 0, len(b.Items))
	for _, it := range b.Items {
		if it.Err == nil {
			out = append(out, it.Key)
		}
	}
	return out
}

// Failed lists items that did not complete.
func (b BatchResult) Failed() []ItemResult {
	out := make([]ItemResult, 0)
	for _, it := range b.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// AllFailed reports whether a non-empty batch had no success at all.
func (b BatchResult) AllFailed() bool {
	return len(b.Items) > 0 && len(b.Failed()) == len(b.Items)
}
