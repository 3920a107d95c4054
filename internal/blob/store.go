// Package blob stores raw uploads and generated summaries outside the
// database. Documents and summaries carry opaque blob URLs; only this package
// knows how to dereference them.
package blob

import "context"

// Store abstracts blob storage. The local filesystem implementation is the
// only one wired today; the URL scheme keeps the door open for object storage.
type Store interface {
	// Put writes data under a store-chosen key derived from path and returns
	// the blob URL to persist.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Get fetches the blob behind a URL previously returned by Put.
	Get(ctx context.Context, url string) ([]byte, error)
	// Delete removes blobs, ignoring URLs that no longer exist.
	Delete(ctx context.Context, urls ...string) error
}
