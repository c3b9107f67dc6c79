// internal/publish/publish.go
// Package publish uploads sealed output artifacts to external storage.
// Two backends exist: Pinata for IPFS pinning and an S3-compatible object
// store. Publication is an enhancement on top of database persistence; a
// missing backend configuration degrades to the no-op publisher.
package publish

import (
	"context"
)

// Result describes one published artifact.
type Result struct {
	// Reference is the backend-native locator: an IPFS content hash for
	// Pinata, an object key for S3.
	Reference string
	// URL is a retrieval URL when the backend can provide one.
	URL string
}

// Publisher uploads a named artifact payload.
type Publisher interface {
	Publish(ctx context.Context, name string, payload []byte) (*Result, error)
}

// noop is used when no publication backend is configured.
type noop struct{}

// NewNoop returns a publisher that drops every artifact.
func NewNoop() Publisher { return &noop{} }

func (n *noop) Publish(ctx context.Context, name string, payload []byte) (*Result, error) {
	return &Result{}, nil
}
