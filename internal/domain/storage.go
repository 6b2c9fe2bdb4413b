package domain

import "context"

// ContentStore holds metadata documents. Put is not assumed idempotent;
// retrying a failed upload is the caller's decision.
type ContentStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (uri string, err error)
	Get(ctx context.Context, uri string) ([]byte, error)
}
