package ai

import "context"

// CompletionRequest is a single system + user exchange.
type CompletionRequest struct {
	System string
	User   string
}

// Client is an opaque text completion provider.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
