package retrieval

import (
	"context"
	"errors"
)

// ErrDisabled is reported by components that need a vector backend when
// retrieval is configured off.
var ErrDisabled = errors.New("retrieval disabled")

// Retriever returns up to k text snippets relevant to query from the
// chatbot's namespace. Callers treat any error as "no snippets".
type Retriever interface {
	Retrieve(ctx context.Context, namespace, query string, k int) ([]string, error)
}

// Ingester stores document texts under a namespace and reports how many
// chunks were written.
type Ingester interface {
	Ingest(ctx context.Context, namespace string, documents []string) (int, error)
}

// Noop is used when no vector backend is configured.
type Noop struct{}

func (Noop) Retrieve(context.Context, string, string, int) ([]string, error) {
	return nil, nil
}

func (Noop) Ingest(context.Context, string, []string) (int, error) {
	return 0, ErrDisabled
}
