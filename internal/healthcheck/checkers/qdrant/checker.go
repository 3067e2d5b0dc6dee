package qdrantchecker

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ain9900/custom-chatbot-saas/internal/healthcheck"
)

// HealthClient is the subset of *qdrant.Client used here.
type HealthClient interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
}

type Checker struct {
	client HealthClient
}

func NewChecker(client HealthClient) *Checker {
	return &Checker{client: client}
}

func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	item := healthcheck.CheckResult{
		ID:   "qdrant",
		Type: "retrieval.qdrant",
		// Retrieval is best effort, so an outage only degrades replies.
		Status:  healthcheck.StatusOK,
		Summary: "Qdrant is reachable.",
	}
	if c.client == nil {
		item.Status = healthcheck.StatusWarn
		item.Summary = "Qdrant client is not configured."
		return []healthcheck.CheckResult{item}
	}
	reply, err := c.client.HealthCheck(ctx)
	if err != nil {
		item.Status = healthcheck.StatusWarn
		item.Summary = "Qdrant health check failed."
		item.Detail = err.Error()
		return []healthcheck.CheckResult{item}
	}
	item.Metadata = map[string]any{"version": reply.GetVersion()}
	return []healthcheck.CheckResult{item}
}
