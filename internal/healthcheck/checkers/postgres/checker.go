package postgreschecker

import (
	"context"

	"github.com/ain9900/custom-chatbot-saas/internal/healthcheck"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Checker struct {
	pool Pinger
}

func NewChecker(pool Pinger) *Checker {
	return &Checker{pool: pool}
}

func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	item := healthcheck.CheckResult{
		ID:      "postgres",
		Type:    "storage.postgres",
		Status:  healthcheck.StatusOK,
		Summary: "Postgres is reachable.",
	}
	if c.pool == nil {
		item.Status = healthcheck.StatusError
		item.Summary = "Postgres pool is not configured."
		return []healthcheck.CheckResult{item}
	}
	if err := c.pool.Ping(ctx); err != nil {
		item.Status = healthcheck.StatusError
		item.Summary = "Postgres ping failed."
		item.Detail = err.Error()
	}
	return []healthcheck.CheckResult{item}
}
