package postgreschecker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ain9900/custom-chatbot-saas/internal/healthcheck"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestCheckerListChecks(t *testing.T) {
	t.Parallel()

	items := NewChecker(fakePinger{}).ListChecks(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, healthcheck.StatusOK, items[0].Status)

	items = NewChecker(fakePinger{err: errors.New("connection refused")}).ListChecks(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, healthcheck.StatusError, items[0].Status)
	assert.Equal(t, "connection refused", items[0].Detail)

	items = NewChecker(nil).ListChecks(context.Background())
	assert.Equal(t, healthcheck.StatusError, items[0].Status)
}
