package completion

import (
	"context"
	"strings"
)

// Mock returns a canned reply. With no canned reply it echoes the last user
// message, which keeps local runs and tests deterministic.
type Mock struct {
	Reply string
}

func NewMock(reply string) *Mock {
	return &Mock{Reply: strings.TrimSpace(reply)}
}

var _ Completer = (*Mock)(nil)

func (m *Mock) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return "You said: " + messages[i].Content, nil
		}
	}
	return "Hello!", nil
}
