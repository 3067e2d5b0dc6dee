package memory

import (
	"context"
	"errors"
	"time"
)

// Role identifies who authored a window entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	DefaultWindowSize = 6
	DefaultExpiry     = 72 * time.Hour
)

var (
	// ErrChatbotMissing is returned when the owning chatbot no longer exists.
	ErrChatbotMissing = errors.New("chatbot missing for conversation memory")
	// ErrNotFound is returned by read-only lookups for a pair with no window yet.
	ErrNotFound = errors.New("conversation memory not found")
	// ErrInvalidRole rejects roles other than user and assistant.
	ErrInvalidRole = errors.New("invalid message role")
)

// Entry is one message in a conversation window.
type Entry struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// Memory is the bounded window kept for a (chatbot, end user) pair.
type Memory struct {
	ChatbotID string    `json:"chatbot_id"`
	EndUserID string    `json:"end_user_id"`
	Messages  []Entry   `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecentWindow returns a copy of the window, oldest first.
func (m Memory) RecentWindow() []Entry {
	out := make([]Entry, len(m.Messages))
	copy(out, m.Messages)
	return out
}

// Expired reports whether the window has been idle longer than threshold.
func (m Memory) Expired(now time.Time, threshold time.Duration) bool {
	if m.UpdatedAt.IsZero() || threshold <= 0 {
		return false
	}
	return now.Sub(m.UpdatedAt) > threshold
}

// append adds e and drops entries from the front until at most limit remain.
func (m *Memory) append(e Entry, limit int) {
	m.Messages = append(m.Messages, e)
	if limit > 0 && len(m.Messages) > limit {
		trimmed := make([]Entry, limit)
		copy(trimmed, m.Messages[len(m.Messages)-limit:])
		m.Messages = trimmed
	}
	m.UpdatedAt = e.Time
}

func (m *Memory) clear(now time.Time) {
	m.Messages = []Entry{}
	m.UpdatedAt = now
}

// Mutation edits a locked window in place and reports whether it changed.
type Mutation func(m *Memory) (bool, error)

// Store persists conversation windows. Update must serialise concurrent
// callers for the same pair and create the window when it does not exist.
type Store interface {
	Update(ctx context.Context, chatbotID, endUserID string, fn Mutation) (Memory, error)
	Get(ctx context.Context, chatbotID, endUserID string) (Memory, error)
	ClearIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}
