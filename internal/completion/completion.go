package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ain9900/custom-chatbot-saas/internal/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrUnavailable = errors.New("completion backend unavailable")
	ErrEmptyReply  = errors.New("completion returned an empty reply")
)

// Message is one prompt message in chat-completion form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces the assistant reply for an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// New builds the Completer selected by cfg.Provider.
func New(log *slog.Logger, cfg config.CompletionConfig) (Completer, error) {
	if log == nil {
		log = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.CompletionProviderMock:
		log.Warn("completion provider is mock, replies are canned")
		return NewMock(cfg.MockReply), nil
	case config.CompletionProviderOpenAI, "":
		return NewOpenAIClient(log, OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     config.Duration(cfg.Timeout, 30*time.Second),
		}), nil
	default:
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
	}
}
