// Package identity maps an inbound event to the chatbot that should answer it.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ain9900/custom-chatbot-saas/internal/bots"
	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/channel/bindings"
)

// ErrChatbotNotFound means no active chatbot owns the event.
var ErrChatbotNotFound = errors.New("chatbot not found")

// ResolutionError wraps a failed resolution with the identifiers involved.
type ResolutionError struct {
	Channel     channel.ChannelType
	WebhookKey  string
	RecipientID string
	Err         error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s event (key %q, recipient %q): %v", e.Channel, e.WebhookKey, e.RecipientID, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

type chatbotStore interface {
	GetActiveByWebhookKey(ctx context.Context, key string) (bots.Chatbot, error)
	LatestActiveForTenant(ctx context.Context, tenantID string) (bots.Chatbot, error)
}

type bindingStore interface {
	GetByPageID(ctx context.Context, channelType channel.ChannelType, pageID string) (bindings.Binding, error)
}

// Request identifies the event to resolve.
type Request struct {
	Channel     channel.ChannelType
	WebhookKey  string
	RecipientID string
}

// Binding is the resolved target of an event.
type Binding struct {
	Chatbot bots.Chatbot
	// Page is set when the chatbot was found through a messenger page binding.
	Page *bindings.Binding
}

// Resolver looks up chatbots by webhook key, then by page binding.
type Resolver struct {
	chatbots chatbotStore
	bindings bindingStore
	logger   *slog.Logger
}

// NewResolver creates a resolver. pages may be nil when no messenger
// bindings exist.
func NewResolver(log *slog.Logger, chatbots chatbotStore, pages bindingStore) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		chatbots: chatbots,
		bindings: pages,
		logger:   log.With(slog.String("component", "identity")),
	}
}

// NewServiceResolver is a DI-friendly constructor using the concrete stores.
func NewServiceResolver(log *slog.Logger, chatbots *bots.Service, pages *bindings.Service) *Resolver {
	return NewResolver(log, chatbots, pages)
}

// Resolve returns the active chatbot for req. A webhook key match wins;
// messenger events fall back to the page binding's tenant, whose most
// recently created active chatbot answers.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Binding, error) {
	if r.chatbots == nil {
		return Binding{}, fmt.Errorf("chatbot store not configured")
	}
	fail := func(err error) (Binding, error) {
		return Binding{}, &ResolutionError{
			Channel:     req.Channel,
			WebhookKey:  req.WebhookKey,
			RecipientID: req.RecipientID,
			Err:         err,
		}
	}

	bot, err := r.chatbots.GetActiveByWebhookKey(ctx, req.WebhookKey)
	if err == nil {
		return Binding{Chatbot: bot}, nil
	}
	if !errors.Is(err, bots.ErrChatbotNotFound) {
		return fail(err)
	}
	if req.Channel != channel.ChannelTypeMessenger || r.bindings == nil || strings.TrimSpace(req.RecipientID) == "" {
		return fail(ErrChatbotNotFound)
	}

	page, err := r.bindings.GetByPageID(ctx, channel.ChannelTypeMessenger, req.RecipientID)
	if err != nil {
		if errors.Is(err, bindings.ErrBindingNotFound) {
			return fail(ErrChatbotNotFound)
		}
		return fail(err)
	}
	bot, err = r.chatbots.LatestActiveForTenant(ctx, page.TenantID)
	if err != nil {
		if errors.Is(err, bots.ErrChatbotNotFound) {
			return fail(ErrChatbotNotFound)
		}
		return fail(err)
	}
	r.logger.Debug("resolved by page binding",
		slog.String("page_id", page.PageID),
		slog.String("chatbot_id", bot.ID),
	)
	return Binding{Chatbot: bot, Page: &page}, nil
}
