// Package messenger implements the messenger platform channel: the page
// webhook, signature checks and replies through the Graph send API.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/channel/bindings"
)

// Type is the registered channel type for messenger.
const Type = channel.ChannelTypeMessenger

type pageLookup interface {
	GetByPageID(ctx context.Context, channelType channel.ChannelType, pageID string) (bindings.Binding, error)
}

type textSender interface {
	SendText(ctx context.Context, pageID, accessToken, recipientID, text string) error
}

// ErrForeignPage rejects a reply whose page belongs to another tenant.
var ErrForeignPage = errors.New("page is bound to another tenant")

// Adapter sends replies to messenger users.
type Adapter struct {
	graph     textSender
	pages     pageLookup
	textLimit int
	logger    *slog.Logger
}

// NewAdapter creates the messenger adapter. pages resolves the credential
// when a reply arrives without one.
func NewAdapter(log *slog.Logger, graph textSender, pages pageLookup, textLimit int) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	if textLimit <= 0 {
		textLimit = channel.DefaultTextChunkLimit
	}
	return &Adapter{
		graph:     graph,
		pages:     pages,
		textLimit: textLimit,
		logger:    log.With(slog.String("adapter", "messenger")),
	}
}

func (a *Adapter) Type() channel.ChannelType {
	return Type
}

func (a *Adapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Type:        Type,
		DisplayName: "Messenger",
		OutboundPolicy: channel.OutboundPolicy{
			TextChunkLimit: a.textLimit,
			Chunker:        channel.ChunkText,
		},
	}
}

// Send pushes one message chunk to the end user.
func (a *Adapter) Send(ctx context.Context, msg channel.OutboundMessage) error {
	if a.graph == nil {
		return fmt.Errorf("messenger graph client not configured")
	}
	pageID := strings.TrimSpace(msg.PageID)
	if pageID == "" {
		return fmt.Errorf("reply for %s has no page id", msg.Target)
	}
	token := msg.Credential
	if strings.TrimSpace(token) == "" {
		if a.pages == nil {
			return fmt.Errorf("no binding store to look up page %s", pageID)
		}
		page, err := a.pages.GetByPageID(ctx, Type, pageID)
		if err != nil {
			return fmt.Errorf("look up page %s: %w", pageID, err)
		}
		// A page may only carry replies of its own tenant's chatbots.
		if page.TenantID != msg.TenantID {
			return fmt.Errorf("%w: page %s, chatbot %s", ErrForeignPage, pageID, msg.ChatbotID)
		}
		token = page.AccessToken
	}
	return a.graph.SendText(ctx, pageID, token, msg.Target, msg.Text)
}
