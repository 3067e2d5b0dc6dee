package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/ain9900/custom-chatbot-saas/internal/bots"
	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/channel/bindings"
)

type fakeChatbots struct {
	// byKey holds only active chatbots, like the store query.
	byKey    map[string]bots.Chatbot
	byTenant map[string]bots.Chatbot
	err      error
	calls    int
}

func (f *fakeChatbots) GetActiveByWebhookKey(_ context.Context, key string) (bots.Chatbot, error) {
	f.calls++
	if f.err != nil {
		return bots.Chatbot{}, f.err
	}
	bot, ok := f.byKey[key]
	if !ok || !bot.IsActive {
		return bots.Chatbot{}, bots.ErrChatbotNotFound
	}
	return bot, nil
}

func (f *fakeChatbots) LatestActiveForTenant(_ context.Context, tenantID string) (bots.Chatbot, error) {
	bot, ok := f.byTenant[tenantID]
	if !ok || !bot.IsActive {
		return bots.Chatbot{}, bots.ErrChatbotNotFound
	}
	return bot, nil
}

type fakePages struct {
	pages map[string]bindings.Binding
	err   error
}

func (f *fakePages) GetByPageID(_ context.Context, _ channel.ChannelType, pageID string) (bindings.Binding, error) {
	if f.err != nil {
		return bindings.Binding{}, f.err
	}
	page, ok := f.pages[pageID]
	if !ok {
		return bindings.Binding{}, bindings.ErrBindingNotFound
	}
	return page, nil
}

func newFixture() (*fakeChatbots, *fakePages) {
	chatbots := &fakeChatbots{
		byKey: map[string]bots.Chatbot{
			"live":    {ID: "bot-live", TenantID: "t1", IsActive: true},
			"dormant": {ID: "bot-dormant", TenantID: "t1", IsActive: false},
		},
		byTenant: map[string]bots.Chatbot{
			"t1": {ID: "bot-latest", TenantID: "t1", IsActive: true},
			"t2": {ID: "bot-off", TenantID: "t2", IsActive: false},
		},
	}
	pages := &fakePages{pages: map[string]bindings.Binding{
		"page-1": {PageID: "page-1", TenantID: "t1", AccessToken: "tok"},
		"page-2": {PageID: "page-2", TenantID: "t2"},
	}}
	return chatbots, pages
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      Request
		wantBot  string
		wantPage bool
		wantErr  error
	}{
		{name: "webhook key wins", req: Request{Channel: channel.ChannelTypeMessenger, WebhookKey: "live", RecipientID: "page-1"}, wantBot: "bot-live"},
		{name: "widget by key", req: Request{Channel: channel.ChannelTypeWidget, WebhookKey: "live"}, wantBot: "bot-live"},
		{name: "inactive never resolved", req: Request{Channel: channel.ChannelTypeWidget, WebhookKey: "dormant"}, wantErr: ErrChatbotNotFound},
		{name: "messenger page fallback", req: Request{Channel: channel.ChannelTypeMessenger, WebhookKey: "unknown", RecipientID: "page-1"}, wantBot: "bot-latest", wantPage: true},
		{name: "widget never uses pages", req: Request{Channel: channel.ChannelTypeWidget, WebhookKey: "unknown", RecipientID: "page-1"}, wantErr: ErrChatbotNotFound},
		{name: "unbound page", req: Request{Channel: channel.ChannelTypeMessenger, WebhookKey: "unknown", RecipientID: "page-9"}, wantErr: ErrChatbotNotFound},
		{name: "tenant without active chatbot", req: Request{Channel: channel.ChannelTypeMessenger, WebhookKey: "unknown", RecipientID: "page-2"}, wantErr: ErrChatbotNotFound},
		{name: "messenger without recipient", req: Request{Channel: channel.ChannelTypeMessenger, WebhookKey: "unknown"}, wantErr: ErrChatbotNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			chatbots, pages := newFixture()
			r := NewResolver(nil, chatbots, pages)
			got, err := r.Resolve(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				var resErr *ResolutionError
				if !errors.As(err, &resErr) {
					t.Fatalf("expected ResolutionError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Chatbot.ID != tt.wantBot {
				t.Fatalf("resolved %q, want %q", got.Chatbot.ID, tt.wantBot)
			}
			if (got.Page != nil) != tt.wantPage {
				t.Fatalf("page binding presence = %v, want %v", got.Page != nil, tt.wantPage)
			}
			if tt.wantPage && got.Page.AccessToken != "tok" {
				t.Fatalf("expected page credential on binding")
			}
		})
	}
}

func TestResolveStoreFailureIsNotNotFound(t *testing.T) {
	t.Parallel()

	chatbots, pages := newFixture()
	chatbots.err = errors.New("connection refused")
	r := NewResolver(nil, chatbots, pages)
	_, err := r.Resolve(context.Background(), Request{Channel: channel.ChannelTypeWidget, WebhookKey: "live"})
	if err == nil || errors.Is(err, ErrChatbotNotFound) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestResolveWithoutBindingStore(t *testing.T) {
	t.Parallel()

	chatbots, _ := newFixture()
	r := NewResolver(nil, chatbots, nil)
	_, err := r.Resolve(context.Background(), Request{Channel: channel.ChannelTypeMessenger, WebhookKey: "x", RecipientID: "page-1"})
	if !errors.Is(err, ErrChatbotNotFound) {
		t.Fatalf("expected ErrChatbotNotFound, got %v", err)
	}
}
