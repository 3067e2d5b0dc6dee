// Package flow runs one conversation turn end to end: resolve the chatbot,
// record the user message, retrieve context, complete, record the reply
// and dispatch it.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/completion"
	"github.com/ain9900/custom-chatbot-saas/internal/identity"
	"github.com/ain9900/custom-chatbot-saas/internal/memory"
	"github.com/ain9900/custom-chatbot-saas/internal/retrieval"
)

// State is a step of the turn pipeline.
type State string

const (
	StateResolving     State = "RESOLVING"
	StateMemoryReady   State = "MEMORY_READY"
	StateRetrieving    State = "RETRIEVING"
	StateCompleting    State = "COMPLETING"
	StateMemoryUpdated State = "MEMORY_UPDATED"
	StateDispatched    State = "DISPATCHED"
	StateFailed        State = "FAILED"
)

const (
	DefaultTopK              = 4
	DefaultRetrievalTimeout  = 3 * time.Second
	DefaultCompletionTimeout = 30 * time.Second
	AnonymousSender          = "anonymous"
)

type resolver interface {
	Resolve(ctx context.Context, req identity.Request) (identity.Binding, error)
}

type memoryStore interface {
	BeginTurn(ctx context.Context, chatbotID, endUserID, text string) (memory.Memory, bool, error)
	Append(ctx context.Context, chatbotID, endUserID string, role memory.Role, text string) (memory.Memory, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, msg channel.OutboundMessage) (channel.Delivery, error)
}

// Turn is one inbound message to answer.
type Turn struct {
	Channel     channel.ChannelType
	WebhookKey  string
	SenderID    string
	RecipientID string
	Text        string
	MessageID   string
}

// TurnFromInbound adapts a channel message.
func TurnFromInbound(msg channel.InboundMessage) Turn {
	return Turn{
		Channel:     msg.Channel,
		WebhookKey:  msg.WebhookKey,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Text:        msg.Text,
		MessageID:   msg.MessageID,
	}
}

// Result describes a finished or failed turn.
type Result struct {
	ChatbotID string           `json:"chatbot_id,omitempty"`
	EndUserID string           `json:"end_user_id"`
	Reply     string           `json:"reply,omitempty"`
	Delivery  channel.Delivery `json:"delivery"`
	Snippets  int              `json:"snippets"`
	Expired   bool             `json:"expired"`
	States    []State          `json:"states"`
}

// Options tunes retrieval and completion.
type Options struct {
	TopK              int
	RetrievalTimeout  time.Duration
	CompletionTimeout time.Duration
}

// Orchestrator is the channel-agnostic turn pipeline.
type Orchestrator struct {
	resolver   resolver
	memory     memoryStore
	retriever  retrieval.Retriever
	completer  completion.Completer
	dispatcher dispatcher
	opts       Options
	logger     *slog.Logger
}

// NewOrchestrator wires the turn pipeline. A nil retriever disables retrieval.
func NewOrchestrator(
	log *slog.Logger,
	resolver resolver,
	memory memoryStore,
	retriever retrieval.Retriever,
	completer completion.Completer,
	dispatcher dispatcher,
	opts Options,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if retriever == nil {
		retriever = retrieval.Noop{}
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = DefaultRetrievalTimeout
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = DefaultCompletionTimeout
	}
	return &Orchestrator{
		resolver:   resolver,
		memory:     memory,
		retriever:  retriever,
		completer:  completer,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     log.With(slog.String("service", "conversation_flow")),
	}
}

// HandleTurn answers one inbound message. The chatbot is resolved before the
// text is validated, so unknown webhooks report not-found first. Once the
// turn has started it is detached from ctx cancellation. The user message stays recorded even when
// completion fails.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn Turn) (Result, error) {
	text := strings.TrimSpace(turn.Text)
	endUser := strings.TrimSpace(turn.SenderID)
	if endUser == "" {
		endUser = AnonymousSender
	}
	result := Result{EndUserID: endUser}
	logger := o.logger.With(
		slog.String("channel", turn.Channel.String()),
		slog.String("end_user_id", endUser),
	)
	enter := func(state State) {
		result.States = append(result.States, state)
		logger.Debug("turn state", slog.String("state", string(state)))
	}
	fail := func(err error) (Result, error) {
		enter(StateFailed)
		return result, err
	}

	if o.resolver == nil || o.memory == nil || o.completer == nil || o.dispatcher == nil {
		return fail(fmt.Errorf("conversation flow not configured"))
	}
	ctx = context.WithoutCancel(ctx)

	enter(StateResolving)
	binding, err := o.resolver.Resolve(ctx, identity.Request{
		Channel:     turn.Channel,
		WebhookKey:  turn.WebhookKey,
		RecipientID: turn.RecipientID,
	})
	if err != nil {
		return fail(err)
	}
	if text == "" {
		return fail(ErrEmptyMessage)
	}
	bot := binding.Chatbot
	result.ChatbotID = bot.ID
	logger = logger.With(slog.String("chatbot_id", bot.ID))

	mem, expired, err := o.memory.BeginTurn(ctx, bot.ID, endUser, text)
	if err != nil {
		return fail(mapMemoryError(err))
	}
	result.Expired = expired
	enter(StateMemoryReady)

	enter(StateRetrieving)
	snippets := o.retrieve(ctx, logger, bot.VectorNamespace, text)
	result.Snippets = len(snippets)

	enter(StateCompleting)
	prompt := buildPrompt(bot.SystemPrompt, mem.RecentWindow(), snippets, text)
	completeCtx, cancel := context.WithTimeout(ctx, o.opts.CompletionTimeout)
	reply, err := o.completer.Complete(completeCtx, prompt)
	cancel()
	if err == nil && strings.TrimSpace(reply) == "" {
		err = completion.ErrEmptyReply
	}
	if err != nil {
		logger.Error("completion failed", slog.Any("error", err))
		return fail(&CompletionError{ChatbotID: bot.ID, Err: err})
	}
	result.Reply = reply

	if _, err := o.memory.Append(ctx, bot.ID, endUser, memory.RoleAssistant, reply); err != nil {
		return fail(mapMemoryError(err))
	}
	enter(StateMemoryUpdated)

	out := channel.OutboundMessage{
		Channel:   turn.Channel,
		ChatbotID: bot.ID,
		TenantID:  bot.TenantID,
		Target:    endUser,
		PageID:    turn.RecipientID,
		Text:      reply,
	}
	if binding.Page != nil {
		out.PageID = binding.Page.PageID
		out.Credential = binding.Page.AccessToken
	}
	delivery, err := o.dispatcher.Dispatch(ctx, out)
	if err != nil {
		return fail(fmt.Errorf("dispatch reply: %w", err))
	}
	result.Delivery = delivery
	enter(StateDispatched)
	return result, nil
}

// retrieve is best-effort: any failure yields no snippets.
func (o *Orchestrator) retrieve(ctx context.Context, logger *slog.Logger, namespace, query string) []string {
	if strings.TrimSpace(namespace) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.opts.RetrievalTimeout)
	defer cancel()
	snippets, err := o.retriever.Retrieve(ctx, namespace, query, o.opts.TopK)
	if err != nil {
		logger.Warn("retrieval failed, continuing without context", slog.Any("error", err))
		return nil
	}
	if len(snippets) > o.opts.TopK {
		snippets = snippets[:o.opts.TopK]
	}
	return snippets
}

func mapMemoryError(err error) error {
	if errors.Is(err, memory.ErrChatbotMissing) {
		return fmt.Errorf("%w: %w", identity.ErrChatbotNotFound, err)
	}
	return fmt.Errorf("conversation memory: %w", err)
}
