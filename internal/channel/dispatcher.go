package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultDispatchTimeout bounds one asynchronous delivery.
const DefaultDispatchTimeout = 30 * time.Second

var (
	ErrUnknownChannel = errors.New("unknown channel type")
	ErrNoSender       = errors.New("channel has no sender")
	ErrEmptyReply     = errors.New("reply text is empty")
)

// DeliveryError reports a failed push to a platform. It is logged and
// never retried.
type DeliveryError struct {
	Channel ChannelType
	Target  string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s reply to %s: %v", e.Channel, e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Dispatcher routes a finished reply to the adapter of its channel. Inline
// channels get the text back; sending channels are pushed in the background.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(log *slog.Logger, registry *Registry, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Dispatcher{
		registry: registry,
		timeout:  timeout,
		logger:   log.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch delivers msg. Only routing problems are returned; platform send
// failures are logged as DeliveryError by the background sender.
func (d *Dispatcher) Dispatch(ctx context.Context, msg OutboundMessage) (Delivery, error) {
	if d.registry == nil {
		return Delivery{}, fmt.Errorf("channel registry not configured")
	}
	desc, ok := d.registry.GetDescriptor(msg.Channel)
	if !ok {
		return Delivery{}, fmt.Errorf("%w: %s", ErrUnknownChannel, msg.Channel)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return Delivery{}, ErrEmptyReply
	}
	if desc.Inline {
		return Delivery{Channel: desc.Type, Inline: true, Text: msg.Text}, nil
	}
	sender, ok := d.registry.GetSender(msg.Channel)
	if !ok {
		return Delivery{}, fmt.Errorf("%w: %s", ErrNoSender, msg.Channel)
	}
	policy, _ := d.registry.GetOutboundPolicy(msg.Channel)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.send(sendCtx, sender, msg, policy); err != nil {
			d.logger.Error("reply delivery failed",
				slog.String("channel", msg.Channel.String()),
				slog.String("chatbot_id", msg.ChatbotID),
				slog.String("target", msg.Target),
				slog.Any("error", err),
			)
		}
	}()
	return Delivery{Channel: desc.Type, Queued: true}, nil
}

func (d *Dispatcher) send(ctx context.Context, sender Sender, msg OutboundMessage, policy OutboundPolicy) error {
	for i, chunk := range policy.Chunker(msg.Text, policy.TextChunkLimit) {
		part := msg
		part.Text = chunk
		if err := sender.Send(ctx, part); err != nil {
			return &DeliveryError{
				Channel: msg.Channel,
				Target:  msg.Target,
				Err:     fmt.Errorf("chunk %d: %w", i+1, err),
			}
		}
	}
	return nil
}

// Wait blocks until in-flight deliveries finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
