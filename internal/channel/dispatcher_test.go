package channel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []OutboundMessage
	failAt int
}

func (s *recordingSender) Type() ChannelType { return ChannelTypeMessenger }

func (s *recordingSender) Descriptor() Descriptor {
	return Descriptor{Type: ChannelTypeMessenger, OutboundPolicy: OutboundPolicy{TextChunkLimit: 10}}
}

func (s *recordingSender) Send(_ context.Context, msg OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if s.failAt > 0 && len(s.sent) == s.failAt {
		return errors.New("graph api 500")
	}
	return nil
}

type inlineOnly struct{}

func (inlineOnly) Type() ChannelType { return ChannelTypeWidget }

func (inlineOnly) Descriptor() Descriptor {
	return Descriptor{Type: ChannelTypeWidget, Inline: true}
}

func newTestDispatcher(t *testing.T, sender *recordingSender) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(inlineOnly{})
	reg.MustRegister(sender)
	return NewDispatcher(nil, reg, time.Second)
}

func waitDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("deliveries did not finish: %v", err)
	}
}

func TestDispatchInlineReturnsText(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	d := newTestDispatcher(t, sender)
	delivery, err := d.Dispatch(context.Background(), OutboundMessage{Channel: ChannelTypeWidget, Target: "u1", Text: "hi there"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !delivery.Inline || delivery.Text != "hi there" || delivery.Queued {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
	waitDispatcher(t, d)
	if len(sender.sent) != 0 {
		t.Fatalf("inline reply must not be pushed")
	}
}

func TestDispatchPushesChunks(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	d := newTestDispatcher(t, sender)
	ctx, cancel := context.WithCancel(context.Background())
	delivery, err := d.Dispatch(ctx, OutboundMessage{Channel: ChannelTypeMessenger, Target: "psid", PageID: "p1", Text: "first line\nsecond one"})
	cancel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivery.Inline || !delivery.Queued {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
	waitDispatcher(t, d)
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(sender.sent))
	}
	for _, msg := range sender.sent {
		if msg.Target != "psid" || msg.PageID != "p1" || len([]rune(msg.Text)) > 10 {
			t.Fatalf("unexpected chunk: %+v", msg)
		}
	}
}

func TestDispatchSendFailureIsNotSurfaced(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{failAt: 1}
	d := newTestDispatcher(t, sender)
	_, err := d.Dispatch(context.Background(), OutboundMessage{Channel: ChannelTypeMessenger, Target: "psid", Text: "aaaaaaaa\nbbbbbbbb"})
	if err != nil {
		t.Fatalf("send failures must not surface: %v", err)
	}
	waitDispatcher(t, d)
	if len(sender.sent) != 1 {
		t.Fatalf("delivery should stop after the failed chunk, sent %d", len(sender.sent))
	}
}

func TestDispatchRoutingErrors(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t, &recordingSender{})
	if _, err := d.Dispatch(context.Background(), OutboundMessage{Channel: "sms", Text: "x"}); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
	if _, err := d.Dispatch(context.Background(), OutboundMessage{Channel: ChannelTypeWidget, Text: "  "}); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestDeliveryErrorUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("token expired")
	err := error(&DeliveryError{Channel: ChannelTypeMessenger, Target: "psid", Err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause")
	}
	var de *DeliveryError
	if !errors.As(err, &de) || !strings.Contains(err.Error(), "messenger") {
		t.Fatalf("unexpected error: %v", err)
	}
}

type defaultPolicySender struct {
	recordingSender
}

func (s *defaultPolicySender) Descriptor() Descriptor {
	return Descriptor{Type: ChannelTypeMessenger}
}

func TestDispatchFallsBackToDefaultChunkLimit(t *testing.T) {
	t.Parallel()

	sender := &defaultPolicySender{}
	reg := NewRegistry()
	reg.MustRegister(sender)
	d := NewDispatcher(nil, reg, time.Second)

	text := strings.Repeat("x", DefaultTextChunkLimit) + "\n" + strings.Repeat("y", 10)
	if _, err := d.Dispatch(context.Background(), OutboundMessage{Channel: ChannelTypeMessenger, Target: "u1", Text: text}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitDispatcher(t, d)
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 chunks at the default limit, got %d", len(sender.sent))
	}
}
