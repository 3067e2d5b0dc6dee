package channelchecker

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/healthcheck"
)

type fakeRegistry struct {
	descs   map[channel.ChannelType]channel.Descriptor
	senders map[channel.ChannelType]channel.Sender
}

func (f *fakeRegistry) Types() []channel.ChannelType {
	return []channel.ChannelType{channel.ChannelTypeMessenger, channel.ChannelTypeWidget}
}

func (f *fakeRegistry) GetDescriptor(t channel.ChannelType) (channel.Descriptor, bool) {
	d, ok := f.descs[t]
	return d, ok
}

func (f *fakeRegistry) GetSender(t channel.ChannelType) (channel.Sender, bool) {
	s, ok := f.senders[t]
	return s, ok
}

type nopSender struct{}

func (nopSender) Send(context.Context, channel.OutboundMessage) error { return nil }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckerListChecks(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{
		descs: map[channel.ChannelType]channel.Descriptor{
			channel.ChannelTypeWidget:    {Type: channel.ChannelTypeWidget, Inline: true},
			channel.ChannelTypeMessenger: {Type: channel.ChannelTypeMessenger},
		},
		senders: map[channel.ChannelType]channel.Sender{},
	}
	checker := NewChecker(newTestLogger(), reg)

	items := checker.ListChecks(context.Background())
	require.Len(t, items, 2)
	assert.Equal(t, "channel.delivery.messenger", items[0].ID)
	assert.Equal(t, healthcheck.StatusError, items[0].Status)
	assert.Equal(t, healthcheck.StatusOK, items[1].Status)

	reg.senders[channel.ChannelTypeMessenger] = nopSender{}
	items = checker.ListChecks(context.Background())
	assert.Equal(t, healthcheck.StatusOK, items[0].Status)
}

func TestCheckerWithoutRegistry(t *testing.T) {
	t.Parallel()

	items := NewChecker(newTestLogger(), nil).ListChecks(context.Background())
	require.Len(t, items, 1)
	assert.Equal(t, healthcheck.StatusWarn, items[0].Status)
}

func TestCheckerCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, NewChecker(newTestLogger(), &fakeRegistry{}).ListChecks(ctx))
}
