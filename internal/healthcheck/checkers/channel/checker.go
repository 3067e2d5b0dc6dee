package channelchecker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ain9900/custom-chatbot-saas/internal/channel"
	"github.com/ain9900/custom-chatbot-saas/internal/healthcheck"
)

const checkTypeChannelDelivery = "channel.delivery"

// Registry reads the registered channel adapters.
type Registry interface {
	Types() []channel.ChannelType
	GetDescriptor(channelType channel.ChannelType) (channel.Descriptor, bool)
	GetSender(channelType channel.ChannelType) (channel.Sender, bool)
}

// Checker reports whether every registered channel can deliver replies.
type Checker struct {
	logger   *slog.Logger
	registry Registry
}

// NewChecker creates a channel health checker.
func NewChecker(log *slog.Logger, registry Registry) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger:   log.With(slog.String("checker", "healthcheck_channel")),
		registry: registry,
	}
}

// ListChecks yields one item per registered channel type.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	if err := ctx.Err(); err != nil {
		return []healthcheck.CheckResult{}
	}
	if c.registry == nil {
		c.logger.Warn("channel healthcheck dependency is unavailable")
		return []healthcheck.CheckResult{
			{
				ID:      checkTypeChannelDelivery + ".registry",
				Type:    checkTypeChannelDelivery,
				Status:  healthcheck.StatusWarn,
				Summary: "Channel registry is not available.",
			},
		}
	}

	types := c.registry.Types()
	checks := make([]healthcheck.CheckResult, 0, len(types))
	for _, channelType := range types {
		desc, _ := c.registry.GetDescriptor(channelType)
		item := healthcheck.CheckResult{
			ID:     checkTypeChannelDelivery + "." + channelType.String(),
			Type:   checkTypeChannelDelivery,
			Status: healthcheck.StatusOK,
			Metadata: map[string]any{
				"channel_type": channelType.String(),
				"inline":       desc.Inline,
			},
		}
		switch {
		case desc.Inline:
			item.Summary = fmt.Sprintf("Channel %s replies inline.", channelType)
		default:
			if _, ok := c.registry.GetSender(channelType); ok {
				item.Summary = fmt.Sprintf("Channel %s can push replies.", channelType)
			} else {
				item.Status = healthcheck.StatusError
				item.Summary = fmt.Sprintf("Channel %s has no sender.", channelType)
			}
		}
		checks = append(checks, item)
	}
	return checks
}
