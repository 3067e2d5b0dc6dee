// Package widget implements the embeddable web widget channel. Replies are
// returned inline in the webhook response.
package widget

import "github.com/ain9900/custom-chatbot-saas/internal/channel"

// Type is the registered channel type for the widget.
const Type = channel.ChannelTypeWidget

// Adapter registers the widget as an inline channel.
type Adapter struct{}

// NewAdapter creates the widget adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Type() channel.ChannelType {
	return Type
}

func (a *Adapter) Descriptor() channel.Descriptor {
	return channel.Descriptor{
		Type:        Type,
		DisplayName: "Web widget",
		Inline:      true,
	}
}
