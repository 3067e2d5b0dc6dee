package channel

import "context"

// Adapter is the base interface every channel adapter must implement.
type Adapter interface {
	Type() ChannelType
	Descriptor() Descriptor
}

// Descriptor holds read-only metadata for a registered channel type.
type Descriptor struct {
	Type        ChannelType
	DisplayName string
	// Inline channels return the reply in the inbound HTTP response and
	// never go through a Sender.
	Inline         bool
	OutboundPolicy OutboundPolicy
}

// Sender is an adapter capable of pushing one outbound message to the platform.
type Sender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}
