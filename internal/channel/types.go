// Package channel provides the abstraction shared by inbound channels (the
// embeddable widget and the messenger platform): message types, a registry
// of adapters and the outbound dispatcher.
package channel

import (
	"strings"
	"time"
)

// ChannelType identifies an inbound channel (e.g., "widget", "messenger").
type ChannelType string

const (
	ChannelTypeWidget    ChannelType = "widget"
	ChannelTypeMessenger ChannelType = "messenger"
)

// String returns the channel type as a plain string.
func (c ChannelType) String() string {
	return string(c)
}

func normalizeChannelType(raw string) ChannelType {
	return ChannelType(strings.ToLower(strings.TrimSpace(raw)))
}

// InboundMessage is one end-user message received from a channel.
type InboundMessage struct {
	Channel ChannelType
	// WebhookKey is the path identifier the event arrived on.
	WebhookKey string
	// SenderID is the end-user id on the channel.
	SenderID string
	// RecipientID is the page id for messenger events; empty for the widget.
	RecipientID string
	Text        string
	MessageID   string
	ReceivedAt  time.Time
}

// OutboundMessage is a reply addressed to one end user.
type OutboundMessage struct {
	Channel   ChannelType `json:"channel"`
	ChatbotID string      `json:"chatbot_id"`
	TenantID  string      `json:"tenant_id"`
	// Target is the end-user id the reply goes to.
	Target string `json:"target"`
	// PageID is the messenger page that sends the reply.
	PageID string `json:"page_id,omitempty"`
	// Credential is the decrypted page access token when the binding was
	// already resolved; adapters look it up by PageID otherwise.
	Credential string `json:"-"`
	Text       string `json:"text"`
}

// Delivery describes how a reply left the system.
type Delivery struct {
	Channel ChannelType `json:"channel"`
	// Inline is true when the caller must return Text in its own response.
	Inline bool   `json:"inline"`
	Text   string `json:"text,omitempty"`
	// Queued is true when the reply was handed to an asynchronous sender.
	Queued bool `json:"queued"`
}
