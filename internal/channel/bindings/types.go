package bindings

import "time"

// Binding links an external messenger page to a tenant.
type Binding struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ChannelType string    `json:"channel_type"`
	PageID      string    `json:"page_id"`
	PageName    string    `json:"page_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// AccessToken is the decrypted page credential. Only lookups used for
	// delivery populate it.
	AccessToken string `json:"-"`
}

// CreateRequest is the input for binding a page.
type CreateRequest struct {
	PageID      string `json:"page_id" validate:"required,max=128"`
	PageName    string `json:"page_name,omitempty" validate:"max=255"`
	AccessToken string `json:"access_token" validate:"required"`
}

// ListResponse wraps a list of bindings.
type ListResponse struct {
	Items []Binding `json:"items"`
}
