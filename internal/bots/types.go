package bots

import "time"

// Chatbot is a tenant-owned bot reachable through its webhook key.
type Chatbot struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	Name            string    `json:"name"`
	WebhookKey      string    `json:"webhook_key"`
	WebhookSecret   string    `json:"webhook_secret"`
	SystemPrompt    string    `json:"system_prompt"`
	VectorNamespace string    `json:"vector_namespace"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateChatbotRequest is the input for creating a chatbot.
type CreateChatbotRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	SystemPrompt  string   `json:"system_prompt,omitempty" validate:"max=20000"`
	IsActive      *bool    `json:"is_active,omitempty"`
	DocumentTexts []string `json:"document_texts,omitempty" validate:"max=100,dive,max=200000"`
}

// UpdateChatbotRequest is the input for updating a chatbot.
type UpdateChatbotRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	SystemPrompt *string `json:"system_prompt,omitempty" validate:"omitempty,max=20000"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// IngestRequest carries raw document texts to index for a chatbot.
type IngestRequest struct {
	DocumentTexts []string `json:"document_texts" validate:"required,min=1,max=100,dive,max=200000"`
}

// IngestionResult reports what happened to documents submitted with a
// chatbot. A failed ingestion never fails chatbot creation.
type IngestionResult struct {
	Attempted      bool   `json:"attempted"`
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ChunksIngested int    `json:"chunks_ingested"`
}

// CreateResult pairs the new chatbot with its ingestion outcome.
type CreateResult struct {
	Chatbot   Chatbot         `json:"chatbot"`
	Ingestion IngestionResult `json:"ingestion"`
}

// ListChatbotsResponse wraps a list of chatbots.
type ListChatbotsResponse struct {
	Items []Chatbot `json:"items"`
}
