package flow

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage rejects turns without text.
var ErrEmptyMessage = errors.New("message is required")

// CompletionError means the model call failed; the turn produced no reply.
type CompletionError struct {
	ChatbotID string
	Err       error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion for chatbot %s: %v", e.ChatbotID, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
