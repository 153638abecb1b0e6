package scripts

import (
	"context"
	"errors"
)

// ChatTurn is one exchange in a contact conversation, oldest first.
type ChatTurn struct {
	// FromContact is true for the contact's own messages, false for
	// campaign or bot messages.
	FromContact bool
	Body        string
}

// Generator produces campaign copy. Callers treat the output as an opaque
// string; all prompt and provider concerns live behind this interface.
type Generator interface {
	// CallScript writes a short spoken script for an automated call.
	CallScript(ctx context.Context, title, description string) (string, error)

	// ChatReply continues a contact conversation on behalf of the campaign.
	// History is ordered oldest first and must end with a contact message.
	ChatReply(ctx context.Context, title string, history []ChatTurn) (string, error)
}

var (
	ErrEmptyCampaign = errors.New("scripts: campaign title and description are required")
	ErrEmptyHistory  = errors.New("scripts: conversation history is required")
	ErrUnsafeContent = errors.New("scripts: content classified as unsafe")
)
