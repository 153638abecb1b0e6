package inbox

import "time"

// Sender tags who authored a message. The reconciler depends on this
// taxonomy: automated replies must never count as engagement.
type Sender string

const (
	// SenderCampaign marks campaign-originated outreach messages.
	SenderCampaign Sender = "campaign"
	// SenderBot marks automated (AI-authored) replies.
	SenderBot Sender = "bot"
	// SenderUser marks human replies from the contact.
	SenderUser Sender = "user"
)

// FromContact reports whether the message came from the contact themselves.
func (s Sender) FromContact() bool { return s == SenderUser }

// Message is one entry in a campaign's message log.
type Message struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	ContactID  string    `json:"contact_id" db:"contact_id"`
	Sender     Sender    `json:"sender" db:"sender"`
	Body       string    `json:"body" db:"body"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
