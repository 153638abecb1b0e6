package analytics

import (
	"time"

	"outreach-platform/internal/campaigns"
)

// CallWindow is the provider call-log lookback used for reconciliation.
const CallWindow = 24 * time.Hour

// ContactEngagement is the per-contact view derived from the message log on
// every analytics read. It is never persisted; the message log stays the
// single source of truth.
type ContactEngagement struct {
	ContactID string `json:"contact_id"`

	ReceivedMessage bool `json:"received_message"`
	OpenedChat      bool `json:"opened_chat"`
	Replied         bool `json:"replied"`

	HumanReplies int `json:"human_replies"`
	BotReplies   int `json:"bot_replies"`
}

// Snapshot is the campaign-wide engagement picture, suitable for direct
// display. Call counters come from the provider call log when reachable,
// from the callStats cache otherwise, and are zero when neither exists.
type Snapshot struct {
	CampaignID string           `json:"campaign_id"`
	Title      string           `json:"title,omitempty"`
	Status     campaigns.Status `json:"status,omitempty"`

	TotalContacts           int `json:"total_contacts"`
	ContactsReceivedMessage int `json:"contacts_received_message"`
	ContactsOpenedChat      int `json:"contacts_opened_chat"`
	ContactsReplied         int `json:"contacts_replied"`
	ContactsNotInteracted   int `json:"contacts_not_interacted"`

	DeliveryRate int `json:"delivery_rate"`
	ResponseRate int `json:"response_rate"`

	VoiceCalls             int `json:"voice_calls"`
	VoiceCallsAnswered     int `json:"voice_calls_answered"`
	VoiceCallsMissed       int `json:"voice_calls_missed"`
	VoiceCallsAnsweredRate int `json:"voice_calls_answered_rate"`

	TextInteractions int `json:"text_interactions"`
	AIResponses      int `json:"ai_responses_count"`

	Channels campaigns.Channels `json:"channels"`

	// EngagementScore counts only message-log human replies, never calls:
	// an answered call alone is not a meaningful interaction.
	EngagementScore int `json:"engagement_score"`

	TotalConversations int `json:"total_conversations"`
	TotalMessages      int `json:"total_messages"`

	GeneratedAt time.Time `json:"generated_at"`
}
