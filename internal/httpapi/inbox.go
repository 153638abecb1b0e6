package httpapi

import (
	"context"
	"net/http"

	"outreach-platform/internal/campaigns"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/scripts"
	"outreach-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// --- Inbox (protected) ---

func (h Handlers) ListMessages(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if h.Inbox == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inbox not configured"})
		return
	}

	campaignID := c.Param("campaign_id")
	if _, err := h.Campaigns.GetByID(c.Request.Context(), ownerID, campaignID); err != nil {
		fail(c, err)
		return
	}

	msgs, err := h.Inbox.ListByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendMessageRequest struct {
	ContactID string `json:"contact_id"`
	Body      string `json:"body"`
}

// SendMessage appends a campaign-authored message to a contact thread.
func (h Handlers) SendMessage(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if h.Inbox == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inbox not configured"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.ContactID == "" || req.Body == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "contact_id, body required"})
		return
	}

	campaignID := c.Param("campaign_id")
	if _, err := h.Campaigns.GetByID(c.Request.Context(), ownerID, campaignID); err != nil {
		fail(c, err)
		return
	}

	msg, err := h.Inbox.Append(c.Request.Context(), inbox.Message{
		CampaignID: campaignID,
		ContactID:  req.ContactID,
		Sender:     inbox.SenderCampaign,
		Body:       req.Body,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// --- Inbound webhook (public) ---

type inboundMessageRequest struct {
	CampaignID string `json:"campaign_id"`
	ContactID  string `json:"contact_id"`
	Body       string `json:"body"`
}

// InboundMessage records a contact's reply and, when the campaign has the
// text channel enabled, generates an automated response. Reply generation is
// best-effort: its failures are logged and the webhook still acks, because
// the provider would otherwise retry and duplicate the contact's message.
func (h Handlers) InboundMessage(c *gin.Context) {
	if h.Inbox == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inbox not configured"})
		return
	}

	var req inboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.CampaignID == "" || req.ContactID == "" || req.Body == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "campaign_id, contact_id, body required"})
		return
	}

	if _, err := h.Inbox.Append(c.Request.Context(), inbox.Message{
		CampaignID: req.CampaignID,
		ContactID:  req.ContactID,
		Sender:     inbox.SenderUser,
		Body:       req.Body,
	}); err != nil {
		fail(c, err)
		return
	}

	h.botReply(c, req.CampaignID, req.ContactID)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (h Handlers) botReply(c *gin.Context, campaignID, contactID string) {
	if h.Scripts == nil {
		return
	}
	log := logger.FromGin(c).With("campaign_id", campaignID, "contact_id", contactID)
	ctx := c.Request.Context()

	camp, ok := h.inboundCampaign(ctx, campaignID)
	if !ok || !camp.Channels.Text {
		return
	}

	msgs, err := h.Inbox.ListByCampaign(ctx, campaignID)
	if err != nil {
		log.Warn("bot reply skipped, message log unavailable", "err", err)
		return
	}
	history := contactHistory(msgs, contactID)

	reply, err := h.Scripts.ChatReply(ctx, camp.Title, history)
	if err != nil {
		log.Warn("bot reply generation failed", "err", err)
		return
	}
	if _, err := h.Inbox.Append(ctx, inbox.Message{
		CampaignID: campaignID,
		ContactID:  contactID,
		Sender:     inbox.SenderBot,
		Body:       reply,
	}); err != nil {
		log.Warn("bot reply not recorded", "err", err)
	}
}

// inboundCampaign resolves a campaign without an owner: the webhook caller
// is the messaging provider, not a user. Replies only arrive for campaigns
// that have gone out, so the launched set is the lookup universe.
func (h Handlers) inboundCampaign(ctx context.Context, campaignID string) (campaigns.Campaign, bool) {
	if h.Campaigns == nil {
		return campaigns.Campaign{}, false
	}
	launched, err := h.Campaigns.ListLaunched(ctx)
	if err != nil {
		return campaigns.Campaign{}, false
	}
	for _, camp := range launched {
		if camp.ID == campaignID {
			return camp, true
		}
	}
	return campaigns.Campaign{}, false
}

func contactHistory(msgs []inbox.Message, contactID string) []scripts.ChatTurn {
	var history []scripts.ChatTurn
	for _, m := range msgs {
		if m.ContactID != contactID {
			continue
		}
		history = append(history, scripts.ChatTurn{
			FromContact: m.Sender.FromContact(),
			Body:        m.Body,
		})
	}
	return history
}
