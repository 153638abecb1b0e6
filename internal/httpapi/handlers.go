package httpapi

import (
	"errors"
	"net/http"
	"time"

	"outreach-platform/internal/activity"
	"outreach-platform/internal/analytics"
	"outreach-platform/internal/auth"
	"outreach-platform/internal/campaigns"
	"outreach-platform/internal/contacts"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/scripts"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Campaigns campaigns.Repository
	Launcher  *campaigns.Launcher
	Analytics *analytics.Service
	Inbox     inbox.Repository
	Scripts   scripts.Generator
	Activity  *activity.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT access token.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	tok, err := h.Auth.Issue(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok})
}

// --- Campaigns ---

type createCampaignRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Channels    campaigns.Channels `json:"channels"`
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Title == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	created, err := h.Campaigns.Create(c.Request.Context(), campaigns.Campaign{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Channels:    req.Channels,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h Handlers) ListCampaigns(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	list, err := h.Campaigns.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": list})
}

func (h Handlers) GetCampaign(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	out, err := h.Campaigns.GetByID(c.Request.Context(), ownerID, c.Param("campaign_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Script generation ---

// GenerateScript writes a fresh call script for the campaign and persists it.
func (h Handlers) GenerateScript(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if h.Scripts == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "script generator not configured"})
		return
	}

	campaignID := c.Param("campaign_id")
	camp, err := h.Campaigns.GetByID(c.Request.Context(), ownerID, campaignID)
	if err != nil {
		fail(c, err)
		return
	}

	script, err := h.Scripts.CallScript(c.Request.Context(), camp.Title, camp.Description)
	if err != nil {
		if errors.Is(err, scripts.ErrUnsafeContent) || errors.Is(err, scripts.ErrEmptyCampaign) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "script generation failed"})
		return
	}

	if err := h.Campaigns.SetCallScript(c.Request.Context(), ownerID, campaignID, script); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_script": script})
}

// --- Contact upload ---

// UploadContacts accepts a CSV file (multipart field "file") and replaces
// the campaign's contact list.
func (h Handlers) UploadContacts(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "csv file required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	records, err := contacts.ParseCSV(f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list := contacts.ToContacts(records)

	if err := h.Campaigns.SetContacts(c.Request.Context(), ownerID, c.Param("campaign_id"), list); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": len(list)})
}

// --- Launch ---

func (h Handlers) LaunchCalls(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if h.Launcher == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "launcher not configured"})
		return
	}

	// A paced batch runs for minutes, so the handler only starts it; the
	// batch outcome lands on the campaign record and the activity log.
	started, err := h.Launcher.StartCalls(c.Request.Context(), ownerID, c.Param("campaign_id"))
	if err != nil {
		switch {
		case errors.Is(err, campaigns.ErrLaunchInProgress):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "launch already in progress"})
		case errors.Is(err, campaigns.ErrCallsDisabled),
			errors.Is(err, campaigns.ErrNoCallScript),
			errors.Is(err, campaigns.ErrNoDialableNumbers):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			fail(c, err)
		}
		return
	}
	c.JSON(http.StatusAccepted, started)
}

// --- Analytics ---

func (h Handlers) CampaignAnalytics(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if h.Analytics == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analytics not configured"})
		return
	}
	snap, err := h.Analytics.CampaignSnapshot(c.Request.Context(), ownerID, c.Param("campaign_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- Activity ---

func (h Handlers) ListActivity(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if h.Activity == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "activity log not configured"})
		return
	}

	// Ownership check happens on the campaign, not the log.
	campaignID := c.Param("campaign_id")
	if _, err := h.Campaigns.GetByID(c.Request.Context(), ownerID, campaignID); err != nil {
		fail(c, err)
		return
	}

	events, err := h.Activity.ListByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// --- helpers ---

func owner(c *gin.Context) (string, bool) {
	ownerID, err := auth.UserID(c.Request.Context())
	if err != nil || ownerID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return "", false
	}
	return ownerID, true
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, campaigns.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
	case errors.Is(err, campaigns.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
