package main

import (
	"outreach-platform/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: This endpoint should be protected by provider signature validation in production.
	r.POST("/webhooks/messages/inbound", h.InboundMessage)

	// protected API group
	v1 := r.Group("/v1")

	// AUTH routes (token issuance) stay outside the auth middleware.
	v1.POST("/auth/login", h.Login)

	v1.Use(authMW)
	{
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", h.CreateCampaign)
			campaigns.GET("", h.ListCampaigns)
			campaigns.GET("/:campaign_id", h.GetCampaign)

			campaigns.POST("/:campaign_id/script", h.GenerateScript)
			campaigns.POST("/:campaign_id/contacts", h.UploadContacts)
			campaigns.POST("/:campaign_id/calls", h.LaunchCalls)

			campaigns.GET("/:campaign_id/analytics", h.CampaignAnalytics)
			campaigns.GET("/:campaign_id/activity", h.ListActivity)

			campaigns.GET("/:campaign_id/messages", h.ListMessages)
			campaigns.POST("/:campaign_id/messages", h.SendMessage)
		}
	}
}
