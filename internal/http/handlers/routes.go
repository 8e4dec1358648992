package handlers

import (
	"santabot/internal/app"
	"santabot/internal/http/middleware"
	"santabot/internal/webhook"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all API routes
func SetupRoutes(api *echo.Group, services *app.Services) {
	// Admin participant management (token protected)
	participantHandler := NewParticipantHandler(services.PairingService, services.ParticipantRepo)
	participants := api.Group("/participants")
	participants.Use(middleware.AdminTokenAuth())
	participants.POST("/bulk-upload", participantHandler.BulkUpload)
	participants.GET("", participantHandler.List)

	// Telegram webhook (alternative to long polling)
	webhookHandler := webhook.NewTelegramWebhookHandler(services.Dispatcher)
	api.POST("/webhook/telegram", webhookHandler.ProcessTelegramWebhook)
}
