package webhook

import (
	"net/http"

	"santabot/internal/bot"
	"santabot/internal/telegram"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TelegramWebhookHandler handles incoming Telegram webhook updates
type TelegramWebhookHandler struct {
	dispatcher *bot.Dispatcher
}

// NewTelegramWebhookHandler creates a new webhook handler
func NewTelegramWebhookHandler(dispatcher *bot.Dispatcher) *TelegramWebhookHandler {
	return &TelegramWebhookHandler{dispatcher: dispatcher}
}

// ProcessTelegramWebhook processes one incoming Telegram update
// @Summary Process Telegram webhook
// @Description Receive and process a Telegram Bot API update
// @Tags webhook
// @Accept json
// @Produce json
// @Param update body telegram.Update true "Telegram update"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /webhook/telegram [post]
func (h *TelegramWebhookHandler) ProcessTelegramWebhook(c echo.Context) error {
	var update telegram.Update
	if err := c.Bind(&update); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Telegram update")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid update data"})
	}

	h.dispatcher.HandleUpdate(update)
	return c.JSON(http.StatusOK, map[string]string{"status": "processed"})
}
