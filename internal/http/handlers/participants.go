package handlers

import (
	"fmt"
	"net/http"

	"santabot/internal/repo"
	"santabot/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ParticipantHandler handles participant management endpoints
type ParticipantHandler struct {
	pairingService  *services.PairingService
	participantRepo *repo.ParticipantRepository
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(pairingService *services.PairingService, participantRepo *repo.ParticipantRepository) *ParticipantHandler {
	return &ParticipantHandler{
		pairingService:  pairingService,
		participantRepo: participantRepo,
	}
}

// BulkUploadItem represents one row of a batch import
type BulkUploadItem struct {
	Name         string `json:"name" validate:"required"`
	ReceiverName string `json:"receiver_name,omitempty"`
}

// BulkUploadRequest represents the batch import payload
type BulkUploadRequest struct {
	Participants []BulkUploadItem `json:"participants" validate:"required,min=1,dive"`
}

// BulkUploadResponse summarizes a processed batch
type BulkUploadResponse struct {
	Created int    `json:"created"`
	Total   int    `json:"total"`
	Linked  int    `json:"linked"`
	Message string `json:"message"`
}

// BulkUpload seeds participants and their gift assignments from a batch
// @Summary Bulk upload participants
// @Description Create participants by name and link sender/receiver pairs
// @Tags participants
// @Accept json
// @Produce json
// @Param request body BulkUploadRequest true "Participants to create"
// @Success 200 {object} BulkUploadResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /participants/bulk-upload [post]
func (h *ParticipantHandler) BulkUpload(c echo.Context) error {
	var req BulkUploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	items := make([]services.BulkParticipant, 0, len(req.Participants))
	for _, p := range req.Participants {
		items = append(items, services.BulkParticipant{
			Name:         p.Name,
			ReceiverName: p.ReceiverName,
		})
	}

	created, linked, err := h.pairingService.BulkCreate(items)
	if err != nil {
		log.Error().Err(err).Msg("Bulk upload failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process participants")
	}

	total := len(req.Participants)
	return c.JSON(http.StatusOK, BulkUploadResponse{
		Created: created,
		Total:   total,
		Linked:  linked,
		Message: fmt.Sprintf("Successfully processed %d participants. Created: %d, Skipped: %d, Receiver links: %d",
			total, created, total-created, linked),
	})
}

// List returns all participants with their recipient populated
// @Summary List participants
// @Description Return every participant with their assigned recipient
// @Tags participants
// @Produce json
// @Success 200 {array} models.Participant
// @Failure 500 {object} map[string]string
// @Router /participants [get]
func (h *ParticipantHandler) List(c echo.Context) error {
	participants, err := h.participantRepo.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list participants")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list participants")
	}
	return c.JSON(http.StatusOK, participants)
}
