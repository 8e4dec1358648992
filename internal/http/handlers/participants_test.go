package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"santabot/internal/repo"
	"santabot/internal/services"
	"santabot/pkg/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func newTestHandler(t *testing.T) (*ParticipantHandler, *echo.Echo) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	participantRepo := repo.NewParticipantRepository(db)
	pairingService := services.NewPairingService(participantRepo)

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	return NewParticipantHandler(pairingService, participantRepo), e
}

func TestBulkUpload(t *testing.T) {
	h, e := newTestHandler(t)

	body := `{"participants":[{"name":"A","receiver_name":"B"},{"name":"B"}]}`
	req := httptest.NewRequest(http.MethodPost, "/participants/bulk-upload", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.BulkUpload(c); err != nil {
		t.Fatalf("BulkUpload failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp BulkUploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Created != 2 {
		t.Errorf("created = %d, want 2", resp.Created)
	}
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if resp.Linked != 1 {
		t.Errorf("linked = %d, want 1", resp.Linked)
	}
}

func TestBulkUploadUnresolvableLinksDoNotReduceCounts(t *testing.T) {
	h, e := newTestHandler(t)

	// "Ghost" is never declared as a row, so the link is skipped silently
	body := `{"participants":[{"name":"A","receiver_name":"Ghost"}]}`
	req := httptest.NewRequest(http.MethodPost, "/participants/bulk-upload", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.BulkUpload(e.NewContext(req, rec)); err != nil {
		t.Fatalf("BulkUpload failed: %v", err)
	}

	var resp BulkUploadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Created != 1 || resp.Total != 1 || resp.Linked != 0 {
		t.Errorf("got created=%d total=%d linked=%d, want 1/1/0", resp.Created, resp.Total, resp.Linked)
	}
}

func TestBulkUploadRejectsEmptyBatch(t *testing.T) {
	h, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/participants/bulk-upload", strings.NewReader(`{"participants":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := h.BulkUpload(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an empty batch, got %v", err)
	}
}

func TestListReturnsRecipients(t *testing.T) {
	h, e := newTestHandler(t)

	seed := `{"participants":[{"name":"A","receiver_name":"B"},{"name":"B"}]}`
	req := httptest.NewRequest(http.MethodPost, "/participants/bulk-upload", strings.NewReader(seed))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if err := h.BulkUpload(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/participants", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	var participants []models.Participant
	if err := json.Unmarshal(rec.Body.Bytes(), &participants); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(participants))
	}

	var a *models.Participant
	for i := range participants {
		if participants[i].Name == "A" {
			a = &participants[i]
		}
	}
	if a == nil {
		t.Fatal("participant A missing from listing")
	}
	if a.Recipient == nil || a.Recipient.Name != "B" {
		t.Errorf("listing must populate the recipient relation, got %+v", a.Recipient)
	}
}
