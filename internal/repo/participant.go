package repo

import (
	"santabot/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipantRepository handles participant data access
type ParticipantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// GetByID gets a participant by ID with the recipient relation populated
func (r *ParticipantRepository) GetByID(id uuid.UUID) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.Preload("Recipient").Where("id = ?", id).First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// GetByName gets a participant by exact name match.
// Returns nil instead of an error when no record exists.
func (r *ParticipantRepository) GetByName(name string) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.Where("name = ?", name).First(&participant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

// GetByChatID gets a participant by chat ID.
// Returns nil instead of an error when no record exists.
func (r *ParticipantRepository) GetByChatID(chatID int64) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.Where("chat_id = ?", chatID).First(&participant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

// GetByChatIDWithRecipient gets a participant by chat ID with the recipient populated
func (r *ParticipantRepository) GetByChatIDWithRecipient(chatID int64) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.Preload("Recipient").Where("chat_id = ?", chatID).First(&participant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

// Create creates a new participant
func (r *ParticipantRepository) Create(participant *models.Participant) error {
	return r.db.Create(participant).Error
}

// Update updates a participant and reloads it with the recipient relation
func (r *ParticipantRepository) Update(participant *models.Participant) error {
	// Clear the Recipient relationship to avoid GORM association upserts;
	// only RecipientID drives the link
	participant.Recipient = nil

	if err := r.db.Save(participant).Error; err != nil {
		return err
	}

	return r.db.Preload("Recipient").Where("id = ?", participant.ID).First(participant).Error
}

// List lists all participants with their recipient populated
func (r *ParticipantRepository) List() ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.Preload("Recipient").Order("created_at ASC").Find(&participants).Error
	return participants, err
}

// FindSendersFor returns all participants whose recipient is the given record,
// each with its own recipient populated
func (r *ParticipantRepository) FindSendersFor(recipientID uuid.UUID) ([]models.Participant, error) {
	var senders []models.Participant
	err := r.db.Preload("Recipient").Where("recipient_id = ?", recipientID).Find(&senders).Error
	return senders, err
}

// HasSenderFor reports whether anyone has the given record as their recipient
func (r *ParticipantRepository) HasSenderFor(recipientID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.Participant{}).Where("recipient_id = ?", recipientID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
