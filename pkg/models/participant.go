package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is the base model for all entities
type BaseModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate UUID if not set
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Participant represents a member of the gift exchange.
//
// Name is the natural key: records may be seeded by name long before the
// person ever opens a chat, and the chat identity is attached later when
// someone registers under that name. The reverse relation (who sends to me)
// is never stored, it is derived by querying recipient_id.
type Participant struct {
	BaseModel
	Name        string       `gorm:"uniqueIndex;not null" json:"name" validate:"required"`
	ChatID      *int64       `gorm:"index" json:"chat_id,omitempty"`
	GiftCode    string       `json:"gift_code,omitempty"`
	RecipientID *uuid.UUID   `gorm:"type:uuid;index" json:"recipient_id,omitempty"`
	Recipient   *Participant `gorm:"foreignKey:RecipientID;references:ID" json:"recipient,omitempty"`
}

// IsReachable reports whether the participant has a chat identity attached
func (p *Participant) IsReachable() bool {
	return p != nil && p.ChatID != nil
}

// GetAllModels returns all models for AutoMigrate
func GetAllModels() []interface{} {
	return []interface{}{
		&Participant{},
	}
}
