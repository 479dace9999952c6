package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxPeepLength caps peep content, counted in characters.
const MaxPeepLength = 280

// Peep is a short text message owned by one user.
type Peep struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the identifier and pins timestamps to UTC so that
// window comparisons behave the same on every driver.
func (p *Peep) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return nil
}

// CreatePeepRequest is the publish payload.
type CreatePeepRequest struct {
	Content string `json:"content"`
}

// TimelineEntry is one line of a user's feed.
type TimelineEntry struct {
	ID        uuid.UUID `json:"-"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
