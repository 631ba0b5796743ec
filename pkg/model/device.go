package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device is a paired sensor (a measuring spoon) that records meals on behalf
// of its owner using an opaque bearer token.
type Device struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name      string     `gorm:"size:100;not null;default:'Spoon'" json:"name"`
	Token     string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"-"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Token == "" {
		d.Token = uuid.New().String()
	}
	return nil
}
