package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealSource tags how a meal entered the ledger.
type MealSource string

const (
	SourceManual MealSource = "manual"
	SourceDevice MealSource = "device"
	SourceImport MealSource = "import"
)

func (s MealSource) Valid() bool {
	switch s {
	case SourceManual, SourceDevice, SourceImport:
		return true
	}
	return false
}

// Meal is an immutable ledger entry. RecordedAt is stored in UTC.
type Meal struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string     `gorm:"type:varchar(36);not null;index:idx_meal_user_recorded,priority:1" json:"user_id"`
	DeviceID   string     `gorm:"type:varchar(36);not null;default:''" json:"device_id,omitempty"`
	Name       string     `gorm:"size:200;not null" json:"name"`
	SodiumMG   int64      `gorm:"not null" json:"sodium_mg"`
	Portion    string     `gorm:"size:64" json:"portion,omitempty"`
	Source     MealSource `gorm:"type:varchar(16);not null" json:"source"`
	RecordedAt time.Time  `gorm:"not null;index:idx_meal_user_recorded,priority:2" json:"recorded_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (m *Meal) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
