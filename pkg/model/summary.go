package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DailySummary is the derived per-(user, day) sodium total. It is always
// rebuilt from the ledger, never incremented.
type DailySummary struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_summary_user_date,priority:1" json:"user_id"`
	Date           datatypes.Date `gorm:"not null;uniqueIndex:idx_summary_user_date,priority:2" json:"date"`
	TotalMG        int64          `gorm:"not null;default:0" json:"total_mg"`
	PercentOfLimit float64        `gorm:"not null;default:0" json:"percent_of_limit"`
	HighestMealID  *string        `gorm:"type:varchar(36)" json:"highest_meal_id,omitempty"`
	LastUpdated    time.Time      `json:"last_updated"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (d *DailySummary) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

func (DailySummary) TableName() string {
	return "daily_summaries"
}

// AllModels lists every entity for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{&User{}, &Device{}, &Meal{}, &DailySummary{}, &Alert{}}
}
