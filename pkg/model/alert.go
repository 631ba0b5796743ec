package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AlertSeverity is the ordered level of an alert: info < warning < danger.
type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
	SeverityDanger  AlertSeverity = "danger"
)

// Weight orders severities. Unknown values weigh 0.
func (s AlertSeverity) Weight() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityDanger:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the known severities.
func (s AlertSeverity) Valid() bool { return s.Weight() > 0 }

// Alert is the deduplicated threshold alert for a (user, device, day) slot.
// DeviceID is empty when the meal did not come from a device.
type Alert struct {
	ID               string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID           string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_alert_slot_severity,priority:1;index:idx_alert_user_created,priority:1" json:"user_id"`
	DeviceID         string         `gorm:"type:varchar(36);not null;default:'';uniqueIndex:idx_alert_slot_severity,priority:2" json:"device_id,omitempty"`
	Date             datatypes.Date `gorm:"not null;uniqueIndex:idx_alert_slot_severity,priority:3" json:"date"`
	Severity         AlertSeverity  `gorm:"type:varchar(16);not null;uniqueIndex:idx_alert_slot_severity,priority:4" json:"severity"`
	Threshold        string         `gorm:"type:varchar(8);not null" json:"threshold"`
	Message          string         `gorm:"size:400;not null" json:"message"`
	SodiumTotal      int64          `gorm:"not null;default:0" json:"sodium_total"`
	ThresholdPercent float64        `gorm:"not null;default:0" json:"threshold_percent"`
	IsRead           bool           `gorm:"not null;default:false" json:"is_read"`
	CreatedAt        time.Time      `gorm:"index:idx_alert_user_created,priority:2" json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (Alert) TableName() string {
	return "sodium_alerts"
}
