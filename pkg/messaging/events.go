package messaging

import (
	"time"

	"SodiumWatch/pkg/model"
)

const (
	// SubjectAll matches every event the service emits.
	SubjectAll          = "sodium.>"
	SubjectMealRecorded = "sodium.meals.recorded"
	AlertSubjectPrefix  = "sodium.alerts."
)

// AlertSubject is the subject for alert changes of one severity.
func AlertSubject(severity model.AlertSeverity) string {
	return AlertSubjectPrefix + string(severity)
}

// MealRecorded is published after a meal and its summary are committed.
type MealRecorded struct {
	MealID         string    `json:"meal_id"`
	UserID         string    `json:"user_id"`
	DeviceID       string    `json:"device_id,omitempty"`
	Date           string    `json:"date"`
	SodiumMG       int64     `json:"sodium_mg"`
	TotalMG        int64     `json:"total_mg"`
	PercentOfLimit float64   `json:"percent_of_limit"`
	Source         string    `json:"source"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// AlertChanged is published when an alert row is created, upgraded or
// refreshed.
type AlertChanged struct {
	AlertID   string  `json:"alert_id"`
	UserID    string  `json:"user_id"`
	DeviceID  string  `json:"device_id,omitempty"`
	Date      string  `json:"date"`
	Threshold string  `json:"threshold"`
	Severity  string  `json:"severity"`
	Action    string  `json:"action"`
	TotalMG   int64   `json:"total_mg"`
	Percent   float64 `json:"percent_of_limit"`
}

// Publisher sends an event to a subject.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// NoopPublisher drops every event. It is used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, interface{}) error { return nil }
