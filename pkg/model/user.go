package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the minimal account record the service needs: an id to own meals
// and the time zone that defines the user's calendar day. Accounts are
// managed elsewhere.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	TimeZone  string    `gorm:"size:64" json:"time_zone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Location returns the user's time zone, or fallback when unset or unknown.
func (u *User) Location(fallback *time.Location) *time.Location {
	if u == nil || u.TimeZone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(u.TimeZone)
	if err != nil {
		return fallback
	}
	return loc
}
