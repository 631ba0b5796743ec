package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"SodiumWatch/pkg/model"
)

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = errors.New("username already exists")

type UserDB struct {
	db *gorm.DB
}

// Create inserts user after checking its time zone.
func (u *UserDB) Create(user *model.User) error {
	if user.Username == "" {
		return fmt.Errorf("username is required")
	}
	if user.TimeZone != "" {
		if _, err := time.LoadLocation(user.TimeZone); err != nil {
			return fmt.Errorf("invalid time zone %q: %w", user.TimeZone, err)
		}
	}
	err := u.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", user.Username, ErrUserExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (u *UserDB) GetByID(userID string) (*model.User, error) {
	var user model.User
	if err := u.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, notFound(err))
	}
	return &user, nil
}

func (u *UserDB) GetByUsername(username string) (*model.User, error) {
	var user model.User
	if err := u.db.First(&user, "username = ?", username).Error; err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, notFound(err))
	}
	return &user, nil
}
