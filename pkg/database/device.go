package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"SodiumWatch/pkg/model"
)

type DeviceDB struct {
	db *gorm.DB
}

// Create pairs a new device with a fresh token for userID.
func (d *DeviceDB) Create(userID, name string) (*model.Device, error) {
	if name == "" {
		name = "Spoon"
	}
	device := &model.Device{
		UserID: userID,
		Name:   name,
		Token:  uuid.New().String(),
	}
	if err := d.db.Create(device).Error; err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return device, nil
}

// ListByUser returns the user's devices, oldest first.
func (d *DeviceDB) ListByUser(userID string) ([]model.Device, error) {
	var devices []model.Device
	err := d.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// Resolve finds the device owning token, loads its user and stamps
// last_seen. Unknown tokens yield ErrNotFound.
func (d *DeviceDB) Resolve(token uuid.UUID, now time.Time) (*model.Device, error) {
	var device model.Device
	err := d.db.Preload("User").
		First(&device, "token = ?", token.String()).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device token: %w", notFound(err))
	}

	seen := now.UTC()
	if err := d.db.Model(&model.Device{}).Where("id = ?", device.ID).Update("last_seen", seen).Error; err != nil {
		return nil, fmt.Errorf("failed to update device last_seen: %w", err)
	}
	device.LastSeen = &seen
	return &device, nil
}
