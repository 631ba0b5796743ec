package database

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SodiumWatch/pkg/model"
)

type AlertDB struct {
	db *gorm.DB
}

// ListSlot returns every alert in the (user, device, day) slot.
func (a *AlertDB) ListSlot(userID, deviceID string, day datatypes.Date) ([]model.Alert, error) {
	var alerts []model.Alert
	err := a.db.Where("user_id = ? AND device_id = ?", userID, deviceID).
		Where(clause.Eq{Column: "date", Value: day}).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alert slot: %w", err)
	}
	return alerts, nil
}

func (a *AlertDB) Create(alert *model.Alert) error {
	if err := a.db.Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (a *AlertDB) Save(alert *model.Alert) error {
	if err := a.db.Save(alert).Error; err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// ListRecent returns the user's latest alerts, newest first.
func (a *AlertDB) ListRecent(userID string, limit int) ([]model.Alert, error) {
	var alerts []model.Alert
	err := a.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// ListUnread returns the user's unread alerts for day across all devices.
func (a *AlertDB) ListUnread(userID string, day datatypes.Date) ([]model.Alert, error) {
	var alerts []model.Alert
	err := a.db.Where("user_id = ? AND is_read = ?", userID, false).
		Where(clause.Eq{Column: "date", Value: day}).
		Order("created_at ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unread alerts: %w", err)
	}
	return alerts, nil
}

// MarkAsRead flags one of the user's alerts. Another user's alert is
// reported as ErrNotFound.
func (a *AlertDB) MarkAsRead(userID, alertID string) error {
	res := a.db.Model(&model.Alert{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark alert read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
	}
	return nil
}

// GetUnreadCount counts the user's unread alerts.
func (a *AlertDB) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := a.db.Model(&model.Alert{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread alerts: %w", err)
	}
	return count, nil
}
