package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"SodiumWatch/pkg/engine"
	"SodiumWatch/pkg/model"
)

// MealDB is the append-only meal ledger. It offers no update or delete.
type MealDB struct {
	db *gorm.DB
}

// Append validates and inserts meal. RecordedAt is normalised to UTC.
func (m *MealDB) Append(meal *model.Meal) error {
	if meal.SodiumMG < 0 {
		return fmt.Errorf("%w: %d", engine.ErrInvalidAmount, meal.SodiumMG)
	}
	if meal.UserID == "" {
		return fmt.Errorf("meal has no owner")
	}
	if !meal.Source.Valid() {
		return fmt.Errorf("unknown meal source %q", meal.Source)
	}
	if meal.RecordedAt.IsZero() {
		return fmt.Errorf("meal has no timestamp")
	}
	meal.RecordedAt = meal.RecordedAt.UTC()

	if err := m.db.Create(meal).Error; err != nil {
		return fmt.Errorf("failed to append meal: %w", err)
	}
	return nil
}

// ListBetween returns the user's meals with start <= recorded_at < end,
// oldest first.
func (m *MealDB) ListBetween(userID string, start, end time.Time) ([]model.Meal, error) {
	var meals []model.Meal
	err := m.db.Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, start.UTC(), end.UTC()).
		Order("recorded_at ASC").
		Order("created_at ASC").
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

func (m *MealDB) GetByID(id string) (*model.Meal, error) {
	var meal model.Meal
	if err := m.db.First(&meal, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get meal %s: %w", id, notFound(err))
	}
	return &meal, nil
}
