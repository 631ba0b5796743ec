package database

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SodiumWatch/pkg/model"
)

type SummaryDB struct {
	db *gorm.DB
}

// Get returns the summary for (user, day), or nil when there is none.
func (s *SummaryDB) Get(userID string, day datatypes.Date) (*model.DailySummary, error) {
	var summary model.DailySummary
	err := s.db.Where("user_id = ?", userID).
		Where(clause.Eq{Column: "date", Value: day}).
		First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

// Save updates the row when summary has an id and upserts on (user, date)
// otherwise.
func (s *SummaryDB) Save(summary *model.DailySummary) error {
	var err error
	if summary.ID != "" {
		err = s.db.Save(summary).Error
	} else {
		err = s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_mg", "percent_of_limit", "highest_meal_id", "last_updated"}),
		}).Create(summary).Error
	}
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// ListRange returns summaries with start <= date <= end, oldest first.
func (s *SummaryDB) ListRange(userID string, start, end datatypes.Date) ([]model.DailySummary, error) {
	var rows []model.DailySummary
	err := s.db.Where("user_id = ?", userID).
		Where(clause.Gte{Column: "date", Value: start}).
		Where(clause.Lte{Column: "date", Value: end}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return rows, nil
}
