package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/slotcal/slotcal-api/internal/models"
	"gorm.io/gorm"
)

var ErrIntervalNotFound = errors.New("time interval not found")

type IntervalRepository struct {
	db *gorm.DB
}

func NewIntervalRepository(db *gorm.DB) *IntervalRepository {
	return &IntervalRepository{db: db}
}

// GetByUserAndWeekDay retrieves a user's availability window for one
// weekday (0 = Sunday)
func (r *IntervalRepository) GetByUserAndWeekDay(ctx context.Context, userID string, weekDay int) (*models.UserTimeInterval, error) {
	var interval models.UserTimeInterval
	result := r.db.WithContext(ctx).First(&interval, "user_id = ? AND week_day = ?", userID, weekDay)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrIntervalNotFound
		}
		return nil, fmt.Errorf("failed to get time interval: %w", result.Error)
	}
	return &interval, nil
}
