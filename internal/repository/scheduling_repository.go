package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slotcal/slotcal-api/internal/models"
	"gorm.io/gorm"
)

// ErrSlotTaken is returned when a scheduling already exists for the same
// user and hour (unique constraint on (user_id, date)).
var ErrSlotTaken = errors.New("slot already taken")

type SchedulingRepository struct {
	db *gorm.DB
}

func NewSchedulingRepository(db *gorm.DB) *SchedulingRepository {
	return &SchedulingRepository{db: db}
}

// Create inserts a new scheduling
func (r *SchedulingRepository) Create(ctx context.Context, scheduling models.Scheduling) error {
	result := r.db.WithContext(ctx).Create(&scheduling)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to create scheduling: %w", result.Error)
	}
	return nil
}

// ListBetween retrieves a user's schedulings with date inside [from, to],
// bounds inclusive
func (r *SchedulingRepository) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Scheduling, error) {
	var schedulings []models.Scheduling
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&schedulings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list schedulings: %w", result.Error)
	}
	return schedulings, nil
}
