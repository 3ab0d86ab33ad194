package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/slotcal/slotcal-api/internal/models"
)

// ErrPastDate is returned when a claim targets an hour that already started.
var ErrPastDate = errors.New("date is in the past")

// CreateSchedulingInput carries the requester's details for a slot claim.
// Observations is optional.
type CreateSchedulingInput struct {
	Name         string
	Email        string
	Observations *string
	Date         time.Time
}

// CreateScheduling claims one slot on a user's calendar. The requested
// timestamp is aligned down to its hour before insertion; the unique
// (user_id, date) constraint turns a concurrent double claim into
// repository.ErrSlotTaken for the loser.
func (s *AvailabilityService) CreateScheduling(ctx context.Context, username string, input CreateSchedulingInput) (*models.Scheduling, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	t := input.Date.In(s.loc)
	slotTime := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, s.loc)
	if slotTime.Before(s.now()) {
		return nil, ErrPastDate
	}

	scheduling := models.Scheduling{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Date:         slotTime,
		Name:         input.Name,
		Email:        input.Email,
		Observations: input.Observations,
		CreatedAt:    s.now(),
	}

	if err := s.schedulingRepo.Create(ctx, scheduling); err != nil {
		return nil, err
	}

	log.Printf("Created scheduling %s for user %s at %s", scheduling.ID, user.ID, slotTime)

	return &scheduling, nil
}
