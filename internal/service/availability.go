package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slotcal/slotcal-api/internal/models"
	"github.com/slotcal/slotcal-api/internal/repository"
)

// dateLayout is the calendar-date format accepted by availability queries.
const dateLayout = "2006-01-02"

var (
	ErrMissingDate = errors.New("missing date")
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnalignedInterval is returned for availability windows whose
	// configured minutes do not land on whole hours. Slots have fixed hour
	// granularity; rejecting beats silently truncating the window.
	ErrUnalignedInterval = errors.New("time interval is not aligned to whole hours")

	// ErrExternalLookupFailed is returned when the linked calendar cannot
	// be consulted. The query fails as a whole: treating an unreachable
	// calendar as empty would hand out slots that may be busy.
	ErrExternalLookupFailed = errors.New("external calendar lookup failed")
)

// UserRepository interface for dependency injection
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// IntervalRepository interface for dependency injection
type IntervalRepository interface {
	GetByUserAndWeekDay(ctx context.Context, userID string, weekDay int) (*models.UserTimeInterval, error)
}

// SchedulingRepository interface for dependency injection
type SchedulingRepository interface {
	Create(ctx context.Context, scheduling models.Scheduling) error
	ListBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Scheduling, error)
}

// CredentialSource yields a valid access token for a user's linked account
type CredentialSource interface {
	GetValidCredential(ctx context.Context, userID string) (*Credential, error)
}

// BusyLister reads occupied ranges from the external calendar
type BusyLister interface {
	ListBusyTimes(ctx context.Context, accessToken string, from, to time.Time) ([]BusyRange, error)
}

// BusyRange is an occupied interval reported by the external calendar
type BusyRange struct {
	Start time.Time
	End   time.Time
}

// Availability is the result of an availability query: the full hour grid
// the user's weekly window allows, and the subset still bookable.
type Availability struct {
	PossibleTimes  []int `json:"possibleTimes"`
	AvailableTimes []int `json:"availableTimes"`
}

type AvailabilityService struct {
	userRepo       UserRepository
	intervalRepo   IntervalRepository
	schedulingRepo SchedulingRepository
	credentials    CredentialSource
	calendar       BusyLister
	loc            *time.Location
	now            func() time.Time
}

func NewAvailabilityService(
	userRepo UserRepository,
	intervalRepo IntervalRepository,
	schedulingRepo SchedulingRepository,
	credentials CredentialSource,
	calendar BusyLister,
) *AvailabilityService {
	return &AvailabilityService{
		userRepo:       userRepo,
		intervalRepo:   intervalRepo,
		schedulingRepo: schedulingRepo,
		credentials:    credentials,
		calendar:       calendar,
		loc:            time.Local,
		now:            time.Now,
	}
}

// ComputeAvailability returns the bookable hours for a user on a calendar
// date ("2006-01-02"). A date fully in the past and a weekday without a
// configured window both yield an empty result, not an error.
func (s *AvailabilityService) ComputeAvailability(ctx context.Context, username, date string) (*Availability, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if date == "" {
		return nil, ErrMissingDate
	}
	day, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	now := s.now()

	// Short-circuit before any further lookup: a day that already ended
	// has nothing to offer, and must not trigger a stale-token refresh.
	endOfDay := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	if endOfDay.Before(now) {
		return emptyAvailability(), nil
	}

	interval, err := s.intervalRepo.GetByUserAndWeekDay(ctx, user.ID, int(day.Weekday()))
	if err != nil {
		if errors.Is(err, repository.ErrIntervalNotFound) {
			return emptyAvailability(), nil
		}
		return nil, err
	}

	if interval.TimeStartInMinutes%60 != 0 || interval.TimeEndInMinutes%60 != 0 {
		return nil, ErrUnalignedInterval
	}

	startHour := interval.TimeStartInMinutes / 60
	endHour := interval.TimeEndInMinutes / 60

	possibleTimes := make([]int, 0, endHour-startHour)
	for hour := startHour; hour < endHour; hour++ {
		possibleTimes = append(possibleTimes, hour)
	}

	windowStart := day.Add(time.Duration(startHour) * time.Hour)
	windowEnd := day.Add(time.Duration(endHour) * time.Hour)

	blocked := make(map[int]bool)

	schedulings, err := s.schedulingRepo.ListBetween(ctx, user.ID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	for _, scheduling := range schedulings {
		blocked[scheduling.Date.In(s.loc).Hour()] = true
	}

	if err := s.markExternalBusyHours(ctx, user.ID, windowStart, windowEnd, blocked); err != nil {
		return nil, err
	}

	availableTimes := make([]int, 0, len(possibleTimes))
	for _, hour := range possibleTimes {
		if blocked[hour] {
			continue
		}
		if day.Add(time.Duration(hour) * time.Hour).Before(now) {
			continue
		}
		availableTimes = append(availableTimes, hour)
	}

	return &Availability{PossibleTimes: possibleTimes, AvailableTimes: availableTimes}, nil
}

// markExternalBusyHours unions the linked calendar's busy hours into
// blocked. A user without a linked account is simply skipped; any other
// failure aborts the query.
func (s *AvailabilityService) markExternalBusyHours(ctx context.Context, userID string, from, to time.Time, blocked map[int]bool) error {
	credential, err := s.credentials.GetValidCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrExternalLookupFailed, err)
	}

	busy, err := s.calendar.ListBusyTimes(ctx, credential.AccessToken, from, to)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExternalLookupFailed, err)
	}

	for hourStart := from; hourStart.Before(to); hourStart = hourStart.Add(time.Hour) {
		hourEnd := hourStart.Add(time.Hour)
		for _, busyRange := range busy {
			if busyRange.Start.Before(hourEnd) && busyRange.End.After(hourStart) {
				blocked[hourStart.In(s.loc).Hour()] = true
				break
			}
		}
	}
	return nil
}

func emptyAvailability() *Availability {
	return &Availability{PossibleTimes: []int{}, AvailableTimes: []int{}}
}
