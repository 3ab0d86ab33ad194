package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/slotcal/slotcal-api/internal/models"
	"github.com/slotcal/slotcal-api/internal/repository"
)

type mockUserRepository struct {
	getByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.getByUsernameFunc != nil {
		return m.getByUsernameFunc(ctx, username)
	}
	return nil, nil
}

type mockIntervalRepository struct {
	getFunc func(ctx context.Context, userID string, weekDay int) (*models.UserTimeInterval, error)
	calls   int
}

func (m *mockIntervalRepository) GetByUserAndWeekDay(ctx context.Context, userID string, weekDay int) (*models.UserTimeInterval, error) {
	m.calls++
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, weekDay)
	}
	return nil, repository.ErrIntervalNotFound
}

type mockSchedulingRepository struct {
	createFunc  func(ctx context.Context, scheduling models.Scheduling) error
	listFunc    func(ctx context.Context, userID string, from, to time.Time) ([]models.Scheduling, error)
	createCalls int
}

func (m *mockSchedulingRepository) Create(ctx context.Context, scheduling models.Scheduling) error {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, scheduling)
	}
	return nil
}

func (m *mockSchedulingRepository) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Scheduling, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, from, to)
	}
	return nil, nil
}

type mockCredentialSource struct {
	getFunc func(ctx context.Context, userID string) (*Credential, error)
	calls   int
}

func (m *mockCredentialSource) GetValidCredential(ctx context.Context, userID string) (*Credential, error) {
	m.calls++
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return nil, repository.ErrAccountNotFound
}

type mockBusyLister struct {
	listFunc func(ctx context.Context, accessToken string, from, to time.Time) ([]BusyRange, error)
	calls    int
}

func (m *mockBusyLister) ListBusyTimes(ctx context.Context, accessToken string, from, to time.Time) ([]BusyRange, error) {
	m.calls++
	if m.listFunc != nil {
		return m.listFunc(ctx, accessToken, from, to)
	}
	return nil, nil
}

type availabilityFixture struct {
	svc         *AvailabilityService
	users       *mockUserRepository
	intervals   *mockIntervalRepository
	schedulings *mockSchedulingRepository
	credentials *mockCredentialSource
	calendar    *mockBusyLister
}

// 2025-03-10 is a Monday; the fixture clock reads noon UTC that day and
// "2025-03-11" is the next Tuesday (weekday 2).
var fixtureNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newAvailabilityFixture() *availabilityFixture {
	f := &availabilityFixture{
		users: &mockUserRepository{
			getByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
				if username != "johndoe" {
					return nil, repository.ErrUserNotFound
				}
				return &models.User{ID: "user-123", Username: "johndoe", Name: "John Doe"}, nil
			},
		},
		intervals: &mockIntervalRepository{
			getFunc: func(ctx context.Context, userID string, weekDay int) (*models.UserTimeInterval, error) {
				if weekDay != 2 {
					return nil, repository.ErrIntervalNotFound
				}
				return &models.UserTimeInterval{
					ID:                 "int-1",
					UserID:             userID,
					WeekDay:            2,
					TimeStartInMinutes: 480, // 08:00
					TimeEndInMinutes:   720, // 12:00
				}, nil
			},
		},
		schedulings: &mockSchedulingRepository{},
		credentials: &mockCredentialSource{},
		calendar:    &mockBusyLister{},
	}

	f.svc = NewAvailabilityService(f.users, f.intervals, f.schedulings, f.credentials, f.calendar)
	f.svc.loc = time.UTC
	f.svc.now = func() time.Time { return fixtureNow }
	return f
}

func TestComputeAvailability_FullWindow(t *testing.T) {
	f := newAvailabilityFixture()

	availability, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []int{8, 9, 10, 11}
	if !reflect.DeepEqual(availability.PossibleTimes, want) {
		t.Errorf("expected possibleTimes %v, got %v", want, availability.PossibleTimes)
	}
	if !reflect.DeepEqual(availability.AvailableTimes, want) {
		t.Errorf("expected availableTimes %v, got %v", want, availability.AvailableTimes)
	}
}

func TestComputeAvailability_BookingBlocksHour(t *testing.T) {
	f := newAvailabilityFixture()
	f.schedulings.listFunc = func(ctx context.Context, userID string, from, to time.Time) ([]models.Scheduling, error) {
		return []models.Scheduling{
			{ID: "sch-1", UserID: userID, Date: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)},
		}, nil
	}

	availability, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(availability.PossibleTimes, []int{8, 9, 10, 11}) {
		t.Errorf("expected full possibleTimes, got %v", availability.PossibleTimes)
	}
	if !reflect.DeepEqual(availability.AvailableTimes, []int{8, 10, 11}) {
		t.Errorf("expected availableTimes [8 10 11], got %v", availability.AvailableTimes)
	}
}

func TestComputeAvailability_PastDate_EmptyWithoutLookups(t *testing.T) {
	f := newAvailabilityFixture()

	availability, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-09")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(availability.PossibleTimes) != 0 || len(availability.AvailableTimes) != 0 {
		t.Errorf("expected empty result for past date, got %+v", availability)
	}
	// The short-circuit must come before every other lookup, in particular
	// before anything that could trigger a token refresh.
	if f.intervals.calls != 0 {
		t.Errorf("expected no interval lookup for past date, got %d", f.intervals.calls)
	}
	if f.credentials.calls != 0 {
		t.Errorf("expected no credential lookup for past date, got %d", f.credentials.calls)
	}
}

func TestComputeAvailability_TodayEndOfDayStillAhead(t *testing.T) {
	f := newAvailabilityFixture()
	// Tuesday 10:30; the day is not over, so the window applies with past
	// hours filtered out.
	f.svc.now = func() time.Time { return time.Date(2025, 3, 11, 10, 30, 0, 0, time.UTC) }

	availability, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(availability.PossibleTimes, []int{8, 9, 10, 11}) {
		t.Errorf("expected full possibleTimes, got %v", availability.PossibleTimes)
	}
	if !reflect.DeepEqual(availability.AvailableTimes, []int{11}) {
		t.Errorf("expected only hour 11 available at 10:30, got %v", availability.AvailableTimes)
	}
}

func TestComputeAvailability_NoIntervalConfigured(t *testing.T) {
	f := newAvailabilityFixture()

	// 2025-03-12 is a Wednesday; the fixture only configures Tuesday.
	availability, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-12")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(availability.PossibleTimes) != 0 || len(availability.AvailableTimes) != 0 {
		t.Errorf("expected empty result without a configured window, got %+v", availability)
	}
}

func TestComputeAvailability_MissingDate(t *testing.T) {
	f := newAvailabilityFixture()

	_, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "")
	if !errors.Is(err, ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}
}

func TestComputeAvailability_InvalidDate(t *testing.T) {
	f := newAvailabilityFixture()

	_, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "not-a-date")
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestComputeAvailability_UserNotFound(t *testing.T) {
	f := newAvailabilityFixture()

	_, err := f.svc.ComputeAvailability(context.Background(), "nobody", "2025-03-11")
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestComputeAvailability_UnalignedInterval(t *testing.T) {
	f := newAvailabilityFixture()
	f.intervals.getFunc = func(ctx context.Context, userID string, weekDay int) (*models.UserTimeInterval, error) {
		return &models.UserTimeInterval{
			ID:                 "int-1",
			UserID:             userID,
			WeekDay:            weekDay,
			TimeStartInMinutes: 510, // 08:30
			TimeEndInMinutes:   720,
		}, nil
	}

	_, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if !errors.Is(err, ErrUnalignedInterval) {
		t.Fatalf("expected ErrUnalignedInterval, got %v", err)
	}
}

func TestComputeAvailability_ExternalBusyBlocksHour(t *testing.T) {
	f := newAvailabilityFixture()
	f.credentials.getFunc = func(ctx context.Context, userID string) (*Credential, error) {
		return &Credential{AccessToken: "valid-token"}, nil
	}
	f.calendar.listFunc = func(ctx context.Context, accessToken string, from, to time.Time) ([]BusyRange, error) {
		if accessToken != "valid-token" {
			t.Errorf("expected lookup with the managed token, got %s", accessToken)
		}
		return []BusyRange{
			{
				Start: time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC),
			},
		}, nil
	}

	availability, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(availability.AvailableTimes, []int{8, 9, 11}) {
		t.Errorf("expected availableTimes [8 9 11], got %v", availability.AvailableTimes)
	}
}

func TestComputeAvailability_ExternalBusyPartialOverlap(t *testing.T) {
	f := newAvailabilityFixture()
	f.credentials.getFunc = func(ctx context.Context, userID string) (*Credential, error) {
		return &Credential{AccessToken: "valid-token"}, nil
	}
	f.calendar.listFunc = func(ctx context.Context, accessToken string, from, to time.Time) ([]BusyRange, error) {
		return []BusyRange{
			{
				Start: time.Date(2025, 3, 11, 10, 30, 0, 0, time.UTC),
				End:   time.Date(2025, 3, 11, 11, 30, 0, 0, time.UTC),
			},
		}, nil
	}

	availability, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// A range touching any part of an hour occupies that whole slot.
	if !reflect.DeepEqual(availability.AvailableTimes, []int{8, 9}) {
		t.Errorf("expected availableTimes [8 9], got %v", availability.AvailableTimes)
	}
}

func TestComputeAvailability_NoLinkedAccount_SkipsExternal(t *testing.T) {
	f := newAvailabilityFixture()

	_, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if err != nil {
		t.Fatalf("expected no error for unlinked user, got %v", err)
	}
	if f.calendar.calls != 0 {
		t.Errorf("expected no busy lookup without a linked account, got %d", f.calendar.calls)
	}
}

func TestComputeAvailability_ExternalLookupFailure(t *testing.T) {
	f := newAvailabilityFixture()
	f.credentials.getFunc = func(ctx context.Context, userID string) (*Credential, error) {
		return &Credential{AccessToken: "valid-token"}, nil
	}
	f.calendar.listFunc = func(ctx context.Context, accessToken string, from, to time.Time) ([]BusyRange, error) {
		return nil, errors.New("network timeout")
	}

	_, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if !errors.Is(err, ErrExternalLookupFailed) {
		t.Fatalf("expected ErrExternalLookupFailed, got %v", err)
	}
}

func TestComputeAvailability_CredentialFailurePropagates(t *testing.T) {
	f := newAvailabilityFixture()
	f.credentials.getFunc = func(ctx context.Context, userID string) (*Credential, error) {
		return nil, ErrCredentialRefreshFailed
	}

	_, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if !errors.Is(err, ErrExternalLookupFailed) {
		t.Fatalf("expected ErrExternalLookupFailed, got %v", err)
	}
	if f.calendar.calls != 0 {
		t.Errorf("expected no busy lookup after credential failure, got %d", f.calendar.calls)
	}
}

func TestComputeAvailability_Idempotent(t *testing.T) {
	f := newAvailabilityFixture()
	f.schedulings.listFunc = func(ctx context.Context, userID string, from, to time.Time) ([]models.Scheduling, error) {
		return []models.Scheduling{
			{ID: "sch-1", UserID: userID, Date: time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)},
		}, nil
	}

	first, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := f.svc.ComputeAvailability(context.Background(), "johndoe", "2025-03-11")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results for identical inputs, got %+v and %+v", first, second)
	}
}
