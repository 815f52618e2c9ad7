package services

import (
	"context"
	"errors"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/yukikurage/habit-tracker-api/internal/cache"
	"github.com/yukikurage/habit-tracker-api/internal/models"
	"github.com/yukikurage/habit-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidEntryInput = errors.New("invalid input data")
	ErrFutureDate        = errors.New("cannot mark a habit for a future date")
	ErrEntryConflict     = errors.New("this day was changed by another request, please retry")
	ErrInvalidDateRange  = errors.New("invalid date range")
)

// EntryAction is the transition a toggle performed.
type EntryAction string

const (
	ActionCreated EntryAction = "created"
	ActionDeleted EntryAction = "deleted"
)

// ToggleInput identifies the (habit, day) pair to flip. Date is an RFC 3339
// timestamp; only its calendar day matters. The day is read in TimeZone, an
// IANA zone name, when given and in the timestamp's own offset otherwise.
type ToggleInput struct {
	HabitID  string `json:"habitId" validate:"required"`
	Date     string `json:"date" validate:"required"`
	TimeZone string `json:"timezone" validate:"omitempty,timezone"`
}

// ToggleResult reports the transition and the entry it created or removed.
type ToggleResult struct {
	Action EntryAction
	Entry  models.HabitEntry
}

// EntryService owns per-day completion of habits. A day is completed when an
// entry row exists for (habit, day) and not completed otherwise.
type EntryService struct {
	repo        repository.HabitRepository
	invalidator cache.Invalidator
	opts        Options
}

// NewEntryService creates a new EntryService.
func NewEntryService(repo repository.HabitRepository, invalidator cache.Invalidator, opts Options) *EntryService {
	return &EntryService{
		repo:        repo,
		invalidator: invalidator,
		opts:        opts.withDefaults(),
	}
}

// Toggle deletes the entry for the day when present and creates it when
// absent. Calling it twice returns the day to its original state.
func (s *EntryService) Toggle(ctx context.Context, userID string, input ToggleInput) (*ToggleResult, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	input.HabitID = strings.TrimSpace(input.HabitID)
	input.TimeZone = strings.TrimSpace(input.TimeZone)
	if err := validateStruct(ErrInvalidEntryInput, input); err != nil {
		return nil, err
	}

	day, err := s.parseToggleDay(input.Date, input.TimeZone)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.storeContext(ctx)
	defer cancel()

	var result ToggleResult
	err = s.repo.Transaction(ctx, func(tx repository.HabitRepository) error {
		if _, err := tx.FindActive(ctx, input.HabitID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return err
		}

		entry, err := tx.FindEntry(ctx, input.HabitID, day)
		switch {
		case err == nil:
			// Zero rows means a concurrent toggle already removed it; the
			// day ends up absent either way.
			if _, err := tx.DeleteEntry(ctx, entry.ID); err != nil {
				return err
			}
			result = ToggleResult{Action: ActionDeleted, Entry: *entry}
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := &models.HabitEntry{
				HabitID:   input.HabitID,
				Date:      day,
				Completed: true,
			}
			if err := tx.CreateEntry(ctx, entry); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrEntryConflict
				}
				return err
			}
			result = ToggleResult{Action: ActionCreated, Entry: *entry}
			return nil

		default:
			return err
		}
	})
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) || errors.Is(err, ErrEntryConflict) {
			return nil, err
		}
		return nil, s.opts.storeFailure(ctx, "toggle habit entry", err)
	}

	s.invalidator.Invalidate(userID)
	s.opts.Logger.Debug("habit entry toggled",
		"user", userID,
		"habit", input.HabitID,
		"day", day.Format(time.DateOnly),
		"action", result.Action,
	)
	return &result, nil
}

// ListEntries returns the entries of a habit owned by userID for days in
// [from, to). Soft-deleted habits stay readable here so their history can be
// audited.
func (s *EntryService) ListEntries(ctx context.Context, userID, habitID string, from, to time.Time) ([]models.HabitEntry, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if !from.Before(to) {
		return nil, &ValidationError{Kind: ErrInvalidDateRange, Fields: map[string]string{"to": "gtfield"}}
	}

	ctx, cancel := s.opts.storeContext(ctx)
	defer cancel()

	if _, err := s.repo.FindOwned(ctx, habitID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, s.opts.storeFailure(ctx, "find habit", err)
	}

	entries, err := s.repo.ListEntries(ctx, habitID, TruncateToDay(from), TruncateToDay(to))
	if err != nil {
		return nil, s.opts.storeFailure(ctx, "list habit entries", err)
	}
	return entries, nil
}

func (s *EntryService) parseToggleDay(raw, zone string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, &ValidationError{Kind: ErrInvalidEntryInput, Fields: map[string]string{"date": "datetime"}}
	}
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return time.Time{}, &ValidationError{Kind: ErrInvalidEntryInput, Fields: map[string]string{"timezone": "timezone"}}
		}
		parsed = parsed.In(loc)
	}

	day := TruncateToDay(parsed)
	if s.opts.EnforceNoFutureDates {
		today := TruncateToDay(s.opts.Now().In(parsed.Location()))
		if day.After(today) {
			return time.Time{}, &ValidationError{Kind: ErrFutureDate, Fields: map[string]string{"date": "not_future"}}
		}
	}
	return day, nil
}
