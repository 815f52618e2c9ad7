package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/habit-tracker-api/internal/cache"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
	"github.com/yukikurage/habit-tracker-api/internal/models"
	"github.com/yukikurage/habit-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrHabitNotFound  = errors.New("habit not found")
	ErrHabitNameTaken = errors.New("a habit with this name already exists")
	ErrInvalidHabit   = errors.New("invalid habit data")
	ErrInvalidHabitID = errors.New("habit id is required")
)

// HabitInput is the full editable field set of a habit.
type HabitInput struct {
	Name        string `json:"name" validate:"required,habitname"`
	Description string `json:"description" validate:"required,habitdesc"`
	Color       string `json:"color" validate:"required,habitcolor"`
	Icon        string `json:"icon" validate:"required,habiticon"`
}

// normalized trims text fields and fills in the default color and icon.
func (in HabitInput) normalized() HabitInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Color = strings.TrimSpace(in.Color)
	in.Icon = strings.TrimSpace(in.Icon)
	if in.Color == "" {
		in.Color = constants.DefaultHabitColor
	}
	if in.Icon == "" {
		in.Icon = constants.DefaultHabitIcon
	}
	return in
}

// HabitService manages the habit lifecycle: create, update, soft delete and
// the monthly home view.
type HabitService struct {
	repo  repository.HabitRepository
	views *cache.ViewCache[[]models.Habit]
	opts  Options
}

// NewHabitService creates a new HabitService.
func NewHabitService(repo repository.HabitRepository, views *cache.ViewCache[[]models.Habit], opts Options) *HabitService {
	return &HabitService{
		repo:  repo,
		views: views,
		opts:  opts.withDefaults(),
	}
}

// Create validates input and stores a new active habit for userID.
func (s *HabitService) Create(ctx context.Context, userID string, input HabitInput) (*models.Habit, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	input = input.normalized()
	if err := validateStruct(ErrInvalidHabit, input); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.storeContext(ctx)
	defer cancel()

	habit := &models.Habit{
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		Icon:        input.Icon,
	}

	err := s.repo.Transaction(ctx, func(tx repository.HabitRepository) error {
		if err := lockOwner(ctx, tx, userID); err != nil {
			return err
		}
		if err := ensureNameAvailable(ctx, tx, userID, input.Name, ""); err != nil {
			return err
		}
		if err := tx.Create(ctx, habit); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrHabitNameTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHabitNameTaken) || errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		return nil, s.opts.storeFailure(ctx, "create habit", err)
	}

	s.views.Invalidate(userID)
	s.opts.Logger.Info("habit created", "user", userID, "habit", habit.ID)
	return habit, nil
}

// Update replaces the editable fields of an active habit owned by userID.
func (s *HabitService) Update(ctx context.Context, habitID, userID string, input HabitInput) (*models.Habit, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(habitID) == "" {
		return nil, &ValidationError{Kind: ErrInvalidHabitID, Fields: map[string]string{"habitId": "required"}}
	}

	input = input.normalized()
	if err := validateStruct(ErrInvalidHabit, input); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.storeContext(ctx)
	defer cancel()

	var updated *models.Habit
	err := s.repo.Transaction(ctx, func(tx repository.HabitRepository) error {
		if err := lockOwner(ctx, tx, userID); err != nil {
			return err
		}

		habit, err := tx.FindActive(ctx, habitID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return err
		}

		if input.Name != habit.Name {
			if err := ensureNameAvailable(ctx, tx, userID, input.Name, habit.ID); err != nil {
				return err
			}
		}

		habit.Name = input.Name
		habit.Description = input.Description
		habit.Color = input.Color
		habit.Icon = input.Icon

		if err := tx.Update(ctx, habit); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrHabitNameTaken
			}
			return err
		}
		updated = habit
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) || errors.Is(err, ErrHabitNameTaken) || errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		return nil, s.opts.storeFailure(ctx, "update habit", err)
	}

	s.views.Invalidate(userID)
	return updated, nil
}

// SoftDelete retires an active habit owned by userID. Its entries are kept.
func (s *HabitService) SoftDelete(ctx context.Context, habitID, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if strings.TrimSpace(habitID) == "" {
		return &ValidationError{Kind: ErrInvalidHabitID, Fields: map[string]string{"habitId": "required"}}
	}

	ctx, cancel := s.opts.storeContext(ctx)
	defer cancel()

	err := s.repo.Transaction(ctx, func(tx repository.HabitRepository) error {
		if _, err := tx.FindActive(ctx, habitID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return err
		}

		rows, err := tx.SoftDelete(ctx, habitID, userID, s.opts.Now().UTC())
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrHabitNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return err
		}
		return s.opts.storeFailure(ctx, "delete habit", err)
	}

	s.views.Invalidate(userID)
	s.opts.Logger.Info("habit deleted", "user", userID, "habit", habitID)
	return nil
}

// ListActive returns the user's active habits with their entries for the
// month containing month. Results are served from the view cache when fresh.
func (s *HabitService) ListActive(ctx context.Context, userID string, month time.Time) ([]models.Habit, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	from, to := MonthRange(month)
	key := from.Format(constants.MonthLayout)

	cacheable := s.cacheableMonth(from)
	var generation uint64
	if cacheable {
		cached, gen, ok := s.views.Get(userID, key)
		if ok {
			return cached, nil
		}
		generation = gen
	}

	ctx, cancel := s.opts.storeContext(ctx)
	defer cancel()

	habits, err := s.repo.ListActive(ctx, userID, from, to)
	if err != nil {
		return nil, s.opts.storeFailure(ctx, "list habits", err)
	}

	if cacheable {
		s.views.Set(userID, key, generation, habits)
	}
	return habits, nil
}

// cacheableMonth reports whether the month starting at from is within one
// month of the current one. Other months are read through, which bounds the
// cache to three views per user.
func (s *HabitService) cacheableMonth(from time.Time) bool {
	current, _ := MonthRange(s.opts.Now())
	diff := (from.Year()-current.Year())*12 + int(from.Month()) - int(current.Month())
	return diff >= -1 && diff <= 1
}

// lockOwner holds the user's row for the rest of the transaction so two
// writers cannot both pass the name check. MySQL has no partial unique index
// behind that check. A session whose user is gone is unauthorized.
func lockOwner(ctx context.Context, repo repository.HabitRepository, userID string) error {
	err := repo.LockUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnauthorized
	}
	return err
}

// ensureNameAvailable fails with ErrHabitNameTaken when another active habit
// of the user already has name.
func ensureNameAvailable(ctx context.Context, repo repository.HabitRepository, userID, name, excludeID string) error {
	_, err := repo.FindActiveByName(ctx, userID, name, excludeID)
	switch {
	case err == nil:
		return ErrHabitNameTaken
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}
