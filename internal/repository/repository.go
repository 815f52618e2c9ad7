package repository

import (
	"context"
	"time"

	"github.com/yukikurage/habit-tracker-api/internal/models"
)

// HabitRepository defines data access for habits and their entries.
// Lookups return gorm.ErrRecordNotFound when nothing matches; writes that hit
// a unique constraint return gorm.ErrDuplicatedKey.
type HabitRepository interface {
	// Transaction runs fn against a repository bound to a single transaction.
	Transaction(ctx context.Context, fn func(tx HabitRepository) error) error

	// LockUser row-locks the user until the transaction ends, serializing
	// per-user invariant checks such as active-name uniqueness. It returns
	// gorm.ErrRecordNotFound when the user does not exist.
	LockUser(ctx context.Context, userID string) error

	// Create creates a new habit
	Create(ctx context.Context, habit *models.Habit) error

	// FindActive finds a non-deleted habit owned by userID
	FindActive(ctx context.Context, id, userID string) (*models.Habit, error)

	// FindOwned finds a habit owned by userID regardless of deletion state
	FindOwned(ctx context.Context, id, userID string) (*models.Habit, error)

	// FindActiveByName finds a non-deleted habit of userID with the given name,
	// skipping excludeID when it is non-empty
	FindActiveByName(ctx context.Context, userID, name, excludeID string) (*models.Habit, error)

	// ListActive lists a user's non-deleted habits with entries in [from, to)
	ListActive(ctx context.Context, userID string, from, to time.Time) ([]models.Habit, error)

	// Update persists the editable fields of a habit
	Update(ctx context.Context, habit *models.Habit) error

	// SoftDelete marks an active habit deleted and reports rows affected
	SoftDelete(ctx context.Context, id, userID string, at time.Time) (int64, error)

	// FindEntry finds the entry of a habit for a day
	FindEntry(ctx context.Context, habitID string, day time.Time) (*models.HabitEntry, error)

	// CreateEntry creates an entry
	CreateEntry(ctx context.Context, entry *models.HabitEntry) error

	// DeleteEntry hard deletes an entry and reports rows affected
	DeleteEntry(ctx context.Context, id string) (int64, error)

	// ListEntries lists a habit's entries in [from, to) ordered by day
	ListEntries(ctx context.Context, habitID string, from, to time.Time) ([]models.HabitEntry, error)

	// CountEntries counts all entries of a habit
	CountEntries(ctx context.Context, habitID string) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
