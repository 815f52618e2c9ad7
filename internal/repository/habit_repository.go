package repository

import (
	"context"
	"time"

	"github.com/yukikurage/habit-tracker-api/internal/database"
	"github.com/yukikurage/habit-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormHabitRepository is a GORM implementation of HabitRepository
type GormHabitRepository struct {
	db *gorm.DB
}

// NewHabitRepository creates a new HabitRepository
func NewHabitRepository(db *gorm.DB) HabitRepository {
	return &GormHabitRepository{db: db}
}

func (r *GormHabitRepository) Transaction(ctx context.Context, fn func(tx HabitRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormHabitRepository{db: tx})
	})
}

func (r *GormHabitRepository) LockUser(ctx context.Context, userID string) error {
	var user models.User
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		Where("id = ?", userID).
		First(&user).Error
}

func (r *GormHabitRepository) Create(ctx context.Context, habit *models.Habit) error {
	return r.db.WithContext(ctx).Create(habit).Error
}

func (r *GormHabitRepository) FindActive(ctx context.Context, id, userID string) (*models.Habit, error) {
	var habit models.Habit
	err := r.db.WithContext(ctx).
		Scopes(database.ActiveHabits, database.OwnedBy(userID)).
		Where("habits.id = ?", id).
		First(&habit).Error
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (r *GormHabitRepository) FindOwned(ctx context.Context, id, userID string) (*models.Habit, error) {
	var habit models.Habit
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID)).
		Where("habits.id = ?", id).
		First(&habit).Error
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (r *GormHabitRepository) FindActiveByName(ctx context.Context, userID, name, excludeID string) (*models.Habit, error) {
	query := r.db.WithContext(ctx).
		Scopes(database.ActiveHabits, database.OwnedBy(userID)).
		Where("habits.name = ?", name)
	if excludeID != "" {
		query = query.Where("habits.id <> ?", excludeID)
	}

	var habit models.Habit
	if err := query.First(&habit).Error; err != nil {
		return nil, err
	}
	return &habit, nil
}

func (r *GormHabitRepository) ListActive(ctx context.Context, userID string, from, to time.Time) ([]models.Habit, error) {
	var habits []models.Habit
	err := r.db.WithContext(ctx).
		Scopes(database.ActiveHabits, database.OwnedBy(userID)).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(database.EntriesBetween(from, to)).Order("habit_entries.date ASC")
		}).
		Order("habits.created_at ASC").
		Find(&habits).Error
	if err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *GormHabitRepository) Update(ctx context.Context, habit *models.Habit) error {
	return r.db.WithContext(ctx).
		Model(habit).
		Select("name", "description", "color", "icon", "updated_at").
		Updates(habit).Error
}

func (r *GormHabitRepository) SoftDelete(ctx context.Context, id, userID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Habit{}).
		Scopes(database.ActiveHabits, database.OwnedBy(userID)).
		Where("habits.id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *GormHabitRepository) FindEntry(ctx context.Context, habitID string, day time.Time) (*models.HabitEntry, error) {
	var entry models.HabitEntry
	err := r.db.WithContext(ctx).
		Where("habit_id = ? AND date = ?", habitID, day).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *GormHabitRepository) CreateEntry(ctx context.Context, entry *models.HabitEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormHabitRepository) DeleteEntry(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.HabitEntry{})
	return result.RowsAffected, result.Error
}

func (r *GormHabitRepository) ListEntries(ctx context.Context, habitID string, from, to time.Time) ([]models.HabitEntry, error) {
	var entries []models.HabitEntry
	err := r.db.WithContext(ctx).
		Scopes(database.EntriesBetween(from, to)).
		Where("habit_entries.habit_id = ?", habitID).
		Order("habit_entries.date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormHabitRepository) CountEntries(ctx context.Context, habitID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.HabitEntry{}).
		Where("habit_id = ?", habitID).
		Count(&count).Error
	return count, err
}
