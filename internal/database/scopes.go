package database

import (
	"time"

	"gorm.io/gorm"
)

// ActiveHabits restricts a habits query to rows that are not soft-deleted.
func ActiveHabits(db *gorm.DB) *gorm.DB {
	return db.Where("habits.is_deleted = ?", false)
}

// OwnedBy restricts a habits query to one user.
func OwnedBy(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("habits.user_id = ?", userID)
	}
}

// EntriesBetween restricts a habit_entries query to days in [from, to).
func EntriesBetween(from, to time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("habit_entries.date >= ? AND habit_entries.date < ?", from, to)
	}
}
