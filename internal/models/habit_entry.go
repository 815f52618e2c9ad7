package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HabitEntry marks one completed day of a habit. A missing row means the day
// is not completed; rows are deleted, never updated, when toggled off.
type HabitEntry struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	HabitID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_habit_entries_habit_date" json:"habit_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_habit_entries_habit_date" json:"date"`
	Completed bool      `gorm:"not null;default:true" json:"completed"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Habit Habit `gorm:"foreignKey:HabitID" json:"-"`
}

func (e *HabitEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
