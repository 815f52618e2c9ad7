package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Habit is a tracked behavior. Habits are never removed: deletion sets
// IsDeleted and DeletedAt, and every active query filters on IsDeleted.
type Habit struct {
	ID          string     `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID      string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name        string     `gorm:"type:varchar(50);not null" json:"name"`
	Description string     `gorm:"type:varchar(100);not null" json:"description"`
	Color       string     `gorm:"type:varchar(7);not null;default:'#E040FB'" json:"color"`
	Icon        string     `gorm:"type:varchar(16);not null;default:'📝'" json:"icon"`
	IsDeleted   bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	User    User         `gorm:"foreignKey:UserID" json:"-"`
	Entries []HabitEntry `gorm:"foreignKey:HabitID" json:"entries,omitempty"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
