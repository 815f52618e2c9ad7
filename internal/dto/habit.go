package dto

import (
	"time"

	"github.com/yukikurage/habit-tracker-api/internal/constants"
	"github.com/yukikurage/habit-tracker-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserResponse wraps a user as {"user": {...}}
type UserResponse struct {
	User UserDTO `json:"user"`
}

// HabitEntryDTO represents a completed day. Date is YYYY-MM-DD.
type HabitEntryDTO struct {
	ID        string `json:"id"`
	HabitID   string `json:"habitId"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// HabitDTO represents a habit in API responses
type HabitDTO struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Color       string          `json:"color"`
	Icon        string          `json:"icon"`
	IsDeleted   bool            `json:"isDeleted"`
	DeletedAt   *time.Time      `json:"deletedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	Entries     []HabitEntryDTO `json:"entries,omitempty"`
}

// MonthViewResponse is the home view: active habits with one month of entries
type MonthViewResponse struct {
	Month  string     `json:"month"`
	Habits []HabitDTO `json:"habits"`
}

// HabitMutationResponse is returned by create and update
type HabitMutationResponse struct {
	Success bool     `json:"success"`
	Habit   HabitDTO `json:"habit"`
}

// ToggleResponse is returned by the entry toggle
type ToggleResponse struct {
	Success bool          `json:"success"`
	Action  string        `json:"action"`
	Entry   HabitEntryDTO `json:"entry"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
	}
}

// ToHabitEntryDTO converts a HabitEntry model to HabitEntryDTO
func ToHabitEntryDTO(entry models.HabitEntry) HabitEntryDTO {
	return HabitEntryDTO{
		ID:        entry.ID,
		HabitID:   entry.HabitID,
		Date:      entry.Date.UTC().Format(constants.DayLayout),
		Completed: entry.Completed,
	}
}

// ToHabitEntryDTOs converts entries, never returning nil
func ToHabitEntryDTOs(entries []models.HabitEntry) []HabitEntryDTO {
	out := make([]HabitEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = ToHabitEntryDTO(e)
	}
	return out
}

// ToHabitDTO converts a Habit model to HabitDTO, including preloaded entries
func ToHabitDTO(habit models.Habit) HabitDTO {
	dto := HabitDTO{
		ID:          habit.ID,
		UserID:      habit.UserID,
		Name:        habit.Name,
		Description: habit.Description,
		Color:       habit.Color,
		Icon:        habit.Icon,
		IsDeleted:   habit.IsDeleted,
		DeletedAt:   habit.DeletedAt,
		CreatedAt:   habit.CreatedAt,
	}

	if len(habit.Entries) > 0 {
		dto.Entries = ToHabitEntryDTOs(habit.Entries)
	}

	return dto
}

// ToMonthViewResponse converts the home view
func ToMonthViewResponse(month time.Time, habits []models.Habit) MonthViewResponse {
	items := make([]HabitDTO, len(habits))
	for i, h := range habits {
		items[i] = ToHabitDTO(h)
	}

	return MonthViewResponse{
		Month:  month.Format(constants.MonthLayout),
		Habits: items,
	}
}
