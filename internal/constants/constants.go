package constants

import "time"

// Session
const (
	ContextKeyUserID  = "user_id"
	SessionCookieName = "habit_session"
	SessionMaxAge     = 86400 * 7 // 7 days
)

// Auth
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	BcryptCost        = 12
)

// Habit fields
const (
	MaxHabitNameLength        = 50
	MaxHabitDescriptionLength = 100
	MaxHabitIconLength        = 2
	DefaultHabitColor         = "#E040FB"
	DefaultHabitIcon          = "📝"
)

// Context keys set by middleware
const (
	ContextKeyHabitID = "habit_id"
)

// Store
const (
	DefaultStoreTimeout = 5 * time.Second
)

// AI
const (
	MaxAISuggestedHabits = 5
	MaxAIInputLength     = 2000
)

// Calendar
const (
	MonthLayout = "2006-01"
	DayLayout   = "2006-01-02"
)
