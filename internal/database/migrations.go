package database

import (
	"fmt"

	"gorm.io/gorm"
)

// activeHabitNameIndex backs the per-user name uniqueness of active habits.
// MySQL has no partial indexes; there the check stays application-only.
const activeHabitNameIndex = "idx_habits_user_active_name"

// AddIndexes adds indexes AutoMigrate cannot express from struct tags.
func AddIndexes(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
	default:
		return nil
	}

	if db.Migrator().HasIndex("habits", activeHabitNameIndex) {
		return nil
	}

	sql := fmt.Sprintf(
		"CREATE UNIQUE INDEX %s ON habits (user_id, name) WHERE is_deleted = false",
		activeHabitNameIndex,
	)
	if err := db.Exec(sql).Error; err != nil {
		return fmt.Errorf("failed to create index %s: %w", activeHabitNameIndex, err)
	}

	return nil
}
