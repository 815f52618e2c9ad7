package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/habit-tracker-api/internal/errors"
)

// RequireHabitID validates the :id path parameter. IDs that cannot exist get
// the same 404 as habits owned by someone else, so nothing leaks.
func RequireHabitID() gin.HandlerFunc {
	return func(c *gin.Context) {
		habitID := c.Param("id")
		if _, err := uuid.Parse(habitID); err != nil {
			apierrors.NotFound(c, "Habit not found")
			return
		}

		c.Set(constants.ContextKeyHabitID, habitID)
		c.Next()
	}
}

// GetHabitID retrieves the habit ID stored by RequireHabitID
func GetHabitID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyHabitID)
}
