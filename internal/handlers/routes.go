package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/habit-tracker-api/internal/middleware"
)

// RegisterRoutes mounts the health check and the /api routes on r. Session
// middleware must already be installed.
func RegisterRoutes(r gin.IRouter, authHandler *AuthHandler, habitHandler *HabitHandler, entryHandler *EntryHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Habit Tracker API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Habit routes (protected)
		habits := api.Group("/habits")
		habits.Use(middleware.RequireAuth())
		{
			habits.GET("", habitHandler.ListHabits)
			habits.POST("", habitHandler.CreateHabit)
			habits.POST("/suggest", habitHandler.SuggestHabits)
			habits.PUT("/:id", middleware.RequireHabitID(), habitHandler.UpdateHabit)
			habits.DELETE("/:id", middleware.RequireHabitID(), habitHandler.DeleteHabit)
			habits.POST("/:id/entries", middleware.RequireHabitID(), entryHandler.ToggleEntry)
			habits.GET("/:id/entries", middleware.RequireHabitID(), entryHandler.ListEntries)
		}
	}
}
