package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
	"github.com/yukikurage/habit-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/habit-tracker-api/internal/errors"
	"github.com/yukikurage/habit-tracker-api/internal/middleware"
	"github.com/yukikurage/habit-tracker-api/internal/services"
)

// HabitHandler serves the habit lifecycle and the monthly home view.
type HabitHandler struct {
	habitService *services.HabitService
	aiService    *services.AIService
	now          func() time.Time
}

// NewHabitHandler creates a new HabitHandler. aiService may be nil, in which
// case suggestions answer 503.
func NewHabitHandler(habitService *services.HabitService, aiService *services.AIService) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
		aiService:    aiService,
		now:          time.Now,
	}
}

// habitRequest accepts both JSON bodies and HTML form posts.
type habitRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Color       string `json:"color" form:"color"`
	Icon        string `json:"icon" form:"icon"`
}

func (r habitRequest) input() services.HabitInput {
	return services.HabitInput{
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		Icon:        r.Icon,
	}
}

// ListHabits returns active habits with their entries for ?month=YYYY-MM,
// defaulting to the current month.
func (h *HabitHandler) ListHabits(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	month := h.now().UTC()
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.Parse(constants.MonthLayout, raw)
		if err != nil {
			apierrors.BadRequestWithDetails(c, "Invalid month", map[string]string{"month": constants.MonthLayout})
			return
		}
		month = parsed
	}

	habits, err := h.habitService.ListActive(c.Request.Context(), userID, month)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMonthViewResponse(month, habits))
}

// CreateHabit creates a habit for the current user.
func (h *HabitHandler) CreateHabit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req habitRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	habit, err := h.habitService.Create(c.Request.Context(), userID, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.HabitMutationResponse{
		Success: true,
		Habit:   dto.ToHabitDTO(*habit),
	})
}

// UpdateHabit replaces the editable fields of a habit.
func (h *HabitHandler) UpdateHabit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	habitID := middleware.GetHabitID(c)

	var req habitRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	habit, err := h.habitService.Update(c.Request.Context(), habitID, userID, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.HabitMutationResponse{
		Success: true,
		Habit:   dto.ToHabitDTO(*habit),
	})
}

// DeleteHabit soft-deletes a habit. Its history is kept.
func (h *HabitHandler) DeleteHabit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	habitID := middleware.GetHabitID(c)

	if err := h.habitService.SoftDelete(c.Request.Context(), habitID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

type suggestHabitsRequest struct {
	Text string `json:"text" binding:"required"`
}

// SuggestHabits returns AI habit ideas for a free-text goal. Nothing is stored.
func (h *HabitHandler) SuggestHabits(c *gin.Context) {
	var req suggestHabitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	suggestions, err := h.aiService.SuggestHabits(c.Request.Context(), req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
	})
}
