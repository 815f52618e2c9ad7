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

// EntryHandler serves per-day completion of habits.
type EntryHandler struct {
	entryService *services.EntryService
	now          func() time.Time
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryService *services.EntryService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		now:          time.Now,
	}
}

type toggleEntryRequest struct {
	Date     string `json:"date"`
	TimeZone string `json:"timezone"`
}

// ToggleEntry flips the completion of the habit in the path for the given day.
func (h *EntryHandler) ToggleEntry(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req toggleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.entryService.Toggle(c.Request.Context(), userID, services.ToggleInput{
		HabitID:  middleware.GetHabitID(c),
		Date:     req.Date,
		TimeZone: req.TimeZone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToggleResponse{
		Success: true,
		Action:  string(result.Action),
		Entry:   dto.ToHabitEntryDTO(result.Entry),
	})
}

// ListEntries returns the history of a habit for days in [from, to), both
// YYYY-MM-DD. The range defaults to the current month.
func (h *EntryHandler) ListEntries(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	from, to := services.MonthRange(h.now().UTC())

	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := time.Parse(constants.DayLayout, raw)
		if err != nil {
			apierrors.BadRequestWithDetails(c, "Invalid date range", map[string]string{"from": constants.DayLayout})
			return
		}
		from = parsed
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		parsed, err := time.Parse(constants.DayLayout, raw)
		if err != nil {
			apierrors.BadRequestWithDetails(c, "Invalid date range", map[string]string{"to": constants.DayLayout})
			return
		}
		to = parsed
	}

	entries, err := h.entryService.ListEntries(c.Request.Context(), userID, middleware.GetHabitID(c), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": dto.ToHabitEntryDTOs(entries),
	})
}
