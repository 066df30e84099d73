package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Aldiyar97/quiz-league/middleware"
	"github.com/Aldiyar97/quiz-league/services"
)

type StatsHandler struct {
	statsService  services.StatsService
	streakService services.StreakService
}

func NewStatsHandler(statsService services.StatsService, streakService services.StreakService) *StatsHandler {
	return &StatsHandler{statsService: statsService, streakService: streakService}
}

// WeeklyXP returns the caller's day-by-day XP for one week. An optional
// ?week_start=YYYY-MM-DD selects a past week; the default is the current one.
func (h *StatsHandler) WeeklyXP(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	weekStart := time.Now()
	if raw := r.URL.Query().Get("week_start"); raw != "" {
		weekStart, err = time.Parse("2006-01-02", raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("week_start must be formatted YYYY-MM-DD"))
			return
		}
	}

	view, err := h.statsService.WeeklyXP(r.Context(), userID, weekStart)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StreakDetails returns the caller's current streak plus a day-by-day
// activity breakdown for charts. ?days controls the lookback (default 30).
func (h *StatsHandler) StreakDetails(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days <= 0 || days > 366 {
			badRequestResponse(w, r, errors.New("days must be an integer between 1 and 366"))
			return
		}
	}

	now := time.Now()
	streak, err := h.streakService.ComputeStreak(r.Context(), userID, now)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	details, err := h.streakService.Details(r.Context(), userID, now, days)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"streak": streak,
		"days":   details,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
