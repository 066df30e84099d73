package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Aldiyar97/quiz-league/middleware"
	"github.com/Aldiyar97/quiz-league/services"
	"github.com/go-chi/chi/v5"
)

type DivisionHandler struct {
	divisionService services.DivisionService
	rankingService  services.RankingService
	statsService    services.StatsService
}

func NewDivisionHandler(
	divisionService services.DivisionService,
	rankingService services.RankingService,
	statsService services.StatsService,
) *DivisionHandler {
	return &DivisionHandler{
		divisionService: divisionService,
		rankingService:  rankingService,
		statsService:    statsService,
	}
}

// List returns the ladder ordered top tier first, for display.
func (h *DivisionHandler) List(w http.ResponseWriter, r *http.Request) {
	divisions, err := h.divisionService.List(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"divisions": divisions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Leaderboard returns the latest weekly snapshot for one division.
func (h *DivisionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	divisionID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || divisionID <= 0 {
		badRequestResponse(w, r, errors.New("invalid division id"))
		return
	}

	if _, err := h.divisionService.GetByID(r.Context(), divisionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	ranking, err := h.rankingService.GetLeaderboard(r.Context(), divisionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": ranking}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyDivision returns the caller's division, snapshot rank and weekly XP.
func (h *DivisionHandler) MyDivision(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	view, err := h.statsService.MyDivision(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
