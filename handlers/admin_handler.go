package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Aldiyar97/quiz-league/services"
)

// AdminHandler exposes the ladder bootstrap and the cron-triggered batch
// operations: snapshot build, promotion processing and life regeneration.
type AdminHandler struct {
	divisionService  services.DivisionService
	rankingService   services.RankingService
	promotionService services.PromotionService
	livesService     services.LivesService
}

func NewAdminHandler(
	divisionService services.DivisionService,
	rankingService services.RankingService,
	promotionService services.PromotionService,
	livesService services.LivesService,
) *AdminHandler {
	return &AdminHandler{
		divisionService:  divisionService,
		rankingService:   rankingService,
		promotionService: promotionService,
		livesService:     livesService,
	}
}

// SeedDivisions applies the default ladder. Safe to call repeatedly.
func (h *AdminHandler) SeedDivisions(w http.ResponseWriter, r *http.Request) {
	divisions, err := h.divisionService.Seed(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"divisions": divisions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CalculateRankings builds the weekly snapshot for every division.
func (h *AdminHandler) CalculateRankings(w http.ResponseWriter, r *http.Request) {
	weekStart, ok := readWeekStart(w, r)
	if !ok {
		return
	}

	result, err := h.rankingService.BuildWeek(r.Context(), weekStart)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ProcessPromotions runs promotion/relegation over the week's snapshots.
func (h *AdminHandler) ProcessPromotions(w http.ResponseWriter, r *http.Request) {
	weekStart, ok := readWeekStart(w, r)
	if !ok {
		return
	}

	result, err := h.promotionService.ProcessWeek(r.Context(), weekStart)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegenerateLives runs the hourly catch-up over all users below max lives.
func (h *AdminHandler) RegenerateLives(w http.ResponseWriter, r *http.Request) {
	result, err := h.livesService.RegenerateAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// readWeekStart parses the optional {"week_start": "YYYY-MM-DD"} body.
// An empty body or empty field means the current week.
func readWeekStart(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	var input struct {
		WeekStart string `json:"week_start"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return time.Time{}, false
		}
	}
	if input.WeekStart == "" {
		return time.Now(), true
	}
	weekStart, err := time.Parse("2006-01-02", input.WeekStart)
	if err != nil {
		badRequestResponse(w, r, errors.New("week_start must be formatted YYYY-MM-DD"))
		return time.Time{}, false
	}
	return weekStart, true
}
