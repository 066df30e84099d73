package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Aldiyar97/quiz-league/middleware"
	"github.com/Aldiyar97/quiz-league/services"
)

type LivesHandler struct {
	livesService services.LivesService
}

func NewLivesHandler(livesService services.LivesService) *LivesHandler {
	return &LivesHandler{livesService: livesService}
}

// Get returns the caller's life pool with pending regeneration applied.
func (h *LivesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	pool, err := h.livesService.Get(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"lives": pool}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Action dispatches on {"action": "..."}; "consume" is the only one today.
func (h *LivesHandler) Action(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	var input struct {
		Action string `json:"action"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	switch input.Action {
	case "consume":
		pool, err := h.livesService.Consume(r.Context(), userID)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusOK, jsonResponse{"lives": pool}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	case "":
		badRequestResponse(w, r, errors.New("action is required"))
	default:
		badRequestResponse(w, r, fmt.Errorf("unknown action %q", input.Action))
	}
}
