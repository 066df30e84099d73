package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Aldiyar97/quiz-league/middleware"
	"github.com/Aldiyar97/quiz-league/services"
	"github.com/go-chi/chi/v5"
)

type QuizHandler struct {
	attemptService services.AttemptService
}

func NewQuizHandler(attemptService services.AttemptService) *QuizHandler {
	return &QuizHandler{attemptService: attemptService}
}

// Start opens or resumes the caller's attempt for a quiz. A fresh start
// consumes one life.
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}

	progress, err := h.attemptService.StartQuiz(r.Context(), userID, quizID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": progress}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Answer submits the answer to the current question.
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}

	var input struct {
		ChoiceIndex *int `json:"choice_index"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ChoiceIndex == nil || *input.ChoiceIndex < 0 {
		badRequestResponse(w, r, errors.New("choice_index is required and must be non-negative"))
		return
	}

	result, err := h.attemptService.SubmitAnswer(r.Context(), userID, quizID, *input.ChoiceIndex)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reset discards current progress and starts over, consuming a life.
func (h *QuizHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := h.requestIdentity(w, r)
	if !ok {
		return
	}

	progress, err := h.attemptService.ResetQuiz(r.Context(), userID, quizID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"progress": progress}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QuizHandler) requestIdentity(w http.ResponseWriter, r *http.Request) (userID, quizID int, ok bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return 0, 0, false
	}
	quizID, err = strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || quizID <= 0 {
		badRequestResponse(w, r, errors.New("invalid quiz id"))
		return 0, 0, false
	}
	return userID, quizID, true
}
