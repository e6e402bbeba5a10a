package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/bracket-engine/services"
)

type BracketHandler struct {
	bracketService services.BracketService
	logger         *slog.Logger
}

func NewBracketHandler(bracketService services.BracketService, logger *slog.Logger) *BracketHandler {
	return &BracketHandler{
		bracketService: bracketService,
		logger:         logger,
	}
}

func (h *BracketHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GenerateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.bracketService.GenerateSchedule(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.logger.Info("organizer action", slog.String("action", "generate_schedule"),
		slog.Int("tournament_id", tournamentID), actingUser(r))

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) DeleteScheduleHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bracketService.DeleteSchedule(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.logger.Info("organizer action", slog.String("action", "delete_schedule"),
		slog.Int("tournament_id", tournamentID), actingUser(r))

	w.WriteHeader(http.StatusNoContent)
}
