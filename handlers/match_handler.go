package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/bracket-engine/services"
)

type MatchHandler struct {
	bracketService services.BracketService
	logger         *slog.Logger
}

func NewMatchHandler(bracketService services.BracketService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		bracketService: bracketService,
		logger:         logger,
	}
}

// SubmitScoreHandler фиксирует счет матча и продвигает победителя.
func (h *MatchHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.SubmitScore(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.logger.Info("organizer action", slog.String("action", "submit_score"),
		slog.Int("match_id", matchID), actingUser(r))

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
