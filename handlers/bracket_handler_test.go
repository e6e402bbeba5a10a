package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBracketService struct {
	generate func(ctx context.Context, tournamentID int) ([]*models.Match, error)
	submit   func(ctx context.Context, matchID int, input services.SubmitScoreInput) (*services.ScoreResult, error)
	remove   func(ctx context.Context, tournamentID int) error
	get      func(ctx context.Context, tournamentID int) (*services.BracketView, error)
}

func (f *fakeBracketService) GenerateSchedule(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	return f.generate(ctx, tournamentID)
}

func (f *fakeBracketService) SubmitScore(ctx context.Context, matchID int, input services.SubmitScoreInput) (*services.ScoreResult, error) {
	return f.submit(ctx, matchID, input)
}

func (f *fakeBracketService) DeleteSchedule(ctx context.Context, tournamentID int) error {
	return f.remove(ctx, tournamentID)
}

func (f *fakeBracketService) GetBracket(ctx context.Context, tournamentID int) (*services.BracketView, error) {
	return f.get(ctx, tournamentID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(svc services.BracketService) http.Handler {
	bh := NewBracketHandler(svc, testLogger())
	mh := NewMatchHandler(svc, testLogger())

	r := chi.NewRouter()
	r.Get("/tournaments/{tournamentID}/bracket", bh.GetBracketHandler)
	r.Post("/tournaments/{tournamentID}/schedule", bh.GenerateScheduleHandler)
	r.Delete("/tournaments/{tournamentID}/schedule", bh.DeleteScheduleHandler)
	r.Put("/matches/{matchID}/score", mh.SubmitScoreHandler)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func intPtr(v int) *int { return &v }

func TestGenerateScheduleHandler(t *testing.T) {
	var gotID int
	svc := &fakeBracketService{
		generate: func(_ context.Context, tournamentID int) ([]*models.Match, error) {
			gotID = tournamentID
			return []*models.Match{{ID: 1, TournamentID: tournamentID, RoundNumber: 1, MatchNumber: 1}}, nil
		},
	}

	rec, body := do(t, newTestRouter(svc), http.MethodPost, "/tournaments/5/schedule", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 5, gotID)

	var matches []models.Match
	require.NoError(t, json.Unmarshal(body["matches"], &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, 5, matches[0].TournamentID)
}

func TestHandlers_InvalidID(t *testing.T) {
	router := newTestRouter(&fakeBracketService{})

	for _, target := range []string{"/tournaments/abc/bracket", "/tournaments/0/bracket", "/tournaments/-3/bracket"} {
		rec, body := do(t, router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, body, "error")
	}
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrTournamentNotFound, http.StatusNotFound},
		{services.ErrMatchNotFound, http.StatusNotFound},
		{services.ErrInvalidParticipantCount, http.StatusUnprocessableEntity},
		{services.ErrUnsupportedFormat, http.StatusUnprocessableEntity},
		{services.ErrInvalidScore, http.StatusUnprocessableEntity},
		{services.ErrScheduleAlreadyExists, http.StatusConflict},
		{services.ErrMatchAlreadyCompleted, http.StatusConflict},
		{services.ErrConcurrentModification, http.StatusConflict},
		{services.ErrMatchAwaitingParticipant, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", services.ErrSlotConflict), http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, req, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestDeleteScheduleHandler(t *testing.T) {
	svc := &fakeBracketService{
		remove: func(_ context.Context, tournamentID int) error {
			if tournamentID == 2 {
				return services.ErrTournamentCompleted
			}
			return nil
		},
	}
	router := newTestRouter(svc)

	rec, _ := do(t, router, http.MethodDelete, "/tournaments/1/schedule", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec, _ = do(t, router, http.MethodDelete, "/tournaments/2/schedule", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetBracketHandler(t *testing.T) {
	svc := &fakeBracketService{
		get: func(_ context.Context, tournamentID int) (*services.BracketView, error) {
			return &services.BracketView{
				TournamentID: tournamentID,
				Format:       models.FormatKnockout,
				TotalRounds:  2,
				Rounds: []services.RoundView{
					{Number: 1, Name: "Semifinal"},
					{Number: 2, Name: "Final"},
				},
			}, nil
		},
	}

	rec, body := do(t, newTestRouter(svc), http.MethodGet, "/tournaments/9/bracket", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view services.BracketView
	require.NoError(t, json.Unmarshal(body["bracket"], &view))
	assert.Equal(t, 9, view.TournamentID)
	require.Len(t, view.Rounds, 2)
	assert.Equal(t, "Final", view.Rounds[1].Name)
}
