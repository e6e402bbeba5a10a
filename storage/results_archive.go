package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/bracket-engine/models"
)

// TournamentResult is the JSON document stored when a tournament completes.
type TournamentResult struct {
	Tournament *models.Tournament `json:"tournament"`
	ChampionID *int               `json:"champion_id,omitempty"`
	Matches    []*models.Match    `json:"matches"`
	ArchivedAt time.Time          `json:"archived_at"`
}

// ResultArchive writes final results of completed tournaments to object storage.
type ResultArchive struct {
	objects ObjectStore
	now      func() time.Time
}

func NewResultArchive(objects ObjectStore) *ResultArchive {
	return &ResultArchive{objects: objects, now: func() time.Time { return time.Now().UTC() }}
}

// ResultKey is the object key of a tournament's archived result.
func ResultKey(tournamentID int) string {
	return fmt.Sprintf("results/tournament_%d.json", tournamentID)
}

func (a *ResultArchive) Archive(ctx context.Context, result TournamentResult) (*StoredObject, error) {
	if result.Tournament == nil {
		return nil, errors.New("result archive: tournament is required")
	}
	if result.ArchivedAt.IsZero() {
		result.ArchivedAt = a.now()
	}

	body, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result of tournament %d: %w", result.Tournament.ID, err)
	}

	stored, err := a.objects.Put(ctx, ResultKey(result.Tournament.ID), ContentTypeJSON, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to archive result of tournament %d: %w", result.Tournament.ID, err)
	}
	return stored, nil
}
