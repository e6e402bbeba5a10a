package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentInvalidWinner = errors.New("invalid winner participant reference")
)

type TournamentRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	// UpdateWinner sets or clears the overall winner of the tournament.
	UpdateWinner(ctx context.Context, exec SQLExecutor, id int, winnerParticipantID *int) error
}

type postgresTournamentRepository struct {
	db *sqlx.DB
}

func NewPostgresTournamentRepository(db *sqlx.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Tournament, error) {
	query := `
		SELECT id, name, format, status, max_participants, winner_participant_id, created_at, updated_at
		FROM tournaments
		WHERE id = $1` + lockClause(forUpdate)

	t := &models.Tournament{}
	if err := sqlx.GetContext(ctx, r.getExecutor(exec), t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateWinner(ctx context.Context, exec SQLExecutor, id int, winnerParticipantID *int) error {
	query := `UPDATE tournaments SET winner_participant_id = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, winnerParticipantID, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrTournamentInvalidWinner
		}
		return fmt.Errorf("failed to update tournament overall winner for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
