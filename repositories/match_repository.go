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
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchTournamentInvalid  = errors.New("match tournament conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
	ErrMatchNumberConflict     = errors.New("match number already used in this tournament")
)

type MatchRepository interface {
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	CreateBatch(ctx context.Context, exec SQLExecutor, tournamentID int, matches []*models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Match, error)
	// UpdateResult persists scores, winner and status.
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// UpdateSlots persists slot placement.
	UpdateSlots(ctx context.Context, exec SQLExecutor, match *models.Match) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sqlx.DB
}

func NewPostgresMatchRepository(db *sqlx.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round_number, match_number, slot_a_id, slot_b_id,
		score_a, score_b, winner_id, status, scheduled_at, created_at, updated_at`

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round_number ASC, match_number ASC`

	matches := make([]*models.Match, 0)
	if err := sqlx.SelectContext(ctx, r.getExecutor(exec), &matches, query, tournamentID); err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, tournamentID int, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, round_number, match_number, slot_a_id, slot_b_id, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	for _, m := range matches {
		m.TournamentID = tournamentID
		err := executor.QueryRowxContext(ctx, query,
			m.TournamentID,
			m.RoundNumber,
			m.MatchNumber,
			m.SlotAID,
			m.SlotBID,
			m.Status,
			m.ScheduledAt,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert match %d: %w", m.MatchNumber, r.handleMatchError(err))
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE id = $1` + lockClause(forUpdate)

	match := &models.Match{}
	if err := sqlx.GetContext(ctx, r.getExecutor(exec), match, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET score_a = $1, score_b = $2, winner_id = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowxContext(ctx, query,
		match.ScoreA, match.ScoreB, match.WinnerID, match.Status, match.ID,
	).Scan(&match.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("UpdateResult: failed for match %d: %w", match.ID, r.handleMatchError(err))
	}
	return nil
}

func (r *postgresMatchRepository) UpdateSlots(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `UPDATE matches SET slot_a_id = $1, slot_b_id = $2, updated_at = NOW() WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, match.SlotAID, match.SlotBID, match.ID)
	if err != nil {
		return fmt.Errorf("UpdateSlots: failed for match %d: %w", match.ID, r.handleMatchError(err))
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches for tournament %d: %w", tournamentID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(deleted), nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_slot_a_id_fkey", "matches_slot_b_id_fkey", "matches_winner_id_fkey":
			return ErrMatchParticipantInvalid
		case "matches_tournament_id_match_number_key":
			return ErrMatchNumberConflict
		}
	}
	return err
}
