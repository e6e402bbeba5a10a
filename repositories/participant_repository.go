package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/jmoiron/sqlx"
)

// ParticipantRepository reads registrations owned by the registration service.
type ParticipantRepository interface {
	CountConfirmed(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	ListConfirmedIDs(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error)
}

type postgresParticipantRepository struct {
	db *sqlx.DB
}

func NewPostgresParticipantRepository(db *sqlx.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) CountConfirmed(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM participants WHERE tournament_id = $1 AND status = $2`
	if err := sqlx.GetContext(ctx, r.getExecutor(exec), &count, query, tournamentID, models.ParticipantStatusConfirmed); err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) ListConfirmedIDs(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error) {
	ids := make([]int, 0)
	query := `SELECT id FROM participants WHERE tournament_id = $1 AND status = $2 ORDER BY id ASC`
	if err := sqlx.SelectContext(ctx, r.getExecutor(exec), &ids, query, tournamentID, models.ParticipantStatusConfirmed); err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	return ids, nil
}
