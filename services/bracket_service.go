package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/realtime"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/Dosada05/bracket-engine/storage"
)

const archiveTimeout = 10 * time.Second

// EventPublisher pushes live updates to subscribers of a tournament.
type EventPublisher interface {
	Publish(ctx context.Context, tournamentID int, eventType string, payload interface{})
}

// ResultArchiver stores the final result of a completed tournament.
type ResultArchiver interface {
	Archive(ctx context.Context, result storage.TournamentResult) (*storage.StoredObject, error)
}

type SubmitScoreInput struct {
	ScoreA *int `json:"score_a"`
	ScoreB *int `json:"score_b"`
}

type ScoreResult struct {
	Match               *models.Match `json:"match"`
	AdvancedTo          *models.Match `json:"advanced_to,omitempty"`
	TournamentCompleted bool          `json:"tournament_completed"`
	ChampionID          *int          `json:"champion_id,omitempty"`
}

type RoundView struct {
	Number  int             `json:"number"`
	Name    string          `json:"name"`
	Matches []*models.Match `json:"matches"`
}

type BracketView struct {
	TournamentID        int                     `json:"tournament_id"`
	Name                string                  `json:"name"`
	Format              models.TournamentFormat `json:"format"`
	Status              models.TournamentStatus `json:"status"`
	WinnerParticipantID *int                    `json:"winner_participant_id,omitempty"`
	ParticipantCount    int                     `json:"participant_count"`
	TotalRounds         int                     `json:"total_rounds"`
	Rounds              []RoundView             `json:"rounds"`
}

type BracketService interface {
	GenerateSchedule(ctx context.Context, tournamentID int) ([]*models.Match, error)
	SubmitScore(ctx context.Context, matchID int, input SubmitScoreInput) (*ScoreResult, error)
	DeleteSchedule(ctx context.Context, tournamentID int) error
	GetBracket(ctx context.Context, tournamentID int) (*BracketView, error)
}

type BracketServiceConfig struct {
	Policy         brackets.PolicyOptions
	MaxAttempts    int
	RetryBaseDelay time.Duration
	// NewRand returns the shuffle source for one generation. nil seeds from the clock.
	NewRand func() *rand.Rand
}

func DefaultBracketServiceConfig() BracketServiceConfig {
	return BracketServiceConfig{
		Policy:         brackets.DefaultPolicyOptions(),
		MaxAttempts:    defaultTxMaxAttempts,
		RetryBaseDelay: defaultTxRetryBaseDelay,
	}
}

type bracketService struct {
	runner          *txRunner
	tournamentRepo  repositories.TournamentRepository
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	cache           *repositories.BracketCache
	publisher       EventPublisher
	archiver        ResultArchiver
	cfg             BracketServiceConfig
	logger          *slog.Logger
}

// NewBracketService wires the orchestrator. cache, publisher and archiver are
// optional.
func NewBracketService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	cache *repositories.BracketCache,
	publisher EventPublisher,
	archiver ResultArchiver,
	cfg BracketServiceConfig,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "bracket"))
	return &bracketService{
		runner: &txRunner{
			tx:          tx,
			maxAttempts: cfg.MaxAttempts,
			baseDelay:   cfg.RetryBaseDelay,
			logger:      logger,
		},
		tournamentRepo:  tournamentRepo,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		cache:           cache,
		publisher:       publisher,
		archiver:        archiver,
		cfg:             cfg,
		logger:          logger,
	}
}

func (s *bracketService) newRand() *rand.Rand {
	if s.cfg.NewRand == nil {
		return nil
	}
	return s.cfg.NewRand()
}

func (s *bracketService) GenerateSchedule(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	var created []*models.Match

	err := s.runner.run(ctx, "generate_schedule", func(ctx context.Context, exec repositories.SQLExecutor) error {
		created = nil

		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID, true)
		if err != nil {
			return err
		}

		existing, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: tournament %d has %d matches", ErrScheduleAlreadyExists, tournamentID, len(existing))
		}
		if tournament.Status != models.StatusUpcoming {
			return fmt.Errorf("%w: status is %s", ErrTournamentNotUpcoming, tournament.Status)
		}

		policy, err := brackets.PolicyFor(tournament.Format, s.cfg.Policy)
		if err != nil {
			return err
		}

		participants, err := s.participantRepo.ListConfirmedIDs(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.MaxParticipants > 0 && len(participants) > tournament.MaxParticipants {
			return fmt.Errorf("%w: %d confirmed, limit %d", ErrTournamentFull, len(participants), tournament.MaxParticipants)
		}
		if err := policy.ValidateParticipantCount(len(participants)); err != nil {
			return err
		}

		generated, err := policy.GenerateBracket(ctx, brackets.GenerateBracketParams{
			TournamentID: tournamentID,
			Participants: participants,
			Rand:         s.newRand(),
		})
		if err != nil {
			return fmt.Errorf("failed to generate %s schedule for tournament %d: %w", policy.GetName(), tournamentID, err)
		}

		matches := brackets.ToMatches(tournamentID, generated)
		if err := s.matchRepo.CreateBatch(ctx, exec, tournamentID, matches); err != nil {
			return err
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusLive); err != nil {
			return err
		}

		created = matches
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.logger.InfoContext(ctx, "schedule generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", len(created)))

	s.cache.Invalidate(tournamentID)
	s.publish(ctx, tournamentID, realtime.EventScheduleGenerated, created)
	return created, nil
}

// scoreOutcome is what one successful SubmitScore transaction produced.
type scoreOutcome struct {
	result     ScoreResult
	tournament *models.Tournament
	schedule   []*models.Match
}

func (s *bracketService) SubmitScore(ctx context.Context, matchID int, input SubmitScoreInput) (*ScoreResult, error) {
	if err := brackets.ValidateScores(input.ScoreA, input.ScoreB); err != nil {
		return nil, classify(err)
	}

	var outcome *scoreOutcome

	err := s.runner.run(ctx, "submit_score", func(ctx context.Context, exec repositories.SQLExecutor) error {
		outcome = nil

		// Read unlocked first to learn the tournament, then lock tournament
		// before match so lock order matches generation and deletion.
		peek, err := s.matchRepo.GetByID(ctx, exec, matchID, false)
		if err != nil {
			return err
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, peek.TournamentID, true)
		if err != nil {
			return err
		}
		match, err := s.matchRepo.GetByID(ctx, exec, matchID, true)
		if err != nil {
			return err
		}

		if _, err := brackets.ScoreMatch(match, input.ScoreA, input.ScoreB); err != nil {
			return err
		}
		if err := s.matchRepo.UpdateResult(ctx, exec, match); err != nil {
			return err
		}

		policy, err := brackets.PolicyFor(tournament.Format, s.cfg.Policy)
		if err != nil {
			return err
		}

		schedule, err := s.matchRepo.ListByTournament(ctx, exec, tournament.ID)
		if err != nil {
			return err
		}
		replaceInSchedule(schedule, match)

		res := &scoreOutcome{result: ScoreResult{Match: match}, tournament: tournament}

		placement, err := policy.Advance(match, schedule)
		if err != nil {
			return err
		}
		if placement != nil {
			target, err := s.matchRepo.GetByID(ctx, exec, placement.Match.ID, true)
			if err != nil {
				return err
			}
			changed, err := brackets.PlaceWinner(target, placement.Slot, placement.ParticipantID)
			if err != nil {
				return err
			}
			if changed {
				if err := s.matchRepo.UpdateSlots(ctx, exec, target); err != nil {
					return err
				}
			}
			replaceInSchedule(schedule, target)
			res.result.AdvancedTo = target
		}

		if policy.IsComplete(schedule) {
			if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournament.ID, models.StatusCompleted); err != nil {
				return err
			}
			tournament.Status = models.StatusCompleted

			if champion := policy.Champion(schedule); champion != nil {
				if err := s.tournamentRepo.UpdateWinner(ctx, exec, tournament.ID, champion); err != nil {
					return err
				}
				tournament.WinnerParticipantID = champion
				res.result.ChampionID = champion
			}
			res.result.TournamentCompleted = true
		}

		res.schedule = schedule
		outcome = res
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	tournamentID := outcome.tournament.ID
	s.logger.InfoContext(ctx, "score submitted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", matchID),
		slog.Int("winner_id", *outcome.result.Match.WinnerID),
		slog.Bool("tournament_completed", outcome.result.TournamentCompleted))

	s.cache.Invalidate(tournamentID)
	s.publish(ctx, tournamentID, realtime.EventMatchUpdated, outcome.result)
	if outcome.result.TournamentCompleted {
		s.publish(ctx, tournamentID, realtime.EventTournamentCompleted, outcome.tournament)
		s.archive(ctx, outcome)
	}

	result := outcome.result
	return &result, nil
}

func (s *bracketService) DeleteSchedule(ctx context.Context, tournamentID int) error {
	var deleted int

	err := s.runner.run(ctx, "delete_schedule", func(ctx context.Context, exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID, true)
		if err != nil {
			return err
		}
		if tournament.Status == models.StatusCompleted {
			return ErrTournamentCompleted
		}

		deleted, err = s.matchRepo.DeleteByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusUpcoming)
	})
	if err != nil {
		return classify(err)
	}

	s.logger.InfoContext(ctx, "schedule deleted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", deleted))

	s.cache.Invalidate(tournamentID)
	s.publish(ctx, tournamentID, realtime.EventScheduleDeleted, map[string]int{"deleted_matches": deleted})
	return nil
}

// GetBracket serves the bracket view. The three reads share one transaction
// so the view never mixes states from before and after a concurrent write.
func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	if snapshot, found := s.cache.Get(tournamentID); found {
		return s.buildView(snapshot)
	}

	generation := s.cache.Generation(tournamentID)
	var snapshot *repositories.BracketSnapshot

	err := s.runner.run(ctx, "get_bracket", func(ctx context.Context, exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID, false)
		if err != nil {
			return err
		}
		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		count, err := s.participantRepo.CountConfirmed(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		snapshot = &repositories.BracketSnapshot{
			Tournament:       tournament,
			Matches:          matches,
			ParticipantCount: count,
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	// Skipped when a write invalidated the tournament after generation was taken.
	s.cache.Set(tournamentID, generation, snapshot)
	return s.buildView(snapshot)
}

func (s *bracketService) buildView(snapshot *repositories.BracketSnapshot) (*BracketView, error) {
	t := snapshot.Tournament
	policy, err := brackets.PolicyFor(t.Format, s.cfg.Policy)
	if err != nil {
		return nil, classify(err)
	}

	view := &BracketView{
		TournamentID:        t.ID,
		Name:                t.Name,
		Format:              t.Format,
		Status:              t.Status,
		WinnerParticipantID: t.WinnerParticipantID,
		ParticipantCount:    snapshot.ParticipantCount,
		Rounds:              []RoundView{},
	}

	byRound := make(map[int][]*models.Match)
	for _, m := range snapshot.Matches {
		byRound[m.RoundNumber] = append(byRound[m.RoundNumber], m)
		if m.RoundNumber > view.TotalRounds {
			view.TotalRounds = m.RoundNumber
		}
	}
	// ListByTournament already orders by round and match number.
	for r := 1; r <= view.TotalRounds; r++ {
		matches := byRound[r]
		if matches == nil {
			matches = []*models.Match{}
		}
		view.Rounds = append(view.Rounds, RoundView{
			Number:  r,
			Name:    policy.RoundName(view.TotalRounds, r),
			Matches: matches,
		})
	}
	return view, nil
}

func (s *bracketService) publish(ctx context.Context, tournamentID int, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, tournamentID, eventType, payload)
}

// archive runs after commit; a failure is logged and never reaches the caller.
func (s *bracketService) archive(ctx context.Context, outcome *scoreOutcome) {
	if s.archiver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	stored, err := s.archiver.Archive(ctx, storage.TournamentResult{
		Tournament: outcome.tournament,
		ChampionID: outcome.result.ChampionID,
		Matches:    outcome.schedule,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to archive tournament result",
			slog.Int("tournament_id", outcome.tournament.ID),
			slog.Any("error", err))
		return
	}
	s.logger.InfoContext(ctx, "tournament result archived",
		slog.Int("tournament_id", outcome.tournament.ID),
		slog.String("url", stored.URL))
}

func replaceInSchedule(schedule []*models.Match, updated *models.Match) {
	for i, m := range schedule {
		if m.ID == updated.ID {
			schedule[i] = updated
			return
		}
	}
}
