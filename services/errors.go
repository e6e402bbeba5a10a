package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/repositories"
)

// Категории ошибок, используемые в маппинге HTTP.
var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrConflict           = errors.New("conflicts with current state")
	ErrPreconditionFailed = errors.New("precondition failed")
)

// Specific errors. Each wraps exactly one category.
var (
	ErrTournamentNotFound = fmt.Errorf("%w: tournament not found", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("%w: match not found", ErrNotFound)

	ErrUnsupportedFormat       = fmt.Errorf("%w: unsupported tournament format", ErrValidationFailed)
	ErrInvalidParticipantCount = fmt.Errorf("%w: invalid participant count", ErrValidationFailed)
	ErrTournamentFull          = fmt.Errorf("%w: confirmed participants exceed max_participants", ErrValidationFailed)
	ErrInvalidScore            = fmt.Errorf("%w: invalid score", ErrValidationFailed)

	ErrScheduleAlreadyExists  = fmt.Errorf("%w: schedule already exists", ErrConflict)
	ErrTournamentNotUpcoming  = fmt.Errorf("%w: tournament is not upcoming", ErrConflict)
	ErrTournamentCompleted    = fmt.Errorf("%w: tournament is completed", ErrConflict)
	ErrMatchAlreadyCompleted  = fmt.Errorf("%w: match already completed", ErrConflict)
	ErrSlotConflict           = fmt.Errorf("%w: successor slot holds another participant", ErrConflict)
	ErrConcurrentModification = fmt.Errorf("%w: concurrent modification, try again", ErrConflict)
	ErrScheduleInconsistent   = fmt.Errorf("%w: stored schedule is inconsistent", ErrConflict)

	ErrMatchAwaitingParticipant = fmt.Errorf("%w: match is awaiting a participant", ErrPreconditionFailed)
)

func isClassified(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrPreconditionFailed)
}

// classify wraps engine and repository errors into the service taxonomy.
// The original error stays in the chain.
func classify(err error) error {
	if err == nil || isClassified(err) {
		return err
	}

	var specific error
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		specific = ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		specific = ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchNumberConflict):
		specific = ErrScheduleAlreadyExists
	case errors.Is(err, brackets.ErrUnsupportedFormat):
		specific = ErrUnsupportedFormat
	case errors.Is(err, brackets.ErrInvalidParticipantCount),
		errors.Is(err, brackets.ErrDuplicateParticipant):
		specific = ErrInvalidParticipantCount
	case errors.Is(err, brackets.ErrScoreMissing),
		errors.Is(err, brackets.ErrScoreNegative),
		errors.Is(err, brackets.ErrScoreTied):
		specific = ErrInvalidScore
	case errors.Is(err, brackets.ErrMatchCompleted):
		specific = ErrMatchAlreadyCompleted
	case errors.Is(err, brackets.ErrMatchAwaitingParticipant):
		specific = ErrMatchAwaitingParticipant
	case errors.Is(err, brackets.ErrSlotOccupied):
		specific = ErrSlotConflict
	case errors.Is(err, brackets.ErrMatchWithoutWinner),
		errors.Is(err, brackets.ErrSuccessorMissing),
		errors.Is(err, brackets.ErrMatchNotInSchedule):
		specific = ErrScheduleInconsistent
	default:
		return err
	}
	return fmt.Errorf("%w: %w", specific, err)
}
