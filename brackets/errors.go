package brackets

import "errors"

var (
	ErrUnsupportedFormat       = errors.New("unsupported tournament format")
	ErrInvalidParticipantCount = errors.New("invalid participant count for format")
	ErrDuplicateParticipant    = errors.New("participant listed more than once")

	ErrScoreMissing  = errors.New("both scores are required")
	ErrScoreNegative = errors.New("scores must be non-negative")
	ErrScoreTied     = errors.New("scores must not be equal")

	ErrMatchCompleted           = errors.New("match already completed")
	ErrMatchAwaitingParticipant = errors.New("cannot score a match awaiting a player")
	ErrSlotOccupied             = errors.New("successor slot already holds a different participant")
	ErrMatchWithoutWinner       = errors.New("cannot advance a match without a winner")
	ErrSuccessorMissing         = errors.New("successor match not found in schedule")
	ErrMatchNotInSchedule       = errors.New("match not found in schedule")
)
