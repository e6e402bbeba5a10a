package brackets

import (
	"context"
	"math/rand"
	"time"

	"github.com/Dosada05/bracket-engine/models"
)

type GenerateBracketParams struct {
	TournamentID int
	Participants []int
	// Rand drives the shuffle. nil means a time-seeded source.
	Rand *rand.Rand
	// ScheduledAt is copied onto every generated match when set.
	ScheduledAt *time.Time
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// BracketMatch is a generated match before persistence. NextMatchNumber and
// NextSlot describe where the winner goes; both are nil for the final and for
// every league match.
type BracketMatch struct {
	Round        int
	MatchNumber  int
	OrderInRound int

	Participant1ID *int
	Participant2ID *int

	NextMatchNumber *int
	NextSlot        *models.Slot

	ScheduledAt *time.Time
}

// ToMatch converts the generated record into a schedulable match row.
func (bm *BracketMatch) ToMatch(tournamentID int) *models.Match {
	m := &models.Match{
		TournamentID: tournamentID,
		RoundNumber:  bm.Round,
		MatchNumber:  bm.MatchNumber,
		Status:       models.MatchStatusScheduled,
	}
	if bm.Participant1ID != nil {
		m.SetSlot(models.SlotA, *bm.Participant1ID)
	}
	if bm.Participant2ID != nil {
		m.SetSlot(models.SlotB, *bm.Participant2ID)
	}
	if bm.ScheduledAt != nil {
		t := *bm.ScheduledAt
		m.ScheduledAt = &t
	}
	return m
}

// ToMatches converts a whole generated schedule.
func ToMatches(tournamentID int, generated []*BracketMatch) []*models.Match {
	matches := make([]*models.Match, 0, len(generated))
	for _, bm := range generated {
		matches = append(matches, bm.ToMatch(tournamentID))
	}
	return matches
}

func shuffledParticipants(params GenerateBracketParams) []int {
	shuffled := make([]int, len(params.Participants))
	copy(shuffled, params.Participants)

	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

func checkDistinct(participants []int) error {
	seen := make(map[int]struct{}, len(participants))
	for _, id := range participants {
		if _, dup := seen[id]; dup {
			return ErrDuplicateParticipant
		}
		seen[id] = struct{}{}
	}
	return nil
}
