package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

// Placement says which slot of which match receives a winner.
type Placement struct {
	Match         *models.Match
	Slot          models.Slot
	ParticipantID int
}

// SuccessorPosition folds a 1-based position within a round onto the next
// round: the 0-based index of the successor match and the slot to fill.
func SuccessorPosition(position int) (int, models.Slot) {
	index := (position - 1) / 2
	if (position-1)%2 == 0 {
		return index, models.SlotA
	}
	return index, models.SlotB
}

// ValidateScores checks a reported result before it touches any match.
func ValidateScores(scoreA, scoreB *int) error {
	if scoreA == nil || scoreB == nil {
		return ErrScoreMissing
	}
	if *scoreA < 0 || *scoreB < 0 {
		return fmt.Errorf("%w: got %d-%d", ErrScoreNegative, *scoreA, *scoreB)
	}
	if *scoreA == *scoreB {
		return fmt.Errorf("%w: got %d-%d", ErrScoreTied, *scoreA, *scoreB)
	}
	return nil
}

// ScoreMatch records a result on m and returns the winner. m is left untouched
// when an error is returned.
func ScoreMatch(m *models.Match, scoreA, scoreB *int) (int, error) {
	if err := ValidateScores(scoreA, scoreB); err != nil {
		return 0, err
	}
	if m.IsCompleted() || m.WinnerID != nil {
		return 0, ErrMatchCompleted
	}
	if !m.IsReady() {
		return 0, ErrMatchAwaitingParticipant
	}

	winner := *m.SlotAID
	if *scoreB > *scoreA {
		winner = *m.SlotBID
	}

	a, b := *scoreA, *scoreB
	m.ScoreA = &a
	m.ScoreB = &b
	m.WinnerID = &winner
	m.Status = models.MatchStatusCompleted
	return winner, nil
}

// PlaceWinner writes participantID into slot of target. It reports whether
// target changed; placing the same participant twice is a no-op.
func PlaceWinner(target *models.Match, slot models.Slot, participantID int) (bool, error) {
	current := target.SlotID(slot)
	if current == nil {
		target.SetSlot(slot, participantID)
		return true, nil
	}
	if *current == participantID {
		return false, nil
	}
	return false, fmt.Errorf("%w: match %d slot %s holds %d, incoming %d",
		ErrSlotOccupied, target.MatchNumber, slot, *current, participantID)
}

// matchesInRound returns the round's matches ordered by match number.
func matchesInRound(schedule []*models.Match, round int) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range schedule {
		if m.RoundNumber == round {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out
}

func positionInRound(completed *models.Match, round []*models.Match) (int, error) {
	for i, m := range round {
		if m.MatchNumber == completed.MatchNumber {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: match number %d in round %d", ErrMatchNotInSchedule, completed.MatchNumber, completed.RoundNumber)
}

func placementForKnockout(completed *models.Match, schedule []*models.Match) (*Placement, error) {
	if completed.WinnerID == nil {
		return nil, fmt.Errorf("%w: match %d", ErrMatchWithoutWinner, completed.MatchNumber)
	}

	position, err := positionInRound(completed, matchesInRound(schedule, completed.RoundNumber))
	if err != nil {
		return nil, err
	}

	next := matchesInRound(schedule, completed.RoundNumber+1)
	if len(next) == 0 {
		return nil, nil
	}

	index, slot := SuccessorPosition(position)
	if index >= len(next) {
		return nil, fmt.Errorf("%w: round %d has %d matches, need index %d",
			ErrSuccessorMissing, completed.RoundNumber+1, len(next), index)
	}

	return &Placement{
		Match:         next[index],
		Slot:          slot,
		ParticipantID: *completed.WinnerID,
	}, nil
}

// isKnockoutComplete: no match with both slots filled is still scheduled.
// Placeholders still waiting for a participant do not count.
func isKnockoutComplete(schedule []*models.Match) bool {
	if len(schedule) == 0 {
		return false
	}
	for _, m := range schedule {
		if m.IsReady() && !m.IsCompleted() {
			return false
		}
	}
	return true
}

func finalMatch(schedule []*models.Match) *models.Match {
	var final *models.Match
	for _, m := range schedule {
		if final == nil || m.RoundNumber > final.RoundNumber ||
			(m.RoundNumber == final.RoundNumber && m.MatchNumber > final.MatchNumber) {
			final = m
		}
	}
	return final
}

func knockoutChampion(schedule []*models.Match) *int {
	final := finalMatch(schedule)
	if final == nil || !final.IsCompleted() || final.WinnerID == nil {
		return nil
	}
	id := *final.WinnerID
	return &id
}
