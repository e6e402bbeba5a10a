// bracket-engine/brackets/single_elimination.go
package brackets

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
)

// MinKnockoutParticipants is the smallest bracket the engine builds.
const MinKnockoutParticipants = 4

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() *SingleEliminationGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) Format() models.TournamentFormat {
	return models.FormatKnockout
}

// GenerateBracket lays out a full single-elimination schedule. Only round 1
// gets participants; later rounds are placeholders filled by advancement.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	n := len(params.Participants)
	if err := g.ValidateParticipantCount(n); err != nil {
		return nil, err
	}
	if err := checkDistinct(params.Participants); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shuffled := shuffledParticipants(params)
	numRounds := g.TotalRounds(n)

	allGeneratedMatches := make([]*BracketMatch, 0, n-1)
	matchNumber := 0
	roundStart := make(map[int]int, numRounds)

	for r := 1; r <= numRounds; r++ {
		matchesInRound := n >> uint(r)
		roundStart[r] = matchNumber + 1

		for i := 1; i <= matchesInRound; i++ {
			matchNumber++
			bm := &BracketMatch{
				Round:        r,
				MatchNumber:  matchNumber,
				OrderInRound: i,
				ScheduledAt:  params.ScheduledAt,
			}
			if r == 1 {
				p1 := shuffled[2*i-2]
				p2 := shuffled[2*i-1]
				bm.Participant1ID = &p1
				bm.Participant2ID = &p2
			}
			allGeneratedMatches = append(allGeneratedMatches, bm)
		}
	}

	// Второй проход: связываем каждый матч со следующим по правилу сворачивания сетки.
	for _, bm := range allGeneratedMatches {
		if bm.Round == numRounds {
			continue
		}
		index, slot := SuccessorPosition(bm.OrderInRound)
		next := roundStart[bm.Round+1] + index
		bm.NextMatchNumber = &next
		bm.NextSlot = &slot
	}

	sort.Slice(allGeneratedMatches, func(i, j int) bool {
		return allGeneratedMatches[i].MatchNumber < allGeneratedMatches[j].MatchNumber
	})

	if len(allGeneratedMatches) != n-1 {
		return nil, fmt.Errorf("internal error: generated %d matches for %d participants, expected %d", len(allGeneratedMatches), n, n-1)
	}
	return allGeneratedMatches, nil
}

func (g *SingleEliminationGenerator) ValidateParticipantCount(count int) error {
	if count < MinKnockoutParticipants {
		return fmt.Errorf("%w: knockout needs at least %d participants, got %d", ErrInvalidParticipantCount, MinKnockoutParticipants, count)
	}
	if !isPowerOfTwo(count) {
		return fmt.Errorf("%w: knockout needs a power of two, got %d", ErrInvalidParticipantCount, count)
	}
	return nil
}

func (g *SingleEliminationGenerator) TotalMatches(count int) int {
	if count <= 0 {
		return 0
	}
	return count - 1
}

// TotalRounds returns ceil(log2(count)).
func (g *SingleEliminationGenerator) TotalRounds(count int) int {
	rounds := 0
	for size := 1; size < count; size <<= 1 {
		rounds++
	}
	return rounds
}

func (g *SingleEliminationGenerator) Advance(completed *models.Match, schedule []*models.Match) (*Placement, error) {
	return placementForKnockout(completed, schedule)
}

func (g *SingleEliminationGenerator) IsComplete(schedule []*models.Match) bool {
	return isKnockoutComplete(schedule)
}

func (g *SingleEliminationGenerator) Champion(schedule []*models.Match) *int {
	return knockoutChampion(schedule)
}

func (g *SingleEliminationGenerator) RoundName(totalRounds, round int) string {
	return GetRoundName(totalRounds, round)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
