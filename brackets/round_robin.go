package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

const (
	MinLeagueParticipants = 3
	// DefaultLeagueMaxParticipants bounds the O(N²) pairing blowup.
	DefaultLeagueMaxParticipants = 16
)

type RoundRobinGenerator struct {
	maxParticipants int
}

// NewRoundRobinGenerator returns a league generator capped at maxParticipants.
// Values below the minimum league size fall back to the default cap.
func NewRoundRobinGenerator(maxParticipants int) *RoundRobinGenerator {
	if maxParticipants < MinLeagueParticipants {
		maxParticipants = DefaultLeagueMaxParticipants
	}
	return &RoundRobinGenerator{maxParticipants: maxParticipants}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) Format() models.TournamentFormat {
	return models.FormatLeague
}

// GenerateBracket creates matches for a single round-robin: each participant
// plays every other participant once, all in round 1.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
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

	participants := shuffledParticipants(params)
	matches := make([]*BracketMatch, 0, g.TotalMatches(n))
	matchOrder := 0

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p1ID := participants[i]
			p2ID := participants[j]

			matchOrder++
			matches = append(matches, &BracketMatch{
				Round:          1,
				MatchNumber:    matchOrder,
				OrderInRound:   matchOrder,
				Participant1ID: &p1ID,
				Participant2ID: &p2ID,
				ScheduledAt:    params.ScheduledAt,
			})
		}
	}

	return matches, nil
}

func (g *RoundRobinGenerator) ValidateParticipantCount(count int) error {
	if count < MinLeagueParticipants || count > g.maxParticipants {
		return fmt.Errorf("%w: league needs between %d and %d participants, got %d",
			ErrInvalidParticipantCount, MinLeagueParticipants, g.maxParticipants, count)
	}
	return nil
}

func (g *RoundRobinGenerator) TotalMatches(count int) int {
	if count < 2 {
		return 0
	}
	return count * (count - 1) / 2
}

func (g *RoundRobinGenerator) TotalRounds(count int) int {
	if count < 2 {
		return 0
	}
	return 1
}

// Advance never places anyone: league matches have no successors.
func (g *RoundRobinGenerator) Advance(completed *models.Match, schedule []*models.Match) (*Placement, error) {
	return nil, nil
}

func (g *RoundRobinGenerator) IsComplete(schedule []*models.Match) bool {
	if len(schedule) == 0 {
		return false
	}
	for _, m := range schedule {
		if !m.IsCompleted() {
			return false
		}
	}
	return true
}

// Champion is undefined for a league; ranking is someone else's job.
func (g *RoundRobinGenerator) Champion(schedule []*models.Match) *int {
	return nil
}

func (g *RoundRobinGenerator) RoundName(totalRounds, round int) string {
	return "League"
}
