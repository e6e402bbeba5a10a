package brackets

import (
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// Format bundles everything that differs between tournament formats so the
// rest of the system dispatches once on the format tag.
type Format interface {
	BracketGenerator

	Format() models.TournamentFormat
	ValidateParticipantCount(count int) error
	TotalMatches(count int) int
	TotalRounds(count int) int
	// Advance returns where the winner of completed goes, or nil if nowhere.
	Advance(completed *models.Match, schedule []*models.Match) (*Placement, error)
	IsComplete(schedule []*models.Match) bool
	Champion(schedule []*models.Match) *int
	// RoundName labels a round for display.
	RoundName(totalRounds, round int) string
}

type PolicyOptions struct {
	LeagueMaxParticipants int
}

func DefaultPolicyOptions() PolicyOptions {
	return PolicyOptions{LeagueMaxParticipants: DefaultLeagueMaxParticipants}
}

// PolicyFor returns the Format implementation for a tournament format.
func PolicyFor(format models.TournamentFormat, opts PolicyOptions) (Format, error) {
	switch format {
	case models.FormatKnockout:
		return NewSingleEliminationGenerator(), nil
	case models.FormatLeague:
		return NewRoundRobinGenerator(opts.LeagueMaxParticipants), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ValidateParticipantCount checks count against the default policy of format.
func ValidateParticipantCount(count int, format models.TournamentFormat) error {
	policy, err := PolicyFor(format, DefaultPolicyOptions())
	if err != nil {
		return err
	}
	return policy.ValidateParticipantCount(count)
}

func CalculateTotalMatches(count int, format models.TournamentFormat) (int, error) {
	policy, err := PolicyFor(format, DefaultPolicyOptions())
	if err != nil {
		return 0, err
	}
	return policy.TotalMatches(count), nil
}

// GetRoundName is display-only and must not feed scheduling decisions.
func GetRoundName(totalRounds, currentRound int) string {
	switch totalRounds - currentRound {
	case 0:
		return "Finals"
	case 1:
		return "Semifinals"
	case 2:
		return "Quarterfinals"
	case 3:
		return "Round of 16"
	default:
		return fmt.Sprintf("Round %d", currentRound)
	}
}
