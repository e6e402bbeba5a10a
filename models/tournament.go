package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusLive      TournamentStatus = "live"
	StatusCompleted TournamentStatus = "completed"
)

// TournamentFormat selects how the schedule is built and advanced.
type TournamentFormat string

const (
	FormatKnockout TournamentFormat = "knockout"
	FormatLeague   TournamentFormat = "league"
)

// Tournament holds the attributes the bracket engine works with. Everything
// else about a tournament (dates, posters, sport) belongs to other services.
type Tournament struct {
	ID                  int              `json:"id" db:"id"`
	Name                string           `json:"name" db:"name"`
	Format              TournamentFormat `json:"format" db:"format"`
	Status              TournamentStatus `json:"status" db:"status"`
	MaxParticipants     int              `json:"max_participants" db:"max_participants"`
	WinnerParticipantID *int             `json:"winner_participant_id,omitempty" db:"winner_participant_id"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}
