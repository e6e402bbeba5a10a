package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusCompleted MatchStatus = "completed"
)

// Slot is one of the two participant positions of a match.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// Match is a single pairing inside a tournament schedule. SlotAID/SlotBID are
// nil while a knockout match still waits for the winner of an earlier match.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	RoundNumber  int         `json:"round_number" db:"round_number"`
	MatchNumber  int         `json:"match_number" db:"match_number"`
	SlotAID      *int        `json:"slot_a_id" db:"slot_a_id"`
	SlotBID      *int        `json:"slot_b_id" db:"slot_b_id"`
	ScoreA       *int        `json:"score_a" db:"score_a"`
	ScoreB       *int        `json:"score_b" db:"score_b"`
	WinnerID     *int        `json:"winner_id" db:"winner_id"`
	Status       MatchStatus `json:"status" db:"status"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty" db:"scheduled_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// IsReady reports whether both participants are known.
func (m *Match) IsReady() bool {
	return m.SlotAID != nil && m.SlotBID != nil
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchStatusCompleted
}

// SlotID returns the participant in the given slot.
func (m *Match) SlotID(slot Slot) *int {
	if slot == SlotA {
		return m.SlotAID
	}
	return m.SlotBID
}

// SetSlot places a participant into the given slot.
func (m *Match) SetSlot(slot Slot, participantID int) {
	id := participantID
	if slot == SlotA {
		m.SlotAID = &id
		return
	}
	m.SlotBID = &id
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.SlotAID = cloneInt(m.SlotAID)
	c.SlotBID = cloneInt(m.SlotBID)
	c.ScoreA = cloneInt(m.ScoreA)
	c.ScoreB = cloneInt(m.ScoreB)
	c.WinnerID = cloneInt(m.WinnerID)
	if m.ScheduledAt != nil {
		t := *m.ScheduledAt
		c.ScheduledAt = &t
	}
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
