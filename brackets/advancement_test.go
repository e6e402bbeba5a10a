package brackets

import (
	"context"
	"math/rand"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func knockoutSchedule(t *testing.T, n int) []*models.Match {
	t.Helper()
	generated, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		Participants: participantIDs(n),
		Rand:         rand.New(rand.NewSource(11)),
	})
	require.NoError(t, err)

	matches := ToMatches(1, generated)
	for i, m := range matches {
		m.ID = i + 1
	}
	return matches
}

func TestSuccessorPosition(t *testing.T) {
	testCases := []struct {
		position  int
		wantIndex int
		wantSlot  models.Slot
	}{
		{1, 0, models.SlotA},
		{2, 0, models.SlotB},
		{3, 1, models.SlotA},
		{4, 1, models.SlotB},
		{7, 3, models.SlotA},
		{8, 3, models.SlotB},
	}
	for _, tc := range testCases {
		index, slot := SuccessorPosition(tc.position)
		assert.Equal(t, tc.wantIndex, index, "position %d", tc.position)
		assert.Equal(t, tc.wantSlot, slot, "position %d", tc.position)
	}
}

func TestValidateScores(t *testing.T) {
	assert.NoError(t, ValidateScores(intPtr(21), intPtr(15)))
	assert.NoError(t, ValidateScores(intPtr(0), intPtr(1)))
	assert.ErrorIs(t, ValidateScores(nil, intPtr(1)), ErrScoreMissing)
	assert.ErrorIs(t, ValidateScores(intPtr(1), nil), ErrScoreMissing)
	assert.ErrorIs(t, ValidateScores(intPtr(-1), intPtr(3)), ErrScoreNegative)
	assert.ErrorIs(t, ValidateScores(intPtr(7), intPtr(7)), ErrScoreTied)
}

func TestScoreMatch(t *testing.T) {
	t.Run("slot B wins", func(t *testing.T) {
		m := &models.Match{SlotAID: intPtr(1), SlotBID: intPtr(2), Status: models.MatchStatusScheduled}
		winner, err := ScoreMatch(m, intPtr(18), intPtr(21))
		require.NoError(t, err)
		assert.Equal(t, 2, winner)
		assert.Equal(t, models.MatchStatusCompleted, m.Status)
		assert.Equal(t, 18, *m.ScoreA)
		assert.Equal(t, 21, *m.ScoreB)
		assert.Equal(t, 2, *m.WinnerID)
	})

	t.Run("tie leaves match untouched", func(t *testing.T) {
		m := &models.Match{SlotAID: intPtr(1), SlotBID: intPtr(2), Status: models.MatchStatusScheduled}
		before := m.Clone()
		_, err := ScoreMatch(m, intPtr(10), intPtr(10))
		assert.ErrorIs(t, err, ErrScoreTied)
		assert.Equal(t, before, m)
	})

	t.Run("completed match", func(t *testing.T) {
		m := &models.Match{SlotAID: intPtr(1), SlotBID: intPtr(2), WinnerID: intPtr(1), Status: models.MatchStatusCompleted}
		_, err := ScoreMatch(m, intPtr(2), intPtr(1))
		assert.ErrorIs(t, err, ErrMatchCompleted)
	})

	t.Run("awaiting participant", func(t *testing.T) {
		m := &models.Match{SlotAID: intPtr(1), Status: models.MatchStatusScheduled}
		_, err := ScoreMatch(m, intPtr(2), intPtr(1))
		assert.ErrorIs(t, err, ErrMatchAwaitingParticipant)
		assert.Nil(t, m.ScoreA)
	})
}

func TestPlaceWinner(t *testing.T) {
	target := &models.Match{MatchNumber: 5}

	changed, err := PlaceWinner(target, models.SlotA, 7)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 7, *target.SlotAID)

	changed, err = PlaceWinner(target, models.SlotA, 7)
	require.NoError(t, err)
	assert.False(t, changed, "same winner twice is a no-op")

	_, err = PlaceWinner(target, models.SlotA, 8)
	assert.ErrorIs(t, err, ErrSlotOccupied)
	assert.Equal(t, 7, *target.SlotAID)
}

func TestKnockoutAdvance_EightPlayers(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	schedule := knockoutSchedule(t, 8)

	m1, m2 := schedule[0], schedule[1]
	w1, err := ScoreMatch(m1, intPtr(21), intPtr(15))
	require.NoError(t, err)
	w2, err := ScoreMatch(m2, intPtr(3), intPtr(21))
	require.NoError(t, err)

	p1, err := gen.Advance(m1, schedule)
	require.NoError(t, err)
	require.NotNil(t, p1)
	assert.Equal(t, 5, p1.Match.MatchNumber)
	assert.Equal(t, models.SlotA, p1.Slot)
	assert.Equal(t, w1, p1.ParticipantID)

	p2, err := gen.Advance(m2, schedule)
	require.NoError(t, err)
	require.NotNil(t, p2)
	assert.Equal(t, 5, p2.Match.MatchNumber)
	assert.Equal(t, models.SlotB, p2.Slot)
	assert.Equal(t, w2, p2.ParticipantID)
}

func TestKnockoutAdvance_FinalHasNoSuccessor(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	schedule := knockoutSchedule(t, 4)
	final := schedule[2]
	final.SlotAID, final.SlotBID = intPtr(100), intPtr(101)

	_, err := ScoreMatch(final, intPtr(1), intPtr(0))
	require.NoError(t, err)

	placement, err := gen.Advance(final, schedule)
	require.NoError(t, err)
	assert.Nil(t, placement)
}

func TestKnockoutAdvance_RequiresWinner(t *testing.T) {
	schedule := knockoutSchedule(t, 4)
	_, err := NewSingleEliminationGenerator().Advance(schedule[0], schedule)
	assert.ErrorIs(t, err, ErrMatchWithoutWinner)
}

func TestKnockoutCompletion_WholeBracket(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	schedule := knockoutSchedule(t, 8)

	for _, m := range schedule {
		assert.False(t, gen.IsComplete(schedule), "complete before match %d", m.MatchNumber)
		require.True(t, m.IsReady(), "match %d should be ready by now", m.MatchNumber)

		_, err := ScoreMatch(m, intPtr(2), intPtr(1))
		require.NoError(t, err)

		placement, err := gen.Advance(m, schedule)
		require.NoError(t, err)
		if placement != nil {
			_, err = PlaceWinner(placement.Match, placement.Slot, placement.ParticipantID)
			require.NoError(t, err)
		}
	}

	assert.True(t, gen.IsComplete(schedule))
	champion := gen.Champion(schedule)
	require.NotNil(t, champion)
	assert.Equal(t, *schedule[6].WinnerID, *champion)
}

func TestLeagueCompletion(t *testing.T) {
	gen := NewRoundRobinGenerator(DefaultLeagueMaxParticipants)
	generated, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Participants: participantIDs(4)})
	require.NoError(t, err)
	schedule := ToMatches(1, generated)

	assert.False(t, gen.IsComplete(nil))
	for i, m := range schedule {
		assert.False(t, gen.IsComplete(schedule))
		_, err := ScoreMatch(m, intPtr(i), intPtr(i+1))
		require.NoError(t, err)
	}
	assert.True(t, gen.IsComplete(schedule))
}
