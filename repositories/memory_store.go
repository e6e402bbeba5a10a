package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/bracket-engine/models"
)

type memTxKey struct{}

// MemoryStore keeps tournaments, registrations and matches in process memory.
// Transactions take a store-wide lock and roll back by restoring a snapshot,
// so every transaction is trivially serializable. Used for local runs
// (STORAGE_DRIVER=memory) and tests.
type MemoryStore struct {
	mu           sync.Mutex
	tournaments  map[int]*models.Tournament
	participants map[int]*models.Participant
	matches      map[int]*models.Match

	nextTournamentID  int
	nextParticipantID int
	nextMatchID       int

	pendingConflicts int
	now              func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tournaments:  make(map[int]*models.Tournament),
		participants: make(map[int]*models.Participant),
		matches:      make(map[int]*models.Match),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type memorySnapshot struct {
	tournaments       map[int]*models.Tournament
	participants      map[int]*models.Participant
	matches           map[int]*models.Match
	nextTournamentID  int
	nextParticipantID int
	nextMatchID       int
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		tournaments:       make(map[int]*models.Tournament, len(s.tournaments)),
		participants:      make(map[int]*models.Participant, len(s.participants)),
		matches:           make(map[int]*models.Match, len(s.matches)),
		nextTournamentID:  s.nextTournamentID,
		nextParticipantID: s.nextParticipantID,
		nextMatchID:       s.nextMatchID,
	}
	for id, t := range s.tournaments {
		snap.tournaments[id] = cloneTournament(t)
	}
	for id, p := range s.participants {
		c := *p
		snap.participants[id] = &c
	}
	for id, m := range s.matches {
		snap.matches[id] = m.Clone()
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.tournaments = snap.tournaments
	s.participants = snap.participants
	s.matches = snap.matches
	s.nextTournamentID = snap.nextTournamentID
	s.nextParticipantID = snap.nextParticipantID
	s.nextMatchID = snap.nextMatchID
}

// lock acquires the store lock unless ctx already runs inside one of this
// store's transactions.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if owner, ok := ctx.Value(memTxKey{}).(*MemoryStore); ok && owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, exec SQLExecutor) error) (txErr error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if txErr != nil {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, s), nil); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.pendingConflicts > 0 {
		s.pendingConflicts--
		return fmt.Errorf("%w: simulated commit conflict", ErrSerializationFailure)
	}
	return nil
}

// InjectSerializationFailures makes the next n transactions fail at commit
// time as if the database had detected a serialization conflict.
func (s *MemoryStore) InjectSerializationFailures(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingConflicts = n
}

// AddTournament stores t and assigns its ID.
func (s *MemoryStore) AddTournament(t *models.Tournament) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTournamentID++
	t.ID = s.nextTournamentID
	if t.Status == "" {
		t.Status = models.StatusUpcoming
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tournaments[t.ID] = cloneTournament(t)
	return t.ID
}

// AddParticipants registers count participants with the given status and
// returns their IDs.
func (s *MemoryStore) AddParticipants(tournamentID, count int, status models.ParticipantStatus) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, count)
	for i := 0; i < count; i++ {
		s.nextParticipantID++
		p := &models.Participant{
			ID:           s.nextParticipantID,
			TournamentID: tournamentID,
			Status:       status,
			CreatedAt:    s.now(),
		}
		s.participants[p.ID] = p
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *MemoryStore) Tournaments() TournamentRepository   { return memoryTournamentRepository{s} }
func (s *MemoryStore) Matches() MatchRepository            { return memoryMatchRepository{s} }
func (s *MemoryStore) Participants() ParticipantRepository { return memoryParticipantRepository{s} }

func cloneTournament(t *models.Tournament) *models.Tournament {
	c := *t
	if t.WinnerParticipantID != nil {
		id := *t.WinnerParticipantID
		c.WinnerParticipantID = &id
	}
	return &c
}

type memoryTournamentRepository struct{ s *MemoryStore }

func (r memoryTournamentRepository) GetByID(ctx context.Context, _ SQLExecutor, id int, _ bool) (*models.Tournament, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return cloneTournament(t), nil
}

func (r memoryTournamentRepository) UpdateStatus(ctx context.Context, _ SQLExecutor, id int, status models.TournamentStatus) error {
	defer r.s.lock(ctx)()

	t, ok := r.s.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	t.Status = status
	t.UpdatedAt = r.s.now()
	return nil
}

func (r memoryTournamentRepository) UpdateWinner(ctx context.Context, _ SQLExecutor, id int, winnerParticipantID *int) error {
	defer r.s.lock(ctx)()

	t, ok := r.s.tournaments[id]
	if !ok {
		return ErrTournamentNotFound
	}
	if winnerParticipantID != nil {
		if _, exists := r.s.participants[*winnerParticipantID]; !exists {
			return ErrTournamentInvalidWinner
		}
		w := *winnerParticipantID
		t.WinnerParticipantID = &w
	} else {
		t.WinnerParticipantID = nil
	}
	t.UpdatedAt = r.s.now()
	return nil
}

type memoryMatchRepository struct{ s *MemoryStore }

func (r memoryMatchRepository) ListByTournament(ctx context.Context, _ SQLExecutor, tournamentID int) ([]*models.Match, error) {
	defer r.s.lock(ctx)()

	matches := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID {
			matches = append(matches, m.Clone())
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RoundNumber != matches[j].RoundNumber {
			return matches[i].RoundNumber < matches[j].RoundNumber
		}
		return matches[i].MatchNumber < matches[j].MatchNumber
	})
	return matches, nil
}

func (r memoryMatchRepository) CreateBatch(ctx context.Context, _ SQLExecutor, tournamentID int, matches []*models.Match) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.tournaments[tournamentID]; !ok {
		return ErrMatchTournamentInvalid
	}
	used := make(map[int]bool)
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID {
			used[m.MatchNumber] = true
		}
	}

	for _, m := range matches {
		if used[m.MatchNumber] {
			return fmt.Errorf("failed to insert match %d: %w", m.MatchNumber, ErrMatchNumberConflict)
		}
		for _, slot := range []*int{m.SlotAID, m.SlotBID} {
			if slot != nil {
				if _, ok := r.s.participants[*slot]; !ok {
					return fmt.Errorf("failed to insert match %d: %w", m.MatchNumber, ErrMatchParticipantInvalid)
				}
			}
		}
		used[m.MatchNumber] = true

		r.s.nextMatchID++
		now := r.s.now()
		m.ID = r.s.nextMatchID
		m.TournamentID = tournamentID
		m.CreatedAt, m.UpdatedAt = now, now
		r.s.matches[m.ID] = m.Clone()
	}
	return nil
}

func (r memoryMatchRepository) GetByID(ctx context.Context, _ SQLExecutor, id int, _ bool) (*models.Match, error) {
	defer r.s.lock(ctx)()

	m, ok := r.s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r memoryMatchRepository) UpdateResult(ctx context.Context, _ SQLExecutor, match *models.Match) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.matches[match.ID]
	if !ok {
		return ErrMatchNotFound
	}
	updated := match.Clone()
	stored.ScoreA, stored.ScoreB = updated.ScoreA, updated.ScoreB
	stored.WinnerID = updated.WinnerID
	stored.Status = updated.Status
	stored.UpdatedAt = r.s.now()
	match.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r memoryMatchRepository) UpdateSlots(ctx context.Context, _ SQLExecutor, match *models.Match) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.matches[match.ID]
	if !ok {
		return ErrMatchNotFound
	}
	updated := match.Clone()
	stored.SlotAID, stored.SlotBID = updated.SlotAID, updated.SlotBID
	stored.UpdatedAt = r.s.now()
	match.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r memoryMatchRepository) DeleteByTournament(ctx context.Context, _ SQLExecutor, tournamentID int) (int, error) {
	defer r.s.lock(ctx)()

	deleted := 0
	for id, m := range r.s.matches {
		if m.TournamentID == tournamentID {
			delete(r.s.matches, id)
			deleted++
		}
	}
	return deleted, nil
}

type memoryParticipantRepository struct{ s *MemoryStore }

func (r memoryParticipantRepository) CountConfirmed(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	ids, err := r.ListConfirmedIDs(ctx, exec, tournamentID)
	return len(ids), err
}

func (r memoryParticipantRepository) ListConfirmedIDs(ctx context.Context, _ SQLExecutor, tournamentID int) ([]int, error) {
	defer r.s.lock(ctx)()

	ids := make([]int, 0)
	for _, p := range r.s.participants {
		if p.TournamentID == tournamentID && p.Status == models.ParticipantStatusConfirmed {
			ids = append(ids, p.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}
