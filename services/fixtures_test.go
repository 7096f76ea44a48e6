package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/walker-tournament/brackets"
	"github.com/Dosada05/walker-tournament/models"
	"github.com/Dosada05/walker-tournament/repositories"
	"github.com/google/uuid"
)

type auditRecord struct {
	actor      uuid.UUID
	action     string
	entityType string
	entityID   uuid.UUID
	metadata   map[string]any
}

// recordingAudit keeps every record in memory, synchronously.
type recordingAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (a *recordingAudit) Log(_ context.Context, actor uuid.UUID, action, entityType string, entityID uuid.UUID, metadata map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{actor, action, entityType, entityID, metadata})
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.records))
	for i, r := range a.records {
		out[i] = r.action
	}
	return out
}

func (a *recordingAudit) last() auditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.records[len(a.records)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store       repositories.Store
	audit       *recordingAudit
	tournaments *TournamentService
	matches     MatchService
	organizer   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, repositories.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store repositories.Store) *fixture {
	t.Helper()
	audit := &recordingAudit{}
	logger := discardLogger()
	return &fixture{
		store:       store,
		audit:       audit,
		tournaments: NewTournamentService(store, brackets.NewSingleEliminationGenerator(), nil, audit, logger),
		matches:     NewMatchService(store, audit, logger),
		organizer:   uuid.New(),
	}
}

func (f *fixture) createTournament(t *testing.T, maxParticipants int) *models.Tournament {
	t.Helper()
	tournament, err := f.tournaments.CreateTournament(context.Background(), CreateTournamentInput{
		Name:            "Evening walk",
		JoinDeadline:    time.Now().Add(24 * time.Hour),
		XPPerWin:        50,
		MaxParticipants: maxParticipants,
	}, f.organizer)
	if err != nil {
		t.Fatalf("failed to create tournament: %v", err)
	}
	return tournament
}

func (f *fixture) openTournament(t *testing.T, maxParticipants int) *models.Tournament {
	t.Helper()
	tournament := f.createTournament(t, maxParticipants)
	if _, err := f.tournaments.OpenTournament(context.Background(), tournament.ID, f.organizer); err != nil {
		t.Fatalf("failed to open tournament: %v", err)
	}
	return tournament
}

func (f *fixture) join(t *testing.T, tournamentID uuid.UUID, walkerIDs ...int) []*models.Member {
	t.Helper()
	members := make([]*models.Member, 0, len(walkerIDs))
	for _, walkerID := range walkerIDs {
		m, err := f.tournaments.Join(context.Background(), tournamentID, JoinTournamentInput{
			WalkerID:   walkerID,
			WalkerName: "walker",
			Email:      "walker@example.com",
		})
		if err != nil {
			t.Fatalf("failed to join walker %d: %v", walkerID, err)
		}
		members = append(members, m)
	}
	return members
}

// drawn returns an in-progress tournament with n members.
func (f *fixture) drawn(t *testing.T, n int) *models.Tournament {
	t.Helper()
	tournament := f.openTournament(t, n)
	walkers := make([]int, n)
	for i := range walkers {
		walkers[i] = i + 1
	}
	f.join(t, tournament.ID, walkers...)
	drawn, err := f.tournaments.Draw(context.Background(), tournament.ID, f.organizer)
	if err != nil {
		t.Fatalf("failed to draw: %v", err)
	}
	return drawn
}

func (f *fixture) get(t *testing.T, id uuid.UUID) *models.Tournament {
	t.Helper()
	tournament, err := f.tournaments.GetTournament(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get tournament: %v", err)
	}
	return tournament
}

// playableMatch returns an undecided match with both slots filled.
func playableMatch(tournament *models.Tournament) *models.Match {
	for i := range tournament.Matches {
		m := &tournament.Matches[i]
		if !m.IsDecided() && m.IsReady() {
			return m
		}
	}
	return nil
}
