package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/google/uuid"
)

func seedTournament(t *testing.T, store Store, status models.TournamentStatus) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		Name:            "Morning walk",
		JoinDeadline:    time.Now().Add(time.Hour),
		Status:          status,
		XPPerWin:        10,
		MaxParticipants: 4,
		CreatedByUserID: uuid.New(),
	}
	if err := store.Tournaments().Create(context.Background(), tournament); err != nil {
		t.Fatalf("failed to create tournament: %v", err)
	}
	return tournament
}

func seedMember(t *testing.T, store Store, tournamentID uuid.UUID, walkerID int) *models.Member {
	t.Helper()
	m := &models.Member{TournamentID: tournamentID, WalkerID: walkerID, WalkerName: "walker", Email: "w@example.com"}
	if err := store.Members().Create(context.Background(), m); err != nil {
		t.Fatalf("failed to create member: %v", err)
	}
	return m
}

func TestMemoryStoreMemberUniqueness(t *testing.T) {
	store := NewMemoryStore()
	tournament := seedTournament(t, store, models.StatusOpen)
	seedMember(t, store, tournament.ID, 7)

	err := store.Members().Create(context.Background(), &models.Member{TournamentID: tournament.ID, WalkerID: 7, WalkerName: "renamed"})
	if !errors.Is(err, ErrMemberConflict) {
		t.Fatalf("expected ErrMemberConflict, got %v", err)
	}

	other := seedTournament(t, store, models.StatusOpen)
	seedMember(t, store, other.ID, 7)

	err = store.Members().Create(context.Background(), &models.Member{TournamentID: uuid.New(), WalkerID: 1})
	if !errors.Is(err, ErrMemberTournamentInvalid) {
		t.Errorf("expected ErrMemberTournamentInvalid, got %v", err)
	}
}

func TestMemoryStoreWithinTxRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	tournament := seedTournament(t, store, models.StatusOpen)
	boom := errors.New("boom")

	err := store.WithinTx(context.Background(), func(tx Repositories) error {
		if err := tx.Members().Create(context.Background(), &models.Member{TournamentID: tournament.ID, WalkerID: 1}); err != nil {
			return err
		}
		if err := tx.Tournaments().UpdateStatus(context.Background(), tournament.ID, models.StatusOpen, models.StatusLocked); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	count, _ := store.Members().CountByTournament(context.Background(), tournament.ID)
	if count != 0 {
		t.Errorf("expected no members after rollback, got %d", count)
	}
	got, _ := store.Tournaments().GetByID(context.Background(), tournament.ID)
	if got.Status != models.StatusOpen {
		t.Errorf("expected status to stay open, got %s", got.Status)
	}
}

func TestMemoryStoreWithinTxRollsBackOnCancel(t *testing.T) {
	store := NewMemoryStore()
	tournament := seedTournament(t, store, models.StatusOpen)
	ctx, cancel := context.WithCancel(context.Background())

	err := store.WithinTx(ctx, func(tx Repositories) error {
		if err := tx.Members().Create(ctx, &models.Member{TournamentID: tournament.ID, WalkerID: 1}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	count, _ := store.Members().CountByTournament(context.Background(), tournament.ID)
	if count != 0 {
		t.Errorf("expected cancelled transaction to leave no members, got %d", count)
	}
}

func TestMemoryStoreWithinTxRollsBackOnPanic(t *testing.T) {
	store := NewMemoryStore()
	tournament := seedTournament(t, store, models.StatusOpen)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = store.WithinTx(context.Background(), func(tx Repositories) error {
			_ = tx.Members().Create(context.Background(), &models.Member{TournamentID: tournament.ID, WalkerID: 1})
			panic("boom")
		})
	}()

	count, _ := store.Members().CountByTournament(context.Background(), tournament.ID)
	if count != 0 {
		t.Errorf("expected no members after panic, got %d", count)
	}
	// The lock must have been released.
	if err := store.WithinTx(context.Background(), func(tx Repositories) error { return nil }); err != nil {
		t.Errorf("expected store to stay usable, got %v", err)
	}
}

func TestMemoryStoreSerializesCheckThenInsert(t *testing.T) {
	store := NewMemoryStore()
	tournament := seedTournament(t, store, models.StatusOpen)
	const limit = 3

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(walkerID int) {
			defer wg.Done()
			_ = store.WithinTx(context.Background(), func(tx Repositories) error {
				count, err := tx.Members().CountByTournament(context.Background(), tournament.ID)
				if err != nil {
					return err
				}
				if count >= limit {
					return errors.New("full")
				}
				return tx.Members().Create(context.Background(), &models.Member{TournamentID: tournament.ID, WalkerID: walkerID})
			})
		}(i)
	}
	wg.Wait()

	count, _ := store.Members().CountByTournament(context.Background(), tournament.ID)
	if count != limit {
		t.Errorf("expected exactly %d members, got %d", limit, count)
	}
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	store := NewMemoryStore()
	tournament := seedTournament(t, store, models.StatusDraft)
	ctx := context.Background()

	if err := store.Tournaments().UpdateStatus(ctx, tournament.ID, models.StatusDraft, models.StatusOpen); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Tournaments().UpdateStatus(ctx, tournament.ID, models.StatusDraft, models.StatusOpen); !errors.Is(err, ErrTournamentStatusConflict) {
		t.Errorf("expected ErrTournamentStatusConflict, got %v", err)
	}
	if err := store.Tournaments().UpdateStatus(ctx, uuid.New(), models.StatusDraft, models.StatusOpen); !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("expected ErrTournamentNotFound, got %v", err)
	}
}

func TestMemoryStoreMatchVersionCheck(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	tournament := seedTournament(t, store, models.StatusInProgress)
	a := seedMember(t, store, tournament.ID, 1)
	b := seedMember(t, store, tournament.ID, 2)

	match := &models.Match{TournamentID: tournament.ID, RoundNumber: 1, ParticipantAID: &a.ID, ParticipantBID: &b.ID}
	if err := store.Matches().CreateBatch(ctx, []*models.Match{match}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", match.Version)
	}

	stale := *match
	match.WinnerID = &a.ID
	if err := store.Matches().UpdateAdvancement(ctx, match, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Version != 2 {
		t.Errorf("expected version 2, got %d", match.Version)
	}

	stale.WinnerID = &b.ID
	if err := store.Matches().UpdateAdvancement(ctx, &stale, stale.Version); !errors.Is(err, ErrMatchVersionConflict) {
		t.Errorf("expected ErrMatchVersionConflict, got %v", err)
	}

	stored, _ := store.Matches().GetByID(ctx, match.ID)
	if stored.WinnerID == nil || *stored.WinnerID != a.ID {
		t.Errorf("stale write must not overwrite the winner")
	}

	missing := &models.Match{ID: uuid.New()}
	if err := store.Matches().UpdateAdvancement(ctx, missing, 1); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestMemoryStoreCreateBatchRequiresParentsFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	tournament := seedTournament(t, store, models.StatusLocked)

	final := &models.Match{ID: uuid.New(), TournamentID: tournament.ID, RoundNumber: 2}
	semi := &models.Match{TournamentID: tournament.ID, RoundNumber: 1, NextMatchID: &final.ID, WinnerToSlotA: true}

	if err := store.Matches().CreateBatch(ctx, []*models.Match{semi, final}); !errors.Is(err, ErrMatchNextInvalid) {
		t.Fatalf("expected ErrMatchNextInvalid, got %v", err)
	}
	matches, _ := store.Matches().ListByTournament(ctx, tournament.ID)
	if len(matches) != 0 {
		t.Fatalf("failed batch must not insert anything, got %d", len(matches))
	}

	if err := store.Matches().CreateBatch(ctx, []*models.Match{final, semi}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	matches, _ = store.Matches().ListByTournament(ctx, tournament.ID)
	if len(matches) != 2 || matches[0].RoundNumber != 1 || matches[1].RoundNumber != 2 {
		t.Errorf("expected matches ordered by round, got %+v", matches)
	}
}

func TestMemoryStoreListCountsMembers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	first := seedTournament(t, store, models.StatusOpen)
	second := seedTournament(t, store, models.StatusDraft)
	seedMember(t, store, first.ID, 1)
	seedMember(t, store, first.ID, 2)

	all, err := store.Tournaments().List(ctx, ListTournamentsFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID {
		t.Fatalf("expected newest tournament first, got %+v", all)
	}
	if all[1].MemberCount != 2 {
		t.Errorf("expected member count 2, got %d", all[1].MemberCount)
	}

	open := models.StatusOpen
	filtered, _ := store.Tournaments().List(ctx, ListTournamentsFilter{Status: &open})
	if len(filtered) != 1 || filtered[0].ID != first.ID {
		t.Errorf("expected only the open tournament, got %+v", filtered)
	}
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	tournament := seedTournament(t, store, models.StatusInProgress)
	a := seedMember(t, store, tournament.ID, 1)
	if err := store.Matches().CreateBatch(ctx, []*models.Match{{TournamentID: tournament.ID, RoundNumber: 1, ParticipantAID: &a.ID}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Members().Delete(ctx, a.ID); !errors.Is(err, ErrMemberInUse) {
		t.Errorf("expected ErrMemberInUse, got %v", err)
	}
	if err := store.Tournaments().Delete(ctx, tournament.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Members().GetByID(ctx, a.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("expected member to be deleted with its tournament, got %v", err)
	}
	matches, _ := store.Matches().ListByTournament(ctx, tournament.ID)
	if len(matches) != 0 {
		t.Errorf("expected matches to be deleted with their tournament")
	}
}

func TestMemoryStoreMemberProgress(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	tournament := seedTournament(t, store, models.StatusInProgress)
	m := seedMember(t, store, tournament.ID, 1)

	_ = store.Members().AddXP(ctx, m.ID, 10)
	_ = store.Members().AddXP(ctx, m.ID, 10)
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = store.Members().MarkEliminated(ctx, m.ID, first)
	_ = store.Members().MarkEliminated(ctx, m.ID, first.Add(time.Hour))

	got, _ := store.Members().GetByID(ctx, m.ID)
	if got.XPEarned != 20 {
		t.Errorf("expected 20 xp, got %d", got.XPEarned)
	}
	if got.EliminatedAt == nil || !got.EliminatedAt.Equal(first) {
		t.Errorf("expected first elimination time to be kept, got %v", got.EliminatedAt)
	}
}

func TestMemoryStoreUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	u := &models.User{Email: " Org@Example.com ", PasswordHash: "x", Role: models.RoleOrganizer}
	if err := store.Users().Create(ctx, u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Users().Create(ctx, &models.User{Email: "org@example.com"}); !errors.Is(err, ErrUserEmailConflict) {
		t.Errorf("expected ErrUserEmailConflict, got %v", err)
	}
	got, err := store.Users().GetByEmail(ctx, "ORG@example.com")
	if err != nil || got.ID != u.ID {
		t.Errorf("expected lookup to be case-insensitive, got %v, %v", got, err)
	}
}
