package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/google/uuid"
)

func TestCreateTournamentStartsInDraft(t *testing.T) {
	f := newFixture(t)
	tournament := f.createTournament(t, 8)

	if tournament.Status != models.StatusDraft {
		t.Errorf("expected draft, got %s", tournament.Status)
	}
	if tournament.CreatedByUserID != f.organizer {
		t.Errorf("expected creator to be the organizer")
	}
	if rec := f.audit.last(); rec.action != AuditActionCreate || rec.entityID != tournament.ID || rec.actor != f.organizer {
		t.Errorf("unexpected audit record %+v", rec)
	}

	_, err := f.tournaments.CreateTournament(context.Background(), CreateTournamentInput{Name: "x", XPPerWin: 0, MaxParticipants: 4}, f.organizer)
	if !errors.Is(err, ErrPrecondition) {
		t.Errorf("expected precondition error for zero xp, got %v", err)
	}
}

func TestStatusTransitionsAreForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.createTournament(t, 2)

	if _, err := f.tournaments.LockTournament(ctx, tournament.ID, f.organizer); !errors.Is(err, ErrTournamentNotOpen) {
		t.Errorf("lock from draft: expected ErrTournamentNotOpen, got %v", err)
	}
	if _, err := f.tournaments.Draw(ctx, tournament.ID, f.organizer); !errors.Is(err, ErrInvalidState) {
		t.Errorf("draw from draft: expected invalid state, got %v", err)
	}

	opened, err := f.tournaments.OpenTournament(ctx, tournament.ID, f.organizer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opened.Status != models.StatusOpen {
		t.Errorf("expected open, got %s", opened.Status)
	}
	if _, err := f.tournaments.OpenTournament(ctx, tournament.ID, f.organizer); !errors.Is(err, ErrTournamentNotDraft) || !errors.Is(err, ErrInvalidState) {
		t.Errorf("second open: expected ErrTournamentNotDraft, got %v", err)
	}

	f.join(t, tournament.ID, 1, 2)
	if _, err := f.tournaments.LockTournament(ctx, tournament.ID, f.organizer); err != nil {
		t.Fatalf("unexpected lock error: %v", err)
	}
	if _, err := f.tournaments.OpenTournament(ctx, tournament.ID, f.organizer); !errors.Is(err, ErrInvalidState) {
		t.Errorf("open after lock: expected invalid state, got %v", err)
	}

	if _, err := f.tournaments.OpenTournament(ctx, uuid.New(), f.organizer); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestExtendDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.createTournament(t, 4)

	if _, err := f.tournaments.ExtendDeadline(ctx, tournament.ID, tournament.JoinDeadline.Add(time.Hour), f.organizer); !errors.Is(err, ErrTournamentNotOpen) {
		t.Errorf("expected ErrTournamentNotOpen in draft, got %v", err)
	}

	f.tournaments.OpenTournament(ctx, tournament.ID, f.organizer)

	for _, deadline := range []time.Time{tournament.JoinDeadline, tournament.JoinDeadline.Add(-time.Minute)} {
		if _, err := f.tournaments.ExtendDeadline(ctx, tournament.ID, deadline, f.organizer); !errors.Is(err, ErrDeadlineNotExtended) || !errors.Is(err, ErrPrecondition) {
			t.Errorf("deadline %s: expected ErrDeadlineNotExtended, got %v", deadline, err)
		}
	}

	later := tournament.JoinDeadline.Add(48 * time.Hour)
	updated, err := f.tournaments.ExtendDeadline(ctx, tournament.ID, later, f.organizer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.JoinDeadline.Equal(later) {
		t.Errorf("expected deadline %s, got %s", later, updated.JoinDeadline)
	}
	if rec := f.audit.last(); rec.action != AuditActionExtendDeadline {
		t.Errorf("expected ExtendDeadline audit, got %s", rec.action)
	}
}

func TestJoinRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.createTournament(t, 4)
	if _, err := f.tournaments.Join(ctx, draft.ID, JoinTournamentInput{WalkerID: 1, WalkerName: "a"}); !errors.Is(err, ErrTournamentNotOpen) {
		t.Errorf("join draft: expected ErrTournamentNotOpen, got %v", err)
	}

	tournament := f.openTournament(t, 2)
	f.join(t, tournament.ID, 10)

	_, err := f.tournaments.Join(ctx, tournament.ID, JoinTournamentInput{WalkerID: 10, WalkerName: "another name"})
	if !errors.Is(err, ErrAlreadyRegistered) || !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate walker: expected ErrAlreadyRegistered, got %v", err)
	}

	f.join(t, tournament.ID, 11)
	_, err = f.tournaments.Join(ctx, tournament.ID, JoinTournamentInput{WalkerID: 12, WalkerName: "late"})
	if !errors.Is(err, ErrTournamentFull) || !errors.Is(err, ErrConflict) {
		t.Errorf("full tournament: expected ErrTournamentFull, got %v", err)
	}

	if rec := f.audit.last(); rec.action != AuditActionJoin || rec.actor != f.organizer {
		t.Errorf("join must be audited with the creator as actor, got %+v", rec)
	}
}

func TestJoinAfterDeadline(t *testing.T) {
	f := newFixture(t)
	tournament := f.openTournament(t, 4)
	f.tournaments.now = func() time.Time { return tournament.JoinDeadline.Add(time.Second) }

	_, err := f.tournaments.Join(context.Background(), tournament.ID, JoinTournamentInput{WalkerID: 1, WalkerName: "a"})
	if !errors.Is(err, ErrJoinDeadlinePassed) || !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrJoinDeadlinePassed, got %v", err)
	}

	// Ровно в момент дедлайна регистрация ещё открыта.
	f.tournaments.now = func() time.Time { return tournament.JoinDeadline }
	if _, err := f.tournaments.Join(context.Background(), tournament.ID, JoinTournamentInput{WalkerID: 1, WalkerName: "a"}); err != nil {
		t.Errorf("expected join at the deadline to succeed, got %v", err)
	}
}

func TestConcurrentJoinsForLastSlot(t *testing.T) {
	for attempt := 0; attempt < 20; attempt++ {
		f := newFixture(t)
		tournament := f.openTournament(t, 3)
		f.join(t, tournament.ID, 1, 2)

		const contenders = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			full      int
		)
		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(walkerID int) {
				defer wg.Done()
				_, err := f.tournaments.Join(context.Background(), tournament.ID, JoinTournamentInput{WalkerID: walkerID, WalkerName: "racer"})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrTournamentFull):
					full++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(100 + i)
		}
		wg.Wait()

		if successes != 1 || full != contenders-1 {
			t.Fatalf("attempt %d: expected 1 success and %d full, got %d and %d", attempt, contenders-1, successes, full)
		}
		if got := f.get(t, tournament.ID); len(got.Members) != 3 {
			t.Fatalf("attempt %d: expected 3 members, got %d", attempt, len(got.Members))
		}
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.openTournament(t, 3)
	f.join(t, tournament.ID, 1, 2, 3)

	if err := f.tournaments.RemoveMember(ctx, tournament.ID, 2, f.organizer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.tournaments.RemoveMember(ctx, tournament.ID, 2, f.organizer); !errors.Is(err, ErrMemberNotFound) || !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
	if got := f.get(t, tournament.ID); len(got.Members) != 2 {
		t.Errorf("expected 2 members left, got %d", len(got.Members))
	}

	// Место освободилось: снова можно зарегистрироваться.
	f.join(t, tournament.ID, 4)
	if _, err := f.tournaments.LockTournament(ctx, tournament.ID, f.organizer); err != nil {
		t.Fatalf("unexpected lock error: %v", err)
	}
	if err := f.tournaments.RemoveMember(ctx, tournament.ID, 4, f.organizer); err != nil {
		t.Errorf("removal while locked should be allowed, got %v", err)
	}

	if _, err := f.tournaments.Draw(ctx, tournament.ID, f.organizer); err != nil {
		t.Fatalf("unexpected draw error: %v", err)
	}
	if err := f.tournaments.RemoveMember(ctx, tournament.ID, 1, f.organizer); !errors.Is(err, ErrMemberRemovalClosed) || !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrMemberRemovalClosed after draw, got %v", err)
	}
}

func TestLockRequiresTwoMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.openTournament(t, 4)
	f.join(t, tournament.ID, 1)

	if _, err := f.tournaments.LockTournament(ctx, tournament.ID, f.organizer); !errors.Is(err, ErrNotEnoughMembers) || !errors.Is(err, ErrPrecondition) {
		t.Errorf("expected ErrNotEnoughMembers, got %v", err)
	}
	got := f.get(t, tournament.ID)
	if got.Status != models.StatusOpen {
		t.Errorf("failed lock must not change status, got %s", got.Status)
	}
}

func TestDrawFromOpenRequiresFullTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.openTournament(t, 3)
	f.join(t, tournament.ID, 1, 2)

	if _, err := f.tournaments.Draw(ctx, tournament.ID, f.organizer); !errors.Is(err, ErrTournamentNotDrawable) {
		t.Fatalf("expected ErrTournamentNotDrawable, got %v", err)
	}
	if got := f.get(t, tournament.ID); len(got.Matches) != 0 || got.Status != models.StatusOpen {
		t.Fatalf("failed draw must leave no matches and keep status, got %d matches, %s", len(got.Matches), got.Status)
	}

	f.join(t, tournament.ID, 3)
	drawn, err := f.tournaments.Draw(ctx, tournament.ID, f.organizer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if drawn.Status != models.StatusInProgress {
		t.Errorf("expected in_progress, got %s", drawn.Status)
	}
	if len(drawn.Matches) != 3 {
		t.Errorf("expected 3 matches for 3 members, got %d", len(drawn.Matches))
	}

	if _, err := f.tournaments.Draw(ctx, tournament.ID, f.organizer); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second draw: expected invalid state, got %v", err)
	}
	if got := f.get(t, tournament.ID); len(got.Matches) != 3 {
		t.Errorf("second draw must not add matches, got %d", len(got.Matches))
	}
}

func TestDrawFromLockedPersistsBracket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.openTournament(t, 8)
	f.join(t, tournament.ID, 1, 2, 3, 4, 5, 6)
	if _, err := f.tournaments.LockTournament(ctx, tournament.ID, f.organizer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.tournaments.Draw(ctx, tournament.ID, f.organizer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := f.get(t, tournament.ID)
	if got.Status != models.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", got.Status)
	}
	if len(got.Matches) != 7 {
		t.Fatalf("expected 7 matches, got %d", len(got.Matches))
	}
	byes := 0
	for _, m := range got.Matches {
		if m.IsBye() {
			byes++
			if m.WinnerID == nil || *m.WinnerID != *m.ParticipantAID {
				t.Errorf("bye match must be won by its occupant")
			}
		}
	}
	if byes != 2 {
		t.Errorf("expected 2 byes, got %d", byes)
	}

	actions := f.audit.actions()
	if actions[len(actions)-1] != AuditActionDraw {
		t.Errorf("expected Draw audit, got %v", actions)
	}
}

func TestListTournaments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTournament(t, 4)
	open := f.openTournament(t, 4)
	f.join(t, open.ID, 1, 2)

	all, err := f.tournaments.ListTournaments(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tournaments, got %d", len(all))
	}

	status := models.StatusOpen
	filtered, err := f.tournaments.ListTournaments(ctx, &status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != open.ID || filtered[0].MemberCount != 2 {
		t.Errorf("unexpected filtered list %+v", filtered)
	}
}
