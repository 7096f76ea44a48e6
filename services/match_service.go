package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/Dosada05/walker-tournament/repositories"
	"github.com/google/uuid"
)

type MatchService interface {
	// SetWinner records the result of a match and advances the winner.
	SetWinner(ctx context.Context, matchID, winnerID, actor uuid.UUID) (*SetWinnerResult, error)
}

type SetWinnerResult struct {
	Match               models.Match  `json:"match"`
	NextMatch           *models.Match `json:"next_match,omitempty"`
	TournamentCompleted bool          `json:"tournament_completed"`
}

type matchService struct {
	store  repositories.Store
	audit  AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

func NewMatchService(store repositories.Store, audit AuditLogger, logger *slog.Logger) MatchService {
	return &matchService{
		store:  store,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetWinner выполняется одной транзакцией: победитель матча, XP, выбывание
// проигравшего, перенос в следующий матч (или завершение турнира). Версии
// обоих затронутых матчей проверяются при записи; устаревшая версия
// откатывает всё и возвращает ErrConcurrentModification.
func (s *matchService) SetWinner(ctx context.Context, matchID, winnerID, actor uuid.UUID) (*SetWinnerResult, error) {
	var (
		result     SetWinnerResult
		tournament *models.Tournament
	)

	err := s.store.WithinTx(ctx, func(tx repositories.Repositories) error {
		match, err := tx.Matches().GetByID(ctx, matchID)
		if err != nil {
			return handleRepositoryError(err)
		}
		t, err := tx.Tournaments().GetByID(ctx, match.TournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}

		if t.Status != models.StatusInProgress {
			return fmt.Errorf("%w (current status %q)", ErrTournamentNotInProgress, t.Status)
		}
		if match.IsDecided() {
			return ErrMatchAlreadyDecided
		}

		bye := match.IsBye()
		switch {
		case bye:
			if *match.ParticipantAID != winnerID {
				return fmt.Errorf("%w: a bye can only be won by its single occupant", ErrInvalidWinner)
			}
		case !match.IsReady():
			return ErrMatchNotReady
		case !match.HasParticipant(winnerID):
			return ErrInvalidWinner
		}

		winner := winnerID
		loser := match.Opponent(winnerID)
		expected := match.Version
		match.WinnerID = &winner
		if err := tx.Matches().UpdateAdvancement(ctx, match, expected); err != nil {
			return handleRepositoryError(err)
		}

		if err := tx.Members().AddXP(ctx, winner, t.XPPerWin); err != nil {
			return fmt.Errorf("failed to award xp: %w", handleRepositoryError(err))
		}
		if !bye && loser != nil {
			if err := tx.Members().MarkEliminated(ctx, *loser, s.now()); err != nil {
				return fmt.Errorf("failed to eliminate member: %w", handleRepositoryError(err))
			}
		}

		if match.NextMatchID != nil {
			next, err := tx.Matches().GetByID(ctx, *match.NextMatchID)
			if err != nil {
				return fmt.Errorf("failed to load next match: %w", handleRepositoryError(err))
			}
			if next.IsDecided() {
				return ErrConcurrentModification
			}
			next.PlaceWinner(winner, match.WinnerToSlotA)
			if err := tx.Matches().UpdateAdvancement(ctx, next, next.Version); err != nil {
				return handleRepositoryError(err)
			}
			result.NextMatch = next
		} else {
			if err := tx.Tournaments().UpdateStatus(ctx, t.ID, models.StatusInProgress, models.StatusCompleted); err != nil {
				return handleRepositoryError(err)
			}
			t.Status = models.StatusCompleted
			result.TournamentCompleted = true
		}

		result.Match = *match
		tournament = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	actorID := auditActor(actor, tournament)
	s.audit.Log(ctx, actorID, AuditActionSetWinner, AuditEntityMatch, matchID, map[string]any{
		"tournament_id": tournament.ID.String(),
		"winner_id":     winnerID.String(),
		"round":         result.Match.RoundNumber,
	})

	if result.TournamentCompleted {
		s.logger.Info("tournament completed",
			slog.String("tournament_id", tournament.ID.String()),
			slog.String("champion_member_id", winnerID.String()),
		)
		s.audit.Log(ctx, actorID, AuditActionComplete, AuditEntityTournament, tournament.ID,
			map[string]any{"champion_member_id": winnerID.String()})
	}
	return &result, nil
}
