package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/walker-tournament/brackets"
	"github.com/Dosada05/walker-tournament/models"
	"github.com/Dosada05/walker-tournament/repositories"
	"github.com/Dosada05/walker-tournament/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	JoinDeadline    time.Time `json:"join_deadline"`
	XPPerWin        int       `json:"xp_per_win"`
	MaxParticipants int       `json:"max_participants"`
	ImageURL        *string   `json:"image_url"`
}

type JoinTournamentInput struct {
	WalkerID   int    `json:"walker_id"`
	WalkerName string `json:"walker_name"`
	Email      string `json:"email"`
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type TournamentService struct {
	store     repositories.Store
	generator brackets.BracketGenerator
	uploader  storage.FileUploader
	audit     AuditLogger
	logger    *slog.Logger
	now       func() time.Time
}

// NewTournamentService builds the lifecycle controller. uploader may be nil,
// in which case image uploads fail with ErrStorageUnavailable.
func NewTournamentService(
	store repositories.Store,
	generator brackets.BracketGenerator,
	uploader storage.FileUploader,
	audit AuditLogger,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		store:     store,
		generator: generator,
		uploader:  uploader,
		audit:     audit,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput, actor uuid.UUID) (*models.Tournament, error) {
	if input.XPPerWin <= 0 || input.MaxParticipants < brackets.MinParticipants || strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name, positive xp_per_win and max_participants >= %d are required", ErrTournamentInvalidData, brackets.MinParticipants)
	}

	tournament := &models.Tournament{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		JoinDeadline:    input.JoinDeadline.UTC(),
		Status:          models.StatusDraft,
		XPPerWin:        input.XPPerWin,
		MaxParticipants: input.MaxParticipants,
		ImageURL:        input.ImageURL,
		CreatedByUserID: actor,
	}

	if err := s.store.Tournaments().Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", handleRepositoryError(err))
	}

	s.audit.Log(ctx, actor, AuditActionCreate, AuditEntityTournament, tournament.ID, map[string]any{"name": tournament.Name})
	return tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	tournaments, err := s.store.Tournaments().List(ctx, repositories.ListTournamentsFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

// GetTournament returns the tournament with its members in join order and
// its matches ordered by round and position.
func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		members, err := s.store.Members().ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch members for tournament %s: %w", id, err)
		}
		tournament.Members = members
		return nil
	})

	g.Go(func() error {
		matches, err := s.store.Matches().ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch matches for tournament %s: %w", id, err)
		}
		tournament.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	tournament.MemberCount = len(tournament.Members)
	return tournament, nil
}

// transition runs one forward status change under the tournament row lock.
// check may reject the change after the status itself has been accepted.
func (s *TournamentService) transition(
	ctx context.Context,
	id uuid.UUID,
	to models.TournamentStatus,
	onWrongStatus error,
	from []models.TournamentStatus,
	check func(tx repositories.Repositories, t *models.Tournament) error,
) (*models.Tournament, error) {
	var tournament *models.Tournament
	err := s.store.WithinTx(ctx, func(tx repositories.Repositories) error {
		t, err := tx.Tournaments().LockForUpdate(ctx, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := requireStatus(t, onWrongStatus, from...); err != nil {
			return fmt.Errorf("%w (current status %q)", err, t.Status)
		}
		if check != nil {
			if err := check(tx, t); err != nil {
				return err
			}
		}
		if err := tx.Tournaments().UpdateStatus(ctx, id, t.Status, to); err != nil {
			return handleRepositoryError(err)
		}
		t.Status = to
		tournament = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *TournamentService) OpenTournament(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.transition(ctx, id, models.StatusOpen, ErrTournamentNotDraft,
		[]models.TournamentStatus{models.StatusDraft}, nil)
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, auditActor(actor, tournament), AuditActionOpen, AuditEntityTournament, id, nil)
	return tournament, nil
}

func (s *TournamentService) ExtendDeadline(ctx context.Context, id uuid.UUID, newDeadline time.Time, actor uuid.UUID) (*models.Tournament, error) {
	newDeadline = newDeadline.UTC()

	var tournament *models.Tournament
	err := s.store.WithinTx(ctx, func(tx repositories.Repositories) error {
		t, err := tx.Tournaments().LockForUpdate(ctx, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := requireStatus(t, ErrTournamentNotOpen, models.StatusOpen); err != nil {
			return err
		}
		if !newDeadline.After(t.JoinDeadline) {
			return fmt.Errorf("%w: current deadline is %s", ErrDeadlineNotExtended, t.JoinDeadline.Format(time.RFC3339))
		}
		if err := tx.Tournaments().UpdateJoinDeadline(ctx, id, newDeadline); err != nil {
			return handleRepositoryError(err)
		}
		t.JoinDeadline = newDeadline
		tournament = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, auditActor(actor, tournament), AuditActionExtendDeadline, AuditEntityTournament, id,
		map[string]any{"join_deadline": newDeadline.Format(time.RFC3339)})
	return tournament, nil
}

// Join registers a walker. Status, deadline, capacity and duplicate checks
// and the insert all happen while the tournament row is locked, so
// concurrent joins cannot push the member count past MaxParticipants.
func (s *TournamentService) Join(ctx context.Context, id uuid.UUID, input JoinTournamentInput) (*models.Member, error) {
	var (
		member     *models.Member
		tournament *models.Tournament
	)
	err := s.store.WithinTx(ctx, func(tx repositories.Repositories) error {
		t, err := tx.Tournaments().LockForUpdate(ctx, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := requireStatus(t, ErrTournamentNotOpen, models.StatusOpen); err != nil {
			return err
		}
		if !t.AcceptsJoinsAt(s.now()) {
			return ErrJoinDeadlinePassed
		}

		count, err := tx.Members().CountByTournament(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if count >= t.MaxParticipants {
			return ErrTournamentFull
		}

		if _, err := tx.Members().FindByWalker(ctx, id, input.WalkerID); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, repositories.ErrMemberNotFound) {
			return fmt.Errorf("failed to check registration: %w", err)
		}

		m := &models.Member{
			ID:           uuid.New(),
			TournamentID: id,
			WalkerID:     input.WalkerID,
			WalkerName:   strings.TrimSpace(input.WalkerName),
			Email:        strings.TrimSpace(input.Email),
		}
		if err := tx.Members().Create(ctx, m); err != nil {
			return handleRepositoryError(err)
		}
		member, tournament = m, t
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Регистрация анонимна, поэтому актором считается создатель турнира.
	s.audit.Log(ctx, auditActor(uuid.Nil, tournament), AuditActionJoin, AuditEntityTournament, id,
		map[string]any{"walker_id": member.WalkerID, "member_id": member.ID.String()})
	return member, nil
}

// RemoveMember deletes the member registered under walkerID. Not allowed once
// matches exist.
func (s *TournamentService) RemoveMember(ctx context.Context, id uuid.UUID, walkerID int, actor uuid.UUID) error {
	var tournament *models.Tournament
	err := s.store.WithinTx(ctx, func(tx repositories.Repositories) error {
		t, err := tx.Tournaments().LockForUpdate(ctx, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := requireStatus(t, ErrMemberRemovalClosed, models.StatusDraft, models.StatusOpen, models.StatusLocked); err != nil {
			return err
		}
		m, err := tx.Members().FindByWalker(ctx, id, walkerID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := tx.Members().Delete(ctx, m.ID); err != nil {
			return handleRepositoryError(err)
		}
		tournament = t
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Log(ctx, auditActor(actor, tournament), AuditActionRemoveMember, AuditEntityTournament, id,
		map[string]any{"walker_id": walkerID})
	return nil
}

func (s *TournamentService) LockTournament(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.transition(ctx, id, models.StatusLocked, ErrTournamentNotOpen,
		[]models.TournamentStatus{models.StatusOpen},
		func(tx repositories.Repositories, t *models.Tournament) error {
			count, err := tx.Members().CountByTournament(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("failed to count members: %w", err)
			}
			if count < brackets.MinParticipants {
				return fmt.Errorf("%w: tournament has %d", ErrNotEnoughMembers, count)
			}
			t.MemberCount = count
			return nil
		})
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, auditActor(actor, tournament), AuditActionLock, AuditEntityTournament, id, nil)
	return tournament, nil
}

// Draw generates the bracket and moves the tournament to in_progress. The
// match set and the status change commit together or not at all.
func (s *TournamentService) Draw(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Tournament, error) {
	var generated []*models.Match

	tournament, err := s.transition(ctx, id, models.StatusInProgress, ErrTournamentNotDrawable,
		[]models.TournamentStatus{models.StatusLocked, models.StatusOpen},
		func(tx repositories.Repositories, t *models.Tournament) error {
			members, err := tx.Members().ListByTournament(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("failed to list members: %w", err)
			}
			// Из open можно сразу тянуть жребий, только если турнир заполнен.
			if t.Status == models.StatusOpen && len(members) < t.MaxParticipants {
				return fmt.Errorf("%w (open with %d of %d members)", ErrTournamentNotDrawable, len(members), t.MaxParticipants)
			}
			if len(members) < brackets.MinParticipants {
				return fmt.Errorf("%w: tournament has %d", ErrNotEnoughMembers, len(members))
			}

			matches, err := s.generator.GenerateBracket(brackets.GenerateBracketParams{
				TournamentID: t.ID,
				Participants: members,
			})
			if err != nil {
				if errors.Is(err, brackets.ErrNotEnoughParticipants) {
					return fmt.Errorf("%w: %v", ErrNotEnoughMembers, err)
				}
				return fmt.Errorf("failed to generate bracket: %w", err)
			}
			if err := tx.Matches().CreateBatch(ctx, matches); err != nil {
				return fmt.Errorf("failed to save bracket: %w", handleRepositoryError(err))
			}

			generated = matches
			t.Members = members
			t.MemberCount = len(members)
			return nil
		})
	if err != nil {
		return nil, err
	}

	tournament.Matches = make([]models.Match, len(generated))
	for i, m := range generated {
		tournament.Matches[i] = *m
	}

	s.logger.Info("bracket drawn",
		slog.String("tournament_id", id.String()),
		slog.String("generator", s.generator.GetName()),
		slog.Int("members", tournament.MemberCount),
		slog.Int("matches", len(generated)),
	)
	s.audit.Log(ctx, auditActor(actor, tournament), AuditActionDraw, AuditEntityTournament, id,
		map[string]any{"matches": len(generated), "members": tournament.MemberCount})
	return tournament, nil
}

func tournamentImagePrefix(id uuid.UUID) string {
	return fmt.Sprintf("tournaments/%s/", id)
}

// UploadImage stores a new tournament image and points image_url at it. A
// previous image stored under this tournament's prefix is deleted afterwards.
func (s *TournamentService) UploadImage(ctx context.Context, id uuid.UUID, contentType string, file io.Reader, actor uuid.UUID) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrStorageUnavailable
	}
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))]
	if !ok {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidImageType, contentType)
	}

	tournament, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	prefix := tournamentImagePrefix(id)
	key := prefix + uuid.NewString() + ext
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament image: %w", err)
	}

	oldURL := derefString(tournament.ImageURL)
	newURL := result.Location
	if err := s.store.Tournaments().UpdateImageURL(ctx, id, &newURL); err != nil {
		if delErr := s.uploader.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("failed to clean up uploaded image", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, handleRepositoryError(err)
	}
	tournament.ImageURL = &newURL

	if prefixURL := s.uploader.GetPublicURL(prefix); prefixURL != "" && strings.HasPrefix(oldURL, prefixURL) {
		oldKey := prefix + strings.TrimPrefix(oldURL, prefixURL)
		if err := s.uploader.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("failed to delete previous tournament image", slog.String("key", oldKey), slog.Any("error", err))
		}
	}

	s.audit.Log(ctx, auditActor(actor, tournament), AuditActionUploadImage, AuditEntityTournament, id,
		map[string]any{"key": key})
	return tournament, nil
}
