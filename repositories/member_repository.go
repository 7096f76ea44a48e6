package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/google/uuid"
)

var (
	ErrMemberNotFound          = errors.New("member not found")
	ErrMemberConflict          = errors.New("member conflict: walker already registered for this tournament")
	ErrMemberTournamentInvalid = errors.New("member tournament conflict or invalid")
	ErrMemberInUse             = errors.New("member is referenced by a match")
)

type MemberRepository interface {
	Create(ctx context.Context, m *models.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	FindByWalker(ctx context.Context, tournamentID uuid.UUID, walkerID int) (*models.Member, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Member, error)
	CountByTournament(ctx context.Context, tournamentID uuid.UUID) (int, error)
	// AddXP increments xp_earned in place.
	AddXP(ctx context.Context, id uuid.UUID, xp int) error
	// MarkEliminated sets eliminated_at unless it is already set.
	MarkEliminated(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresMemberRepository struct {
	exec SQLExecutor
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{exec: db}
}

const memberColumns = `id, tournament_id, walker_id, walker_name, email, joined_at, eliminated_at, xp_earned`

func scanMember(row rowScanner, m *models.Member) error {
	return row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.WalkerID,
		&m.WalkerName,
		&m.Email,
		&m.JoinedAt,
		&m.EliminatedAt,
		&m.XPEarned,
	)
}

func (r *postgresMemberRepository) Create(ctx context.Context, m *models.Member) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `
		INSERT INTO members (id, tournament_id, walker_id, walker_name, email, xp_earned)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING joined_at`

	err := r.exec.QueryRowContext(ctx, query,
		m.ID,
		m.TournamentID,
		m.WalkerID,
		m.WalkerName,
		m.Email,
		m.XPEarned,
	).Scan(&m.JoinedAt)

	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "members_tournament_id_walker_id_key" {
					return ErrMemberConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "members_tournament_id_fkey" {
					return ErrMemberTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create member: %w", handleTxError(err))
	}
	return nil
}

func (r *postgresMemberRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Member, error) {
	m := &models.Member{}
	err := scanMember(r.exec.QueryRowContext(ctx, query, args...), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", handleTxError(err))
	}
	return m, nil
}

func (r *postgresMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresMemberRepository) FindByWalker(ctx context.Context, tournamentID uuid.UUID, walkerID int) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE tournament_id = $1 AND walker_id = $2`
	return r.findOne(ctx, query, tournamentID, walkerID)
}

func (r *postgresMemberRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE tournament_id = $1 ORDER BY joined_at ASC, id ASC`

	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members by tournament: %w", handleTxError(err))
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		var m models.Member
		if err := scanMember(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

func (r *postgresMemberRepository) CountByTournament(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	var count int
	err := r.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", handleTxError(err))
	}
	return count, nil
}

func (r *postgresMemberRepository) AddXP(ctx context.Context, id uuid.UUID, xp int) error {
	result, err := r.exec.ExecContext(ctx, `UPDATE members SET xp_earned = xp_earned + $1 WHERE id = $2`, xp, id)
	if err != nil {
		return fmt.Errorf("failed to add member xp: %w", handleTxError(err))
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) MarkEliminated(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE members SET eliminated_at = COALESCE(eliminated_at, $1) WHERE id = $2`
	result, err := r.exec.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark member eliminated: %w", handleTxError(err))
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == "23503" {
			return ErrMemberInUse
		}
		return fmt.Errorf("failed to delete member: %w", handleTxError(err))
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}
