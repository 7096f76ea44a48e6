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
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentInvalidCreator = errors.New("invalid tournament creator reference")
	ErrTournamentStatusConflict = errors.New("tournament status changed concurrently")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	// LockForUpdate reads the tournament and locks its row until the
	// surrounding transaction ends. Outside a transaction it behaves as GetByID.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	// UpdateStatus moves the tournament from one status to another. If the
	// stored status is not `from`, ErrTournamentStatusConflict is returned.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.TournamentStatus) error
	UpdateJoinDeadline(ctx context.Context, id uuid.UUID, deadline time.Time) error
	UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresTournamentRepository struct {
	exec SQLExecutor
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{exec: db}
}

const tournamentColumns = `
	t.id, t.name, t.description, t.join_deadline, t.status, t.xp_per_win,
	t.max_participants, t.image_url, t.created_by_user_id, t.created_at, t.updated_at`

func scanTournament(row rowScanner, t *models.Tournament, extra ...interface{}) error {
	dest := []interface{}{
		&t.ID, &t.Name, &t.Description, &t.JoinDeadline, &t.Status, &t.XPPerWin,
		&t.MaxParticipants, &t.ImageURL, &t.CreatedByUserID, &t.CreatedAt, &t.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO tournaments (
			id, name, description, join_deadline, status, xp_per_win,
			max_participants, image_url, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.exec.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Description, t.JoinDeadline, t.Status, t.XPPerWin,
		t.MaxParticipants, t.ImageURL, t.CreatedByUserID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments t WHERE t.id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresTournamentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments t WHERE t.id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id)
}

func (r *postgresTournamentRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := scanTournament(r.exec.QueryRowContext(ctx, query, args...), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", handleTxError(err))
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `,
			(SELECT COUNT(*) FROM members m WHERE m.tournament_id = t.id) AS member_count
		FROM tournaments t
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY t.created_at DESC, t.id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t, &t.MemberCount); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}

	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	result, err := r.exec.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return r.handleTournamentError(err)
	}
	if err := checkAffectedRows(result, ErrTournamentStatusConflict); err != nil {
		if errors.Is(err, ErrTournamentStatusConflict) {
			return r.conflictOrNotFound(ctx, id)
		}
		return err
	}
	return nil
}

// conflictOrNotFound tells a missing row apart from a stale status.
func (r *postgresTournamentRepository) conflictOrNotFound(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tournaments WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check tournament existence: %w", handleTxError(err))
	}
	if !exists {
		return ErrTournamentNotFound
	}
	return ErrTournamentStatusConflict
}

func (r *postgresTournamentRepository) UpdateJoinDeadline(ctx context.Context, id uuid.UUID, deadline time.Time) error {
	query := `UPDATE tournaments SET join_deadline = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.exec.ExecContext(ctx, query, deadline, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL *string) error {
	query := `UPDATE tournaments SET image_url = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.exec.ExecContext(ctx, query, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament image url: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// Delete removes the tournament together with its members and matches.
func (r *postgresTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case "23503":
			if pqErr.Constraint == "tournaments_created_by_user_id_fkey" {
				return ErrTournamentInvalidCreator
			}
		}
	}
	return handleTxError(err)
}
