package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/google/uuid"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchVersionConflict    = errors.New("match was modified concurrently")
	ErrMatchTournamentInvalid  = errors.New("match tournament conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
	ErrMatchPositionConflict   = errors.New("match position already taken in this round")
	ErrMatchNextInvalid        = errors.New("next match reference invalid")
)

type MatchRepository interface {
	// CreateBatch inserts matches in slice order; a match's NextMatchID must
	// refer to a match inserted earlier or already stored.
	CreateBatch(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error)
	// UpdateAdvancement writes slots and winner if the stored version still
	// equals expectedVersion, then bumps m.Version. A stale version yields
	// ErrMatchVersionConflict.
	UpdateAdvancement(ctx context.Context, m *models.Match, expectedVersion int64) error
}

type postgresMatchRepository struct {
	exec SQLExecutor
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{exec: db}
}

const matchColumns = `
	id, tournament_id, round_number, match_order, participant_a_id, participant_b_id,
	winner_id, next_match_id, winner_to_slot_a, version`

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.RoundNumber,
		&m.MatchOrder,
		&m.ParticipantAID,
		&m.ParticipantBID,
		&m.WinnerID,
		&m.NextMatchID,
		&m.WinnerToSlotA,
		&m.Version,
	)
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	query := `
		INSERT INTO matches
			(id, tournament_id, round_number, match_order, participant_a_id, participant_b_id,
			 winner_id, next_match_id, winner_to_slot_a, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, m := range matches {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if m.Version == 0 {
			m.Version = 1
		}
		_, err := r.exec.ExecContext(ctx, query,
			m.ID,
			m.TournamentID,
			m.RoundNumber,
			m.MatchOrder,
			m.ParticipantAID,
			m.ParticipantBID,
			m.WinnerID,
			m.NextMatchID,
			m.WinnerToSlotA,
			m.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to insert match r%d#%d: %w", m.RoundNumber, m.MatchOrder, r.handleMatchError(err))
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m := &models.Match{}
	if err := scanMatch(r.exec.QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %s: %w", id, handleTxError(err))
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY round_number ASC, match_order ASC`

	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %s: %w", tournamentID, handleTxError(err))
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateAdvancement(ctx context.Context, m *models.Match, expectedVersion int64) error {
	query := `
		UPDATE matches
		SET participant_a_id = $1, participant_b_id = $2, winner_id = $3,
		    version = version + 1, updated_at = NOW()
		WHERE id = $4 AND version = $5
		RETURNING version`

	var newVersion int64
	err := r.exec.QueryRowContext(ctx, query,
		m.ParticipantAID, m.ParticipantBID, m.WinnerID, m.ID, expectedVersion,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, m.ID); getErr != nil {
				return getErr
			}
			return ErrMatchVersionConflict
		}
		return fmt.Errorf("failed to update match %s: %w", m.ID, r.handleMatchError(err))
	}
	m.Version = newVersion
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_participant_a_id_fkey", "matches_participant_b_id_fkey", "matches_winner_id_fkey":
			return ErrMatchParticipantInvalid
		case "matches_tournament_id_round_number_match_order_key":
			return ErrMatchPositionConflict
		case "matches_next_match_id_fkey":
			return ErrMatchNextInvalid
		}
	}
	return handleTxError(err)
}
