package services

import (
	"errors"
	"slices"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/Dosada05/walker-tournament/repositories"
	"github.com/google/uuid"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// requireStatus checks the current status against the explicit set of
// statuses an operation may start from.
func requireStatus(t *models.Tournament, onMismatch error, allowed ...models.TournamentStatus) error {
	if slices.Contains(allowed, t.Status) {
		return nil
	}
	return onMismatch
}

// auditActor returns actor, or the tournament creator when no actor is known.
func auditActor(actor uuid.UUID, t *models.Tournament) uuid.UUID {
	if actor == uuid.Nil && t != nil {
		return t.CreatedByUserID
	}
	return actor
}

// handleRepositoryError translates store sentinels into the service taxonomy.
// Anything unrecognised is returned unchanged.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMemberNotFound):
		return ErrMemberNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMemberConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrMatchVersionConflict),
		errors.Is(err, repositories.ErrTournamentStatusConflict),
		errors.Is(err, repositories.ErrSerializationFailure):
		return ErrConcurrentModification
	default:
		return err
	}
}
