package services

import "errors"

// Категории ошибок. Каждая конкретная ошибка ниже разворачивается (errors.Is)
// в одну из них, так что вызывающий код может проверять как конкретную
// ошибку, так и категорию.
var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrInvalidState = errors.New("operation not allowed in the current state")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")

	// ErrConcurrentModification is also a Conflict. It is the only failure
	// that may be retried as-is after re-reading.
	ErrConcurrentModification error = &serviceError{kind: ErrConflict, msg: "resource was modified concurrently, re-read and retry"}
)

type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

var (
	// NotFound
	ErrTournamentNotFound = newError(ErrNotFound, "tournament not found")
	ErrMemberNotFound     = newError(ErrNotFound, "member not found")
	ErrMatchNotFound      = newError(ErrNotFound, "match not found")

	// InvalidState
	ErrTournamentNotDraft      = newError(ErrInvalidState, "tournament is not in draft status")
	ErrTournamentNotOpen       = newError(ErrInvalidState, "tournament is not open for registration")
	ErrJoinDeadlinePassed      = newError(ErrInvalidState, "registration deadline has passed")
	ErrMemberRemovalClosed     = newError(ErrInvalidState, "members cannot be removed once the bracket is drawn")
	ErrTournamentNotDrawable   = newError(ErrInvalidState, "tournament must be locked, or open and full, to draw")
	ErrTournamentNotInProgress = newError(ErrInvalidState, "tournament is not in progress")
	ErrMatchAlreadyDecided     = newError(ErrInvalidState, "winner already set for this match")
	ErrMatchNotReady           = newError(ErrInvalidState, "match is still waiting for its participants")

	// Conflict
	ErrTournamentFull    = newError(ErrConflict, "tournament is full")
	ErrAlreadyRegistered = newError(ErrConflict, "this walker is already registered for this tournament")

	// Precondition
	ErrNotEnoughMembers      = newError(ErrPrecondition, "at least 2 members are required")
	ErrDeadlineNotExtended   = newError(ErrPrecondition, "new deadline must be later than the current one")
	ErrInvalidWinner         = newError(ErrPrecondition, "winner must be one of the match participants")
	ErrInvalidImageType      = newError(ErrPrecondition, "only image uploads are allowed")
	ErrTournamentInvalidData = newError(ErrPrecondition, "invalid tournament data")
)

// Ошибки аутентификации и инфраструктуры, не входящие в таксономию движка.
var (
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrStorageUnavailable     = errors.New("file storage is not configured")
)
