package brackets

import (
	"errors"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/google/uuid"
)

// MinParticipants is the smallest field a bracket can be drawn for.
const MinParticipants = 2

var (
	ErrNotEnoughParticipants = errors.New("not enough participants to generate a bracket")
	ErrDuplicateParticipant  = errors.New("participant listed more than once")
)

type GenerateBracketParams struct {
	TournamentID uuid.UUID
	Participants []models.Member
}

// BracketGenerator turns a participant list into the complete, linked match set
// of one tournament. Implementations must not touch shared state.
type BracketGenerator interface {
	GenerateBracket(params GenerateBracketParams) ([]*models.Match, error)

	GetName() string
}
