package models

import (
	"github.com/google/uuid"
)

// Match is one node of a single-elimination bracket. Round 1 is the first
// played round; MatchOrder is the 0-based left-to-right position in its round.
type Match struct {
	ID             uuid.UUID  `json:"id"`
	TournamentID   uuid.UUID  `json:"tournament_id"`
	RoundNumber    int        `json:"round_number"`
	MatchOrder     int        `json:"match_order"`
	ParticipantAID *uuid.UUID `json:"participant_a_id,omitempty"`
	ParticipantBID *uuid.UUID `json:"participant_b_id,omitempty"`
	WinnerID       *uuid.UUID `json:"winner_id,omitempty"`
	NextMatchID    *uuid.UUID `json:"next_match_id,omitempty"`

	// WinnerToSlotA is true when the winner goes to slot A of NextMatch, false for slot B.
	WinnerToSlotA bool  `json:"winner_to_slot_a"`
	Version       int64 `json:"version"`
}

func (m *Match) IsDecided() bool {
	return m.WinnerID != nil
}

// IsBye reports whether a first-round match has a single occupant in slot A
// and nobody in slot B. Later rounds never contain byes: an empty slot there
// only means the feeding match is still undecided.
func (m *Match) IsBye() bool {
	return m.RoundNumber == 1 && m.ParticipantAID != nil && m.ParticipantBID == nil
}

// IsReady reports whether both slots are filled.
func (m *Match) IsReady() bool {
	return m.ParticipantAID != nil && m.ParticipantBID != nil
}

func (m *Match) IsFinal() bool {
	return m.NextMatchID == nil
}

// HasParticipant reports whether memberID occupies slot A or slot B.
func (m *Match) HasParticipant(memberID uuid.UUID) bool {
	return (m.ParticipantAID != nil && *m.ParticipantAID == memberID) ||
		(m.ParticipantBID != nil && *m.ParticipantBID == memberID)
}

// Opponent returns the occupant of the other slot, or nil when there is none.
func (m *Match) Opponent(memberID uuid.UUID) *uuid.UUID {
	if m.ParticipantAID != nil && *m.ParticipantAID == memberID {
		return m.ParticipantBID
	}
	if m.ParticipantBID != nil && *m.ParticipantBID == memberID {
		return m.ParticipantAID
	}
	return nil
}

// PlaceWinner writes a winner coming from a previous match into the given slot.
func (m *Match) PlaceWinner(memberID uuid.UUID, slotA bool) {
	id := memberID
	if slotA {
		m.ParticipantAID = &id
	} else {
		m.ParticipantBID = &id
	}
}
