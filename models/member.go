package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is a walker registered in one tournament.
type Member struct {
	ID           uuid.UUID  `json:"id"`
	TournamentID uuid.UUID  `json:"tournament_id"`
	WalkerID     int        `json:"walker_id"`
	WalkerName   string     `json:"walker_name"`
	Email        string     `json:"email"`
	JoinedAt     time.Time  `json:"joined_at"`
	EliminatedAt *time.Time `json:"eliminated_at,omitempty"`
	XPEarned     int        `json:"xp_earned"`
}

func (m *Member) IsActive() bool {
	return m.EliminatedAt == nil
}
