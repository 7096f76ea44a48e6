package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus представляет статусы турнира, соответствующие CHECK в БД.
// Порядок строго прямой: draft → open → locked → in_progress → completed.
type TournamentStatus string

const (
	StatusDraft      TournamentStatus = "draft"
	StatusOpen       TournamentStatus = "open"
	StatusLocked     TournamentStatus = "locked"
	StatusInProgress TournamentStatus = "in_progress"
	StatusCompleted  TournamentStatus = "completed"
)

// AllTournamentStatuses lists the statuses in lifecycle order.
var AllTournamentStatuses = []TournamentStatus{
	StatusDraft,
	StatusOpen,
	StatusLocked,
	StatusInProgress,
	StatusCompleted,
}

func (s TournamentStatus) IsValid() bool {
	for _, known := range AllTournamentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Tournament представляет турнир на выбывание.
type Tournament struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	JoinDeadline    time.Time        `json:"join_deadline"`
	Status          TournamentStatus `json:"status"`
	XPPerWin        int              `json:"xp_per_win"`
	MaxParticipants int              `json:"max_participants"`
	ImageURL        *string          `json:"image_url,omitempty"`
	CreatedByUserID uuid.UUID        `json:"created_by_user_id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// Заполняются только при загрузке деталей турнира.
	MemberCount int      `json:"member_count"`
	Members     []Member `json:"members,omitempty"`
	Matches     []Match  `json:"matches,omitempty"`
}

// AcceptsJoinsAt reports whether registration is possible at the given instant.
func (t *Tournament) AcceptsJoinsAt(now time.Time) bool {
	return t.Status == StatusOpen && !now.After(t.JoinDeadline)
}
