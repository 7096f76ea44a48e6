package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleOrganizer UserRole = "organizer"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
