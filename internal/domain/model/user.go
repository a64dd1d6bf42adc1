package model

import (
	"strings"
	"time"

	"quiz-exam-platform/internal/domain"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account of the quiz platform. Entitlements are not stored on the
// user; they live in the purchases table and are attached on read (see Profile).
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	LastActiveAt time.Time
}

func NewUser(id, username, email, passwordHash string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool  { return u == nil || u.ID == "" }
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
func (u *User) Touch()        { u.LastActiveAt = time.Now() }

// Profile is the read model returned to the account owner. Entitlements is
// derived from the purchases table at read time and never written back.
type Profile struct {
	User         *User
	Entitlements []EntitlementSummary
}

// EntitlementSummary is a compact view of one currently valid purchase.
type EntitlementSummary struct {
	QuestionSetID string
	PurchaseID    string
	ExpiryDate    time.Time
	RemainingDays int
}
