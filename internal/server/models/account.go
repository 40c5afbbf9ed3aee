// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// Account is the only persisted entity: a registered identity together with
// its verification and password-reset sub-states.
//
// PasswordHash, VerificationToken and ResetToken never leave the server;
// use Public for anything that is serialized to a client.
type Account struct {
	ID           string
	Email        string
	PasswordHash string

	Verified          bool
	VerificationToken string

	ResetToken     string
	ResetExpiresAt *time.Time

	// ExternalID is the subject assigned by a federated identity provider.
	ExternalID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether the account can log in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// ResetExpired reports whether the outstanding reset token is unusable at now.
// An account without an expiry is treated as expired.
func (a *Account) ResetExpired(now time.Time) bool {
	if a.ResetExpiresAt == nil {
		return true
	}
	return !now.Before(*a.ResetExpiresAt)
}

// PublicAccount is the client-facing projection of an Account.
type PublicAccount struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		Email:     a.Email,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// Clone returns a deep copy so callers never share the expiry pointer.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.ResetExpiresAt != nil {
		t := *a.ResetExpiresAt
		c.ResetExpiresAt = &t
	}
	return &c
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
