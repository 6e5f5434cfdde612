package model

import "time"

// User represents an application user record as stored in the `users`
// table.  A user has exactly one role; the role claim baked into the access
// token is the only identity input the workflow core consumes.
//
// Accounts are created by an admin in an inactive state together with an
// invitation token.  Only the SHA-256 hash of the token is stored; the raw
// token travels to the invitee out of band and activation sets the password
// and flips IsActive.
//
// Fields:
//
//	ID            – primary key identifier.
//	Email         – unique email address (identity).
//	PasswordHash  – bcrypt hashed password; empty until activation.
//	Role          – role key (references the roles catalog).
//	FirstName     – given name.
//	LastName      – family name.
//	IsActive      – whether the account has been activated.
//	NotifyEnabled – whether the user wants workflow notifications.
//	InviteHash    – SHA-256 hex digest of the invitation token (nullable).
//	InviteExpiry  – when the invitation stops being redeemable (nullable).
//	LastLogin     – timestamp of the last successful login (nullable).
//	CreatedAt     – timestamp of creation.
//	UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64
	Email         string
	PasswordHash  string
	Role          Role
	FirstName     string
	LastName      string
	IsActive      bool
	NotifyEnabled bool
	InviteHash    *string
	InviteExpiry  *time.Time
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user; only its SHA-256 hash is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
