package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Permanent accounts carry an email and bcrypt password hash;
// anonymous sessions are backed by rows with IsAnonymous set and no
// credentials.  The json tags are omitted because these structs are
// used by the repository layer; handlers define their own response
// types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address (null for anonymous users).
//  PasswordHash – bcrypt hashed password (empty for anonymous users).
//  DisplayName  – optional public name.
//  TotalPoints  – lifetime check-in points counter.
//  IsAnonymous  – whether this row backs an ephemeral session.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        *string   // users.email (nullable)
	PasswordHash string    // users.password_hash
	DisplayName  *string   // users.display_name (nullable)
	TotalPoints  uint64    // users.total_points
	IsAnonymous  bool      // users.is_anonymous
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Identity converts the stored row into the caller variant used by
// request handling.
func (u User) Identity() Caller {
	if u.IsAnonymous {
		return AnonymousCaller{ID: u.ID}
	}
	return PermanentCaller{ID: u.ID}
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry and
// revocation.  The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
