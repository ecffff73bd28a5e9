package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service wraps account identity management and session authentication.
//
// VerifyCredential exists separately from Login: it proves ownership of an
// account without creating a session, so flows that only need a credential
// check (invitation acceptance, account deletion) leave no session behind.
type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	VerifyCredential(ctx context.Context, email, password string) (*User, error)
	DisableUser(ctx context.Context, id snowflake.ID, tombstoneEmail string) error
	DeleteUser(ctx context.Context, id snowflake.ID) error

	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	RevokeUserSessions(ctx context.Context, userID snowflake.ID) error
}

type CreateUserRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Metadata  map[string]any
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
