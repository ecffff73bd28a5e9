package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallplates/plates/internal/auth/domain"
	"github.com/smallplates/plates/internal/auth/password"
	"github.com/smallplates/plates/internal/clock"
	"go.uber.org/zap"
)

const (
	sessionTTL        = 7 * 24 * time.Hour
	minPasswordLength = 8
)

type service struct {
	users    domain.Repository
	sessions domain.SessionRepository
	node     *snowflake.Node
	clock    clock.Clock
	log      *zap.Logger
}

func New(users domain.Repository, sessions domain.SessionRepository, node *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{
		users:    users,
		sessions: sessions,
		node:     node,
		clock:    clk,
		log:      zap.L().Named("auth.service"),
	}
}

func (s *service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.node.Generate(),
		ExternalID:   uuid.NewString(),
		Email:        email,
		DisplayName:  displayName(req.FirstName, req.LastName, email),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: &hash,
		Status:       domain.StatusActive,
		Metadata:     req.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// VerifyCredential proves ownership of the account without creating a session.
func (s *service) VerifyCredential(ctx context.Context, email, pass string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active() {
		return nil, domain.ErrInvalidCredentials
	}
	if user.PasswordHash == nil || !password.Verify(pass, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *service) DisableUser(ctx context.Context, id snowflake.ID, tombstoneEmail string) error {
	now := s.clock.Now()
	return s.users.UpdateFields(ctx, id, map[string]any{
		"email":         tombstoneEmail,
		"status":        domain.StatusDeleted,
		"password_hash": nil,
		"display_name":  "Deleted User",
		"first_name":    "",
		"last_name":     "",
		"deleted_at":    now,
		"updated_at":    now,
	})
}

// DeleteUser removes the account's sessions and then the user row itself.
// A foreign-key violation on the row surfaces as ErrHasDependents.
func (s *service) DeleteUser(ctx context.Context, id snowflake.ID) error {
	if err := s.sessions.DeleteAllForUser(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	user, err := s.VerifyCredential(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	raw, hash, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:               s.node.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hash,
		UserAgent:        req.UserAgent,
		IPAddress:        req.IPAddress,
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("session created",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", session.ID.String()),
	)

	return &domain.LoginResult{
		User:      user,
		RawToken:  raw,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *service) Logout(ctx context.Context, rawToken string) error {
	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(rawToken))
	if err != nil {
		return err
	}
	if session.RevokedAt != nil {
		return nil
	}
	return s.sessions.RevokeSession(ctx, session.ID, s.clock.Now())
}

func (s *service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	if rawToken == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(rawToken))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if now.Sub(session.LastSeenAt) > time.Minute {
		if err := s.sessions.UpdateLastSeen(ctx, session.ID, now); err != nil {
			s.log.Warn("update last seen failed", zap.Error(err))
		}
	}
	return session, nil
}

func (s *service) RevokeUserSessions(ctx context.Context, userID snowflake.ID) error {
	return s.sessions.RevokeAllForUser(ctx, userID, s.clock.Now())
}

func displayName(first, last, email string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func newSessionToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
