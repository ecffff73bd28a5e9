package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type InviteRequest struct {
	GroupID         snowflake.ID
	InviterID       snowflake.ID
	InviteeEmail    string
	RelationshipTag string
}

type AcceptRequest struct {
	Token     string
	Password  string
	FirstName string
	LastName  string
	Email     string
	UserAgent string
	IPAddress string
}

type AcceptResult struct {
	UserID        snowflake.ID
	Email         string
	IsNewUser     bool
	GroupID       snowflake.ID
	GroupName     string
	AlreadyMember bool
	Message       string
}

type Service interface {
	// Invite creates a pending invitation, reusing an existing pending one
	// for the same (group, email). The invitation email is sent best-effort.
	Invite(ctx context.Context, req InviteRequest) (*Invitation, error)
	ListPending(ctx context.Context, groupID snowflake.ID) ([]Invitation, error)
	Cancel(ctx context.Context, token string, actorID snowflake.ID) error
	Resend(ctx context.Context, token string, actorID snowflake.ID) error

	// Accept runs the acceptance flow: token validation, identity
	// resolution, credential verification or account creation, membership
	// grant, token finalization.
	Accept(ctx context.Context, req AcceptRequest) (*AcceptResult, error)

	EnsureCollectionLink(ctx context.Context, userID snowflake.ID) (*CollectionLink, error)
	ValidateCollectionToken(ctx context.Context, token string) (*CollectionLink, error)

	CreateActivation(ctx context.Context, email string) (*ActivationToken, error)
	Activate(ctx context.Context, token string) (*ActivationToken, error)
}
