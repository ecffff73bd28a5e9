package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Repository is the token store. MarkAccepted is idempotent from the
// caller's point of view: marking an already-accepted token succeeds.
type Repository interface {
	Create(ctx context.Context, invitation *Invitation) error
	Lookup(ctx context.Context, token string) (*Invitation, error)
	FindPending(ctx context.Context, groupID snowflake.ID, email string) (*Invitation, error)
	ListByGroup(ctx context.Context, groupID snowflake.ID, status string) ([]Invitation, error)
	MarkAccepted(ctx context.Context, token string, at time.Time) error
	MarkCancelled(ctx context.Context, token string, at time.Time) error
	DeleteByInviter(ctx context.Context, inviterID snowflake.ID) error
	DeleteByGroup(ctx context.Context, groupID snowflake.ID) error

	UpsertCollectionLink(ctx context.Context, link *CollectionLink) (*CollectionLink, error)
	FindCollectionLinkByToken(ctx context.Context, token string) (*CollectionLink, error)
	DisableCollectionLink(ctx context.Context, userID snowflake.ID) error

	CreateActivation(ctx context.Context, activation *ActivationToken) error
	FindActivationByToken(ctx context.Context, token string) (*ActivationToken, error)
	FindPendingActivationByEmail(ctx context.Context, email string) (*ActivationToken, error)
	MarkActivated(ctx context.Context, token string, at time.Time) error
}
