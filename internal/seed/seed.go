// Package seed bootstraps a usable local or self-hosted install: an
// admin user and a demo group to land in after first login.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	"github.com/smallplates/plates/internal/auth/password"
	"github.com/smallplates/plates/internal/config"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	defaultAdminDisplay = "Plates Admin"
	demoGroupName       = "Demo Kitchen"
)

// EnsureAdminAndDemoGroup creates the bootstrap admin and demo group if
// they do not exist yet. Safe to run on every startup.
func EnsureAdminAndDemoGroup(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email := strings.ToLower(strings.TrimSpace(cfg.Bootstrap.AdminEmail))
	if email == "" {
		return errors.New("bootstrap admin email is required")
	}
	if strings.TrimSpace(cfg.Bootstrap.AdminPassword) == "" {
		return errors.New("bootstrap admin password is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin, err := ensureAdminTx(ctx, tx, node, email, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return err
		}
		return ensureDemoGroupTx(ctx, tx, node, admin.ID)
	})
}

func ensureAdminTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email, rawPassword string) (*authdomain.User, error) {
	var existing authdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := password.Hash(rawPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	admin := authdomain.User{
		ID:           node.Generate(),
		ExternalID:   uuid.NewString(),
		Email:        email,
		DisplayName:  defaultAdminDisplay,
		PasswordHash: &hash,
		Status:       authdomain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func ensureDemoGroupTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, ownerID snowflake.ID) error {
	var existing groupdomain.Group
	err := tx.WithContext(ctx).Where("owner_id = ? AND name = ?", ownerID, demoGroupName).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	group := groupdomain.Group{
		ID:        node.Generate(),
		OwnerID:   ownerID,
		Name:      demoGroupName,
		Slug:      slug.Make(demoGroupName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&group).Error; err != nil {
		return err
	}

	member := groupdomain.GroupMember{
		ID:       node.Generate(),
		GroupID:  group.ID,
		UserID:   ownerID,
		Role:     groupdomain.RoleOwner,
		JoinedAt: now,
	}
	return tx.WithContext(ctx).Create(&member).Error
}
