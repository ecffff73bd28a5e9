package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/internal/group/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func NewService(db *gorm.DB, repo domain.Repository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{
		db:    db,
		repo:  repo,
		genID: genID,
		clock: clk,
		log:   zap.L().Named("group.service"),
	}
}

func (s *service) CreateGroup(ctx context.Context, ownerID snowflake.ID, name string) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	group := &domain.Group{
		ID:        s.genID.Generate(),
		OwnerID:   ownerID,
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateGroup(ctx, group); err != nil {
			return err
		}
		_, err := repo.InsertMemberIgnoreConflict(ctx, &domain.GroupMember{
			ID:       s.genID.Generate(),
			GroupID:  group.ID,
			UserID:   ownerID,
			Role:     domain.RoleOwner,
			JoinedAt: now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("group created",
		zap.String("group_id", group.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return group, nil
}

func (s *service) GetGroup(ctx context.Context, id snowflake.ID) (*domain.Group, error) {
	return s.repo.FindGroupByID(ctx, id)
}

func (s *service) ListGroupsByUser(ctx context.Context, userID snowflake.ID) ([]domain.GroupWithRole, error) {
	return s.repo.ListGroupsByUser(ctx, userID)
}

func (s *service) ListOwnedGroups(ctx context.Context, ownerID snowflake.ID) ([]domain.Group, error) {
	return s.repo.ListOwnedGroups(ctx, ownerID)
}

func (s *service) ListMembers(ctx context.Context, groupID snowflake.ID) ([]domain.GroupMember, error) {
	if _, err := s.repo.FindGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
}

func (s *service) IsMember(ctx context.Context, groupID, userID snowflake.ID) (bool, error) {
	_, err := s.repo.FindMember(ctx, groupID, userID)
	if err == domain.ErrNotMember {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) MemberRole(ctx context.Context, groupID, userID snowflake.ID) (string, error) {
	member, err := s.repo.FindMember(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (s *service) GrantMembership(ctx context.Context, grant domain.Grant) (*domain.GrantResult, error) {
	if !domain.ValidRole(grant.Role) {
		return nil, domain.ErrInvalidRole
	}
	if _, err := s.repo.FindGroupByID(ctx, grant.GroupID); err != nil {
		return nil, err
	}

	member := &domain.GroupMember{
		ID:              s.genID.Generate(),
		GroupID:         grant.GroupID,
		UserID:          grant.UserID,
		Role:            grant.Role,
		RelationshipTag: grant.RelationshipTag,
		InvitedBy:       grant.InvitedBy,
		JoinedAt:        s.clock.Now(),
	}
	inserted, err := s.repo.InsertMemberIgnoreConflict(ctx, member)
	if err != nil {
		return nil, err
	}
	if inserted {
		return &domain.GrantResult{Member: member}, nil
	}

	existing, err := s.repo.FindMember(ctx, grant.GroupID, grant.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.GrantResult{Member: existing, AlreadyMember: true}, nil
}

func (s *service) RemoveMembership(ctx context.Context, groupID, userID snowflake.ID) error {
	member, err := s.repo.FindMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member.Role == domain.RoleOwner {
		owners, err := s.repo.CountMembersWithRole(ctx, groupID, domain.RoleOwner)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return domain.ErrSoleOwner
		}
	}
	return s.repo.RemoveMember(ctx, groupID, userID)
}

func (s *service) TransferOwnership(ctx context.Context, groupID, fromUserID snowflake.ID) (*domain.GroupMember, error) {
	var newOwner *domain.GroupMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		group, err := repo.FindGroupByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group.OwnerID != fromUserID {
			return domain.ErrNotMember
		}

		candidate, err := repo.EarliestMemberExcluding(ctx, groupID, fromUserID)
		if err != nil {
			return err
		}
		if err := repo.UpdateMemberRole(ctx, candidate.ID, domain.RoleOwner); err != nil {
			return err
		}
		// Demote the departing owner so the group keeps exactly one owner row.
		departing, err := repo.FindMember(ctx, groupID, fromUserID)
		if err == nil {
			if err := repo.UpdateMemberRole(ctx, departing.ID, domain.RoleAdmin); err != nil {
				return err
			}
		} else if err != domain.ErrNotMember {
			return err
		}
		if err := repo.UpdateOwner(ctx, groupID, candidate.UserID); err != nil {
			return err
		}

		candidate.Role = domain.RoleOwner
		newOwner = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("group ownership transferred",
		zap.String("group_id", groupID.String()),
		zap.String("from_user_id", fromUserID.String()),
		zap.String("to_user_id", newOwner.UserID.String()),
	)
	return newOwner, nil
}
