package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/group/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateGroup(ctx context.Context, group *domain.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repository) FindGroupByID(ctx context.Context, id snowflake.ID) (*domain.Group, error) {
	var group domain.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) UpdateOwner(ctx context.Context, groupID, ownerID snowflake.ID) error {
	tx := r.db.WithContext(ctx).Model(&domain.Group{}).Where("id = ?", groupID).Update("owner_id", ownerID)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

func (r *repository) DeleteGroup(ctx context.Context, groupID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", groupID).Delete(&domain.Group{}).Error
}

func (r *repository) ListGroupsByUser(ctx context.Context, userID snowflake.ID) ([]domain.GroupWithRole, error) {
	var items []domain.GroupWithRole
	err := r.db.WithContext(ctx).Raw(
		`SELECT g.id, g.name, g.slug, g.owner_id, m.role, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListOwnedGroups(ctx context.Context, ownerID snowflake.ID) ([]domain.Group, error) {
	var groups []domain.Group
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repository) InsertMemberIgnoreConflict(ctx context.Context, member *domain.GroupMember) (bool, error) {
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(member)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *repository) FindMember(ctx context.Context, groupID, userID snowflake.ID) (*domain.GroupMember, error) {
	var member domain.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotMember
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, groupID snowflake.ID) ([]domain.GroupMember, error) {
	var members []domain.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) EarliestMemberExcluding(ctx context.Context, groupID, excludeUserID snowflake.ID) (*domain.GroupMember, error) {
	var member domain.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id <> ?", groupID, excludeUserID).
		Order("joined_at ASC, id ASC").
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoOtherMembers
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) UpdateMemberRole(ctx context.Context, memberID snowflake.ID, role string) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.GroupMember{}).
		Where("id = ?", memberID).
		Update("role", role)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotMember
	}
	return nil
}

func (r *repository) RemoveMember(ctx context.Context, groupID, userID snowflake.ID) error {
	tx := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&domain.GroupMember{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotMember
	}
	return nil
}

func (r *repository) DeleteMembershipsByUser(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.GroupMember{}).Error
}

func (r *repository) CountMembersWithRole(ctx context.Context, groupID snowflake.ID, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.GroupMember{}).
		Where("group_id = ? AND role = ?", groupID, role).
		Count(&count).Error
	return count, err
}
