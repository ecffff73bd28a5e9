package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/invitation/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, invitation *domain.Invitation) error {
	invitation.InviteeEmail = strings.ToLower(strings.TrimSpace(invitation.InviteeEmail))
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *repository) Lookup(ctx context.Context, token string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) FindPending(ctx context.Context, groupID snowflake.ID, email string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND invitee_email = ? AND status = ?",
			groupID, strings.ToLower(strings.TrimSpace(email)), domain.StatusPending).
		Order("created_at DESC").
		First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) ListByGroup(ctx context.Context, groupID snowflake.ID, status string) ([]domain.Invitation, error) {
	q := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var invitations []domain.Invitation
	if err := q.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// MarkAccepted leaves an already-accepted row untouched and reports
// success, so re-running acceptance does not error.
func (r *repository) MarkAccepted(ctx context.Context, token string, at time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("token = ? AND status IN ?", token, []string{domain.StatusPending, domain.StatusAccepted}).
		Updates(map[string]any{
			"status":      domain.StatusAccepted,
			"accepted_at": gorm.Expr("COALESCE(accepted_at, ?)", at),
			"updated_at":  at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

func (r *repository) MarkCancelled(ctx context.Context, token string, at time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("token = ? AND status = ?", token, domain.StatusPending).
		Updates(map[string]any{
			"status":     domain.StatusCancelled,
			"updated_at": at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

func (r *repository) DeleteByInviter(ctx context.Context, inviterID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("inviter_id = ?", inviterID).Delete(&domain.Invitation{}).Error
}

func (r *repository) DeleteByGroup(ctx context.Context, groupID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&domain.Invitation{}).Error
}

func (r *repository) UpsertCollectionLink(ctx context.Context, link *domain.CollectionLink) (*domain.CollectionLink, error) {
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(link)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected > 0 {
		return link, nil
	}

	var existing domain.CollectionLink
	if err := r.db.WithContext(ctx).Where("user_id = ?", link.UserID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *repository) FindCollectionLinkByToken(ctx context.Context, token string) (*domain.CollectionLink, error) {
	var link domain.CollectionLink
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCollectionLinkInvalid
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) DisableCollectionLink(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Model(&domain.CollectionLink{}).
		Where("user_id = ?", userID).
		Update("enabled", false).Error
}

func (r *repository) CreateActivation(ctx context.Context, activation *domain.ActivationToken) error {
	activation.Email = strings.ToLower(strings.TrimSpace(activation.Email))
	return r.db.WithContext(ctx).Create(activation).Error
}

func (r *repository) FindActivationByToken(ctx context.Context, token string) (*domain.ActivationToken, error) {
	var activation domain.ActivationToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&activation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrActivationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &activation, nil
}

func (r *repository) FindPendingActivationByEmail(ctx context.Context, email string) (*domain.ActivationToken, error) {
	var activation domain.ActivationToken
	err := r.db.WithContext(ctx).
		Where("email = ? AND status = ?", strings.ToLower(strings.TrimSpace(email)), domain.StatusPending).
		Order("created_at DESC").
		First(&activation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrActivationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &activation, nil
}

func (r *repository) MarkActivated(ctx context.Context, token string, at time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.ActivationToken{}).
		Where("token = ? AND status = ?", token, domain.StatusPending).
		Updates(map[string]any{
			"status":       "activated",
			"activated_at": at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrActivationUsed
	}
	return nil
}
