package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditservice "github.com/smallplates/plates/internal/audit/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectGroup      = "group"
	ObjectMember     = "member"
	ObjectInvitation = "invitation"
	ObjectRecipe     = "recipe"
	ObjectGuest      = "guest"
	ObjectCookbook   = "cookbook"
	ObjectAuditLog   = "audit_log"
)

const (
	ActionGroupView     = "group.view"
	ActionGroupUpdate   = "group.update"
	ActionGroupDelete   = "group.delete"
	ActionGroupTransfer = "group.transfer"

	ActionMemberView       = "member.view"
	ActionMemberUpdateRole = "member.update_role"
	ActionMemberRemove     = "member.remove"

	ActionInvitationView   = "invitation.view"
	ActionInvitationCreate = "invitation.create"
	ActionInvitationCancel = "invitation.cancel"
	ActionInvitationResend = "invitation.resend"

	ActionRecipeView   = "recipe.view"
	ActionRecipeCreate = "recipe.create"
	ActionRecipeDelete = "recipe.delete"

	ActionGuestView   = "guest.view"
	ActionGuestManage = "guest.manage"

	ActionCookbookView   = "cookbook.view"
	ActionCookbookManage = "cookbook.manage"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	Audit    auditservice.Recorder `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	audit    auditservice.Recorder
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		audit:    p.Audit,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, groupID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return ErrInvalidGroup
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, userID, err := s.resolveActor(ctx, actor, groupID)
	if err != nil {
		s.auditDenied(ctx, userID, groupID, object, action)
		return err
	}

	domain := fmt.Sprintf("group:%s", groupID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, userID, groupID, object, action)
		return ErrForbidden
	}

	if shouldAuditGrant(action) {
		s.auditGranted(ctx, userID, groupID, object, action)
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, groupID string) (string, string, snowflake.ID, error) {
	if actor == "system" {
		return actor, "role:system", 0, nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", 0, ErrInvalidActor
		}
		parsedGroupID, err := snowflake.ParseString(groupID)
		if err != nil || parsedGroupID == 0 {
			return actor, "", userID, ErrInvalidGroup
		}
		role, err := s.roleForUser(ctx, parsedGroupID, userID)
		if err != nil {
			return actor, "", userID, err
		}
		return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), userID, nil
	}
	return "", "", 0, ErrInvalidActor
}

func (s *ServiceImpl) roleForUser(ctx context.Context, groupID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM group_members
		 WHERE group_id = ? AND user_id = ?
		 LIMIT 1`,
		groupID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, userID snowflake.ID, groupID string, object string, action string) {
	if s.audit == nil || userID == 0 {
		return
	}
	s.audit.Record(ctx, userID, "authorization.denied", "group", groupID, map[string]any{
		"object": object,
		"action": action,
	})
}

func (s *ServiceImpl) auditGranted(ctx context.Context, userID snowflake.ID, groupID string, object string, action string) {
	if s.audit == nil || userID == 0 {
		return
	}
	s.audit.Record(ctx, userID, "authorization.granted", "group", groupID, map[string]any{
		"object": object,
		"action": action,
	})
}

func shouldAuditGrant(action string) bool {
	switch action {
	case ActionGroupDelete, ActionGroupTransfer, ActionMemberRemove:
		return true
	default:
		return false
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:member", ObjectGroup, ActionGroupView},
		{"role:member", ObjectMember, ActionMemberView},
		{"role:member", ObjectInvitation, ActionInvitationView},
		{"role:member", ObjectRecipe, ActionRecipeView},
		{"role:member", ObjectRecipe, ActionRecipeCreate},

		{"role:admin", ObjectGroup, ActionGroupView},
		{"role:admin", ObjectMember, ActionMemberView},
		{"role:admin", ObjectMember, ActionMemberRemove},
		{"role:admin", ObjectInvitation, ActionInvitationView},
		{"role:admin", ObjectInvitation, ActionInvitationCreate},
		{"role:admin", ObjectInvitation, ActionInvitationCancel},
		{"role:admin", ObjectInvitation, ActionInvitationResend},
		{"role:admin", ObjectRecipe, ActionRecipeView},
		{"role:admin", ObjectRecipe, ActionRecipeCreate},
		{"role:admin", ObjectRecipe, ActionRecipeDelete},
		{"role:admin", ObjectGuest, ActionGuestView},
		{"role:admin", ObjectGuest, ActionGuestManage},

		{"role:owner", ObjectGroup, ActionGroupView},
		{"role:owner", ObjectGroup, ActionGroupUpdate},
		{"role:owner", ObjectGroup, ActionGroupDelete},
		{"role:owner", ObjectGroup, ActionGroupTransfer},
		{"role:owner", ObjectMember, ActionMemberView},
		{"role:owner", ObjectMember, ActionMemberUpdateRole},
		{"role:owner", ObjectMember, ActionMemberRemove},
		{"role:owner", ObjectInvitation, ActionInvitationView},
		{"role:owner", ObjectInvitation, ActionInvitationCreate},
		{"role:owner", ObjectInvitation, ActionInvitationCancel},
		{"role:owner", ObjectInvitation, ActionInvitationResend},
		{"role:owner", ObjectRecipe, ActionRecipeView},
		{"role:owner", ObjectRecipe, ActionRecipeCreate},
		{"role:owner", ObjectRecipe, ActionRecipeDelete},
		{"role:owner", ObjectGuest, ActionGuestView},
		{"role:owner", ObjectGuest, ActionGuestManage},
		{"role:owner", ObjectCookbook, ActionCookbookView},
		{"role:owner", ObjectCookbook, ActionCookbookManage},
		{"role:owner", ObjectAuditLog, ActionAuditLogView},

		{"role:system", ObjectGroup, ActionGroupView},
		{"role:system", ObjectGroup, ActionGroupUpdate},
		{"role:system", ObjectGroup, ActionGroupDelete},
		{"role:system", ObjectGroup, ActionGroupTransfer},
		{"role:system", ObjectMember, ActionMemberView},
		{"role:system", ObjectMember, ActionMemberUpdateRole},
		{"role:system", ObjectMember, ActionMemberRemove},
		{"role:system", ObjectInvitation, ActionInvitationView},
		{"role:system", ObjectInvitation, ActionInvitationCreate},
		{"role:system", ObjectInvitation, ActionInvitationCancel},
		{"role:system", ObjectInvitation, ActionInvitationResend},
		{"role:system", ObjectAuditLog, ActionAuditLogView},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
