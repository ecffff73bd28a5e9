package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditservice "github.com/smallplates/plates/internal/audit/service"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/internal/config"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	"github.com/smallplates/plates/internal/invitation/domain"
	"github.com/smallplates/plates/internal/providers/email"
	"go.uber.org/zap"
)

type service struct {
	repo   domain.Repository
	auth   authdomain.Service
	groups groupdomain.Service
	mail   email.Provider
	audit  auditservice.Recorder
	genID  *snowflake.Node
	clock  clock.Clock
	cfg    config.Config
	log    *zap.Logger
}

func NewService(
	repo domain.Repository,
	auth authdomain.Service,
	groups groupdomain.Service,
	mail email.Provider,
	audit auditservice.Recorder,
	genID *snowflake.Node,
	clk clock.Clock,
	cfg config.Config,
) domain.Service {
	return &service{
		repo:   repo,
		auth:   auth,
		groups: groups,
		mail:   mail,
		audit:  audit,
		genID:  genID,
		clock:  clk,
		cfg:    cfg,
		log:    zap.L().Named("invitation.service"),
	}
}

func (s *service) Invite(ctx context.Context, req domain.InviteRequest) (*domain.Invitation, error) {
	invitee := strings.ToLower(strings.TrimSpace(req.InviteeEmail))
	if invitee == "" {
		return nil, domain.ErrEmailRequired
	}

	group, err := s.groups.GetGroup(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}

	// An unexpired pending invitation for the same address is reused
	// instead of minting a second token.
	if existing, err := s.repo.FindPending(ctx, req.GroupID, invitee); err == nil {
		if s.clock.Now().Before(existing.ExpiresAt) {
			s.sendInvitationEmail(ctx, existing, group.Name)
			return existing, nil
		}
	} else if err != domain.ErrInvitationNotFound {
		return nil, err
	}

	now := s.clock.Now()
	invitation := &domain.Invitation{
		ID:              s.genID.Generate(),
		Token:           newToken(),
		GroupID:         req.GroupID,
		InviteeEmail:    invitee,
		InviterID:       req.InviterID,
		RelationshipTag: strings.TrimSpace(req.RelationshipTag),
		Status:          domain.StatusPending,
		ExpiresAt:       now.Add(domain.DefaultInvitationTTL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, invitation); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, req.InviterID, "invitation.created", "group", req.GroupID.String(), map[string]any{
		"invitee_email": invitee,
	})
	s.sendInvitationEmail(ctx, invitation, group.Name)
	return invitation, nil
}

func (s *service) ListPending(ctx context.Context, groupID snowflake.ID) ([]domain.Invitation, error) {
	return s.repo.ListByGroup(ctx, groupID, domain.StatusPending)
}

func (s *service) Cancel(ctx context.Context, token string, actorID snowflake.ID) error {
	invitation, err := s.repo.Lookup(ctx, token)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, invitation.GroupID, actorID); err != nil {
		return err
	}
	if err := s.repo.MarkCancelled(ctx, token, s.clock.Now()); err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, "invitation.cancelled", "group", invitation.GroupID.String(), map[string]any{
		"invitee_email": invitation.InviteeEmail,
	})
	return nil
}

func (s *service) Resend(ctx context.Context, token string, actorID snowflake.ID) error {
	invitation, err := s.repo.Lookup(ctx, token)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, invitation.GroupID, actorID); err != nil {
		return err
	}
	if !invitation.Pending() || s.clock.Now().After(invitation.ExpiresAt) {
		return domain.ErrInvitationExpired
	}

	group, err := s.groups.GetGroup(ctx, invitation.GroupID)
	if err != nil {
		return err
	}
	s.sendInvitationEmail(ctx, invitation, group.Name)
	return nil
}

// Accept walks the acceptance state machine. The invitee email always
// comes from the token, never from the client, except when the token
// itself carries no address.
func (s *service) Accept(ctx context.Context, req domain.AcceptRequest) (*domain.AcceptResult, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, domain.ErrTokenRequired
	}

	invitation, err := s.repo.Lookup(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if invitation.Status == domain.StatusCancelled {
		return nil, domain.ErrInvitationNotFound
	}

	now := s.clock.Now()
	if invitation.Pending() && now.After(invitation.ExpiresAt) {
		return nil, domain.ErrInvitationExpired
	}

	inviteeEmail := invitation.InviteeEmail
	if inviteeEmail == "" {
		inviteeEmail = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if inviteeEmail == "" {
		return nil, domain.ErrEmailRequired
	}

	group, err := s.groups.GetGroup(ctx, invitation.GroupID)
	if err != nil {
		return nil, err
	}

	if invitation.Status == domain.StatusAccepted {
		return s.acceptConsumedToken(ctx, invitation, group, inviteeEmail, req.Password)
	}

	user, isNewUser, err := s.resolveIdentity(ctx, inviteeEmail, req)
	if err != nil {
		return nil, err
	}

	if !isNewUser {
		alreadyMember, err := s.groups.IsMember(ctx, invitation.GroupID, user.ID)
		if err != nil {
			return nil, err
		}
		if alreadyMember {
			s.finalizeToken(ctx, invitation.Token)
			return &domain.AcceptResult{
				UserID:        user.ID,
				Email:         user.Email,
				GroupID:       group.ID,
				GroupName:     group.Name,
				AlreadyMember: true,
				Message:       "You are already a member of this group",
			}, nil
		}
	}

	grant, err := s.groups.GrantMembership(ctx, groupdomain.Grant{
		GroupID:         invitation.GroupID,
		UserID:          user.ID,
		Role:            groupdomain.RoleMember,
		RelationshipTag: invitation.RelationshipTag,
		InvitedBy:       invitation.InviterID,
	})
	if err != nil {
		return nil, err
	}

	s.finalizeToken(ctx, invitation.Token)
	s.audit.Record(ctx, user.ID, "invitation.accepted", "group", group.ID.String(), map[string]any{
		"invitee_email": user.Email,
		"is_new_user":   isNewUser,
	})

	message := "Added to group successfully"
	if isNewUser {
		message = "Account created and added to group successfully"
	}
	return &domain.AcceptResult{
		UserID:        user.ID,
		Email:         user.Email,
		IsNewUser:     isNewUser,
		GroupID:       group.ID,
		GroupName:     group.Name,
		AlreadyMember: grant.AlreadyMember,
		Message:       message,
	}, nil
}

// acceptConsumedToken handles re-acceptance of an already-accepted token.
// It succeeds only when the token's invitee proves their credential and
// already holds the membership; anything else is a terminal 410-class error.
func (s *service) acceptConsumedToken(ctx context.Context, invitation *domain.Invitation, group *groupdomain.Group, inviteeEmail, password string) (*domain.AcceptResult, error) {
	user, err := s.auth.FindByEmail(ctx, inviteeEmail)
	if err != nil {
		if err == authdomain.ErrUserNotFound {
			return nil, domain.ErrInvitationAccepted
		}
		return nil, err
	}

	isMember, err := s.groups.IsMember(ctx, group.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, domain.ErrInvitationAccepted
	}

	if password == "" {
		return nil, domain.ErrPasswordRequired
	}
	if _, err := s.auth.VerifyCredential(ctx, inviteeEmail, password); err != nil {
		return nil, err
	}

	return &domain.AcceptResult{
		UserID:        user.ID,
		Email:         user.Email,
		GroupID:       group.ID,
		GroupName:     group.Name,
		AlreadyMember: true,
		Message:       "You are already a member of this group",
	}, nil
}

// resolveIdentity finds or creates the account for the invitee email.
// Existing accounts must prove their credential; verification leaves no
// session behind. On a concurrent-create race the loser re-resolves by
// email and must still verify its password against the winning account.
func (s *service) resolveIdentity(ctx context.Context, inviteeEmail string, req domain.AcceptRequest) (*authdomain.User, bool, error) {
	_, err := s.auth.FindByEmail(ctx, inviteeEmail)
	switch err {
	case nil:
		if req.Password == "" {
			return nil, false, domain.ErrPasswordRequired
		}
		user, err := s.auth.VerifyCredential(ctx, inviteeEmail, req.Password)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	case authdomain.ErrUserNotFound:
	default:
		return nil, false, err
	}

	if req.Password == "" {
		return nil, false, domain.ErrPasswordRequiredNew
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, false, domain.ErrFirstNameRequired
	}

	user, err := s.auth.CreateUser(ctx, authdomain.CreateUserRequest{
		Email:     inviteeEmail,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Metadata: map[string]any{
			"invited_from_group": true,
		},
	})
	switch err {
	case nil:
		return user, true, nil
	case authdomain.ErrUserExists:
		// Create race: another acceptance for the same email won. The
		// losing request's password is verified against the winner rather
		// than trusted outright.
		winner, err := s.auth.VerifyCredential(ctx, inviteeEmail, req.Password)
		if err != nil {
			return nil, false, err
		}
		return winner, false, nil
	default:
		return nil, false, err
	}
}

// finalizeToken marks the invitation accepted. A failure here is logged
// and swallowed: the membership grant already succeeded and a token stuck
// in pending is a reconcilable inconsistency, not a reason to undo a join.
func (s *service) finalizeToken(ctx context.Context, token string) {
	if err := s.repo.MarkAccepted(ctx, token, s.clock.Now()); err != nil {
		s.log.Error("failed to mark invitation accepted", zap.Error(err))
	}
}

func (s *service) EnsureCollectionLink(ctx context.Context, userID snowflake.ID) (*domain.CollectionLink, error) {
	now := s.clock.Now()
	return s.repo.UpsertCollectionLink(ctx, &domain.CollectionLink{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Token:     newToken(),
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *service) ValidateCollectionToken(ctx context.Context, token string) (*domain.CollectionLink, error) {
	link, err := s.repo.FindCollectionLinkByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !link.Enabled {
		return nil, domain.ErrCollectionLinkInvalid
	}
	return link, nil
}

func (s *service) CreateActivation(ctx context.Context, addr string) (*domain.ActivationToken, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return nil, domain.ErrEmailRequired
	}

	// A pending unexpired activation for the same email is reused so a
	// buyer retrying checkout keeps one live token.
	if existing, err := s.repo.FindPendingActivationByEmail(ctx, addr); err == nil {
		if s.clock.Now().Before(existing.ExpiresAt) {
			return existing, nil
		}
	} else if err != domain.ErrActivationNotFound {
		return nil, err
	}

	now := s.clock.Now()
	activation := &domain.ActivationToken{
		ID:        s.genID.Generate(),
		Token:     newToken(),
		Email:     addr,
		Status:    domain.StatusPending,
		ExpiresAt: now.Add(domain.ActivationTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateActivation(ctx, activation); err != nil {
		return nil, err
	}
	return activation, nil
}

func (s *service) Activate(ctx context.Context, token string) (*domain.ActivationToken, error) {
	activation, err := s.repo.FindActivationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if activation.Status != domain.StatusPending {
		return nil, domain.ErrActivationUsed
	}
	now := s.clock.Now()
	if now.After(activation.ExpiresAt) {
		return nil, domain.ErrActivationExpired
	}
	if err := s.repo.MarkActivated(ctx, token, now); err != nil {
		return nil, err
	}
	activation.Status = "activated"
	activation.ActivatedAt = &now
	return activation, nil
}

func (s *service) requireManager(ctx context.Context, groupID, actorID snowflake.ID) error {
	role, err := s.groups.MemberRole(ctx, groupID, actorID)
	if err != nil {
		if err == groupdomain.ErrNotMember {
			return domain.ErrNotInvitationManager
		}
		return err
	}
	if role != groupdomain.RoleOwner && role != groupdomain.RoleAdmin {
		return domain.ErrNotInvitationManager
	}
	return nil
}

func (s *service) sendInvitationEmail(ctx context.Context, invitation *domain.Invitation, groupName string) {
	inviterName := ""
	if inviter, err := s.auth.GetByID(ctx, invitation.InviterID); err == nil {
		inviterName = inviter.DisplayName
	}
	if inviterName == "" {
		inviterName = "A group member"
	}

	err := s.mail.SendTemplate(ctx, []string{invitation.InviteeEmail}, "invitation", map[string]any{
		"inviter_name": inviterName,
		"group_name":   groupName,
		"accept_url":   fmt.Sprintf("%s/invitations/accept?token=%s", s.cfg.PublicBaseURL, invitation.Token),
		"expires_at":   invitation.ExpiresAt.Format("January 2, 2006"),
	})
	if err != nil {
		s.log.Warn("invitation email failed",
			zap.String("group_id", invitation.GroupID.String()),
			zap.Error(err),
		)
	}
}

func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
