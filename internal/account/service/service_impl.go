package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/account/domain"
	auditdomain "github.com/smallplates/plates/internal/audit/domain"
	auditservice "github.com/smallplates/plates/internal/audit/service"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	"github.com/smallplates/plates/internal/clock"
	cookbookdomain "github.com/smallplates/plates/internal/cookbook/domain"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	guestdomain "github.com/smallplates/plates/internal/guest/domain"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
	"github.com/smallplates/plates/internal/providers/email"
	recipedomain "github.com/smallplates/plates/internal/recipe/domain"
	waitlistdomain "github.com/smallplates/plates/internal/waitlist/domain"
	"go.uber.org/zap"
)

// Deps collects everything the deletion orchestrator touches: the identity
// provider, the membership manager, and each relation the content scan and
// the hard-delete cascade walk.
type Deps struct {
	Auth        authdomain.Service
	Groups      groupdomain.Service
	GroupRepo   groupdomain.Repository
	Invitations invitationdomain.Repository
	Recipes     recipedomain.Repository
	Guests      guestdomain.Repository
	Cookbooks   cookbookdomain.Repository
	Waitlist    waitlistdomain.Repository
	Mail        email.Provider
	Audit       auditservice.Recorder
	Clock       clock.Clock
}

type service struct {
	Deps
	log *zap.Logger
}

func NewService(deps Deps) domain.Service {
	return &service{Deps: deps, log: zap.L().Named("account.service")}
}

func (s *service) DeleteOwnAccount(ctx context.Context, userID snowflake.ID, password string) (*domain.Result, error) {
	user, err := s.Auth.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == authdomain.StatusDeleted || user.DeletedAt != nil {
		return nil, domain.ErrAlreadyDeleted
	}
	if password == "" {
		return nil, domain.ErrPasswordRequired
	}
	if _, err := s.Auth.VerifyCredential(ctx, user.Email, password); err != nil {
		return nil, err
	}

	scan, err := s.scanContent(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Ownership transfers run before any deletion and are not rolled back
	// by later failures: a transferred group is a valid state on its own.
	s.transferOwnedGroups(ctx, userID, scan.ownedGroups)

	plan := s.planFor(user, scan.hasContent)
	var result *domain.Result
	switch p := plan.(type) {
	case domain.SoftDelete:
		result, err = s.softDelete(ctx, user, p)
	case domain.HardDelete:
		result, err = s.hardDelete(ctx, user)
	default:
		return nil, fmt.Errorf("unknown deletion plan %T", plan)
	}
	if err != nil {
		return nil, err
	}

	s.cleanupWaitlist(ctx, user.Email)
	if err := s.Auth.RevokeUserSessions(ctx, userID); err != nil {
		s.log.Warn("session revocation after delete failed", zap.Error(err))
	}
	s.notifyDeleted(ctx, user.Email)
	return result, nil
}

func (s *service) PlanDeletion(ctx context.Context, userID snowflake.ID) (domain.DeletionPlan, error) {
	user, err := s.Auth.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	scan, err := s.scanContent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.planFor(user, scan.hasContent), nil
}

func (s *service) planFor(user *authdomain.User, hasContent bool) domain.DeletionPlan {
	if hasContent {
		return domain.SoftDelete{TombstoneEmail: s.tombstoneEmail(user.ID)}
	}
	return domain.HardDelete{}
}

type contentScan struct {
	hasContent  bool
	ownedGroups []groupdomain.Group
}

// scanContent fans the independent read-only queries out concurrently and
// evaluates every one of them before deciding; a short-circuited false
// negative here would cause silent data loss on the hard-delete branch.
func (s *service) scanContent(ctx context.Context, userID snowflake.ID) (*contentScan, error) {
	var (
		wg             sync.WaitGroup
		hasGuests      bool
		hasRecipes     bool
		ownedGroups    []groupdomain.Group
		memberGroups   []groupdomain.GroupWithRole
		errGuests      error
		errRecipes     error
		errOwned       error
		errMemberships error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		hasGuests, errGuests = s.Guests.HasGuests(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		hasRecipes, errRecipes = s.Recipes.HasGuestRecipes(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		ownedGroups, errOwned = s.Groups.ListOwnedGroups(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		memberGroups, errMemberships = s.Groups.ListGroupsByUser(ctx, userID)
	}()
	wg.Wait()

	for _, err := range []error{errGuests, errRecipes, errOwned, errMemberships} {
		if err != nil {
			return nil, err
		}
	}

	groupIDs := make([]snowflake.ID, 0, len(ownedGroups)+len(memberGroups))
	seen := make(map[snowflake.ID]struct{}, cap(groupIDs))
	for _, g := range ownedGroups {
		groupIDs = append(groupIDs, g.ID)
		seen[g.ID] = struct{}{}
	}
	for _, g := range memberGroups {
		if _, ok := seen[g.ID]; !ok {
			groupIDs = append(groupIDs, g.ID)
		}
	}

	hasGroupContent, err := s.Recipes.HasGroupRecipesInGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	return &contentScan{
		hasContent:  hasGuests || hasRecipes || hasGroupContent,
		ownedGroups: ownedGroups,
	}, nil
}

// transferOwnedGroups hands each owned group to its earliest-joined other
// member. A group with no other members keeps its owner column pointing at
// the departing user; the hard-delete cascade removes it, the soft branch
// leaves it orphaned but intact.
func (s *service) transferOwnedGroups(ctx context.Context, userID snowflake.ID, owned []groupdomain.Group) {
	for _, g := range owned {
		newOwner, err := s.Groups.TransferOwnership(ctx, g.ID, userID)
		switch err {
		case nil:
			s.Audit.Record(ctx, userID, auditdomain.ActionOwnershipTransfer, "group", g.ID.String(), map[string]any{
				"to_user_id": newOwner.UserID.String(),
			})
		case groupdomain.ErrNoOtherMembers:
			s.log.Info("group has no other members, skipping transfer",
				zap.String("group_id", g.ID.String()),
			)
		default:
			s.log.Warn("ownership transfer failed",
				zap.String("group_id", g.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *service) softDelete(ctx context.Context, user *authdomain.User, plan domain.SoftDelete) (*domain.Result, error) {
	if err := s.Auth.DisableUser(ctx, user.ID, plan.TombstoneEmail); err != nil {
		return nil, err
	}
	if err := s.Invitations.DisableCollectionLink(ctx, user.ID); err != nil {
		s.log.Warn("disable collection link failed", zap.Error(err))
	}

	s.Audit.Record(ctx, user.ID, auditdomain.ActionAccountSoftDelete, "user", user.ID.String(), map[string]any{
		"email": user.Email,
	})
	return &domain.Result{
		DeletionType: domain.DeletionTypeSoft,
		Message:      "Account deleted successfully - all data preserved",
	}, nil
}

func (s *service) hardDelete(ctx context.Context, user *authdomain.User) (*domain.Result, error) {
	if err := s.Auth.DeleteUser(ctx, user.ID); err != nil {
		s.log.Warn("direct delete failed, running manual cascade",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		if err := s.cascadeDelete(ctx, user.ID); err != nil {
			return nil, err
		}
		if err := s.Auth.DeleteUser(ctx, user.ID); err != nil && err != authdomain.ErrUserNotFound {
			return nil, err
		}
	}

	s.Audit.Record(ctx, user.ID, auditdomain.ActionAccountHardDelete, "user", user.ID.String(), map[string]any{
		"email": user.Email,
	})
	return &domain.Result{
		DeletionType: domain.DeletionTypeHard,
		Message:      "Account permanently deleted",
	}, nil
}

// cascadeDelete removes every dependent relation in dependency order so a
// retried identity delete can succeed. The order matters: rows referencing
// groups go before the groups themselves, and everything referencing the
// user goes before the user row.
func (s *service) cascadeDelete(ctx context.Context, userID snowflake.ID) error {
	if err := s.Invitations.DeleteByInviter(ctx, userID); err != nil {
		return err
	}

	owned, err := s.Groups.ListOwnedGroups(ctx, userID)
	if err != nil {
		return err
	}
	for _, g := range owned {
		if err := s.Invitations.DeleteByGroup(ctx, g.ID); err != nil {
			return err
		}
	}

	if err := s.GroupRepo.DeleteMembershipsByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.Recipes.DeleteGroupRecipesAddedBy(ctx, userID); err != nil {
		return err
	}
	for _, g := range owned {
		if err := s.Recipes.DeleteGroupRecipesByGroup(ctx, g.ID); err != nil {
			return err
		}
		if err := s.GroupRepo.DeleteGroup(ctx, g.ID); err != nil {
			return err
		}
	}

	if err := s.Recipes.DeleteGuestRecipesByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.Guests.DeleteLogsByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.Guests.DeleteGuestsByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.Cookbooks.DeleteCookbooksByUser(ctx, userID); err != nil {
		return err
	}
	return s.Cookbooks.DeleteShippingAddressesByUser(ctx, userID)
}

func (s *service) cleanupWaitlist(ctx context.Context, emailAddr string) {
	if err := s.Waitlist.DeleteByEmail(ctx, emailAddr); err != nil {
		s.log.Warn("waitlist cleanup failed", zap.Error(err))
	}
}

func (s *service) notifyDeleted(ctx context.Context, emailAddr string) {
	if err := s.Mail.SendTemplate(ctx, []string{emailAddr}, "account_deleted", map[string]any{}); err != nil {
		s.log.Warn("deletion email failed", zap.Error(err))
	}
}

func (s *service) tombstoneEmail(id snowflake.ID) string {
	idStr := id.String()
	if len(idStr) > 8 {
		idStr = idStr[:8]
	}
	return fmt.Sprintf("deleted_%d_%s@deleted.local", s.Clock.Now().UnixMilli(), idStr)
}
