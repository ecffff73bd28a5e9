package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/account/domain"
	auditrepository "github.com/smallplates/plates/internal/audit/repository"
	auditservice "github.com/smallplates/plates/internal/audit/service"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	authrepository "github.com/smallplates/plates/internal/auth/repository"
	authservice "github.com/smallplates/plates/internal/auth/service"
	"github.com/smallplates/plates/internal/clock"
	cookbookdomain "github.com/smallplates/plates/internal/cookbook/domain"
	cookbookrepository "github.com/smallplates/plates/internal/cookbook/repository"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	grouprepository "github.com/smallplates/plates/internal/group/repository"
	groupservice "github.com/smallplates/plates/internal/group/service"
	guestdomain "github.com/smallplates/plates/internal/guest/domain"
	guestrepository "github.com/smallplates/plates/internal/guest/repository"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
	invitationrepository "github.com/smallplates/plates/internal/invitation/repository"
	"github.com/smallplates/plates/internal/providers/email"
	recipedomain "github.com/smallplates/plates/internal/recipe/domain"
	reciperepository "github.com/smallplates/plates/internal/recipe/repository"
	waitlistdomain "github.com/smallplates/plates/internal/waitlist/domain"
	waitlistrepository "github.com/smallplates/plates/internal/waitlist/repository"
	"github.com/smallplates/plates/pkg/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	auditdomain "github.com/smallplates/plates/internal/audit/domain"
)

type fixture struct {
	svc      domain.Service
	deps     Deps
	auth     authdomain.Service
	groups   groupdomain.Service
	recipes  recipedomain.Repository
	guests   guestdomain.Repository
	waitlist waitlistdomain.Repository
	clock    *clock.FakeClock
	db       *gorm.DB
	node     *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&authdomain.User{}, &authdomain.Session{},
		&groupdomain.Group{}, &groupdomain.GroupMember{},
		&invitationdomain.Invitation{}, &invitationdomain.CollectionLink{}, &invitationdomain.ActivationToken{},
		&recipedomain.GuestRecipe{}, &recipedomain.GroupRecipe{},
		&guestdomain.Guest{}, &guestdomain.CommunicationLog{},
		&cookbookdomain.Cookbook{}, &cookbookdomain.ShippingAddress{},
		&waitlistdomain.Entry{},
		&auditdomain.Event{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	userRepo, sessionRepo := authrepository.New(dbConn)
	authSvc := authservice.New(userRepo, sessionRepo, node, clk)
	groupRepo := grouprepository.NewRepository(dbConn)
	groupSvc := groupservice.NewService(dbConn, groupRepo, node, clk)

	deps := Deps{
		Auth:        authSvc,
		Groups:      groupSvc,
		GroupRepo:   groupRepo,
		Invitations: invitationrepository.NewRepository(dbConn),
		Recipes:     reciperepository.NewRepository(dbConn),
		Guests:      guestrepository.NewRepository(dbConn),
		Cookbooks:   cookbookrepository.NewRepository(dbConn),
		Waitlist:    waitlistrepository.NewRepository(dbConn),
		Mail:        &email.NoOpProvider{},
		Audit:       auditservice.NewRecorder(auditrepository.NewRepository(dbConn), node, clk),
		Clock:       clk,
	}

	return &fixture{
		svc:      NewService(deps),
		deps:     deps,
		auth:     authSvc,
		groups:   groupSvc,
		recipes:  deps.Recipes,
		guests:   deps.Guests,
		waitlist: deps.Waitlist,
		clock:    clk,
		db:       dbConn,
		node:     node,
	}
}

func (f *fixture) newUser(t *testing.T, emailAddr string) *authdomain.User {
	t.Helper()
	user, err := f.auth.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:     emailAddr,
		Password:  "correct-password",
		FirstName: "Test",
	})
	require.NoError(t, err)
	return user
}

func TestDeleteWrongPassword(t *testing.T) {
	f := newFixture(t)
	user := f.newUser(t, "alice@example.com")

	_, err := f.svc.DeleteOwnAccount(context.Background(), user.ID, "wrong-password")
	require.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	got, err := f.auth.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, authdomain.StatusActive, got.Status)
}

func TestDeleteNoContentHardDeletes(t *testing.T) {
	f := newFixture(t)
	user := f.newUser(t, "bob@example.com")

	result, err := f.svc.DeleteOwnAccount(context.Background(), user.ID, "correct-password")
	require.NoError(t, err)
	require.Equal(t, domain.DeletionTypeHard, result.DeletionType)
	require.Equal(t, "Account permanently deleted", result.Message)

	_, err = f.auth.GetByID(context.Background(), user.ID)
	require.ErrorIs(t, err, authdomain.ErrUserNotFound)
}

func TestDeleteWithContentSoftDeletes(t *testing.T) {
	f := newFixture(t)
	user := f.newUser(t, "carol@example.com")

	require.NoError(t, f.guests.CreateGuest(context.Background(), &guestdomain.Guest{
		ID:     f.node.Generate(),
		UserID: user.ID,
		Name:   "Aunt May",
	}))

	result, err := f.svc.DeleteOwnAccount(context.Background(), user.ID, "correct-password")
	require.NoError(t, err)
	require.Equal(t, domain.DeletionTypeSoft, result.DeletionType)
	require.Equal(t, "Account deleted successfully - all data preserved", result.Message)

	got, err := f.auth.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, authdomain.StatusDeleted, got.Status)
	require.True(t, strings.HasPrefix(got.Email, "deleted_"))
	require.True(t, strings.HasSuffix(got.Email, "@deleted.local"))
	require.Equal(t, "Deleted User", got.DisplayName)
	require.Nil(t, got.PasswordHash)

	// Content rows survive the soft delete.
	hasGuests, err := f.guests.HasGuests(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, hasGuests)
}

func TestDeleteTwiceReturnsAlreadyDeleted(t *testing.T) {
	f := newFixture(t)
	user := f.newUser(t, "dave@example.com")

	require.NoError(t, f.guests.CreateGuest(context.Background(), &guestdomain.Guest{
		ID:     f.node.Generate(),
		UserID: user.ID,
		Name:   "Uncle Ben",
	}))

	_, err := f.svc.DeleteOwnAccount(context.Background(), user.ID, "correct-password")
	require.NoError(t, err)

	_, err = f.svc.DeleteOwnAccount(context.Background(), user.ID, "correct-password")
	require.ErrorIs(t, err, domain.ErrAlreadyDeleted)
}

func TestDeleteTransfersOwnershipToEarliestJoined(t *testing.T) {
	f := newFixture(t)
	owner := f.newUser(t, "erin@example.com")
	second := f.newUser(t, "frank@example.com")
	third := f.newUser(t, "gina@example.com")

	group, err := f.groups.CreateGroup(context.Background(), owner.ID, "Family")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.groups.GrantMembership(context.Background(), groupdomain.Grant{
		GroupID: group.ID, UserID: second.ID, Role: groupdomain.RoleMember,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.groups.GrantMembership(context.Background(), groupdomain.Grant{
		GroupID: group.ID, UserID: third.ID, Role: groupdomain.RoleMember,
	})
	require.NoError(t, err)

	require.NoError(t, f.recipes.CreateGroupRecipe(context.Background(), &recipedomain.GroupRecipe{
		ID:      f.node.Generate(),
		GroupID: group.ID,
		AddedBy: second.ID,
		Title:   "Lasagna",
	}))

	result, err := f.svc.DeleteOwnAccount(context.Background(), owner.ID, "correct-password")
	require.NoError(t, err)
	require.Equal(t, domain.DeletionTypeSoft, result.DeletionType)

	got, err := f.groups.GetGroup(context.Background(), group.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, got.OwnerID)

	owners := 0
	members, err := f.groups.ListMembers(context.Background(), group.ID)
	require.NoError(t, err)
	for _, m := range members {
		if m.Role == groupdomain.RoleOwner {
			owners++
			require.Equal(t, second.ID, m.UserID)
		}
	}
	require.Equal(t, 1, owners)
}

func TestDeleteSoleOwnerGroupLeftIntactOnSoftDelete(t *testing.T) {
	f := newFixture(t)
	owner := f.newUser(t, "hana@example.com")

	group, err := f.groups.CreateGroup(context.Background(), owner.ID, "Solo")
	require.NoError(t, err)
	require.NoError(t, f.recipes.CreateGroupRecipe(context.Background(), &recipedomain.GroupRecipe{
		ID:      f.node.Generate(),
		GroupID: group.ID,
		AddedBy: owner.ID,
		Title:   "Pancakes",
	}))

	result, err := f.svc.DeleteOwnAccount(context.Background(), owner.ID, "correct-password")
	require.NoError(t, err)
	require.Equal(t, domain.DeletionTypeSoft, result.DeletionType)

	// No other members: the owner column stays pointed at the tombstoned
	// user and the group survives.
	got, err := f.groups.GetGroup(context.Background(), group.ID)
	require.NoError(t, err)
	require.Equal(t, owner.ID, got.OwnerID)
}

func TestDeleteCascadeFallback(t *testing.T) {
	f := newFixture(t)
	owner := f.newUser(t, "iris@example.com")

	group, err := f.groups.CreateGroup(context.Background(), owner.ID, "Empty Group")
	require.NoError(t, err)
	require.NoError(t, f.deps.Invitations.Create(context.Background(), &invitationdomain.Invitation{
		ID:           f.node.Generate(),
		Token:        "tok-cascade",
		GroupID:      group.ID,
		InviteeEmail: "someone@example.com",
		InviterID:    owner.ID,
		Status:       invitationdomain.StatusPending,
		ExpiresAt:    f.clock.Now().Add(time.Hour),
	}))
	require.NoError(t, f.deps.Cookbooks.CreateCookbook(context.Background(), &cookbookdomain.Cookbook{
		ID:     f.node.Generate(),
		UserID: owner.ID,
		Title:  "Draft",
	}))

	deps := f.deps
	deps.Auth = &failFirstDelete{Service: f.auth}
	svc := NewService(deps)

	result, err := svc.DeleteOwnAccount(context.Background(), owner.ID, "correct-password")
	require.NoError(t, err)
	require.Equal(t, domain.DeletionTypeHard, result.DeletionType)

	_, err = f.auth.GetByID(context.Background(), owner.ID)
	require.ErrorIs(t, err, authdomain.ErrUserNotFound)

	_, err = f.groups.GetGroup(context.Background(), group.ID)
	require.ErrorIs(t, err, groupdomain.ErrGroupNotFound)

	_, err = f.deps.Invitations.Lookup(context.Background(), "tok-cascade")
	require.ErrorIs(t, err, invitationdomain.ErrInvitationNotFound)

	hasCookbooks, err := f.deps.Cookbooks.HasCookbooks(context.Background(), owner.ID)
	require.NoError(t, err)
	require.False(t, hasCookbooks)
}

func TestDeleteCleansWaitlistEntry(t *testing.T) {
	f := newFixture(t)
	user := f.newUser(t, "jack@example.com")
	require.NoError(t, f.waitlist.Add(context.Background(), &waitlistdomain.Entry{
		ID:    f.node.Generate(),
		Email: "jack@example.com",
	}))

	_, err := f.svc.DeleteOwnAccount(context.Background(), user.ID, "correct-password")
	require.NoError(t, err)

	_, err = f.waitlist.FindByEmail(context.Background(), "jack@example.com")
	require.ErrorIs(t, err, waitlistdomain.ErrEntryNotFound)
}

func TestPlanDeletionDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	user := f.newUser(t, "kate@example.com")

	plan, err := f.svc.PlanDeletion(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DeletionTypeHard, plan.Type())

	require.NoError(t, f.guests.CreateGuest(context.Background(), &guestdomain.Guest{
		ID:     f.node.Generate(),
		UserID: user.ID,
		Name:   "Plus One",
	}))

	plan, err = f.svc.PlanDeletion(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DeletionTypeSoft, plan.Type())

	got, err := f.auth.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, authdomain.StatusActive, got.Status)
}

// failFirstDelete fails the first DeleteUser call to force the manual
// cascade path, then delegates.
type failFirstDelete struct {
	authdomain.Service
	failed bool
}

func (s *failFirstDelete) DeleteUser(ctx context.Context, id snowflake.ID) error {
	if !s.failed {
		s.failed = true
		return authdomain.ErrHasDependents
	}
	return s.Service.DeleteUser(ctx, id)
}
