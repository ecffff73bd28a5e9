package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/smallplates/plates/internal/audit/repository"
	auditservice "github.com/smallplates/plates/internal/audit/service"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	authrepository "github.com/smallplates/plates/internal/auth/repository"
	authservice "github.com/smallplates/plates/internal/auth/service"
	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/internal/config"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	grouprepository "github.com/smallplates/plates/internal/group/repository"
	groupservice "github.com/smallplates/plates/internal/group/service"
	"github.com/smallplates/plates/internal/invitation/domain"
	"github.com/smallplates/plates/internal/invitation/repository"
	"github.com/smallplates/plates/internal/providers/email"
	"github.com/smallplates/plates/pkg/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	auditdomain "github.com/smallplates/plates/internal/audit/domain"
)

type fixture struct {
	svc    domain.Service
	repo   domain.Repository
	auth   authdomain.Service
	groups groupdomain.Service
	clock  *clock.FakeClock
	db     *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&authdomain.User{}, &authdomain.Session{},
		&groupdomain.Group{}, &groupdomain.GroupMember{},
		&domain.Invitation{}, &domain.CollectionLink{}, &domain.ActivationToken{},
		&auditdomain.Event{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	userRepo, sessionRepo := authrepository.New(dbConn)
	authSvc := authservice.New(userRepo, sessionRepo, node, clk)
	groupSvc := groupservice.NewService(dbConn, grouprepository.NewRepository(dbConn), node, clk)
	inviteRepo := repository.NewRepository(dbConn)
	recorder := auditservice.NewRecorder(auditrepository.NewRepository(dbConn), node, clk)

	svc := NewService(inviteRepo, authSvc, groupSvc, &email.NoOpProvider{}, recorder, node, clk, config.Config{
		PublicBaseURL: "http://localhost:3000",
	})

	return &fixture{
		svc:    svc,
		repo:   inviteRepo,
		auth:   authSvc,
		groups: groupSvc,
		clock:  clk,
		db:     dbConn,
	}
}

func (f *fixture) newUser(t *testing.T, emailAddr, password string) *authdomain.User {
	t.Helper()
	user, err := f.auth.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:     emailAddr,
		Password:  password,
		FirstName: "Test",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) newGroupWithInvite(t *testing.T, inviteeEmail string) (*groupdomain.Group, *domain.Invitation) {
	t.Helper()
	owner := f.newUser(t, "owner-"+inviteeEmail, "owner-password")
	group, err := f.groups.CreateGroup(context.Background(), owner.ID, "Wedding Crew")
	require.NoError(t, err)

	invitation, err := f.svc.Invite(context.Background(), domain.InviteRequest{
		GroupID:         group.ID,
		InviterID:       owner.ID,
		InviteeEmail:    inviteeEmail,
		RelationshipTag: "friend of the couple",
	})
	require.NoError(t, err)
	return group, invitation
}

func TestAcceptNewUserCreatesIdentityAndMembership(t *testing.T) {
	f := newFixture(t)
	group, invitation := f.newGroupWithInvite(t, "ana@example.com")

	result, err := f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "longenough1",
		FirstName: "Ana",
	})
	require.NoError(t, err)
	require.True(t, result.IsNewUser)
	require.False(t, result.AlreadyMember)
	require.Equal(t, group.ID, result.GroupID)
	require.Equal(t, "Wedding Crew", result.GroupName)
	require.Equal(t, "ana@example.com", result.Email)

	user, err := f.auth.FindByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, result.UserID, user.ID)

	members, err := f.groups.ListMembers(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, groupdomain.RoleMember, members[1].Role)
	require.Equal(t, "friend of the couple", members[1].RelationshipTag)

	stored, err := f.repo.Lookup(context.Background(), invitation.Token)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, stored.Status)
}

func TestAcceptInvalidToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:    "nope",
		Password: "longenough1",
	})
	require.ErrorIs(t, err, domain.ErrInvitationNotFound)
}

func TestAcceptExpiredToken(t *testing.T) {
	f := newFixture(t)
	_, invitation := f.newGroupWithInvite(t, "late@example.com")

	f.clock.Advance(domain.DefaultInvitationTTL + time.Hour)
	_, err := f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "longenough1",
		FirstName: "Late",
	})
	require.ErrorIs(t, err, domain.ErrInvitationExpired)
}

func TestAcceptExistingUserWrongPassword(t *testing.T) {
	f := newFixture(t)
	group, invitation := f.newGroupWithInvite(t, "bob@example.com")
	f.newUser(t, "bob@example.com", "correct-password")

	_, err := f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:    invitation.Token,
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	members, err := f.groups.ListMembers(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestAcceptExistingUserMissingPassword(t *testing.T) {
	f := newFixture(t)
	_, invitation := f.newGroupWithInvite(t, "carol@example.com")
	f.newUser(t, "carol@example.com", "correct-password")

	_, err := f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token: invitation.Token,
	})
	require.ErrorIs(t, err, domain.ErrPasswordRequired)
}

func TestAcceptNewUserValidation(t *testing.T) {
	f := newFixture(t)
	_, invitation := f.newGroupWithInvite(t, "dana@example.com")

	_, err := f.svc.Accept(context.Background(), domain.AcceptRequest{Token: invitation.Token})
	require.ErrorIs(t, err, domain.ErrPasswordRequiredNew)

	_, err = f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:    invitation.Token,
		Password: "longenough1",
	})
	require.ErrorIs(t, err, domain.ErrFirstNameRequired)

	_, err = f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "short",
		FirstName: "Dana",
	})
	require.ErrorIs(t, err, authdomain.ErrWeakPassword)
}

func TestAcceptTwiceReturnsAlreadyMember(t *testing.T) {
	f := newFixture(t)
	group, invitation := f.newGroupWithInvite(t, "erin@example.com")

	first, err := f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "longenough1",
		FirstName: "Erin",
	})
	require.NoError(t, err)
	require.True(t, first.IsNewUser)

	second, err := f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:    invitation.Token,
		Password: "longenough1",
	})
	require.NoError(t, err)
	require.True(t, second.AlreadyMember)
	require.False(t, second.IsNewUser)
	require.Equal(t, first.UserID, second.UserID)

	members, err := f.groups.ListMembers(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestAcceptConsumedTokenByNonMemberRejected(t *testing.T) {
	f := newFixture(t)
	_, invitation := f.newGroupWithInvite(t, "fred@example.com")

	_, err := f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "longenough1",
		FirstName: "Fred",
	})
	require.NoError(t, err)

	// The member is gone but the token stays accepted. Re-acceptance by a
	// non-member must not ride on the consumed token.
	fred, err := f.auth.FindByEmail(context.Background(), "fred@example.com")
	require.NoError(t, err)
	require.NoError(t, f.groups.RemoveMembership(context.Background(), invitation.GroupID, fred.ID))

	_, err = f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:    invitation.Token,
		Password: "longenough1",
	})
	require.ErrorIs(t, err, domain.ErrInvitationAccepted)
}

func TestAcceptCreateRaceReverifiesPassword(t *testing.T) {
	f := newFixture(t)
	_, invitation := f.newGroupWithInvite(t, "gina@example.com")

	// A concurrent acceptance won the create race with another password.
	f.newUser(t, "gina@example.com", "winner-password")

	raceRepo := &raceLoserAuth{Service: f.auth}
	svc := NewService(f.repo, raceRepo, f.groups, &email.NoOpProvider{}, noopRecorder(f, t), newNode(t), f.clock, config.Config{})

	_, err := svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "loser-password",
		FirstName: "Gina",
	})
	require.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	result, err := svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "winner-password",
		FirstName: "Gina",
	})
	require.NoError(t, err)
	require.False(t, result.IsNewUser)
}

func TestAcceptFinalizeFailureDoesNotUndoGrant(t *testing.T) {
	f := newFixture(t)
	group, invitation := f.newGroupWithInvite(t, "hana@example.com")

	failingRepo := &finalizeFailRepo{Repository: f.repo}
	svc := NewService(failingRepo, f.auth, f.groups, &email.NoOpProvider{}, noopRecorder(f, t), newNode(t), f.clock, config.Config{})

	result, err := svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "longenough1",
		FirstName: "Hana",
	})
	require.NoError(t, err)
	require.True(t, result.IsNewUser)

	members, err := f.groups.ListMembers(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	stored, err := f.repo.Lookup(context.Background(), invitation.Token)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, stored.Status)
}

func TestInviteReusesPendingInvitation(t *testing.T) {
	f := newFixture(t)
	group, invitation := f.newGroupWithInvite(t, "iris@example.com")

	again, err := f.svc.Invite(context.Background(), domain.InviteRequest{
		GroupID:      group.ID,
		InviterID:    invitation.InviterID,
		InviteeEmail: "iris@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, invitation.Token, again.Token)

	pending, err := f.svc.ListPending(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestCancelRequiresManagerRole(t *testing.T) {
	f := newFixture(t)
	group, invitation := f.newGroupWithInvite(t, "jack@example.com")

	outsider := f.newUser(t, "outsider@example.com", "outsider-pass")
	err := f.svc.Cancel(context.Background(), invitation.Token, outsider.ID)
	require.ErrorIs(t, err, domain.ErrNotInvitationManager)

	owner, err := f.groups.GetGroup(context.Background(), group.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(context.Background(), invitation.Token, owner.OwnerID))

	_, err = f.svc.Accept(context.Background(), domain.AcceptRequest{
		Token:     invitation.Token,
		Password:  "longenough1",
		FirstName: "Jack",
	})
	require.ErrorIs(t, err, domain.ErrInvitationNotFound)
}

func TestActivationReusePendingAndActivateOnce(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateActivation(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	again, err := f.svc.CreateActivation(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	require.Equal(t, first.Token, again.Token)

	activated, err := f.svc.Activate(context.Background(), first.Token)
	require.NoError(t, err)
	require.NotNil(t, activated.ActivatedAt)

	_, err = f.svc.Activate(context.Background(), first.Token)
	require.ErrorIs(t, err, domain.ErrActivationUsed)
}

func TestCollectionLinkStablePerUser(t *testing.T) {
	f := newFixture(t)
	user := f.newUser(t, "pat@example.com", "pat-password")

	link, err := f.svc.EnsureCollectionLink(context.Background(), user.ID)
	require.NoError(t, err)
	again, err := f.svc.EnsureCollectionLink(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, link.Token, again.Token)

	got, err := f.svc.ValidateCollectionToken(context.Background(), link.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.UserID)
}

// raceLoserAuth simulates the losing side of a concurrent create race:
// the pre-create lookup sees no user, the create hits the winner's unique
// email, and credential verification runs against the real store.
type raceLoserAuth struct {
	authdomain.Service
}

func (s *raceLoserAuth) FindByEmail(ctx context.Context, email string) (*authdomain.User, error) {
	return nil, authdomain.ErrUserNotFound
}

func (s *raceLoserAuth) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	return nil, authdomain.ErrUserExists
}

type finalizeFailRepo struct {
	domain.Repository
}

func (r *finalizeFailRepo) MarkAccepted(ctx context.Context, token string, at time.Time) error {
	return errors.New("store unavailable")
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	return node
}

func noopRecorder(f *fixture, t *testing.T) auditservice.Recorder {
	t.Helper()
	return auditservice.NewRecorder(auditrepository.NewRepository(f.db), newNode(t), f.clock)
}
