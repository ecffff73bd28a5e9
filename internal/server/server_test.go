package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountservice "github.com/smallplates/plates/internal/account/service"
	auditdomain "github.com/smallplates/plates/internal/audit/domain"
	auditrepository "github.com/smallplates/plates/internal/audit/repository"
	auditservice "github.com/smallplates/plates/internal/audit/service"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	authlocal "github.com/smallplates/plates/internal/auth/local"
	authrepository "github.com/smallplates/plates/internal/auth/repository"
	authservice "github.com/smallplates/plates/internal/auth/service"
	"github.com/smallplates/plates/internal/auth/session"
	"github.com/smallplates/plates/internal/authorization"
	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/internal/config"
	cookbookdomain "github.com/smallplates/plates/internal/cookbook/domain"
	cookbookrepository "github.com/smallplates/plates/internal/cookbook/repository"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	grouprepository "github.com/smallplates/plates/internal/group/repository"
	groupservice "github.com/smallplates/plates/internal/group/service"
	guestdomain "github.com/smallplates/plates/internal/guest/domain"
	guestrepository "github.com/smallplates/plates/internal/guest/repository"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
	invitationrepository "github.com/smallplates/plates/internal/invitation/repository"
	invitationservice "github.com/smallplates/plates/internal/invitation/service"
	"github.com/smallplates/plates/internal/providers/email"
	recipedomain "github.com/smallplates/plates/internal/recipe/domain"
	reciperepository "github.com/smallplates/plates/internal/recipe/repository"
	waitlistdomain "github.com/smallplates/plates/internal/waitlist/domain"
	waitlistrepository "github.com/smallplates/plates/internal/waitlist/repository"
	"github.com/smallplates/plates/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	srv     *Server
	engine  *gin.Engine
	db      *gorm.DB
	auth    authdomain.Service
	groups  groupdomain.Service
	invites invitationdomain.Service
	clock   *clock.FakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{PublicBaseURL: "http://localhost:3000"}

	userRepo, sessionRepo := authrepository.New(dbConn)
	authSvc := authservice.New(userRepo, sessionRepo, node, clk)
	sessions := session.NewManager(cfg)
	authHandler := authlocal.NewHandler(authSvc, sessions)

	groupRepo := grouprepository.NewRepository(dbConn)
	groupSvc := groupservice.NewService(dbConn, groupRepo, node, clk)

	recorder := auditservice.NewRecorder(auditrepository.NewRepository(dbConn), node, clk)
	inviteRepo := invitationrepository.NewRepository(dbConn)
	inviteSvc := invitationservice.NewService(inviteRepo, authSvc, groupSvc, &email.NoOpProvider{}, recorder, node, clk, cfg)

	recipeRepo := reciperepository.NewRepository(dbConn)
	guestRepo := guestrepository.NewRepository(dbConn)
	cookbookRepo := cookbookrepository.NewRepository(dbConn)
	waitlistRepo := waitlistrepository.NewRepository(dbConn)

	accountSvc := accountservice.NewService(accountservice.Deps{
		Auth:        authSvc,
		Groups:      groupSvc,
		GroupRepo:   groupRepo,
		Invitations: inviteRepo,
		Recipes:     recipeRepo,
		Guests:      guestRepo,
		Cookbooks:   cookbookRepo,
		Waitlist:    waitlistRepo,
		Mail:        &email.NoOpProvider{},
		Audit:       recorder,
		Clock:       clk,
	})

	enforcer, err := authorization.NewEnforcer(dbConn)
	require.NoError(t, err)
	authzSvc := authorization.NewService(authorization.Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		Enforcer: enforcer,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:           engine,
		Cfg:           cfg,
		DB:            dbConn,
		Log:           zap.NewNop(),
		Authsvc:       authSvc,
		AuthHandler:   authHandler,
		Sessions:      sessions,
		GenID:         node,
		AuthzSvc:      authzSvc,
		AuditRepo:     auditrepository.NewRepository(dbConn),
		Audit:         recorder,
		GroupSvc:      groupSvc,
		InvitationSvc: inviteSvc,
		AccountSvc:    accountSvc,
		RecipeRepo:    recipeRepo,
		GuestRepo:     guestRepo,
		CookbookRepo:  cookbookRepo,
		WaitlistRepo:  waitlistRepo,
	})

	return &testServer{
		srv:     srv,
		engine:  engine,
		db:      dbConn,
		auth:    authSvc,
		groups:  groupSvc,
		invites: inviteSvc,
		clock:   clk,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) signup(t *testing.T, emailAddr, password string) (*authdomain.User, string) {
	t.Helper()
	user, err := ts.auth.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:     emailAddr,
		Password:  password,
		FirstName: "Test",
	})
	require.NoError(t, err)

	result, err := ts.auth.Login(context.Background(), authdomain.LoginRequest{
		Email:    emailAddr,
		Password: password,
	})
	require.NoError(t, err)
	return user, result.RawToken
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAcceptInvitationNewUser(t *testing.T) {
	ts := newTestServer(t)
	owner, _ := ts.signup(t, "owner@example.com", "owner-password")
	group, err := ts.groups.CreateGroup(context.Background(), owner.ID, "Wedding Crew")
	require.NoError(t, err)

	invitation, err := ts.invites.Invite(context.Background(), invitationdomain.InviteRequest{
		GroupID:      group.ID,
		InviterID:    owner.ID,
		InviteeEmail: "ana@example.com",
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/invitations/group/accept", gin.H{
		"token":     invitation.Token,
		"password":  "longenough1",
		"firstName": "Ana",
	}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Account created and added to group successfully", body["message"])
	data := body["data"].(map[string]any)
	require.Equal(t, "ana@example.com", data["email"])
	require.Equal(t, true, data["isNewUser"])
	require.Equal(t, group.ID.String(), data["groupId"])
	require.Equal(t, "Wedding Crew", data["groupName"])
}

func TestAcceptInvitationErrorContract(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/invitations/group/accept", gin.H{"token": ""}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Token is required", decodeJSON(t, rec)["error"])

	rec = ts.do(t, http.MethodPost, "/api/v1/invitations/group/accept", gin.H{"token": "nope"}, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Invalid invitation link", decodeJSON(t, rec)["error"])
}

func TestAcceptInvitationExpired(t *testing.T) {
	ts := newTestServer(t)
	owner, _ := ts.signup(t, "owner@example.com", "owner-password")
	group, err := ts.groups.CreateGroup(context.Background(), owner.ID, "Wedding Crew")
	require.NoError(t, err)
	invitation, err := ts.invites.Invite(context.Background(), invitationdomain.InviteRequest{
		GroupID:      group.ID,
		InviterID:    owner.ID,
		InviteeEmail: "late@example.com",
	})
	require.NoError(t, err)

	ts.clock.Advance(8 * 24 * time.Hour)

	rec := ts.do(t, http.MethodPost, "/api/v1/invitations/group/accept", gin.H{
		"token":     invitation.Token,
		"password":  "longenough1",
		"firstName": "Late",
	}, "")
	require.Equal(t, http.StatusGone, rec.Code)
	require.Equal(t, "This invitation has expired", decodeJSON(t, rec)["error"])
}

func TestDeleteAccountRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/api/v1/users/me", gin.H{"password": "x"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "User not authenticated", decodeJSON(t, rec)["error"])
}

func TestDeleteAccountWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "vic@example.com", "right-password")

	rec := ts.do(t, http.MethodDelete, "/api/v1/users/me", gin.H{"password": "wrong-password"}, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Password is incorrect", decodeJSON(t, rec)["error"])
}

func TestDeleteAccountHard(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.signup(t, "vic@example.com", "right-password")

	rec := ts.do(t, http.MethodDelete, "/api/v1/users/me", gin.H{"password": "right-password"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, "hard", body["deletionType"])
	require.Equal(t, "Account permanently deleted", body["message"])

	_, err := ts.auth.GetByID(context.Background(), user.ID)
	require.ErrorIs(t, err, authdomain.ErrUserNotFound)
}

func TestDeleteAccountSoftWithContent(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.signup(t, "vic@example.com", "right-password")

	rec := ts.do(t, http.MethodPost, "/api/v1/guests", gin.H{"name": "Aunt May"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/users/me", gin.H{"password": "right-password"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	require.Equal(t, "soft", body["deletionType"])
	require.Equal(t, "Account deleted successfully - all data preserved", body["message"])

	var row authdomain.User
	require.NoError(t, ts.db.First(&row, "id = ?", user.ID).Error)
	require.Equal(t, authdomain.StatusDeleted, row.Status)
}

func TestMemberCannotCreateInvitation(t *testing.T) {
	ts := newTestServer(t)
	owner, _ := ts.signup(t, "owner@example.com", "owner-password")
	member, memberToken := ts.signup(t, "member@example.com", "member-password")

	group, err := ts.groups.CreateGroup(context.Background(), owner.ID, "Wedding Crew")
	require.NoError(t, err)
	_, err = ts.groups.GrantMembership(context.Background(), groupdomain.Grant{
		GroupID: group.ID,
		UserID:  member.ID,
		Role:    groupdomain.RoleMember,
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/groups/%s/invitations", group.ID), gin.H{
		"email": "new@example.com",
	}, memberToken)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOwnerCreatesAndListsInvitations(t *testing.T) {
	ts := newTestServer(t)
	owner, ownerToken := ts.signup(t, "owner@example.com", "owner-password")
	group, err := ts.groups.CreateGroup(context.Background(), owner.ID, "Wedding Crew")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/groups/%s/invitations", group.ID), gin.H{
		"email":            "new@example.com",
		"relationship_tag": "college friend",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/groups/%s/invitations", group.ID), nil, ownerToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	require.Len(t, body["invitations"], 1)
}

func TestGroupLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "owner@example.com", "owner-password")

	rec := ts.do(t, http.MethodPost, "/api/v1/groups", gin.H{"name": "Sunday Dinners"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON(t, rec)
	groupID := created["id"].(string)
	require.Equal(t, "sunday-dinners", created["slug"])

	rec = ts.do(t, http.MethodGet, "/api/v1/groups", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeJSON(t, rec)["groups"], 1)

	rec = ts.do(t, http.MethodGet, "/api/v1/groups/"+groupID+"/members", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeJSON(t, rec)["members"], 1)
}

func TestJoinWaitlistIdempotent(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/waitlist", gin.H{"email": "soon@example.com"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/waitlist", gin.H{"email": "soon@example.com"}, "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var count int64
	require.NoError(t, ts.db.Model(&waitlistdomain.Entry{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestMeRequiresSession(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "me@example.com", "some-password")

	rec := ts.do(t, http.MethodGet, "/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "me@example.com", decodeJSON(t, rec)["email"])
}

func TestCollectionLinkRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signup(t, "host@example.com", "host-password")

	rec := ts.do(t, http.MethodGet, "/api/v1/collection-link", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	linkToken := decodeJSON(t, rec)["token"].(string)
	require.NotEmpty(t, linkToken)

	rec = ts.do(t, http.MethodGet, "/api/v1/collect/"+linkToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeJSON(t, rec)["valid"])

	rec = ts.do(t, http.MethodGet, "/api/v1/collect/bogus", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
