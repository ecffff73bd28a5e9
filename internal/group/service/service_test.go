package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/internal/group/domain"
	"github.com/smallplates/plates/internal/group/repository"
	"github.com/smallplates/plates/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Group{}, &domain.GroupMember{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewService(dbConn, repository.NewRepository(dbConn), node, clk), clk
}

func TestCreateGroupOwnerBecomesMember(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := snowflake.ID(101)

	group, err := svc.CreateGroup(context.Background(), ownerID, "Smith Wedding")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if group.Slug != "smith-wedding" {
		t.Fatalf("expected slug smith-wedding, got %s", group.Slug)
	}

	members, err := svc.ListMembers(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
	if members[0].UserID != ownerID || members[0].Role != domain.RoleOwner {
		t.Fatalf("expected owner member, got %+v", members[0])
	}
}

func TestGrantMembershipIdempotentKeepsRole(t *testing.T) {
	svc, clk := newTestService(t)
	ownerID := snowflake.ID(101)
	memberID := snowflake.ID(102)

	group, err := svc.CreateGroup(context.Background(), ownerID, "Family")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	first, err := svc.GrantMembership(context.Background(), domain.Grant{GroupID: group.ID, UserID: memberID, Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if first.AlreadyMember {
		t.Fatal("expected fresh membership")
	}

	clk.Advance(time.Hour)
	second, err := svc.GrantMembership(context.Background(), domain.Grant{GroupID: group.ID, UserID: memberID, Role: domain.RoleMember})
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if !second.AlreadyMember {
		t.Fatal("expected AlreadyMember")
	}
	if second.Member.Role != domain.RoleAdmin {
		t.Fatalf("expected role to stay admin, got %s", second.Member.Role)
	}
	if second.Member.ID != first.Member.ID {
		t.Fatal("expected the original membership row")
	}
}

func TestGrantMembershipUnknownGroup(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GrantMembership(context.Background(), domain.Grant{GroupID: snowflake.ID(999), UserID: snowflake.ID(1), Role: domain.RoleMember})
	if err != domain.ErrGroupNotFound {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestTransferOwnershipPicksEarliestJoined(t *testing.T) {
	svc, clk := newTestService(t)
	ownerID := snowflake.ID(101)

	group, err := svc.CreateGroup(context.Background(), ownerID, "Family")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	clk.Advance(time.Minute)
	if _, err := svc.GrantMembership(context.Background(), domain.Grant{GroupID: group.ID, UserID: snowflake.ID(102), Role: domain.RoleMember}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	clk.Advance(time.Minute)
	if _, err := svc.GrantMembership(context.Background(), domain.Grant{GroupID: group.ID, UserID: snowflake.ID(103), Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	newOwner, err := svc.TransferOwnership(context.Background(), group.ID, ownerID)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if newOwner.UserID != snowflake.ID(102) {
		t.Fatalf("expected earliest-joined member 102, got %s", newOwner.UserID)
	}
	if newOwner.Role != domain.RoleOwner {
		t.Fatalf("expected promoted role owner, got %s", newOwner.Role)
	}

	got, err := svc.GetGroup(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if got.OwnerID != snowflake.ID(102) {
		t.Fatalf("expected owner column updated, got %s", got.OwnerID)
	}
}

func TestTransferOwnershipDemotesDepartingOwner(t *testing.T) {
	svc, clk := newTestService(t)
	ownerID := snowflake.ID(101)

	group, err := svc.CreateGroup(context.Background(), ownerID, "Family")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	clk.Advance(time.Minute)
	if _, err := svc.GrantMembership(context.Background(), domain.Grant{GroupID: group.ID, UserID: snowflake.ID(102), Role: domain.RoleMember}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if _, err := svc.TransferOwnership(context.Background(), group.ID, ownerID); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	members, err := svc.ListMembers(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	owners := 0
	for _, m := range members {
		if m.Role == domain.RoleOwner {
			owners++
		}
		if m.UserID == ownerID && m.Role != domain.RoleAdmin {
			t.Fatalf("expected departing owner demoted to admin, got %s", m.Role)
		}
	}
	if owners != 1 {
		t.Fatalf("expected exactly one owner row, got %d", owners)
	}
}

func TestTransferOwnershipNoOtherMembers(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := snowflake.ID(101)

	group, err := svc.CreateGroup(context.Background(), ownerID, "Solo")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	_, err = svc.TransferOwnership(context.Background(), group.ID, ownerID)
	if err != domain.ErrNoOtherMembers {
		t.Fatalf("expected ErrNoOtherMembers, got %v", err)
	}

	got, err := svc.GetGroup(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if got.OwnerID != ownerID {
		t.Fatalf("expected owner unchanged, got %s", got.OwnerID)
	}
}

func TestRemoveMembershipSoleOwnerRefused(t *testing.T) {
	svc, _ := newTestService(t)
	ownerID := snowflake.ID(101)

	group, err := svc.CreateGroup(context.Background(), ownerID, "Family")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := svc.GrantMembership(context.Background(), domain.Grant{GroupID: group.ID, UserID: snowflake.ID(102), Role: domain.RoleMember}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := svc.RemoveMembership(context.Background(), group.ID, ownerID); err != domain.ErrSoleOwner {
		t.Fatalf("expected ErrSoleOwner, got %v", err)
	}

	if err := svc.RemoveMembership(context.Background(), group.ID, snowflake.ID(102)); err != nil {
		t.Fatalf("remove non-owner: %v", err)
	}
	ok, err := svc.IsMember(context.Background(), group.ID, snowflake.ID(102))
	if err != nil {
		t.Fatalf("is member: %v", err)
	}
	if ok {
		t.Fatal("expected membership removed")
	}
}
