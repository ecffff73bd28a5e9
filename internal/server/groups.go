package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallplates/plates/internal/authorization"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
)

type createGroupRequest struct {
	Name string `json:"name"`
}

type groupResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type groupWithRoleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"owner_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type groupMemberResponse struct {
	ID              string    `json:"id"`
	GroupID         string    `json:"group_id"`
	UserID          string    `json:"user_id"`
	Role            string    `json:"role"`
	RelationshipTag string    `json:"relationship_tag,omitempty"`
	JoinedAt        time.Time `json:"joined_at"`
}

func toGroupResponse(g *groupdomain.Group) groupResponse {
	return groupResponse{
		ID:        g.ID.String(),
		OwnerID:   g.OwnerID.String(),
		Name:      g.Name,
		Slug:      g.Slug,
		CreatedAt: g.CreatedAt,
	}
}

func toGroupMemberResponse(m groupdomain.GroupMember) groupMemberResponse {
	return groupMemberResponse{
		ID:              m.ID.String(),
		GroupID:         m.GroupID.String(),
		UserID:          m.UserID.String(),
		Role:            m.Role,
		RelationshipTag: m.RelationshipTag,
		JoinedAt:        m.JoinedAt,
	}
}

func (s *Server) CreateGroup(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, newValidationError("name", "required", "name is required"))
		return
	}

	group, err := s.groupSvc.CreateGroup(c.Request.Context(), userID, req.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toGroupResponse(group))
}

func (s *Server) ListMyGroups(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	groups, err := s.groupSvc.ListGroupsByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]groupWithRoleResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupWithRoleResponse{
			ID:        g.ID.String(),
			Name:      g.Name,
			Slug:      g.Slug,
			OwnerID:   g.OwnerID.String(),
			Role:      g.Role,
			CreatedAt: g.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

func (s *Server) GetGroup(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, groupdomain.ErrGroupNotFound)
		return
	}

	if err := s.authzSvc.Authorize(c.Request.Context(), s.actor(userID), groupID.String(), authorization.ObjectGroup, authorization.ActionGroupView); err != nil {
		AbortWithError(c, err)
		return
	}

	group, err := s.groupSvc.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupResponse(group))
}

func (s *Server) ListGroupMembers(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, groupdomain.ErrGroupNotFound)
		return
	}

	if err := s.authzSvc.Authorize(c.Request.Context(), s.actor(userID), groupID.String(), authorization.ObjectMember, authorization.ActionMemberView); err != nil {
		AbortWithError(c, err)
		return
	}

	members, err := s.groupSvc.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]groupMemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toGroupMemberResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

func (s *Server) RemoveGroupMember(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, groupdomain.ErrGroupNotFound)
		return
	}
	targetID, ok := parseIDParam(c, "userId")
	if !ok {
		AbortWithError(c, groupdomain.ErrNotMember)
		return
	}

	// Members may always remove themselves; removing someone else
	// requires the member.remove permission.
	if targetID != userID {
		if err := s.authzSvc.Authorize(c.Request.Context(), s.actor(userID), groupID.String(), authorization.ObjectMember, authorization.ActionMemberRemove); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	if err := s.groupSvc.RemoveMembership(c.Request.Context(), groupID, targetID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) TransferGroupOwnership(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, groupdomain.ErrGroupNotFound)
		return
	}

	if err := s.authzSvc.Authorize(c.Request.Context(), s.actor(userID), groupID.String(), authorization.ObjectGroup, authorization.ActionGroupTransfer); err != nil {
		AbortWithError(c, err)
		return
	}

	member, err := s.groupSvc.TransferOwnership(c.Request.Context(), groupID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"new_owner": toGroupMemberResponse(*member)})
}
