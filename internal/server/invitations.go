package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallplates/plates/internal/authorization"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
)

type createInvitationRequest struct {
	Email           string `json:"email"`
	RelationshipTag string `json:"relationship_tag"`
}

type invitationResponse struct {
	Token           string     `json:"token"`
	GroupID         string     `json:"group_id"`
	InviteeEmail    string     `json:"invitee_email"`
	RelationshipTag string     `json:"relationship_tag,omitempty"`
	Status          string     `json:"status"`
	ExpiresAt       time.Time  `json:"expires_at"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toInvitationResponse(inv invitationdomain.Invitation) invitationResponse {
	return invitationResponse{
		Token:           inv.Token,
		GroupID:         inv.GroupID.String(),
		InviteeEmail:    inv.InviteeEmail,
		RelationshipTag: inv.RelationshipTag,
		Status:          inv.Status,
		ExpiresAt:       inv.ExpiresAt,
		AcceptedAt:      inv.AcceptedAt,
		CreatedAt:       inv.CreatedAt,
	}
}

func (s *Server) CreateInvitation(c *gin.Context) {
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

	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}

	if err := s.authzSvc.Authorize(c.Request.Context(), s.actor(userID), groupID.String(), authorization.ObjectInvitation, authorization.ActionInvitationCreate); err != nil {
		AbortWithError(c, err)
		return
	}

	inv, err := s.invitationSvc.Invite(c.Request.Context(), invitationdomain.InviteRequest{
		GroupID:         groupID,
		InviterID:       userID,
		InviteeEmail:    req.Email,
		RelationshipTag: req.RelationshipTag,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(*inv))
}

func (s *Server) ListPendingInvitations(c *gin.Context) {
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

	if err := s.authzSvc.Authorize(c.Request.Context(), s.actor(userID), groupID.String(), authorization.ObjectInvitation, authorization.ActionInvitationView); err != nil {
		AbortWithError(c, err)
		return
	}

	invitations, err := s.invitationSvc.ListPending(c.Request.Context(), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]invitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, toInvitationResponse(inv))
	}
	c.JSON(http.StatusOK, gin.H{"invitations": out})
}

func (s *Server) CancelInvitation(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	if err := s.invitationSvc.Cancel(c.Request.Context(), token, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ResendInvitation(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	if err := s.invitationSvc.Resend(c.Request.Context(), token, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
