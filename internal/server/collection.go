package server

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
)

// EnsureCollectionLink returns the caller's shareable recipe-collection
// link, creating it on first use.
func (s *Server) EnsureCollectionLink(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	link, err := s.invitationSvc.EnsureCollectionLink(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   link.Token,
		"enabled": link.Enabled,
		"url":     s.cfg.PublicBaseURL + "/collect/" + link.Token,
	})
}

// ValidateCollectionToken is hit by the public guest-submission page to
// check a link before showing the form.
func (s *Server) ValidateCollectionToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrCollectionLinkInvalid)
		return
	}

	link, err := s.invitationSvc.ValidateCollectionToken(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"user_id": link.UserID.String(),
	})
}

type createActivationRequest struct {
	Email string `json:"email"`
}

func (s *Server) CreateActivation(c *gin.Context) {
	var req createActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		AbortWithError(c, newValidationError("email", "invalid_email", "a valid email is required"))
		return
	}

	activation, err := s.invitationSvc.CreateActivation(c.Request.Context(), email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      activation.Token,
		"expires_at": activation.ExpiresAt,
	})
}

func (s *Server) Activate(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrActivationNotFound)
		return
	}

	activation, err := s.invitationSvc.Activate(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":        activation.Email,
		"activated_at": activation.ActivatedAt,
	})
}
