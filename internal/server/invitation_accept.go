package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
	invitationdomain "github.com/smallplates/plates/internal/invitation/domain"
)

type acceptInvitationRequest struct {
	Token     string `json:"token"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type acceptInvitationData struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	IsNewUser     bool   `json:"isNewUser"`
	GroupID       string `json:"groupId"`
	GroupName     string `json:"groupName"`
	AlreadyMember bool   `json:"alreadyMember,omitempty"`
}

type acceptInvitationResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    acceptInvitationData `json:"data"`
}

// AcceptInvitation is the public acceptance endpoint. Its response
// contract is consumed by the invitation landing page, so statuses and
// error strings are part of the API surface.
func (s *Server) AcceptInvitation(c *gin.Context) {
	var req acceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	result, err := s.invitationSvc.Accept(c.Request.Context(), invitationdomain.AcceptRequest{
		Token:     req.Token,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		status, message := acceptErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, acceptInvitationResponse{
		Success: true,
		Message: result.Message,
		Data: acceptInvitationData{
			UserID:        result.UserID.String(),
			Email:         result.Email,
			IsNewUser:     result.IsNewUser,
			GroupID:       result.GroupID.String(),
			GroupName:     result.GroupName,
			AlreadyMember: result.AlreadyMember,
		},
	})
}

func acceptErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, invitationdomain.ErrTokenRequired):
		return http.StatusBadRequest, "Token is required"
	case errors.Is(err, invitationdomain.ErrInvitationNotFound):
		return http.StatusNotFound, "Invalid invitation link"
	case errors.Is(err, invitationdomain.ErrInvitationExpired):
		return http.StatusGone, "This invitation has expired"
	case errors.Is(err, invitationdomain.ErrInvitationAccepted):
		return http.StatusGone, "This invitation has already been accepted"
	case errors.Is(err, invitationdomain.ErrEmailRequired):
		return http.StatusBadRequest, "Email is required"
	case errors.Is(err, invitationdomain.ErrPasswordRequired):
		return http.StatusBadRequest, "Password is required to verify your account"
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid password. Please check your password and try again."
	case errors.Is(err, invitationdomain.ErrPasswordRequiredNew):
		return http.StatusBadRequest, "Password is required for new users"
	case errors.Is(err, authdomain.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 8 characters long"
	case errors.Is(err, invitationdomain.ErrFirstNameRequired):
		return http.StatusBadRequest, "First name is required"
	default:
		return http.StatusInternalServerError, "Failed to accept invitation"
	}
}
