package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallplates/plates/internal/account/domain"
	authdomain "github.com/smallplates/plates/internal/auth/domain"
)

type deleteAccountRequest struct {
	Password string `json:"password"`
}

type deleteAccountResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletionType string `json:"deletionType"`
}

// DeleteOwnAccount is the self-service deletion endpoint. It
// authenticates inline because its error strings are part of the API
// surface consumed by the account settings page.
func (s *Server) DeleteOwnAccount(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	lockToken, acquired := s.limiter.TryLockAccount(c.Request.Context(), sess.UserID.String())
	if !acquired {
		c.JSON(http.StatusConflict, gin.H{"error": "Account deletion already in progress"})
		return
	}
	defer s.limiter.ReleaseAccount(c.Request.Context(), sess.UserID.String(), lockToken)

	result, err := s.accountSvc.DeleteOwnAccount(c.Request.Context(), sess.UserID, req.Password)
	if err != nil {
		status, message := deleteErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	s.sessions.Clear(c)

	c.JSON(http.StatusOK, deleteAccountResponse{
		Success:      true,
		Message:      result.Message,
		DeletionType: result.DeletionType,
	})
}

func deleteErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, accountdomain.ErrPasswordRequired):
		return http.StatusBadRequest, "Password is required"
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Password is incorrect"
	case errors.Is(err, accountdomain.ErrAlreadyDeleted):
		return http.StatusBadRequest, "Account is already deleted"
	case errors.Is(err, authdomain.ErrUserNotFound):
		return http.StatusUnauthorized, "User not authenticated"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// DeletionPlan reports which branch a deletion would take without
// mutating anything. The settings page uses it to word the confirm
// dialog.
func (s *Server) DeletionPlan(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	plan, err := s.accountSvc.PlanDeletion(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deletionType": plan.Type()})
}
