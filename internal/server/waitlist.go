package server

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	waitlistdomain "github.com/smallplates/plates/internal/waitlist/domain"
)

type joinWaitlistRequest struct {
	Email string `json:"email"`
}

func (s *Server) JoinWaitlist(c *gin.Context) {
	var req joinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		AbortWithError(c, newValidationError("email", "invalid_email", "a valid email is required"))
		return
	}

	entry := waitlistdomain.Entry{
		ID:     s.genID.Generate(),
		Email:  email,
		Status: "pending",
	}
	// Add is an upsert that ignores duplicates, so re-joining is a no-op.
	if err := s.waitlistRepo.Add(c.Request.Context(), &entry); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
}
