package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	guestdomain "github.com/smallplates/plates/internal/guest/domain"
)

type createGuestRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type guestResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) CreateGuest(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		AbortWithError(c, newValidationError("name", "required", "name is required"))
		return
	}

	guest := guestdomain.Guest{
		ID:     s.genID.Generate(),
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if err := s.guestRepo.CreateGuest(c.Request.Context(), &guest); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, guestResponse{
		ID:        guest.ID.String(),
		Name:      guest.Name,
		Email:     guest.Email,
		CreatedAt: guest.CreatedAt,
	})
}

func (s *Server) ListMyGuests(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	guests, err := s.guestRepo.ListGuestsByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]guestResponse, 0, len(guests))
	for _, g := range guests {
		out = append(out, guestResponse{
			ID:        g.ID.String(),
			Name:      g.Name,
			Email:     g.Email,
			CreatedAt: g.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"guests": out})
}
