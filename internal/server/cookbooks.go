package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	cookbookdomain "github.com/smallplates/plates/internal/cookbook/domain"
)

type createCookbookRequest struct {
	Title string `json:"title"`
}

type cookbookResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type createShippingAddressRequest struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (s *Server) CreateCookbook(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createCookbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		AbortWithError(c, newValidationError("title", "required", "title is required"))
		return
	}

	cookbook := cookbookdomain.Cookbook{
		ID:     s.genID.Generate(),
		UserID: userID,
		Title:  strings.TrimSpace(req.Title),
		Status: "draft",
	}
	if err := s.cookbookRepo.CreateCookbook(c.Request.Context(), &cookbook); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cookbookResponse{
		ID:        cookbook.ID.String(),
		Title:     cookbook.Title,
		Status:    cookbook.Status,
		CreatedAt: cookbook.CreatedAt,
	})
}

func (s *Server) ListMyCookbooks(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	cookbooks, err := s.cookbookRepo.ListCookbooksByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]cookbookResponse, 0, len(cookbooks))
	for _, cb := range cookbooks {
		out = append(out, cookbookResponse{
			ID:        cb.ID.String(),
			Title:     cb.Title,
			Status:    cb.Status,
			CreatedAt: cb.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"cookbooks": out})
}

func (s *Server) CreateShippingAddress(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createShippingAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Line1) == "" {
		AbortWithError(c, newValidationError("address", "required", "name and line1 are required"))
		return
	}

	addr := cookbookdomain.ShippingAddress{
		ID:         s.genID.Generate(),
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Line1:      strings.TrimSpace(req.Line1),
		Line2:      req.Line2,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
	if err := s.cookbookRepo.CreateShippingAddress(c.Request.Context(), &addr); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": addr.ID.String()})
}
