package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallplates/plates/internal/authorization"
	groupdomain "github.com/smallplates/plates/internal/group/domain"
	recipedomain "github.com/smallplates/plates/internal/recipe/domain"
)

type createRecipeRequest struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
}

type guestRecipeResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type groupRecipeResponse struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	AddedBy   string    `json:"added_by"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) CreateGuestRecipe(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		AbortWithError(c, newValidationError("title", "required", "title is required"))
		return
	}

	recipe := recipedomain.GuestRecipe{
		ID:     s.genID.Generate(),
		UserID: userID,
		Title:  strings.TrimSpace(req.Title),
		Notes:  req.Notes,
	}
	if err := s.recipeRepo.CreateGuestRecipe(c.Request.Context(), &recipe); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, guestRecipeResponse{
		ID:        recipe.ID.String(),
		Title:     recipe.Title,
		Notes:     recipe.Notes,
		CreatedAt: recipe.CreatedAt,
	})
}

func (s *Server) ListMyGuestRecipes(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	recipes, err := s.recipeRepo.ListGuestRecipesByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]guestRecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, guestRecipeResponse{
			ID:        r.ID.String(),
			Title:     r.Title,
			Notes:     r.Notes,
			CreatedAt: r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"recipes": out})
}

func (s *Server) CreateGroupRecipe(c *gin.Context) {
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

	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		AbortWithError(c, newValidationError("title", "required", "title is required"))
		return
	}

	if err := s.authzSvc.Authorize(c.Request.Context(), s.actor(userID), groupID.String(), authorization.ObjectRecipe, authorization.ActionRecipeCreate); err != nil {
		AbortWithError(c, err)
		return
	}

	recipe := recipedomain.GroupRecipe{
		ID:      s.genID.Generate(),
		GroupID: groupID,
		AddedBy: userID,
		Title:   strings.TrimSpace(req.Title),
		Notes:   req.Notes,
	}
	if err := s.recipeRepo.CreateGroupRecipe(c.Request.Context(), &recipe); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, groupRecipeResponse{
		ID:        recipe.ID.String(),
		GroupID:   recipe.GroupID.String(),
		AddedBy:   recipe.AddedBy.String(),
		Title:     recipe.Title,
		Notes:     recipe.Notes,
		CreatedAt: recipe.CreatedAt,
	})
}

func (s *Server) ListGroupRecipes(c *gin.Context) {
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

	if err := s.authzSvc.Authorize(c.Request.Context(), s.actor(userID), groupID.String(), authorization.ObjectRecipe, authorization.ActionRecipeView); err != nil {
		AbortWithError(c, err)
		return
	}

	recipes, err := s.recipeRepo.ListGroupRecipes(c.Request.Context(), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]groupRecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, groupRecipeResponse{
			ID:        r.ID.String(),
			GroupID:   r.GroupID.String(),
			AddedBy:   r.AddedBy.String(),
			Title:     r.Title,
			Notes:     r.Notes,
			CreatedAt: r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"recipes": out})
}
