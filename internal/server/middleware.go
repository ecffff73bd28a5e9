package server

import (
	"fmt"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const contextUserIDKey = "user_id"

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, sess.UserID)
		c.Next()
	}
}

func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(snowflake.ID)
	return id, ok && id != 0
}

func (s *Server) actor(userID snowflake.ID) string {
	return fmt.Sprintf("user:%s", userID)
}

// CredentialRateLimit throttles password-bearing requests by client IP.
func (s *Server) CredentialRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.AllowCredential(c.Request.Context(), c.ClientIP()) {
			AbortWithError(c, ErrTooManyReqs)
			return
		}
		c.Next()
	}
}

// AcceptRateLimit throttles invitation acceptance by client IP so a
// leaked link cannot be used to brute-force passwords.
func (s *Server) AcceptRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.AllowAccept(c.Request.Context(), c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts. Please try again later."})
			return
		}
		c.Next()
	}
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param(name))
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
