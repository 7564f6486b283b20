package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type tokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// issueToken handles POST /v1/auth/token. It exchanges a configured API key
// for a short-lived operator JWT. The stored key is a bcrypt hash so a leaked
// config file does not leak the key itself.
func (s *Server) issueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}

	if s.cfg.APIKeyHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "operator access is not configured"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.APIKeyHash), []byte(req.APIKey)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tok, err := s.tokens.Issue()
	if err != nil {
		s.logger.Error("issue operator token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tok, "token_type": "Bearer"})
}

// requireOperator is a middleware guarding audit routes with a bearer
// operator token.
func (s *Server) requireOperator(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	if _, err := s.tokens.Verify(token); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Next()
}
