package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig contém a configuração do middleware de autenticação.
// TokenHash is a bcrypt hash and wins over the plain TokenAPI.
type AuthConfig struct {
	TokenAPI  string
	TokenHash string
}

// BearerAuth retorna um middleware que valida o token Bearer. Browsers cannot
// set headers on a WebSocket handshake, so a "token" query parameter is
// accepted too.
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.TokenAPI == "" && cfg.TokenHash == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "autenticação não configurada",
			})
			return
		}

		token, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "formato inválido, esperado: Bearer {token}",
			})
			return
		}

		if !cfg.valid(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "token inválido",
			})
			return
		}

		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}

	// Extrai o token do formato "Bearer {token}"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (cfg AuthConfig) valid(token string) bool {
	if cfg.TokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.TokenHash), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(cfg.TokenAPI)) == 1
}

// HashToken returns the bcrypt hash to store in TOKEN_API_HASH
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
