package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// requireAPIKey gates mutating routes. When no key is configured the gate
// is open, which matches local development against a simulated ledger.
func (s *Server) requireAPIKey(c *gin.Context) bool {
	if s.apiKey == "" {
		return true
	}
	key := strings.TrimSpace(c.GetHeader("X-API-Key"))
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "api key required")
		return false
	}
	return true
}
