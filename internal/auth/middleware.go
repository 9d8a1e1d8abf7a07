package auth

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Credentials holds the configured API credentials. An empty Username
// disables authentication entirely.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// BasicAuth returns a middleware enforcing HTTP Basic Auth against the
// configured credentials. The health endpoint stays reachable without
// credentials so probes keep working when auth is on.
func BasicAuth(creds Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		if creds.Username == "" || c.FullPath() == "/api/health" {
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if !ok || !creds.verify(username, password) {
			c.Header("WWW-Authenticate", `Basic realm="davsync"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (creds Credentials) verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(creds.Username)) == 1

	if creds.PasswordHash != "" {
		passOK, err := VerifyPasswordHash(password, creds.PasswordHash)
		if err != nil {
			log.Printf("auth: %v", err)
			return false
		}
		return userOK && passOK
	}

	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(creds.Password)) == 1
	return userOK && passOK
}
