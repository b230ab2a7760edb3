package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magnusfroste/auto-sense-sub000/pkg/utils"
)

const PollTokenHeader = "X-Poll-Token"

// PollTokenMiddleware guards the internal poll trigger with a shared secret.
// An empty configured token disables the check, for local development.
func PollTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(PollTokenHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid poll token")
			c.Abort()
			return
		}

		c.Next()
	}
}
