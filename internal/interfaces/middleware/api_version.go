package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchdesk/cms/pkg/versioning"
)

// APIVersion rejects requests for a major version this server does not serve and stores
// the requested version in the request context. Every response names the served version.
func APIVersion() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(versioning.Header, versioning.Current.String())

		requested := versioning.ParseVersion(c.GetHeader(versioning.Header))
		if !versioning.Current.Supports(requested) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "Unsupported API version",
				"message": "API version " + requested.String() + " is not supported",
				"code":    "UNSUPPORTED_API_VERSION",
				"data":    nil,
			})
			return
		}

		c.Request = c.Request.WithContext(versioning.WithVersion(c.Request.Context(), requested))
		c.Next()
	}
}
