package middleware

import (
	"net/http"

	"heartmon-svc/src/internal/models"
	"heartmon-svc/src/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GuestUsername is the one caller allowed through AllowGuest without a
// device token.
const GuestUsername = "Guest"

// AuthMiddleware gates routes whose principal is carried in the :username
// path parameter. Body-carried principals are validated in their handlers
// after binding.
type AuthMiddleware struct {
	tokens *token.Store
}

// NewAuthMiddleware creates a new auth middleware over the device token
// store.
func NewAuthMiddleware(tokens *token.Store) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth validates the device token for the :username route parameter.
// A valid lookup slides the token's expiry.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		if !m.tokens.Validate(username, c.GetHeader(token.HeaderName)) {
			logrus.WithFields(logrus.Fields{
				"username": username,
				"path":     c.FullPath(),
			}).Warn("Request rejected, invalid device token")
			c.JSON(http.StatusBadRequest, models.Fail(models.MsgInvalidToken))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AllowGuest behaves like RequireAuth except that the Guest username passes
// without a token. Used only by the session browsing route.
func (m *AuthMiddleware) AllowGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		if username == GuestUsername {
			c.Next()
			return
		}
		if !m.tokens.Validate(username, c.GetHeader(token.HeaderName)) {
			logrus.WithField("username", username).Warn("Request rejected, invalid device token")
			c.JSON(http.StatusBadRequest, models.Fail(models.MsgInvalidToken))
			c.Abort()
			return
		}
		c.Next()
	}
}
