package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-video-rental/internal/domain"
	"github.com/tbourn/go-video-rental/internal/services"
)

const (
	identityKey = "identity"
	userIDKey   = "userID"
)

// Authenticator resolves a bearer token to a stored identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate requires "Authorization: Bearer <token>" and stores the
// resolved identity in the Gin context. A missing or rejected token is a 401
// with WWW-Authenticate: Bearer. Any other Authenticator error is a 500
// internal_error. The reason is logged, never returned.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			authFailures.WithLabelValues("missing").Inc()
			unauthenticated(c)
			return
		}
		u, err := a.Authenticate(c.Request.Context(), token)
		if err != nil && !errors.Is(err, services.ErrUnauthenticated) {
			authFailures.WithLabelValues("error").Inc()
			LoggerFrom(c).Error().Err(err).Msg("authenticate bearer token")
			abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		if err != nil || u == nil {
			authFailures.WithLabelValues("rejected").Inc()
			LoggerFrom(c).Debug().Err(err).Msg("bearer token rejected")
			unauthenticated(c)
			return
		}
		c.Set(identityKey, u)
		c.Set(userIDKey, u.ID)
		c.Next()
	}
}

// RequireAdministrator aborts with 403 unless the authenticated identity is
// an administrator. It must run after Authenticate.
func RequireAdministrator() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := IdentityFrom(c)
		if u == nil {
			unauthenticated(c)
			return
		}
		if !u.IsAdministrator() {
			abortJSON(c, http.StatusForbidden, "forbidden", "administrator role required")
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Authenticate, or nil.
func IdentityFrom(c *gin.Context) *domain.User {
	if v, ok := c.Get(identityKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// UserIDFrom returns the authenticated identity's id, or "".
func UserIDFrom(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

func bearerToken(h string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	abortJSON(c, http.StatusUnauthorized, "unauthenticated", "could not validate credentials")
}
