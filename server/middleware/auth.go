// Package middleware contains the Gin middleware shared by the registry and
// the load balancer.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/errors"
)

// identityKey is the Gin context key the resolved caller identity is stored
// under.
const identityKey = "caller_identity"

// TokenVerifier resolves a bearer token string into a caller identity.
type TokenVerifier func(token string) (auth.Identity, error)

// RequireAuth returns middleware that validates the Authorization header and
// stores the resolved identity in the context. Requests without a valid
// identity are aborted before the handler runs; handlers never see a
// default or empty identity.
func RequireAuth(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, errors.Unauthorized("Missing token."))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, errors.Unauthorized("Improper Authorization header format."))
			return
		}

		identity, err := verify(parts[1])
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// abortWithError mirrors server.AbortWithError without importing the server
// package, which would make the import cycle server -> middleware -> server.
func abortWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// CallerIdentity returns the identity stored by RequireAuth. The boolean is
// false when the request never passed through the auth middleware.
func CallerIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
