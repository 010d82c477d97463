package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "auth_identity"

// Identity is the authenticated caller attached to the request context by
// the guard middleware.
type Identity struct {
	UserID   string
	Username string
	RealName string
	RoleIDs  []string
}

// publicPaths lists URL paths that bypass the authentication guard. These
// are the credential-establishing endpoints plus infrastructure probes.
var publicPaths = map[string]bool{
	"/health":        true,
	"/health/db":     true,
	"/auth/login":    true,
	"/auth/register": true,
}

// GuardSkipper returns true for requests whose path should skip
// authentication. Pass it as the Skipper on Guard so login, registration,
// and health checks stay reachable without a token.
func GuardSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// Guard rejects requests that do not carry a valid bearer token. A missing
// token and an unverifiable one produce distinct 401 messages; beyond that
// the failure reason is not disclosed.
func Guard(tokens *TokenService, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			tokenStr := ExtractFromHeader(c.Request().Header.Get("Authorization"))
			if tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication token not provided")
			}

			claims, err := tokens.Verify(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication token")
			}

			identity := &Identity{
				UserID:   claims.Subject,
				Username: claims.Username,
				RealName: claims.RealName,
				RoleIDs:  claims.RoleIDs,
			}
			c.Set("user_id", identity.UserID)

			ctx := ContextWithIdentity(c.Request().Context(), identity)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ContextWithIdentity returns a copy of ctx carrying the identity, the
// same way the guard attaches it for authenticated requests.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authenticated caller, or nil when the
// request did not pass through the guard.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey).(*Identity)
	return identity
}
