package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/wagwan/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// ContextKeyUID is the echo context key holding the verified caller's uid.
const ContextKeyUID = "uid"

// TokenVerifier checks identity tokens issued to the mobile client.
// *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware rejects requests without a valid Bearer ID token
func FirebaseAuthMiddleware(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header is missing")
			}

			scheme, idToken, ok := strings.Cut(authHeader, " ")
			idToken = strings.TrimSpace(idToken)
			if !ok || !strings.EqualFold(scheme, "bearer") || idToken == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header must be in Bearer format")
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				logger.WithField("path", c.Path()).WithError(err).Debug("id token rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired ID token")
			}

			c.Set(ContextKeyUID, token.UID)
			return next(c)
		}
	}
}
