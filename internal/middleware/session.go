package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"querystack/internal/auth"
)

// Session attaches the session carried by a "Bearer <token>" header to the
// request's user context. Requests without a valid token continue
// anonymously; operations that need a session reject them later.
func Session(tokens *auth.TokenService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			logger.Debug("malformed authorization header", zap.String("path", c.Path()))
			return c.Next()
		}

		session, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
			return c.Next()
		}

		c.SetUserContext(auth.WithSession(c.UserContext(), session))
		return c.Next()
	}
}
