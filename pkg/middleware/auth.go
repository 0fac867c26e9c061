package middleware

import (
	"strings"
	"time"

	"leilao-insights/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionIDKey is the fiber local holding the authenticated session id.
const SessionIDKey = "sessionID"

// RefreshHeader carries a replacement token once the presented one has used
// up half of its lifetime.
const RefreshHeader = "X-Session-Token"

// SessionAuth requires a session token issued for the wizard named in the
// ":id" route parameter. Active sessions keep a valid token through
// RefreshHeader while the wizard's idle timeout slides.
func SessionAuth(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(fiber.HeaderAuthorization)
		if token == "" {
			logger.Warn("Missing session token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session token required",
			})
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid session token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session token",
			})
		}

		if id := c.Params("id"); id != "" && id != claims.SessionID {
			logger.Warn("Session token used for another wizard",
				zap.String("token_session", claims.SessionID),
				zap.String("requested", id),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session token does not match this wizard",
			})
		}

		if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) < jwtManager.GetTokenDuration()/2 {
			refreshed, err := jwtManager.GenerateToken(claims.SessionID)
			if err != nil {
				logger.Error("Failed to refresh session token", zap.Error(err))
			} else {
				c.Set(RefreshHeader, refreshed)
			}
		}

		c.Locals(SessionIDKey, claims.SessionID)
		return c.Next()
	}
}
