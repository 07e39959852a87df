package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"vidtube/internal/models"
)

// AccessTokenCookie is the cookie the access token is delivered in.
const AccessTokenCookie = "accessToken"

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// AuthRequired rejects requests without a valid access token. The token is
// read from the accessToken cookie first, then from a Bearer header. On
// success the user is stored in locals under "user" and "userID".
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Authenticate(c.UserContext(), AccessToken(c))
		if err != nil {
			return models.RespondWithError(c, err)
		}

		c.Locals("user", user)
		c.Locals("userID", user.ID)
		c.SetUserContext(WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// AccessToken extracts the access token from the request, or "".
func AccessToken(c *fiber.Ctx) string {
	if token := c.Cookies(AccessTokenCookie); token != "" {
		return token
	}
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
