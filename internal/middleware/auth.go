package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/types"
)

// SessionCookie is the Authorizer session cookie name
const SessionCookie = "cookie_session"

// AuthAdmin validates that the request has admin role authorization
func AuthAdmin(validator services.SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, validator, []string{"admin"}, "data.authorization.admin")
	}
}

// AuthUser validates that the request has user role authorization
func AuthUser(validator services.SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, validator, []string{"user"}, "data.authorization.user")
	}
}

// OwnUser rejects requests for another user's documents unless the session user is an admin.
// It must run after AuthUser or AuthAdmin.
func OwnUser(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*services.SessionUser)
		if !ok || user == nil {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "user not found in context",
				Type:    "data.authorization.user",
			}
		}
		if c.Params(param) != user.ID && !user.HasRole("admin") {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "Access to another user's documents is not allowed",
				Type:    "data.authorization.owner",
			}
		}
		return c.Next()
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, validator services.SessionValidator, roles []string, errorType string) error {
	session := c.Cookies(SessionCookie)
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Authorizer cookie %q not found", SessionCookie),
			Type:    errorType,
		}
	}

	user, err := validator.ValidateSession(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	c.Locals("user", user)
	return c.Next()
}
