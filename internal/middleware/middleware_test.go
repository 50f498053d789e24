package middleware_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/proverbs-sync/internal/handlers"
	"github.com/localnerve/proverbs-sync/internal/middleware"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/testutil"
)

type fakeValidator struct {
	sessions map[string]*services.SessionUser
}

func (f *fakeValidator) ValidateSession(cookie string, roles []string) (*services.SessionUser, error) {
	user, ok := f.sessions[cookie]
	if !ok {
		return nil, errors.New("session is not valid")
	}
	for _, role := range roles {
		if !user.HasRole(role) {
			return nil, errors.New("missing role " + role)
		}
	}
	return user, nil
}

func setupApp() *fiber.App {
	validator := &fakeValidator{sessions: map[string]*services.SessionUser{
		"alice-session": {ID: "alice", Roles: []string{"user"}},
		"admin-session": {ID: "root", Roles: []string{"user", "admin"}},
	}}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(middleware.VersionMiddleware())
	app.Get("/users/:uid", middleware.AuthUser(validator), middleware.OwnUser("uid"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("apiVersion").(string))
	})
	app.Get("/admin", middleware.AuthAdmin(validator), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthUser_MissingCookie(t *testing.T) {
	app := setupApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/users/alice", nil))
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 403)
	testutil.AssertErrorType(t, resp, "data.authorization.user")
}

func TestAuthUser_InvalidSession(t *testing.T) {
	app := setupApp()

	req := httptest.NewRequest("GET", "/users/alice", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"=bogus")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 403)
}

func TestOwnUser_AllowsOwner(t *testing.T) {
	app := setupApp()

	req := httptest.NewRequest("GET", "/users/alice", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"=alice-session")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)
}

func TestOwnUser_RejectsOtherUser(t *testing.T) {
	app := setupApp()

	req := httptest.NewRequest("GET", "/users/bob", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"=alice-session")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 403)
	testutil.AssertErrorType(t, resp, "data.authorization.owner")
}

func TestOwnUser_AdminMayActForOthers(t *testing.T) {
	app := setupApp()

	req := httptest.NewRequest("GET", "/users/bob", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"=admin-session")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)
}

func TestAuthAdmin_RequiresAdminRole(t *testing.T) {
	app := setupApp()

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"=alice-session")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 403)
	testutil.AssertErrorType(t, resp, "data.authorization.admin")
}

func TestVersionMiddleware(t *testing.T) {
	app := setupApp()

	req := httptest.NewRequest("GET", "/users/alice", nil)
	req.Header.Set("Cookie", middleware.SessionCookie+"=alice-session")
	req.Header.Set("X-Api-Version", "1.0")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 200)

	req = httptest.NewRequest("GET", "/users/alice", nil)
	req.Header.Set("X-Api-Version", "2.0.0")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	testutil.AssertStatus(t, resp, 400)
	testutil.AssertErrorType(t, resp, "data.validation.version")
}
