package server

import (
	"net/url"
	"testing"

	"inkwell/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userCount(t *testing.T, srv *Server) int64 {
	t.Helper()
	var count int64
	require.NoError(t, srv.db.Model(&models.User{}).Count(&count).Error)
	return count
}

func TestRegisterLoginScenario(t *testing.T) {
	srv, app := newTestServer(t)

	// register("a@x.com","Alice","pw1") succeeds and authenticates.
	alice := newClient(t, app)
	resp := alice.postForm("/register", url.Values{
		"email":    {"a@x.com"},
		"name":     {"Alice"},
		"password": {"pw1"},
	})
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.NotEmpty(t, alice.cookies["session"], "expected a session cookie")

	home := alice.get("/")
	assert.Contains(t, body(t, home), "Log Out")

	// The stored digest is never the plaintext.
	var stored models.User
	require.NoError(t, srv.db.Where("email = ?", "a@x.com").First(&stored).Error)
	assert.NotEqual(t, "pw1", stored.Password)
	assert.True(t, stored.IsAdmin, "first user becomes the admin")

	// register with the same email fails, redirects to login, creates no row.
	second := newClient(t, app)
	resp = second.postForm("/register", url.Values{
		"email":    {"a@x.com"},
		"name":     {"Alice2"},
		"password": {"pw2"},
	})
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), userCount(t, srv))

	loginPage := second.get("/login")
	assert.Contains(t, body(t, loginPage), "already signed up with that email")

	// login with a wrong password fails with the incorrect-password notice.
	resp = second.postForm("/login", url.Values{
		"email":    {"a@x.com"},
		"password": {"wrong"},
	})
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Empty(t, second.cookies["session"])

	loginPage = second.get("/login")
	assert.Contains(t, body(t, loginPage), "Password incorrect, please try again.")

	// login with the right pair succeeds.
	resp = second.postForm("/login", url.Values{
		"email":    {"a@x.com"},
		"password": {"pw1"},
	})
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.NotEmpty(t, second.cookies["session"])
}

func TestLoginUnknownEmail(t *testing.T) {
	_, app := newTestServer(t)

	c := newClient(t, app)
	resp := c.postForm("/login", url.Values{
		"email":    {"ghost@x.com"},
		"password": {"pw"},
	})
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	loginPage := c.get("/login")
	assert.Contains(t, body(t, loginPage), "That email does not exist, please try again.")
}

func TestRegisterValidationRejectsWholeForm(t *testing.T) {
	srv, app := newTestServer(t)

	c := newClient(t, app)
	resp := c.postForm("/register", url.Values{
		"name":     {"Alice"},
		"password": {"pw1"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Email is required")
	assert.Equal(t, int64(0), userCount(t, srv), "no partial writes on validation failure")
}

func TestLogoutClearsSession(t *testing.T) {
	srv, app := newTestServer(t)

	c := newClient(t, app)
	c.register(t, srv, "a@x.com", "Alice", "pw1")
	require.NotEmpty(t, c.cookies["session"])

	resp := c.get("/logout")
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Empty(t, c.cookies["session"])

	home := c.get("/")
	assert.Contains(t, body(t, home), "Log In")
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	_, app := newTestServer(t)

	c := newClient(t, app)
	req := newRawForm(t, "/login", url.Values{
		"email":    {"a@x.com"},
		"password": {"pw1"},
	})
	resp := c.do(req)
	_ = resp.Body.Close()
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
