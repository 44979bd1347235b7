package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"inkwell/config"
	"inkwell/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer creates a server backed by an in-memory SQLite database.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}))

	cfg := &config.Config{SessionSecret: "test-secret-key"}
	srv := NewServerWithDB(cfg, db)
	return srv, srv.App()
}

// client is a test HTTP client with a cookie jar, so sessions, flash notices
// and anti-forgery tokens survive across requests the way a browser carries
// them.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
	csrf    string
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{t: t, app: app, cookies: map[string]string{}}
}

func (c *client) do(req *http.Request) *http.Response {
	c.t.Helper()

	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)

	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck.Value
	}
	return resp
}

func (c *client) get(path string) *http.Response {
	c.t.Helper()
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// postForm submits an urlencoded form including a valid anti-forgery token.
func (c *client) postForm(path string, form url.Values) *http.Response {
	c.t.Helper()

	if c.csrf == "" {
		resp := c.get("/about")
		_ = resp.Body.Close()
		c.csrf = c.cookies["csrf_"]
		require.NotEmpty(c.t, c.csrf, "expected a csrf token cookie")
	}
	form.Set("_csrf", c.csrf)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// newRawForm builds a form POST without an anti-forgery token.
func newRawForm(t *testing.T, path string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// register signs the client up and returns the created user.
func (c *client) register(t *testing.T, srv *Server, email, name, password string) *models.User {
	t.Helper()

	resp := c.postForm("/register", url.Values{
		"email":    {email},
		"name":     {name},
		"password": {password},
	})
	_ = resp.Body.Close()
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	var user models.User
	require.NoError(t, srv.db.Where("email = ?", email).First(&user).Error)
	return &user
}
