package server

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"inkwell/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookie = "session"
	flashCookie   = "flash"

	tokenIssuer   = "inkwell"
	tokenAudience = "inkwell-web"

	sessionTTL  = 7 * 24 * time.Hour
	rememberTTL = 30 * 24 * time.Hour
)

// issueSession signs a token for the user and sets the session cookie.
// remember extends the cookie to thirty days; otherwise it lasts for the
// browser session only.
func (s *Server) issueSession(c *fiber.Ctx, user *models.User, remember bool) error {
	if s.config.SessionSecret == "" {
		return fmt.Errorf("session secret not configured")
	}

	ttl := sessionTTL
	if remember {
		ttl = rememberTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.config.SessionSecret))
	if err != nil {
		return err
	}

	cookie := &fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
	}
	if remember {
		cookie.Expires = now.Add(rememberTTL)
	}
	c.Cookie(cookie)
	return nil
}

// clearSession expires the session cookie.
func (s *Server) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// parseSession validates the session cookie and extracts the user id.
func (s *Server) parseSession(c *fiber.Ctx) (uint, bool) {
	tokenString := c.Cookies(sessionCookie)
	if tokenString == "" {
		return 0, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return []byte(s.config.SessionSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// loadCurrentUser resolves the session cookie into a user and stores it in
// the request context for handlers and templates. A stale cookie (deleted
// user, bad signature) simply leaves the request anonymous.
func (s *Server) loadCurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := s.parseSession(c); ok {
			if user, err := s.userRepo.GetByID(c.Context(), id); err == nil {
				c.Locals("currentUser", user)
			}
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("currentUser").(*models.User)
	return user
}

// RequireAdmin stops any request whose identity lacks the admin flag.
func (s *Server) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil {
			return models.NewUnauthenticatedError("Authentication required")
		}
		if !user.IsAdmin {
			return models.NewForbiddenError("Admin access required")
		}
		return c.Next()
	}
}

// setFlash queues a one-shot notice for the next rendered page.
func setFlash(c *fiber.Ctx, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.URLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// takeFlash returns the pending notice, if any, and clears it.
func takeFlash(c *fiber.Ctx) string {
	v := c.Cookies(flashCookie)
	if v == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	decoded, err := base64.URLEncoding.DecodeString(v)
	if err != nil {
		return ""
	}
	return string(decoded)
}
