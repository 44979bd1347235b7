// Package server contains the HTTP surface: routing, middleware, sessions
// and the page handlers.
package server

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"inkwell/cache"
	"inkwell/config"
	"inkwell/database"
	"inkwell/middleware"
	"inkwell/models"
	"inkwell/repository"
	"inkwell/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	sanitizer   *bluemonday.Policy
}

// NewServer connects the store and cache and builds a server instance with
// all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return NewServerWithDB(cfg, db), nil
}

// NewServerWithDB builds a server on an already-open store. Tests use it with
// an in-memory sqlite database.
func NewServerWithDB(cfg *config.Config, db *gorm.DB) *Server {
	return &Server{
		config:      cfg,
		db:          db,
		redis:       cache.New(cfg.RedisURL),
		userRepo:    repository.NewUserRepository(db),
		postRepo:    repository.NewPostRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		sanitizer:   bluemonday.UGCPolicy(),
	}
}

// App assembles the Fiber application: views engine, middleware and routes.
func (s *Server) App() *fiber.App {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")
	// Post bodies and comments are sanitized HTML; render them as-is.
	engine.AddFunc("safeHTML", func(v string) template.HTML {
		return template.HTML(v)
	})

	app := fiber.New(fiber.Config{
		AppName:      "Inkwell",
		Views:        engine,
		ErrorHandler: s.errorHandler,
	})

	s.setupMiddleware(app)
	s.setupRoutes(app)

	return app
}

// setupMiddleware configures middleware for the Fiber app
func (s *Server) setupMiddleware(app *fiber.App) {
	// Request ID for tracing
	app.Use(requestid.New())

	// Structured Logging middleware
	app.Use(middleware.StructuredLogger())

	// Resolve the session cookie into the current identity
	app.Use(s.loadCurrentUser())

	// Anti-forgery token, checked on every data-submitting request
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		CookieName:     "csrf_",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		ContextKey:     "csrf",
	}))
}

// setupRoutes configures all routes for the application
func (s *Server) setupRoutes(app *fiber.App) {
	app.Get("/", s.Index)
	app.Get("/about", s.About)
	app.Get("/contact", s.Contact)

	app.Get("/register", s.RegisterPage)
	app.Post("/register", s.Register)
	app.Get("/login", s.LoginPage)
	app.Post("/login", s.Login)
	app.Get("/logout", s.Logout)

	app.Get("/posts/blog_:id", s.ShowPost)
	app.Post("/posts/blog_:id", s.CreateComment)

	// Post management is restricted to the admin account
	adminOnly := s.RequireAdmin()
	app.Get("/new_post", adminOnly, s.NewPostPage)
	app.Post("/new_post", adminOnly, s.CreatePost)
	app.Get("/edit_post/:id", adminOnly, s.EditPostPage)
	app.Post("/edit_post/:id", adminOnly, s.EditPost)
	app.Get("/delete/:id", adminOnly, s.DeletePost)
}

// errorHandler maps application errors onto status codes and renders the
// error page.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == models.CodeInternal {
			log.Printf("Error: %v", err)
		}
		return s.renderError(c, appErr.Status(), appErr.Message)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return s.renderError(c, fiberErr.Code, fiberErr.Message)
	}

	log.Printf("Error: %v", err)
	return s.renderError(c, fiber.StatusInternalServerError, "Internal server error")
}

func (s *Server) renderError(c *fiber.Ctx, status int, message string) error {
	if err := c.Status(status).Render("error", fiber.Map{
		"Status":  status,
		"Message": message,
		"User":    currentUser(c),
	}); err != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

// render builds the common view model (current identity, anti-forgery token,
// pending flash notice) and renders the named template.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	user := currentUser(c)
	data["User"] = user
	data["LoggedIn"] = user != nil
	data["Flash"] = takeFlash(c)
	if token, ok := c.Locals("csrf").(string); ok {
		data["CSRFToken"] = token
	}
	return c.Render(name, data)
}

// Close releases the store and cache connections.
func (s *Server) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}
}
