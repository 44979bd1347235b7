package server

import (
	"inkwell/auth"
	"inkwell/forms"
	"inkwell/models"

	"github.com/gofiber/fiber/v2"
)

// RegisterPage renders the registration form.
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	return s.render(c, "register", fiber.Map{
		"Form":   &forms.RegisterForm{},
		"Errors": forms.Errors{},
	})
}

// Register handles new account creation. Registering with an email that is
// already taken flashes a notice and redirects to the login page without
// creating a row. The first account ever created becomes the admin.
func (s *Server) Register(c *fiber.Ctx) error {
	form := new(forms.RegisterForm)
	if err := c.BodyParser(form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	if errs := form.Validate(); len(errs) > 0 {
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "register", fiber.Map{"Form": form, "Errors": errs})
	}

	existing, err := s.userRepo.GetByEmail(c.Context(), form.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		setFlash(c, "You've already signed up with that email, log in instead!")
		return c.Redirect("/login")
	}

	digest, err := auth.HashPassword(form.Password)
	if err != nil {
		return models.NewInternalError(err)
	}

	count, err := s.userRepo.Count(c.Context())
	if err != nil {
		return err
	}

	user := &models.User{
		Email:    form.Email,
		Name:     form.Name,
		Password: digest,
		IsAdmin:  count == 0,
	}
	if err := s.userRepo.Create(c.Context(), user); err != nil {
		// A concurrent registration can still hit the unique index.
		if models.IsCode(err, models.CodeDuplicate) {
			setFlash(c, "You've already signed up with that email, log in instead!")
			return c.Redirect("/login")
		}
		return err
	}

	if err := s.issueSession(c, user, false); err != nil {
		return models.NewInternalError(err)
	}
	return c.Redirect("/")
}

// LoginPage renders the login form.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.render(c, "login", fiber.Map{
		"Form":   &forms.LoginForm{},
		"Errors": forms.Errors{},
	})
}

// Login authenticates a returning user and establishes the session.
func (s *Server) Login(c *fiber.Ctx) error {
	form := new(forms.LoginForm)
	if err := c.BodyParser(form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	if errs := form.Validate(); len(errs) > 0 {
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "login", fiber.Map{"Form": form, "Errors": errs})
	}

	user, err := s.userRepo.GetByEmail(c.Context(), form.Email)
	if err != nil {
		return err
	}
	if user == nil {
		setFlash(c, "That email does not exist, please try again.")
		return c.Redirect("/login")
	}

	if !auth.VerifyPassword(user.Password, form.Password) {
		setFlash(c, "Password incorrect, please try again.")
		return c.Redirect("/login")
	}

	if err := s.issueSession(c, user, form.Remember); err != nil {
		return models.NewInternalError(err)
	}
	return c.Redirect("/")
}

// Logout clears the session and returns to the front page.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearSession(c)
	return c.Redirect("/")
}
