package server

import (
	"fmt"
	"time"

	"inkwell/cache"
	"inkwell/forms"
	"inkwell/models"

	"github.com/gofiber/fiber/v2"
)

const (
	postListCacheKey = "posts:index"
	postListCacheTTL = time.Minute

	postDateLayout = "January 2, 2006"
)

// Index renders the front page with every post, oldest first.
func (s *Server) Index(c *fiber.Ctx) error {
	var posts []models.Post
	err := cache.Aside(c.Context(), s.redis, postListCacheKey, &posts, postListCacheTTL, func() error {
		var ferr error
		posts, ferr = s.postRepo.List(c.Context())
		return ferr
	})
	if err != nil {
		return err
	}
	return s.render(c, "index", fiber.Map{"Posts": posts})
}

// About renders the static about page.
func (s *Server) About(c *fiber.Ctx) error {
	return s.render(c, "about", nil)
}

// Contact renders the static contact page.
func (s *Server) Contact(c *fiber.Ctx) error {
	return s.render(c, "contact", nil)
}

// ShowPost renders a single post together with its comments.
func (s *Server) ShowPost(c *fiber.Ctx) error {
	post, err := s.postFromParam(c)
	if err != nil {
		return err
	}

	comments, err := s.commentRepo.ListByPost(c.Context(), post.ID)
	if err != nil {
		return err
	}

	return s.render(c, "post", fiber.Map{
		"Post":     post,
		"Comments": comments,
		"Form":     &forms.CommentForm{},
		"Errors":   forms.Errors{},
	})
}

// CreateComment stores a comment submitted on the post page and re-renders
// the page including it. Anonymous visitors are sent to the login page.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	post, err := s.postFromParam(c)
	if err != nil {
		return err
	}

	user := currentUser(c)
	if user == nil {
		setFlash(c, "Please login first or register before you comment")
		return c.Redirect("/login")
	}

	form := new(forms.CommentForm)
	if err := c.BodyParser(form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	if errs := form.Validate(); len(errs) > 0 {
		comments, cerr := s.commentRepo.ListByPost(c.Context(), post.ID)
		if cerr != nil {
			return cerr
		}
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "post", fiber.Map{
			"Post":     post,
			"Comments": comments,
			"Form":     form,
			"Errors":   errs,
		})
	}

	comment := &models.Comment{
		Content: s.sanitizer.Sanitize(form.Text),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := s.commentRepo.Create(c.Context(), comment); err != nil {
		return err
	}

	comments, err := s.commentRepo.ListByPost(c.Context(), post.ID)
	if err != nil {
		return err
	}
	return s.render(c, "post", fiber.Map{
		"Post":     post,
		"Comments": comments,
		"Form":     &forms.CommentForm{},
		"Errors":   forms.Errors{},
	})
}

// NewPostPage renders the empty post form.
func (s *Server) NewPostPage(c *fiber.Ctx) error {
	return s.render(c, "make_post", fiber.Map{
		"Form":   &forms.PostForm{},
		"Errors": forms.Errors{},
		"Page":   "add",
	})
}

// CreatePost persists a new post. The display date is computed server-side
// at creation time and is immutable afterwards.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form := new(forms.PostForm)
	if err := c.BodyParser(form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	if errs := form.Validate(); len(errs) > 0 {
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "make_post", fiber.Map{"Form": form, "Errors": errs, "Page": "add"})
	}

	user := currentUser(c)
	post := &models.Post{
		Title:      form.Title,
		Subtitle:   form.Subtitle,
		Date:       time.Now().Format(postDateLayout),
		Body:       s.sanitizer.Sanitize(form.Body),
		ImageURL:   form.ImageURL,
		AuthorName: form.Author,
		UserID:     user.ID,
	}
	if err := s.postRepo.Create(c.Context(), post); err != nil {
		if models.IsCode(err, models.CodeDuplicate) {
			errs := forms.Errors{"title": "A post with that title already exists"}
			c.Status(fiber.StatusConflict)
			return s.render(c, "make_post", fiber.Map{"Form": form, "Errors": errs, "Page": "add"})
		}
		return err
	}

	cache.Invalidate(c.Context(), s.redis, postListCacheKey)
	return c.Redirect(fmt.Sprintf("/posts/blog_%d", post.ID))
}

// EditPostPage pre-populates the post form from the stored post. The
// creation date is displayed but never part of the form.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	post, err := s.postFromParam(c)
	if err != nil {
		return err
	}

	form := &forms.PostForm{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		Author:   post.AuthorName,
		ImageURL: post.ImageURL,
		Body:     post.Body,
	}
	return s.render(c, "make_post", fiber.Map{
		"Form":   form,
		"Errors": forms.Errors{},
		"Page":   "edit",
		"Post":   post,
	})
}

// EditPost overwrites title, subtitle, body, image URL and author name in
// place. The creation date is left untouched.
func (s *Server) EditPost(c *fiber.Ctx) error {
	post, err := s.postFromParam(c)
	if err != nil {
		return err
	}

	form := new(forms.PostForm)
	if err := c.BodyParser(form); err != nil {
		return models.NewValidationError("Invalid form submission")
	}

	if errs := form.Validate(); len(errs) > 0 {
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "make_post", fiber.Map{
			"Form":   form,
			"Errors": errs,
			"Page":   "edit",
			"Post":   post,
		})
	}

	post.Title = form.Title
	post.Subtitle = form.Subtitle
	post.Body = s.sanitizer.Sanitize(form.Body)
	post.ImageURL = form.ImageURL
	post.AuthorName = form.Author

	if err := s.postRepo.Update(c.Context(), post); err != nil {
		if models.IsCode(err, models.CodeDuplicate) {
			errs := forms.Errors{"title": "A post with that title already exists"}
			c.Status(fiber.StatusConflict)
			return s.render(c, "make_post", fiber.Map{
				"Form":   form,
				"Errors": errs,
				"Page":   "edit",
				"Post":   post,
			})
		}
		return err
	}

	cache.Invalidate(c.Context(), s.redis, postListCacheKey)
	return c.Redirect(fmt.Sprintf("/posts/blog_%d", post.ID))
}

// DeletePost removes the post and its comments, then returns to the front
// page.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return models.NewNotFoundError("Post", c.Params("id"))
	}

	if err := s.postRepo.Delete(c.Context(), uint(id)); err != nil {
		return err
	}

	cache.Invalidate(c.Context(), s.redis, postListCacheKey)
	return c.Redirect("/")
}

func (s *Server) postFromParam(c *fiber.Ctx) (*models.Post, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return nil, models.NewNotFoundError("Post", c.Params("id"))
	}
	return s.postRepo.GetByID(c.Context(), uint(id))
}
