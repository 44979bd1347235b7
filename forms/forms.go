// Package forms declares the submitted form types and their validation rules.
// A form is accepted as a whole or rejected as a whole: any failing field
// rejects the submission and the handler re-renders the form with the
// collected field messages.
package forms

import (
	"net/url"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Errors maps a field name to its validation message. An empty map means the
// form passed.
type Errors map[string]string

func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

func required(errs Errors, field, value, label string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, label+" is required")
	}
}

func emailShaped(errs Errors, field, value string) {
	if value == "" {
		return
	}
	if !emailRegex.MatchString(value) || len(value) > 254 {
		errs.Add(field, "Please enter a valid email")
	}
}

func urlShaped(errs Errors, field, value string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add(field, "Please enter a valid URL")
	}
}

// RegisterForm is submitted by new users signing up.
type RegisterForm struct {
	Email    string `form:"email"`
	Name     string `form:"name"`
	Password string `form:"password"`
}

func (f *RegisterForm) Validate() Errors {
	errs := Errors{}
	required(errs, "email", f.Email, "Email")
	emailShaped(errs, "email", f.Email)
	required(errs, "name", f.Name, "Name")
	required(errs, "password", f.Password, "Password")
	return errs
}

// LoginForm is submitted by returning users.
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Remember bool   `form:"remember"`
}

func (f *LoginForm) Validate() Errors {
	errs := Errors{}
	required(errs, "email", f.Email, "Email")
	emailShaped(errs, "email", f.Email)
	required(errs, "password", f.Password, "Password")
	return errs
}

// PostForm is submitted by the admin when creating or editing a post.
type PostForm struct {
	Title    string `form:"title"`
	Subtitle string `form:"subtitle"`
	Author   string `form:"author"`
	ImageURL string `form:"img_url"`
	Body     string `form:"body"`
}

func (f *PostForm) Validate() Errors {
	errs := Errors{}
	required(errs, "title", f.Title, "Title")
	required(errs, "subtitle", f.Subtitle, "Subtitle")
	required(errs, "author", f.Author, "Author")
	required(errs, "img_url", f.ImageURL, "Image URL")
	urlShaped(errs, "img_url", f.ImageURL)
	required(errs, "body", f.Body, "Body")
	return errs
}

// CommentForm is submitted below a post by an authenticated user.
type CommentForm struct {
	Text string `form:"comment_text"`
}

func (f *CommentForm) Validate() Errors {
	errs := Errors{}
	required(errs, "comment_text", f.Text, "Comment")
	return errs
}
