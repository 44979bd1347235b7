package models

import (
	"time"
)

// Post is a blog article written by the admin.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"uniqueIndex;not null" json:"title"`
	Subtitle string `gorm:"not null" json:"subtitle"`
	// Date is the human-readable creation date shown on the page. It is set
	// once when the post is created and never rewritten by edits.
	Date       string    `gorm:"not null" json:"date"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	ImageURL   string    `gorm:"not null" json:"image_url"`
	AuthorName string    `gorm:"not null" json:"author_name"`
	UserID     uint      `gorm:"not null" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comments   []Comment `gorm:"foreignKey:PostID" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
