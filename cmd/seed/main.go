// Command seed fills the store with an admin account, a demo reader and a
// handful of fake posts and comments for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"inkwell/auth"
	"inkwell/config"
	"inkwell/database"
	"inkwell/models"
	"inkwell/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/joho/godotenv"
)

func main() {
	postCount := flag.Int("posts", 8, "number of demo posts to create")
	commentCount := flag.Int("comments", 3, "comments per post")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; relying on the environment")
	}
	cfg := config.LoadConfig()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)

	admin := ensureUser(ctx, users, "admin@inkwell.example", "Admin", "admin-password", true)
	reader := ensureUser(ctx, users, "reader@inkwell.example", gofakeit.Name(), "reader-password", false)

	created := 0
	for i := 0; i < *postCount; i++ {
		post := &models.Post{
			Title:      gofakeit.Sentence(4),
			Subtitle:   gofakeit.Sentence(6),
			Date:       time.Now().Format("January 2, 2006"),
			Body:       "<p>" + gofakeit.Paragraph(2, 4, 12, " ") + "</p>",
			ImageURL:   fmt.Sprintf("https://picsum.photos/seed/%d/600/400", i),
			AuthorName: admin.Name,
			UserID:     admin.ID,
		}
		if err := posts.Create(ctx, post); err != nil {
			log.Printf("skipping post %q: %v", post.Title, err)
			continue
		}
		created++

		for j := 0; j < *commentCount; j++ {
			comment := &models.Comment{
				Content: "<p>" + gofakeit.HipsterSentence(10) + "</p>",
				UserID:  reader.ID,
				PostID:  post.ID,
			}
			if err := comments.Create(ctx, comment); err != nil {
				log.Printf("skipping comment on %q: %v", post.Title, err)
			}
		}
	}

	log.Printf("seeded %d posts", created)
}

func ensureUser(ctx context.Context, users repository.UserRepository, email, name, password string, admin bool) *models.User {
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("lookup %s: %v", email, err)
	}
	if existing != nil {
		return existing
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password for %s: %v", email, err)
	}

	user := &models.User{
		Email:    email,
		Name:     name,
		Password: digest,
		IsAdmin:  admin,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("create %s: %v", email, err)
	}
	return user
}
