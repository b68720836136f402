package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/database/shelves"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type SeedCommand struct {
	DatabasePath string
	Password     string
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.Password, "password", "demo-password-12", "Password for the demo accounts")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populate the database with demo users, books, shelf placements and reviews.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SeedCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth)
	shelvesRepo := shelves.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	reviewsRepo := reviews.NewRepository(db.DB, cfg.Ratings)

	demoUsers := []struct {
		username string
		email    string
		role     entities.UserRole
	}{
		{"admin", "admin@example.com", entities.UserRoleAdmin},
		{"alice", "alice@example.com", entities.UserRoleMember},
		{"bob", "bob@example.com", entities.UserRoleMember},
	}

	created := make([]*entities.User, 0, len(demoUsers))
	for _, u := range demoUsers {
		user, err := authService.CreateUser(u.username, u.email, cmd.Password, u.role)
		if err != nil {
			return fmt.Errorf("failed to create user %q: %w", u.username, err)
		}
		created = append(created, user)
		fmt.Printf("Created user %q (ID %d)\n", user.Username, user.ID)
	}

	demoBooks := []entities.Book{
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", ISBN: "9780441478125"},
		{Title: "Kafka on the Shore", Author: "Haruki Murakami", ISBN: "9781400079278"},
		{Title: "Piranesi", Author: "Susanna Clarke", ISBN: "9781635575637"},
		{Title: "The Dispossessed", Author: "Ursula K. Le Guin", ISBN: "9780061054884"},
	}
	for i := range demoBooks {
		if err := booksRepo.CreateBook(&demoBooks[i]); err != nil {
			return fmt.Errorf("failed to create book %q: %w", demoBooks[i].Title, err)
		}
	}
	fmt.Printf("Created %d books\n", len(demoBooks))

	alice, bob := created[1], created[2]

	// Alice reads Le Guin, keeps Murakami for later
	if err := cmd.shelveByName(shelvesRepo, alice.ID, demoBooks[0].ID, "Read"); err != nil {
		return err
	}
	if err := cmd.shelveByName(shelvesRepo, alice.ID, demoBooks[3].ID, "Currently Reading"); err != nil {
		return err
	}
	if err := cmd.shelveByName(shelvesRepo, alice.ID, demoBooks[1].ID, "Want to Read"); err != nil {
		return err
	}

	// Bob keeps a custom shelf on top of the defaults
	if _, err := shelvesRepo.CreateCustomShelf(bob.ID, "Sci-Fi Classics"); err != nil {
		return fmt.Errorf("failed to create custom shelf: %w", err)
	}
	if err := cmd.shelveByName(shelvesRepo, bob.ID, demoBooks[0].ID, "Sci-Fi Classics"); err != nil {
		return err
	}
	if err := cmd.shelveByName(shelvesRepo, bob.ID, demoBooks[2].ID, "Read"); err != nil {
		return err
	}

	seedReviews := []struct {
		userID  uint
		bookID  uint
		rating  int
		content string
	}{
		{alice.ID, demoBooks[0].ID, 5, "A masterpiece about gender, loyalty and ice."},
		{bob.ID, demoBooks[0].ID, 4, "Slow start, unforgettable second half."},
		{bob.ID, demoBooks[2].ID, 5, "The House is kind. The Beauty of the House is immeasurable."},
	}
	for _, rv := range seedReviews {
		if _, err := reviewsRepo.RecordReview(rv.userID, rv.bookID, rv.rating, rv.content); err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
	}
	fmt.Printf("Created %d reviews\n", len(seedReviews))

	fmt.Println("Seeding complete")
	return nil
}

func (cmd *SeedCommand) shelveByName(repo *shelves.Repository, userID, bookID uint, shelfName string) error {
	if err := repo.AddBookToShelfByName(userID, bookID, shelfName); err != nil {
		return fmt.Errorf("failed to shelve book %d for user %d: %w", bookID, userID, err)
	}
	return nil
}
