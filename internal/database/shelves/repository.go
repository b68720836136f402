// Package shelves provides database operations for shelf membership management.
//
// Shelf placement has two deliberately different mutation paths:
//
//   - AddOrMoveBook: exclusive-move semantics. The book lands on the target
//     shelf and is removed from every other shelf the user owns.
//   - AddBookToShelfByName: additive. The book is added to the named shelf
//     (created lazily if missing) and stays wherever else it already is.
//
// # Usage
//
//	repo := shelves.NewRepository(db)
//	err := repo.AddOrMoveBook(userID, bookID, shelfID)
package shelves

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrBookNotFound          = errors.New("book not found")
	ErrShelfNotFound         = errors.New("shelf not found")
	ErrNotShelfOwner         = errors.New("shelf belongs to a different user")
	ErrDuplicateShelfName    = errors.New("a shelf with this name already exists")
	ErrShelfNameRequired     = errors.New("shelf name is required")
	ErrDefaultShelfImmutable = errors.New("default shelves cannot be renamed or deleted")
)

// Repository handles all shelf and shelf-item database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new shelves repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ProvisionDefaultShelves creates the three canonical default shelves for a
// new user. Called once at registration.
func (r *Repository) ProvisionDefaultShelves(userID uint) ([]entities.Shelf, error) {
	var created []entities.Shelf
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = ProvisionDefaultShelvesTx(tx, userID)
		return err
	})
	return created, err
}

// ProvisionDefaultShelvesTx creates the default shelves within an existing
// transaction, so registration can create the user and its shelves as one
// committed-or-rolled-back unit.
func ProvisionDefaultShelvesTx(tx *gorm.DB, userID uint) ([]entities.Shelf, error) {
	created := make([]entities.Shelf, 0, len(entities.DefaultShelfNames))
	for _, name := range entities.DefaultShelfNames {
		shelf := entities.Shelf{
			UserID:    userID,
			Name:      name,
			IsDefault: true,
		}
		if err := tx.Create(&shelf).Error; err != nil {
			return nil, fmt.Errorf("failed to create default shelf %q: %w", name, err)
		}
		created = append(created, shelf)
	}
	return created, nil
}

// CreateCustomShelf creates a non-default shelf for a user. Names are unique
// within the user's shelf set, compared case-insensitively. The in-memory
// scan gives a clean error for the common case; the unique index on
// (user_id, lower(name)) catches the race between concurrent creates.
func (r *Repository) CreateCustomShelf(userID uint, name string) (*entities.Shelf, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrShelfNameRequired
	}

	var existing []entities.Shelf
	if err := r.db.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load shelves for user %d: %w", userID, err)
	}
	for _, s := range existing {
		if strings.EqualFold(s.Name, name) {
			return nil, ErrDuplicateShelfName
		}
	}

	shelf := &entities.Shelf{
		UserID:    userID,
		Name:      name,
		IsDefault: false,
	}
	if err := r.db.Create(shelf).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateShelfName
		}
		return nil, fmt.Errorf("failed to create shelf: %w", err)
	}
	return shelf, nil
}

// AddOrMoveBook places a book on the target shelf with exclusive-move
// semantics: the book is removed from every other shelf the user owns before
// the new membership is inserted. The whole operation is one transaction, so
// a failure between removal and insertion rolls both back. Idempotent when
// the book is already on the target shelf.
func (r *Repository) AddOrMoveBook(userID, bookID, targetShelfID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, userID); err != nil {
			return err
		}
		if err := ensureBookExists(tx, bookID); err != nil {
			return err
		}

		var shelf entities.Shelf
		if err := tx.First(&shelf, targetShelfID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShelfNotFound
			}
			return fmt.Errorf("failed to load shelf %d: %w", targetShelfID, err)
		}
		if shelf.UserID != userID {
			return ErrNotShelfOwner
		}

		var onTarget int64
		err := tx.Model(&entities.ShelfItem{}).
			Where("shelf_id = ? AND book_id = ?", targetShelfID, bookID).
			Count(&onTarget).Error
		if err != nil {
			return fmt.Errorf("failed to check shelf membership: %w", err)
		}
		if onTarget > 0 {
			return nil
		}

		if err := removeFromAllShelvesTx(tx, userID, bookID); err != nil {
			return err
		}

		item := entities.ShelfItem{
			ShelfID: targetShelfID,
			BookID:  bookID,
			AddedAt: time.Now(),
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to add book %d to shelf %d: %w", bookID, targetShelfID, err)
		}
		return nil
	})
}

// AddBookToShelfByName adds a book to the user's shelf with the given name,
// creating the shelf (non-default) if it does not exist yet. Unlike
// AddOrMoveBook this does not remove the book from any other shelf.
func (r *Repository) AddBookToShelfByName(userID, bookID uint, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrShelfNameRequired
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, userID); err != nil {
			return err
		}
		if err := ensureBookExists(tx, bookID); err != nil {
			return err
		}

		var shelf entities.Shelf
		err := tx.Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).First(&shelf).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			shelf = entities.Shelf{UserID: userID, Name: name, IsDefault: false}
			if err := tx.Create(&shelf).Error; err != nil {
				return fmt.Errorf("failed to create shelf %q: %w", name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to resolve shelf %q: %w", name, err)
		}

		var present int64
		err = tx.Model(&entities.ShelfItem{}).
			Where("shelf_id = ? AND book_id = ?", shelf.ID, bookID).
			Count(&present).Error
		if err != nil {
			return fmt.Errorf("failed to check shelf membership: %w", err)
		}
		if present > 0 {
			return nil
		}

		item := entities.ShelfItem{
			ShelfID: shelf.ID,
			BookID:  bookID,
			AddedAt: time.Now(),
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to add book %d to shelf %q: %w", bookID, name, err)
		}
		return nil
	})
}

// RemoveBookFromLibrary removes the book from every shelf owned by the user,
// however many shelves currently reference it.
func (r *Repository) RemoveBookFromLibrary(userID, bookID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, userID); err != nil {
			return err
		}
		return removeFromAllShelvesTx(tx, userID, bookID)
	})
}

// GetShelfNameForBook returns the name of the first of the user's shelves
// containing the book, or the empty string if the book is not shelved.
func (r *Repository) GetShelfNameForBook(userID, bookID uint) (string, error) {
	var name string
	err := r.db.Model(&entities.ShelfItem{}).
		Select("shelves.name").
		Joins("JOIN shelves ON shelves.id = shelf_items.shelf_id").
		Where("shelves.user_id = ? AND shelf_items.book_id = ?", userID, bookID).
		Order("shelves.id ASC").
		Limit(1).
		Scan(&name).Error
	if err != nil {
		return "", fmt.Errorf("failed to resolve shelf for book %d: %w", bookID, err)
	}
	return name, nil
}

// GetShelvesForUser returns all shelves owned by a user, default shelves first.
func (r *Repository) GetShelvesForUser(userID uint) ([]entities.Shelf, error) {
	var shelves []entities.Shelf
	err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC, id ASC").
		Find(&shelves).Error
	return shelves, err
}

// GetShelfByID retrieves a shelf with its items and their books, enforcing
// ownership.
func (r *Repository) GetShelfByID(userID, shelfID uint) (*entities.Shelf, error) {
	var shelf entities.Shelf
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("added_at DESC, id DESC")
	}).Preload("Items.Book").First(&shelf, shelfID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShelfNotFound
		}
		return nil, fmt.Errorf("failed to load shelf %d: %w", shelfID, err)
	}
	if shelf.UserID != userID {
		return nil, ErrNotShelfOwner
	}
	return &shelf, nil
}

// GetBooksOnShelf returns the books on a shelf, newest additions first.
func (r *Repository) GetBooksOnShelf(shelfID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Model(&entities.Book{}).
		Joins("JOIN shelf_items ON shelf_items.book_id = books.id").
		Where("shelf_items.shelf_id = ?", shelfID).
		Order("shelf_items.added_at DESC, shelf_items.id DESC").
		Find(&books).Error
	return books, err
}

// RenameShelf renames a custom shelf. Default shelves keep their canonical
// names; the same per-user case-insensitive uniqueness rules apply.
func (r *Repository) RenameShelf(userID, shelfID uint, newName string) (*entities.Shelf, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrShelfNameRequired
	}

	var shelf entities.Shelf
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&shelf, shelfID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShelfNotFound
			}
			return fmt.Errorf("failed to load shelf %d: %w", shelfID, err)
		}
		if shelf.UserID != userID {
			return ErrNotShelfOwner
		}
		if shelf.IsDefault {
			return ErrDefaultShelfImmutable
		}

		var siblings []entities.Shelf
		if err := tx.Where("user_id = ? AND id <> ?", userID, shelfID).Find(&siblings).Error; err != nil {
			return fmt.Errorf("failed to load shelves for user %d: %w", userID, err)
		}
		for _, s := range siblings {
			if strings.EqualFold(s.Name, newName) {
				return ErrDuplicateShelfName
			}
		}

		if err := tx.Model(&shelf).Update("name", newName).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateShelfName
			}
			return fmt.Errorf("failed to rename shelf: %w", err)
		}
		shelf.Name = newName
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &shelf, nil
}

// DeleteShelf removes a custom shelf and its memberships. The books
// themselves are untouched. Default shelves cannot be deleted.
func (r *Repository) DeleteShelf(userID, shelfID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var shelf entities.Shelf
		if err := tx.First(&shelf, shelfID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShelfNotFound
			}
			return fmt.Errorf("failed to load shelf %d: %w", shelfID, err)
		}
		if shelf.UserID != userID {
			return ErrNotShelfOwner
		}
		if shelf.IsDefault {
			return ErrDefaultShelfImmutable
		}

		if err := tx.Where("shelf_id = ?", shelfID).Delete(&entities.ShelfItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete shelf items: %w", err)
		}
		if err := tx.Delete(&entities.Shelf{}, shelfID).Error; err != nil {
			return fmt.Errorf("failed to delete shelf: %w", err)
		}
		return nil
	})
}

func removeFromAllShelvesTx(tx *gorm.DB, userID, bookID uint) error {
	err := tx.Where(
		"book_id = ? AND shelf_id IN (?)",
		bookID,
		tx.Session(&gorm.Session{NewDB: true}).Model(&entities.Shelf{}).Select("id").Where("user_id = ?", userID),
	).Delete(&entities.ShelfItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove book %d from user %d's shelves: %w", bookID, userID, err)
	}
	return nil
}

func ensureUserExists(tx *gorm.DB, userID uint) error {
	var count int64
	if err := tx.Model(&entities.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up user %d: %w", userID, err)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func ensureBookExists(tx *gorm.DB, bookID uint) error {
	var count int64
	if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up book %d: %w", bookID, err)
	}
	if count == 0 {
		return ErrBookNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
