// Package books provides database operations for the book catalog.
//
// The rating aggregate columns on books (average_rating, total_reviews) are
// owned by the reviews repository; this package never writes them.
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrTitleRequired = errors.New("book title is required")
)

// Repository handles book catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook adds a book to the catalog.
func (r *Repository) CreateBook(book *entities.Book) error {
	if book.Title == "" {
		return ErrTitleRequired
	}
	if err := r.db.Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetBookByID retrieves a book by ID.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book %d: %w", id, err)
	}
	return &book, nil
}

// GetAllBooks retrieves books with optional pagination.
func (r *Repository) GetAllBooks(limit, offset int) ([]entities.Book, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("title ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var books []entities.Book
	err := query.Find(&books).Error
	return books, total, err
}

// SearchBooks searches books by title or author (case-insensitive partial match).
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	var books []entities.Book
	searchPattern := "%" + query + "%"
	err := r.db.
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", searchPattern, searchPattern).
		Order("title ASC").
		Find(&books).Error
	return books, err
}

// FindBookByISBN finds a book by its ISBN.
func (r *Repository) FindBookByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book together with its shelf memberships and
// reviews, as one transaction.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up book %d: %w", id, err)
		}
		if count == 0 {
			return ErrBookNotFound
		}

		if err := tx.Where("book_id = ?", id).Delete(&entities.ShelfItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete shelf items for book %d: %w", id, err)
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews for book %d: %w", id, err)
		}
		if err := tx.Delete(&entities.Book{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete book %d: %w", id, err)
		}
		return nil
	})
}
