package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// BookStore defines database operations for the book catalog.
type BookStore interface {
	CreateBook(book *entities.Book) error
	GetBookByID(id uint) (*entities.Book, error)
	GetAllBooks(limit, offset int) ([]entities.Book, int64, error)
	SearchBooks(query string) ([]entities.Book, error)
	FindBookByISBN(isbn string) (*entities.Book, error)
	DeleteBook(id uint) error
}

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{store: store}
}

// GetBooks lists the catalog, paginated; ?q= switches to search
// GET /api/books
func (bc *BooksController) GetBooks(c *gin.Context) {
	if query := strings.TrimSpace(c.Query("q")); query != "" {
		found, err := bc.store.SearchBooks(query)
		if err != nil {
			respondInternalError(c, err, "search books")
			return
		}
		c.JSON(http.StatusOK, found)
		return
	}

	limit, offset := parsePagination(c)
	catalog, total, err := bc.store.GetAllBooks(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    catalog,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(catalog)) < total,
	})
}

// GetBook returns a single catalog entry
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(bookID)
	if err != nil {
		respondDomainError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook adds a book to the catalog. If the ISBN is already known the
// existing entry is returned instead of creating a duplicate.
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req struct {
		Title  string `json:"title" binding:"required"`
		Author string `json:"author"`
		ISBN   string `json:"isbn"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}

	if req.ISBN != "" {
		if existing, err := bc.store.FindBookByISBN(req.ISBN); err == nil {
			c.JSON(http.StatusOK, existing)
			return
		}
	}

	book := &entities.Book{
		Title:  strings.TrimSpace(req.Title),
		Author: strings.TrimSpace(req.Author),
		ISBN:   req.ISBN,
	}
	if err := bc.store.CreateBook(book); err != nil {
		respondDomainError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// DeleteBook removes a book and everything that references it
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.DeleteBook(bookID); err != nil {
		respondDomainError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}
