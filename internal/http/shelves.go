package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/activity"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// ShelfStore defines database operations for shelf membership management.
type ShelfStore interface {
	CreateCustomShelf(userID uint, name string) (*entities.Shelf, error)
	AddOrMoveBook(userID, bookID, targetShelfID uint) error
	AddBookToShelfByName(userID, bookID uint, name string) error
	RemoveBookFromLibrary(userID, bookID uint) error
	GetShelfNameForBook(userID, bookID uint) (string, error)
	GetShelvesForUser(userID uint) ([]entities.Shelf, error)
	GetShelfByID(userID, shelfID uint) (*entities.Shelf, error)
	RenameShelf(userID, shelfID uint, newName string) (*entities.Shelf, error)
	DeleteShelf(userID, shelfID uint) error
}

type ShelvesController struct {
	store    ShelfStore
	activity *activity.Service
}

func NewShelvesController(store ShelfStore, activitySvc *activity.Service) *ShelvesController {
	return &ShelvesController{store: store, activity: activitySvc}
}

// GetShelves returns all shelves of the current user
// GET /api/shelves
func (sc *ShelvesController) GetShelves(c *gin.Context) {
	userShelves, err := sc.store.GetShelvesForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "get shelves")
		return
	}
	c.JSON(http.StatusOK, userShelves)
}

// GetShelf returns one shelf with its items and books
// GET /api/shelves/:id
func (sc *ShelvesController) GetShelf(c *gin.Context) {
	shelfID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	shelf, err := sc.store.GetShelfByID(GetUserID(c), shelfID)
	if err != nil {
		respondDomainError(c, err, "get shelf")
		return
	}
	c.JSON(http.StatusOK, shelf)
}

// CreateShelf creates a custom shelf
// POST /api/shelves
func (sc *ShelvesController) CreateShelf(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	shelf, err := sc.store.CreateCustomShelf(GetUserID(c), req.Name)
	if err != nil {
		respondDomainError(c, err, "create shelf")
		return
	}
	respondCreated(c, shelf)
}

// RenameShelf renames a custom shelf
// PUT /api/shelves/:id
func (sc *ShelvesController) RenameShelf(c *gin.Context) {
	shelfID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	shelf, err := sc.store.RenameShelf(GetUserID(c), shelfID, req.Name)
	if err != nil {
		respondDomainError(c, err, "rename shelf")
		return
	}
	c.JSON(http.StatusOK, shelf)
}

// DeleteShelf removes a custom shelf
// DELETE /api/shelves/:id
func (sc *ShelvesController) DeleteShelf(c *gin.Context) {
	shelfID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := sc.store.DeleteShelf(GetUserID(c), shelfID); err != nil {
		respondDomainError(c, err, "delete shelf")
		return
	}
	respondSuccess(c, "shelf deleted")
}

// MoveBook places a book on the shelf, removing it from the user's other
// shelves (exclusive move)
// POST /api/shelves/:id/books
func (sc *ShelvesController) MoveBook(c *gin.Context) {
	shelfID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		BookID uint `json:"book_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	userID := GetUserID(c)
	err := sc.store.AddOrMoveBook(userID, req.BookID, shelfID)
	if err != nil {
		respondDomainError(c, err, "move book")
		return
	}

	sc.activity.LogShelfEvent(userID, entities.ActivityEventShelfMove, req.BookID, shelfID,
		fmt.Sprintf("moved book %d to shelf %d", req.BookID, shelfID), nil)
	respondSuccess(c, "book shelved")
}

// AddBookByShelfName adds a book to a named shelf without touching its other
// placements; the shelf is created if missing
// POST /api/shelves/books
func (sc *ShelvesController) AddBookByShelfName(c *gin.Context) {
	var req struct {
		BookID    uint   `json:"book_id" binding:"required"`
		ShelfName string `json:"shelf_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id and shelf_name are required")
		return
	}

	userID := GetUserID(c)
	err := sc.store.AddBookToShelfByName(userID, req.BookID, req.ShelfName)
	if err != nil {
		respondDomainError(c, err, "add book to shelf by name")
		return
	}

	sc.activity.LogShelfEvent(userID, entities.ActivityEventShelfAdd, req.BookID, 0,
		fmt.Sprintf("added book %d to shelf %q", req.BookID, req.ShelfName), nil)
	respondSuccess(c, "book added to shelf")
}

// RemoveBookFromLibrary removes a book from every shelf the user owns
// DELETE /api/library/books/:bookId
func (sc *ShelvesController) RemoveBookFromLibrary(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	userID := GetUserID(c)
	if err := sc.store.RemoveBookFromLibrary(userID, bookID); err != nil {
		respondDomainError(c, err, "remove book from library")
		return
	}

	sc.activity.LogShelfEvent(userID, entities.ActivityEventShelfRemove, bookID, 0,
		fmt.Sprintf("removed book %d from library", bookID), nil)
	respondSuccess(c, "book removed from library")
}

// GetShelfForBook returns which shelf of the user's currently holds the book
// GET /api/library/books/:bookId/shelf
func (sc *ShelvesController) GetShelfForBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	name, err := sc.store.GetShelfNameForBook(GetUserID(c), bookID)
	if err != nil {
		respondInternalError(c, err, "get shelf for book")
		return
	}
	if name == "" {
		c.JSON(http.StatusOK, gin.H{"shelf_name": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shelf_name": name})
}
