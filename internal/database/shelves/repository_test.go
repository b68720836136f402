package shelves

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_shelves_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Shelf{},
		&entities.ShelfItem{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	user := &entities.User{
		Username: username,
		Email:    username + "@example.com",
	}
	err := db.Create(user).Error
	require.NoError(t, err)
	return user
}

func createTestBook(t *testing.T, db *gorm.DB, title string) *entities.Book {
	book := &entities.Book{
		Title:  title,
		Author: "Test Author",
	}
	err := db.Create(book).Error
	require.NoError(t, err)
	return book
}

func shelfItems(t *testing.T, db *gorm.DB, userID uint) []entities.ShelfItem {
	var items []entities.ShelfItem
	err := db.
		Joins("JOIN shelves ON shelves.id = shelf_items.shelf_id").
		Where("shelves.user_id = ?", userID).
		Find(&items).Error
	require.NoError(t, err)
	return items
}

func TestRepository_ProvisionDefaultShelves(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")

	created, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	require.Len(t, created, 3)

	names := make([]string, 0, len(created))
	for _, s := range created {
		assert.True(t, s.IsDefault)
		assert.Equal(t, user.ID, s.UserID)
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Read", "Want to Read", "Currently Reading"}, names)
}

func TestRepository_CreateCustomShelf(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")

	shelf, err := repo.CreateCustomShelf(user.ID, "Sci-Fi")
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", shelf.Name)
	assert.False(t, shelf.IsDefault)

	// Duplicate names are rejected case-insensitively
	_, err = repo.CreateCustomShelf(user.ID, "sci-fi")
	assert.ErrorIs(t, err, ErrDuplicateShelfName)

	_, err = repo.CreateCustomShelf(user.ID, "SCI-FI")
	assert.ErrorIs(t, err, ErrDuplicateShelfName)

	// Blank names are rejected
	_, err = repo.CreateCustomShelf(user.ID, "   ")
	assert.ErrorIs(t, err, ErrShelfNameRequired)

	// Another user can reuse the name
	bob := createTestUser(t, db, "bob")
	_, err = repo.CreateCustomShelf(bob.ID, "Sci-Fi")
	require.NoError(t, err)
}

func TestRepository_CreateCustomShelf_ClashesWithDefault(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	_, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)

	_, err = repo.CreateCustomShelf(user.ID, "read")
	assert.ErrorIs(t, err, ErrDuplicateShelfName)
}

func TestRepository_AddOrMoveBook_ExclusiveMove(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	defaults, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")

	wantToRead := defaults[1]
	read := defaults[0]

	err = repo.AddOrMoveBook(user.ID, book.ID, wantToRead.ID)
	require.NoError(t, err)

	items := shelfItems(t, db, user.ID)
	require.Len(t, items, 1)
	assert.Equal(t, wantToRead.ID, items[0].ShelfID)

	// Moving to another shelf removes the old membership
	err = repo.AddOrMoveBook(user.ID, book.ID, read.ID)
	require.NoError(t, err)

	items = shelfItems(t, db, user.ID)
	require.Len(t, items, 1)
	assert.Equal(t, read.ID, items[0].ShelfID)
}

func TestRepository_AddOrMoveBook_Idempotent(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	defaults, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")

	require.NoError(t, repo.AddOrMoveBook(user.ID, book.ID, defaults[0].ID))

	first := shelfItems(t, db, user.ID)
	require.Len(t, first, 1)

	require.NoError(t, repo.AddOrMoveBook(user.ID, book.ID, defaults[0].ID))

	second := shelfItems(t, db, user.ID)
	require.Len(t, second, 1)
	// The original membership row survives, added_at included
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].AddedAt.Equal(second[0].AddedAt))
}

func TestRepository_AddOrMoveBook_Validation(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	defaults, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")

	err = repo.AddOrMoveBook(9999, book.ID, defaults[0].ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = repo.AddOrMoveBook(user.ID, 9999, defaults[0].ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	err = repo.AddOrMoveBook(user.ID, book.ID, 9999)
	assert.ErrorIs(t, err, ErrShelfNotFound)
}

func TestRepository_AddOrMoveBook_ForeignShelf(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	aliceShelves, err := repo.ProvisionDefaultShelves(alice.ID)
	require.NoError(t, err)
	bobShelves, err := repo.ProvisionDefaultShelves(bob.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")

	require.NoError(t, repo.AddOrMoveBook(alice.ID, book.ID, aliceShelves[0].ID))

	// Bob cannot target Alice's shelf, and Alice's placements stay intact
	err = repo.AddOrMoveBook(bob.ID, book.ID, aliceShelves[1].ID)
	assert.ErrorIs(t, err, ErrNotShelfOwner)

	assert.Len(t, shelfItems(t, db, alice.ID), 1)
	assert.Len(t, shelfItems(t, db, bob.ID), 0)

	// Both users can shelve the same book independently
	require.NoError(t, repo.AddOrMoveBook(bob.ID, book.ID, bobShelves[0].ID))
	assert.Len(t, shelfItems(t, db, alice.ID), 1)
	assert.Len(t, shelfItems(t, db, bob.ID), 1)
}

func TestRepository_AddBookToShelfByName_Additive(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	defaults, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")

	require.NoError(t, repo.AddOrMoveBook(user.ID, book.ID, defaults[0].ID))

	// Adding by name does not disturb the existing placement
	err = repo.AddBookToShelfByName(user.ID, book.ID, "Favourites")
	require.NoError(t, err)

	items := shelfItems(t, db, user.ID)
	assert.Len(t, items, 2)

	// The named shelf was created lazily as non-default
	var shelf entities.Shelf
	require.NoError(t, db.Where("user_id = ? AND name = ?", user.ID, "Favourites").First(&shelf).Error)
	assert.False(t, shelf.IsDefault)

	// Re-adding is a no-op, with case-insensitive shelf resolution
	require.NoError(t, repo.AddBookToShelfByName(user.ID, book.ID, "favourites"))
	assert.Len(t, shelfItems(t, db, user.ID), 2)

	var shelfCount int64
	require.NoError(t, db.Model(&entities.Shelf{}).Where("user_id = ?", user.ID).Count(&shelfCount).Error)
	assert.Equal(t, int64(4), shelfCount)
}

func TestRepository_AddBookToShelfByName_ExistingDefault(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	_, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")

	require.NoError(t, repo.AddBookToShelfByName(user.ID, book.ID, "Read"))

	name, err := repo.GetShelfNameForBook(user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read", name)
}

func TestRepository_RemoveBookFromLibrary(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	_, err := repo.ProvisionDefaultShelves(alice.ID)
	require.NoError(t, err)
	bobShelves, err := repo.ProvisionDefaultShelves(bob.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")

	// Book sits on two of Alice's shelves via the additive path
	require.NoError(t, repo.AddBookToShelfByName(alice.ID, book.ID, "Read"))
	require.NoError(t, repo.AddBookToShelfByName(alice.ID, book.ID, "Favourites"))
	require.NoError(t, repo.AddOrMoveBook(bob.ID, book.ID, bobShelves[0].ID))

	require.NoError(t, repo.RemoveBookFromLibrary(alice.ID, book.ID))

	assert.Len(t, shelfItems(t, db, alice.ID), 0)
	// Bob's placement is untouched
	assert.Len(t, shelfItems(t, db, bob.ID), 1)

	// The catalog entry survives
	var count int64
	require.NoError(t, db.Model(&entities.Book{}).Where("id = ?", book.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Removing an unshelved book is a no-op
	require.NoError(t, repo.RemoveBookFromLibrary(alice.ID, book.ID))
}

func TestRepository_GetShelfNameForBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	defaults, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")

	// Unshelved book resolves to empty
	name, err := repo.GetShelfNameForBook(user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "", name)

	require.NoError(t, repo.AddOrMoveBook(user.ID, book.ID, defaults[2].ID))

	name, err = repo.GetShelfNameForBook(user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Currently Reading", name)
}

func TestRepository_GetShelvesForUser(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	_, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	_, err = repo.CreateCustomShelf(user.ID, "Sci-Fi")
	require.NoError(t, err)

	shelves, err := repo.GetShelvesForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, shelves, 4)

	// Defaults come first
	assert.True(t, shelves[0].IsDefault)
	assert.True(t, shelves[1].IsDefault)
	assert.True(t, shelves[2].IsDefault)
	assert.Equal(t, "Sci-Fi", shelves[3].Name)
}

func TestRepository_GetShelfByID(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	defaults, err := repo.ProvisionDefaultShelves(alice.ID)
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")
	require.NoError(t, repo.AddOrMoveBook(alice.ID, book.ID, defaults[0].ID))

	shelf, err := repo.GetShelfByID(alice.ID, defaults[0].ID)
	require.NoError(t, err)
	require.Len(t, shelf.Items, 1)
	assert.Equal(t, "Dune", shelf.Items[0].Book.Title)

	_, err = repo.GetShelfByID(bob.ID, defaults[0].ID)
	assert.ErrorIs(t, err, ErrNotShelfOwner)

	_, err = repo.GetShelfByID(alice.ID, 9999)
	assert.ErrorIs(t, err, ErrShelfNotFound)
}

func TestRepository_RenameShelf(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	defaults, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	custom, err := repo.CreateCustomShelf(user.ID, "Sci-Fi")
	require.NoError(t, err)

	renamed, err := repo.RenameShelf(user.ID, custom.ID, "Space Opera")
	require.NoError(t, err)
	assert.Equal(t, "Space Opera", renamed.Name)

	// Default shelves keep their canonical names
	_, err = repo.RenameShelf(user.ID, defaults[0].ID, "Finished")
	assert.ErrorIs(t, err, ErrDefaultShelfImmutable)

	// Renaming onto an existing name is rejected case-insensitively
	_, err = repo.RenameShelf(user.ID, custom.ID, "want to read")
	assert.ErrorIs(t, err, ErrDuplicateShelfName)
}

func TestRepository_DeleteShelf(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	defaults, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)
	custom, err := repo.CreateCustomShelf(user.ID, "Sci-Fi")
	require.NoError(t, err)
	book := createTestBook(t, db, "Dune")
	require.NoError(t, repo.AddOrMoveBook(user.ID, book.ID, custom.ID))

	require.NoError(t, repo.DeleteShelf(user.ID, custom.ID))

	// Memberships go, books stay
	assert.Len(t, shelfItems(t, db, user.ID), 0)
	var bookCount int64
	require.NoError(t, db.Model(&entities.Book{}).Count(&bookCount).Error)
	assert.Equal(t, int64(1), bookCount)

	err = repo.DeleteShelf(user.ID, defaults[0].ID)
	assert.ErrorIs(t, err, ErrDefaultShelfImmutable)

	err = repo.DeleteShelf(user.ID, 9999)
	assert.ErrorIs(t, err, ErrShelfNotFound)
}

func TestRepository_GetBooksOnShelf(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")
	defaults, err := repo.ProvisionDefaultShelves(user.ID)
	require.NoError(t, err)

	first := createTestBook(t, db, "Dune")
	second := createTestBook(t, db, "Hyperion")
	require.NoError(t, repo.AddOrMoveBook(user.ID, first.ID, defaults[0].ID))
	require.NoError(t, repo.AddOrMoveBook(user.ID, second.ID, defaults[0].ID))

	books, err := repo.GetBooksOnShelf(defaults[0].ID)
	require.NoError(t, err)
	require.Len(t, books, 2)
}
