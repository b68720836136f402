package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	activity_service "github.com/mrlokans/bookshelf/internal/activity"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	activity_repo "github.com/mrlokans/bookshelf/internal/database/activity"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupReviewsTest(t *testing.T) (*database.Database, *reviews.Repository, *gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_reviews_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := reviews.NewRepository(db.DB, config.Ratings{Min: 1, Max: 5})
	activitySvc := activity_service.NewService(activity_repo.NewRepository(db.DB))
	controller := NewReviewsController(repo, activitySvc)

	router := gin.New()
	// Requests act as user 1
	router.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, uint(1))
		c.Next()
	})
	router.POST("/api/books/:id/reviews", controller.CreateReview)
	router.GET("/api/books/:id/reviews", controller.GetReviewsForBook)
	router.GET("/api/reviews", controller.GetMyReviews)
	router.PUT("/api/reviews/:id", controller.UpdateReview)
	router.DELETE("/api/reviews/:id", controller.DeleteReview)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, repo, router, cleanup
}

func seedReviewUser(t *testing.T, db *database.Database, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.DB.Create(user).Error)
	return user
}

func TestReviewsController_CreateReview(t *testing.T) {
	t.Run("records the review and refreshes the aggregate", func(t *testing.T) {
		db, _, router, cleanup := setupReviewsTest(t)
		defer cleanup()

		seedReviewUser(t, db, "alice")
		book := seedBook(t, db, "Dune")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest("POST", "/api/books/1/reviews",
			gin.H{"rating": 4, "content": "Solid"}))
		require.Equal(t, http.StatusCreated, w.Code)

		var updated entities.Book
		require.NoError(t, db.DB.First(&updated, book.ID).Error)
		require.NotNil(t, updated.AverageRating)
		assert.InDelta(t, 4.0, *updated.AverageRating, 1e-9)
		assert.Equal(t, int64(1), updated.TotalReviews)
	})

	t.Run("rejects out-of-range ratings with 400", func(t *testing.T) {
		db, _, router, cleanup := setupReviewsTest(t)
		defer cleanup()

		seedReviewUser(t, db, "alice")
		seedBook(t, db, "Dune")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest("POST", "/api/books/1/reviews",
			gin.H{"rating": 6, "content": "Too high"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an unknown book with 404", func(t *testing.T) {
		db, _, router, cleanup := setupReviewsTest(t)
		defer cleanup()

		seedReviewUser(t, db, "alice")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest("POST", "/api/books/9999/reviews",
			gin.H{"rating": 4, "content": "Ghost book"}))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReviewsController_GetReviewsForBook(t *testing.T) {
	db, repo, router, cleanup := setupReviewsTest(t)
	defer cleanup()

	alice := seedReviewUser(t, db, "alice")
	bob := seedReviewUser(t, db, "bob")
	book := seedBook(t, db, "Dune")

	_, err := repo.RecordReview(alice.ID, book.ID, 4, "Solid")
	require.NoError(t, err)
	_, err = repo.RecordReview(bob.ID, book.ID, 5, "Loved it")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("GET", "/api/books/1/reviews", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var result []entities.Review
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result, 2)
}

func TestReviewsController_UpdateReview(t *testing.T) {
	t.Run("owner can update", func(t *testing.T) {
		db, repo, router, cleanup := setupReviewsTest(t)
		defer cleanup()

		alice := seedReviewUser(t, db, "alice")
		book := seedBook(t, db, "Dune")
		review, err := repo.RecordReview(alice.ID, book.ID, 2, "Meh")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest("PUT", "/api/reviews/1",
			gin.H{"rating": 5, "content": "Grew on me"}))
		require.Equal(t, http.StatusOK, w.Code)

		updated, err := repo.GetReviewByID(review.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Rating)
	})

	t.Run("non-owner gets 403", func(t *testing.T) {
		db, repo, router, cleanup := setupReviewsTest(t)
		defer cleanup()

		seedReviewUser(t, db, "alice")
		bob := seedReviewUser(t, db, "bob")
		book := seedBook(t, db, "Dune")
		_, err := repo.RecordReview(bob.ID, book.ID, 3, "Bob's review")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest("PUT", "/api/reviews/1",
			gin.H{"rating": 1, "content": "Hijacked"}))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestReviewsController_DeleteReview(t *testing.T) {
	t.Run("owner can delete and the aggregate resets", func(t *testing.T) {
		db, repo, router, cleanup := setupReviewsTest(t)
		defer cleanup()

		alice := seedReviewUser(t, db, "alice")
		book := seedBook(t, db, "Dune")
		_, err := repo.RecordReview(alice.ID, book.ID, 5, "Only review")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest("DELETE", "/api/reviews/1", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var updated entities.Book
		require.NoError(t, db.DB.First(&updated, book.ID).Error)
		assert.Nil(t, updated.AverageRating)
		assert.Equal(t, int64(0), updated.TotalReviews)
	})

	t.Run("missing review gets 404", func(t *testing.T) {
		db, _, router, cleanup := setupReviewsTest(t)
		defer cleanup()

		seedReviewUser(t, db, "alice")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest("DELETE", "/api/reviews/9999", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
