package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection if auth is enabled
	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Apply session middleware if enabled
	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	if cfg.AuthService != nil {
		usersController := NewUsersController(cfg.AuthService, cfg.SessionManager)
		router.POST("/login", usersController.Login)
		router.POST("/logout", usersController.Logout)
		router.POST("/api/users", usersController.Register)
		router.GET("/api/users/me", usersController.GetProfile)
		router.PUT("/api/users/me/password", usersController.ChangePassword)
		router.POST("/api/users/me/token", usersController.GenerateToken)
		router.GET("/api/csrf", usersController.GetCSRFToken)
	}

	shelvesController := NewShelvesController(cfg.ShelfStore, cfg.Activity)
	router.GET("/api/shelves", shelvesController.GetShelves)
	router.POST("/api/shelves", shelvesController.CreateShelf)
	router.GET("/api/shelves/:id", shelvesController.GetShelf)
	router.PUT("/api/shelves/:id", shelvesController.RenameShelf)
	router.DELETE("/api/shelves/:id", shelvesController.DeleteShelf)
	router.POST("/api/shelves/:id/books", shelvesController.MoveBook)
	router.POST("/api/shelves/books", shelvesController.AddBookByShelfName)
	router.DELETE("/api/library/books/:bookId", shelvesController.RemoveBookFromLibrary)
	router.GET("/api/library/books/:bookId/shelf", shelvesController.GetShelfForBook)

	booksController := NewBooksController(cfg.BookStore)
	router.GET("/api/books", booksController.GetBooks)
	router.POST("/api/books", booksController.CreateBook)
	router.GET("/api/books/:id", booksController.GetBook)

	reviewsController := NewReviewsController(cfg.ReviewStore, cfg.Activity)
	router.POST("/api/books/:id/reviews", reviewsController.CreateReview)
	router.GET("/api/books/:id/reviews", reviewsController.GetReviewsForBook)
	router.GET("/api/reviews", reviewsController.GetMyReviews)
	router.PUT("/api/reviews/:id", reviewsController.UpdateReview)
	router.DELETE("/api/reviews/:id", reviewsController.DeleteReview)

	statsController := NewStatsController(cfg.StatsStore)
	router.GET("/api/stats/me", statsController.GetMyStats)
	router.GET("/api/stats/ratings", statsController.GetAverageRatings)
	router.GET("/api/books/:id/stats", statsController.GetBookStats)

	activityController := NewActivityController(cfg.ActivityStore)
	router.GET("/api/activity", activityController.GetFeed)

	// Admin-only endpoints
	if cfg.AuthMiddleware != nil {
		admin := router.Group("/api/admin", cfg.AuthMiddleware.RequireRole(entities.UserRoleAdmin))
		admin.GET("/stats", statsController.GetGlobalStats)
		admin.DELETE("/books/:id", booksController.DeleteBook)
	} else {
		router.GET("/api/admin/stats", statsController.GetGlobalStats)
		router.DELETE("/api/admin/books/:id", booksController.DeleteBook)
	}

	return router
}
