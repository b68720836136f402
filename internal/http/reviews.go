package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/activity"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// ReviewStore defines database operations for reviews and rating
// aggregation.
type ReviewStore interface {
	RecordReview(userID, bookID uint, rating int, content string) (*entities.Review, error)
	UpdateReview(reviewID uint, rating int, content string) error
	DeleteReview(reviewID uint) error
	GetReviewByID(reviewID uint) (*entities.Review, error)
	ListReviewsForBook(bookID uint) ([]entities.Review, error)
	ListReviewsForUser(userID uint) ([]entities.Review, error)
}

type ReviewsController struct {
	store    ReviewStore
	activity *activity.Service
}

func NewReviewsController(store ReviewStore, activitySvc *activity.Service) *ReviewsController {
	return &ReviewsController{store: store, activity: activitySvc}
}

// CreateReview records a review and refreshes the book's rating aggregate
// POST /api/books/:id/reviews
func (rc *ReviewsController) CreateReview(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "rating and content are required")
		return
	}

	userID := GetUserID(c)
	review, err := rc.store.RecordReview(userID, bookID, req.Rating, req.Content)
	if err != nil {
		respondDomainError(c, err, "create review")
		return
	}

	rc.activity.LogReviewEvent(userID, entities.ActivityEventReviewAdd, bookID, review.ID, review.Rating, nil)
	respondCreated(c, review)
}

// GetReviewsForBook lists a book's reviews, newest first
// GET /api/books/:id/reviews
func (rc *ReviewsController) GetReviewsForBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bookReviews, err := rc.store.ListReviewsForBook(bookID)
	if err != nil {
		respondInternalError(c, err, "list reviews for book")
		return
	}
	c.JSON(http.StatusOK, bookReviews)
}

// GetMyReviews lists the current user's reviews, newest first
// GET /api/reviews
func (rc *ReviewsController) GetMyReviews(c *gin.Context) {
	userReviews, err := rc.store.ListReviewsForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list reviews for user")
		return
	}
	c.JSON(http.StatusOK, userReviews)
}

// UpdateReview changes a review's rating or content
// PUT /api/reviews/:id
func (rc *ReviewsController) UpdateReview(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	review, err := rc.store.GetReviewByID(reviewID)
	if err != nil {
		respondDomainError(c, err, "load review")
		return
	}
	if review.UserID != GetUserID(c) {
		respondError(c, http.StatusForbidden, "review belongs to a different user")
		return
	}

	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "rating and content are required")
		return
	}

	if err := rc.store.UpdateReview(reviewID, req.Rating, req.Content); err != nil {
		respondDomainError(c, err, "update review")
		return
	}
	respondSuccess(c, "review updated")
}

// DeleteReview removes a review and refreshes the book's rating aggregate
// DELETE /api/reviews/:id
func (rc *ReviewsController) DeleteReview(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID := GetUserID(c)
	review, err := rc.store.GetReviewByID(reviewID)
	if err != nil {
		respondDomainError(c, err, "load review")
		return
	}
	if review.UserID != userID {
		respondError(c, http.StatusForbidden, "review belongs to a different user")
		return
	}

	if err := rc.store.DeleteReview(reviewID); err != nil {
		respondDomainError(c, err, "delete review")
		return
	}

	rc.activity.LogReviewEvent(userID, entities.ActivityEventReviewDelete, review.BookID, reviewID, review.Rating, nil)
	respondSuccess(c, "review deleted")
}
