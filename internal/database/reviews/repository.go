// Package reviews provides database operations for review management and
// keeps the denormalized per-book rating aggregate in sync.
//
// Every mutation of a book's review set (create, update, delete) recomputes
// average_rating and total_reviews from the full current set inside the same
// transaction. The aggregate is never adjusted incrementally: a running sum
// can drift after a missed update, a full recompute cannot.
package reviews

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrBookNotFound     = errors.New("book not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrRatingOutOfRange = errors.New("rating is out of range")
	ErrContentRequired  = errors.New("review content is required")
)

// Repository handles review persistence and rating aggregation.
type Repository struct {
	db      *gorm.DB
	ratings config.Ratings
}

// NewRepository creates a new reviews repository with the configured rating
// bounds. Zero bounds fall back to the defaults.
func NewRepository(db *gorm.DB, ratings config.Ratings) *Repository {
	if ratings.Min == 0 && ratings.Max == 0 {
		ratings = config.Ratings{Min: config.DefaultRatingMin, Max: config.DefaultRatingMax}
	}
	return &Repository{db: db, ratings: ratings}
}

// RatingBounds returns the configured inclusive rating range.
func (r *Repository) RatingBounds() (min, max int) {
	return r.ratings.Min, r.ratings.Max
}

// RecordReview validates and persists a review, then recomputes the book's
// aggregate, all within one transaction.
func (r *Repository) RecordReview(userID, bookID uint, rating int, content string) (*entities.Review, error) {
	if err := r.validate(rating, content); err != nil {
		return nil, err
	}

	review := &entities.Review{
		UserID:  userID,
		BookID:  bookID,
		Rating:  rating,
		Content: strings.TrimSpace(content),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up user %d: %w", userID, err)
		}
		if count == 0 {
			return ErrUserNotFound
		}
		if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up book %d: %w", bookID, err)
		}
		if count == 0 {
			return ErrBookNotFound
		}

		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		return recomputeBookAggregateTx(tx, bookID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateReview changes a review's rating and content and recomputes the
// owning book's aggregate.
func (r *Repository) UpdateReview(reviewID uint, rating int, content string) error {
	if err := r.validate(rating, content); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var review entities.Review
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to load review %d: %w", reviewID, err)
		}

		err := tx.Model(&review).Updates(map[string]any{
			"rating":  rating,
			"content": strings.TrimSpace(content),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update review %d: %w", reviewID, err)
		}

		return recomputeBookAggregateTx(tx, review.BookID)
	})
}

// DeleteReview removes a review and recomputes the owning book's aggregate.
func (r *Repository) DeleteReview(reviewID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var review entities.Review
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to load review %d: %w", reviewID, err)
		}

		if err := tx.Delete(&entities.Review{}, reviewID).Error; err != nil {
			return fmt.Errorf("failed to delete review %d: %w", reviewID, err)
		}

		return recomputeBookAggregateTx(tx, review.BookID)
	})
}

// GetReviewByID retrieves a single review.
func (r *Repository) GetReviewByID(reviewID uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.First(&review, reviewID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to load review %d: %w", reviewID, err)
	}
	return &review, nil
}

// ListReviewsForBook returns a book's reviews, newest first.
func (r *Repository) ListReviewsForBook(bookID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := r.db.Where("book_id = ?", bookID).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	return reviews, err
}

// ListReviewsForUser returns a user's reviews, newest first.
func (r *Repository) ListReviewsForUser(userID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	return reviews, err
}

// ReconcileAllAggregates recomputes the rating aggregate of every book from
// its current review set. Returns the number of books whose stored aggregate
// had drifted. Used by the background reconciliation job.
func (r *Repository) ReconcileAllAggregates() (int64, error) {
	var drifted int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var bookIDs []uint
		if err := tx.Model(&entities.Book{}).Pluck("id", &bookIDs).Error; err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}

		for _, bookID := range bookIDs {
			var book entities.Book
			if err := tx.First(&book, bookID).Error; err != nil {
				return fmt.Errorf("failed to load book %d: %w", bookID, err)
			}

			var agg struct {
				Count int64
				Avg   float64
			}
			err := tx.Model(&entities.Review{}).
				Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
				Where("book_id = ?", bookID).
				Scan(&agg).Error
			if err != nil {
				return fmt.Errorf("failed to aggregate reviews for book %d: %w", bookID, err)
			}

			if aggregateMatches(&book, agg.Count, agg.Avg) {
				continue
			}
			if err := recomputeBookAggregateTx(tx, bookID); err != nil {
				return err
			}
			drifted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return drifted, nil
}

func aggregateMatches(book *entities.Book, count int64, avg float64) bool {
	if book.TotalReviews != count {
		return false
	}
	if count == 0 {
		return book.AverageRating == nil
	}
	return book.AverageRating != nil && *book.AverageRating == avg
}

func (r *Repository) validate(rating int, content string) error {
	if rating < r.ratings.Min || rating > r.ratings.Max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrRatingOutOfRange, rating, r.ratings.Min, r.ratings.Max)
	}
	if strings.TrimSpace(content) == "" {
		return ErrContentRequired
	}
	return nil
}

// recomputeBookAggregateTx recalculates average_rating and total_reviews
// from the full current review set and writes them back with a targeted
// update. A full entity save would clobber unrelated book fields modified
// concurrently.
func recomputeBookAggregateTx(tx *gorm.DB, bookID uint) error {
	var agg struct {
		Count int64
		Avg   float64
	}
	err := tx.Model(&entities.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
		Where("book_id = ?", bookID).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate reviews for book %d: %w", bookID, err)
	}

	updates := map[string]any{
		"average_rating": agg.Avg,
		"total_reviews":  agg.Count,
	}
	if agg.Count == 0 {
		// No reviews: the denormalized average goes back to NULL rather
		// than 0.0, so "unrated" stays distinguishable from "rated zero".
		updates["average_rating"] = nil
	}

	err = tx.Model(&entities.Book{}).Where("id = ?", bookID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update rating aggregate for book %d: %w", bookID, err)
	}
	return nil
}
