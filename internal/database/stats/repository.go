// Package stats provides read-only aggregate queries over shelves, shelf
// items and reviews. The aggregates span relations, so they run as direct
// queries against the stored rows instead of loading entity graphs.
package stats

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

// UserReadingStats summarizes a user's library.
type UserReadingStats struct {
	ShelvesCount int64 `json:"shelves_count"`
	BooksCount   int64 `json:"books_count"`
}

// BookStatistics summarizes a book's readership and ratings.
// RatingDistribution has one bucket per rating value in the configured
// range, zero counts included.
type BookStatistics struct {
	ReadersCount       int64         `json:"readers_count"`
	AverageRating      *float64      `json:"average_rating"`
	RatingDistribution map[int]int64 `json:"rating_distribution"`
}

// GlobalStats summarizes the whole platform.
type GlobalStats struct {
	UsersCount       int64 `json:"users_count"`
	BooksCount       int64 `json:"books_count"`
	ShelvesCount     int64 `json:"shelves_count"`
	ReviewsCount     int64 `json:"reviews_count"`
	BooksWithReviews int64 `json:"books_with_reviews"`
}

// Repository runs the aggregate queries. It never mutates state.
type Repository struct {
	db      *gorm.DB
	ratings config.Ratings
}

// NewRepository creates a new statistics repository.
func NewRepository(db *gorm.DB, ratings config.Ratings) *Repository {
	if ratings.Min == 0 && ratings.Max == 0 {
		ratings = config.Ratings{Min: config.DefaultRatingMin, Max: config.DefaultRatingMax}
	}
	return &Repository{db: db, ratings: ratings}
}

// GetUserReadingStats counts the user's shelves and the shelf items across
// them. The two metrics are computed independently: a failure in one is
// logged and reported as zero without failing the other.
func (r *Repository) GetUserReadingStats(userID uint) UserReadingStats {
	var stats UserReadingStats

	err := r.db.Model(&entities.Shelf{}).
		Where("user_id = ?", userID).
		Count(&stats.ShelvesCount).Error
	if err != nil {
		log.Printf("reading stats: failed to count shelves for user %d: %v", userID, err)
		stats.ShelvesCount = 0
	}

	err = r.db.Model(&entities.ShelfItem{}).
		Joins("JOIN shelves ON shelves.id = shelf_items.shelf_id").
		Where("shelves.user_id = ?", userID).
		Count(&stats.BooksCount).Error
	if err != nil {
		log.Printf("reading stats: failed to count shelf items for user %d: %v", userID, err)
		stats.BooksCount = 0
	}

	return stats
}

// GetBookStatistics returns readership and rating breakdown for one book.
func (r *Repository) GetBookStatistics(bookID uint) (*BookStatistics, error) {
	var count int64
	if err := r.db.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up book %d: %w", bookID, err)
	}
	if count == 0 {
		return nil, ErrBookNotFound
	}

	stats := &BookStatistics{
		RatingDistribution: make(map[int]int64, r.ratings.Max-r.ratings.Min+1),
	}
	for v := r.ratings.Min; v <= r.ratings.Max; v++ {
		stats.RatingDistribution[v] = 0
	}

	err := r.db.Model(&entities.ShelfItem{}).
		Joins("JOIN shelves ON shelves.id = shelf_items.shelf_id").
		Where("shelf_items.book_id = ?", bookID).
		Distinct("shelves.user_id").
		Count(&stats.ReadersCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count readers for book %d: %w", bookID, err)
	}

	var agg struct {
		Count int64
		Avg   float64
	}
	err = r.db.Model(&entities.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
		Where("book_id = ?", bookID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings for book %d: %w", bookID, err)
	}
	if agg.Count > 0 {
		avg := agg.Avg
		stats.AverageRating = &avg
	}

	var buckets []struct {
		Rating int
		Count  int64
	}
	err = r.db.Model(&entities.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Group("rating").
		Scan(&buckets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build rating distribution for book %d: %w", bookID, err)
	}
	for _, b := range buckets {
		stats.RatingDistribution[b.Rating] = b.Count
	}

	return stats, nil
}

// GetAllBookAverageRatings returns the mean rating per book as a single
// GROUP BY query. Books without reviews are absent from the map.
func (r *Repository) GetAllBookAverageRatings() (map[uint]float64, error) {
	var rows []struct {
		BookID uint
		Avg    float64
	}
	err := r.db.Model(&entities.Review{}).
		Select("book_id, AVG(rating) AS avg").
		Group("book_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate book ratings: %w", err)
	}

	ratings := make(map[uint]float64, len(rows))
	for _, row := range rows {
		ratings[row.BookID] = row.Avg
	}
	return ratings, nil
}

// CountBooksWithReviews returns how many books have at least one review.
func (r *Repository) CountBooksWithReviews() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).
		Distinct("book_id").
		Count(&count).Error
	return count, err
}

// GetGlobalStats returns platform-wide totals for the admin surface.
func (r *Repository) GetGlobalStats() (*GlobalStats, error) {
	stats := &GlobalStats{}

	counts := []struct {
		model any
		dest  *int64
		name  string
	}{
		{&entities.User{}, &stats.UsersCount, "users"},
		{&entities.Book{}, &stats.BooksCount, "books"},
		{&entities.Shelf{}, &stats.ShelvesCount, "shelves"},
		{&entities.Review{}, &stats.ReviewsCount, "reviews"},
	}
	for _, c := range counts {
		if err := r.db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
	}

	withReviews, err := r.CountBooksWithReviews()
	if err != nil {
		return nil, fmt.Errorf("failed to count books with reviews: %w", err)
	}
	stats.BooksWithReviews = withReviews

	return stats, nil
}
