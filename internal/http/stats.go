package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/database/stats"
)

// StatsStore defines the read-only aggregate queries.
type StatsStore interface {
	GetUserReadingStats(userID uint) stats.UserReadingStats
	GetBookStatistics(bookID uint) (*stats.BookStatistics, error)
	GetAllBookAverageRatings() (map[uint]float64, error)
	GetGlobalStats() (*stats.GlobalStats, error)
}

type StatsController struct {
	store StatsStore
}

func NewStatsController(store StatsStore) *StatsController {
	return &StatsController{store: store}
}

// GetMyStats returns the current user's shelf and book counts
// GET /api/stats/me
func (sc *StatsController) GetMyStats(c *gin.Context) {
	c.JSON(http.StatusOK, sc.store.GetUserReadingStats(GetUserID(c)))
}

// GetBookStats returns readership and rating breakdown for a book
// GET /api/books/:id/stats
func (sc *StatsController) GetBookStats(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bookStats, err := sc.store.GetBookStatistics(bookID)
	if err != nil {
		respondDomainError(c, err, "get book statistics")
		return
	}
	c.JSON(http.StatusOK, bookStats)
}

// GetAverageRatings returns the mean rating of every reviewed book
// GET /api/stats/ratings
func (sc *StatsController) GetAverageRatings(c *gin.Context) {
	ratings, err := sc.store.GetAllBookAverageRatings()
	if err != nil {
		respondInternalError(c, err, "get average ratings")
		return
	}
	c.JSON(http.StatusOK, ratings)
}

// GetGlobalStats returns platform-wide totals
// GET /api/stats/global
func (sc *StatsController) GetGlobalStats(c *gin.Context) {
	globalStats, err := sc.store.GetGlobalStats()
	if err != nil {
		respondInternalError(c, err, "get global statistics")
		return
	}
	c.JSON(http.StatusOK, globalStats)
}
