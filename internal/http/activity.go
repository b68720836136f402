package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// ActivityStore defines read access to the activity feed.
type ActivityStore interface {
	GetEvents(userID uint, limit, offset int) ([]entities.ActivityEvent, int64, error)
	GetEventsByType(eventType entities.ActivityEventType, userID uint, limit, offset int) ([]entities.ActivityEvent, int64, error)
}

type ActivityController struct {
	store ActivityStore
}

func NewActivityController(store ActivityStore) *ActivityController {
	return &ActivityController{store: store}
}

// GetFeed returns the current user's activity feed, newest first.
// ?type= filters to a single event type.
// GET /api/activity
func (ac *ActivityController) GetFeed(c *gin.Context) {
	limit, offset := parsePagination(c)
	userID := GetUserID(c)

	var events []entities.ActivityEvent
	var total int64
	var err error

	if typeParam := c.Query("type"); typeParam != "" {
		events, total, err = ac.store.GetEventsByType(entities.ActivityEventType(typeParam), userID, limit, offset)
	} else {
		events, total, err = ac.store.GetEvents(userID, limit, offset)
	}
	if err != nil {
		respondInternalError(c, err, "get activity feed")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
