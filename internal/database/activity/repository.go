package activity

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an activity event to the database.
func (r *Repository) LogEvent(event *entities.ActivityEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// GetEvents retrieves paginated activity events, most recent first.
// userID 0 returns events for all users.
func (r *Repository) GetEvents(userID uint, limit, offset int) ([]entities.ActivityEvent, int64, error) {
	var events []entities.ActivityEvent
	var total int64

	query := r.db.Model(&entities.ActivityEvent{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// GetEventsByType retrieves activity events filtered by type.
func (r *Repository) GetEventsByType(eventType entities.ActivityEventType, userID uint, limit, offset int) ([]entities.ActivityEvent, int64, error) {
	var events []entities.ActivityEvent
	var total int64

	query := r.db.Model(&entities.ActivityEvent{}).Where("event_type = ?", eventType)
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// DeleteOldEvents removes events older than the retention period.
// Returns the number of deleted rows.
func (r *Repository) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.ActivityEvent{})
	return result.RowsAffected, result.Error
}
