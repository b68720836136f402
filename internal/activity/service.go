// Package activity provides high-level activity feed logging. Events are
// recorded asynchronously: a failed write is logged and never fails the
// shelf or review operation that triggered it.
package activity

import (
	"encoding/json"
	"log"

	"github.com/mrlokans/bookshelf/internal/database/activity"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Service records activity feed events.
type Service struct {
	repo *activity.Repository
}

// NewService creates a new activity service.
func NewService(repo *activity.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an event synchronously.
func (s *Service) Log(event *entities.ActivityEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.ActivityEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log activity event: %v", err)
		}
	}()
}

// LogShelfEvent records a shelf membership change.
func (s *Service) LogShelfEvent(userID uint, eventType entities.ActivityEventType, bookID, shelfID uint, description string, err error) {
	event := &entities.ActivityEvent{
		UserID:      userID,
		EventType:   eventType,
		Action:      string(eventType),
		Description: description,
		EntityType:  "book",
		EntityID:    bookID,
		Status:      entities.ActivityStatusSuccess,
	}

	metadata := map[string]any{
		"book_id":  bookID,
		"shelf_id": shelfID,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.ActivityStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogReviewEvent records a review creation or deletion.
func (s *Service) LogReviewEvent(userID uint, eventType entities.ActivityEventType, bookID, reviewID uint, rating int, err error) {
	event := &entities.ActivityEvent{
		UserID:      userID,
		EventType:   eventType,
		Action:      string(eventType),
		Description: "review",
		EntityType:  "review",
		EntityID:    reviewID,
		Status:      entities.ActivityStatusSuccess,
	}

	metadata := map[string]any{
		"book_id": bookID,
		"rating":  rating,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.ActivityStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
