package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
)

// Canonical names of the shelves provisioned for every new user.
const (
	DefaultShelfRead             = "Read"
	DefaultShelfWantToRead       = "Want to Read"
	DefaultShelfCurrentlyReading = "Currently Reading"
)

// DefaultShelfNames lists the default shelves in provisioning order.
var DefaultShelfNames = []string{
	DefaultShelfRead,
	DefaultShelfWantToRead,
	DefaultShelfCurrentlyReading,
}

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string         `gorm:"size:128" json:"-"`
	TokenHash    string         `gorm:"index;size:64" json:"-"` // SHA-256 of the API token
	Role         UserRole       `gorm:"size:20;default:'member'" json:"role"`
	Shelves      []Shelf        `gorm:"foreignKey:UserID" json:"shelves,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Book is a catalog entity. AverageRating and TotalReviews are denormalized
// aggregates owned by the reviews repository; nothing else writes them.
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"index;size:512" json:"title"`
	Author          string    `gorm:"index;size:256" json:"author"`
	ISBN            string    `gorm:"index;size:20" json:"isbn,omitempty"`
	CoverURL        string    `gorm:"size:2048" json:"cover_url,omitempty"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	AverageRating   *float64  `json:"average_rating,omitempty"` // nil until the first review
	TotalReviews    int64     `gorm:"default:0" json:"total_reviews"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Shelf is a named, user-owned collection of book references. Names are
// unique per user, compared case-insensitively; a dedicated unique index on
// (user_id, lower(name)) is created in database.NewDatabase.
type Shelf struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index;not null" json:"user_id"`
	Name      string      `gorm:"size:100" json:"name"`
	IsDefault bool        `gorm:"default:false" json:"is_default"`
	User      User        `gorm:"foreignKey:UserID" json:"-"`
	Items     []ShelfItem `gorm:"foreignKey:ShelfID" json:"items,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// ShelfItem is one membership record linking a shelf to a book.
// AddedAt is immutable once created.
type ShelfItem struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	ShelfID uint      `gorm:"uniqueIndex:idx_shelf_items_shelf_book;not null" json:"shelf_id"`
	BookID  uint      `gorm:"uniqueIndex:idx_shelf_items_shelf_book;not null" json:"book_id"`
	AddedAt time.Time `json:"added_at"`
	Shelf   Shelf     `gorm:"foreignKey:ShelfID" json:"-"`
	Book    Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	BookID    uint      `gorm:"index;not null" json:"book_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Content   string    `gorm:"type:text" json:"content"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Book      Book      `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ActivityEventType string

const (
	ActivityEventShelfAdd     ActivityEventType = "shelf_add"
	ActivityEventShelfMove    ActivityEventType = "shelf_move"
	ActivityEventShelfRemove  ActivityEventType = "shelf_remove"
	ActivityEventReviewAdd    ActivityEventType = "review_add"
	ActivityEventReviewDelete ActivityEventType = "review_delete"
)

type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusFailed  ActivityStatus = "failed"
)

// ActivityEvent records a user-visible action for the activity feed.
type ActivityEvent struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      uint              `gorm:"index" json:"user_id"`
	EventType   ActivityEventType `gorm:"index;size:30" json:"event_type"`
	Action      string            `gorm:"size:100" json:"action"`
	Description string            `gorm:"size:500" json:"description"`
	EntityType  string            `gorm:"size:20" json:"entity_type"` // "book", "shelf" or "review"
	EntityID    uint              `json:"entity_id"`
	Metadata    string            `gorm:"type:text" json:"metadata,omitempty"` // JSON blob
	Status      ActivityStatus    `gorm:"size:20;default:'success'" json:"status"`
	ErrorMsg    string            `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (Shelf) TableName() string {
	return "shelves"
}

func (ShelfItem) TableName() string {
	return "shelf_items"
}

func (Review) TableName() string {
	return "reviews"
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}
