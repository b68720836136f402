package http

import (
	"github.com/mrlokans/bookshelf/internal/activity"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database

	// Domain stores
	ShelfStore    ShelfStore
	ReviewStore   ReviewStore
	BookStore     BookStore
	StatsStore    StatsStore
	ActivityStore ActivityStore

	// Activity feed recording
	Activity *activity.Service

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Application info
	Version string
}
