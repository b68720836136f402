package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// UsersController handles registration, login and profile endpoints.
type UsersController struct {
	auth     *auth.Service
	sessions *auth.SessionManager
}

func NewUsersController(authService *auth.Service, sessions *auth.SessionManager) *UsersController {
	return &UsersController{auth: authService, sessions: sessions}
}

type userResponse struct {
	ID       uint              `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Role     entities.UserRole `json:"role"`
}

func toUserResponse(user *entities.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

// Register creates a new user together with their default shelves
// POST /api/users
func (uc *UsersController) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username, email and password are required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		respondBadRequest(c, "password too short")
		return
	}

	// Self-registration always yields a member; admins are seeded.
	user, err := uc.auth.CreateUser(req.Username, req.Email, req.Password, entities.UserRoleMember)
	if err != nil {
		uc.respondAuthError(c, err, "register user")
		return
	}
	respondCreated(c, toUserResponse(user))
}

// Login authenticates with username and password and starts a session
// POST /login
func (uc *UsersController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	user, err := uc.auth.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAccountLocked) {
			respondError(c, http.StatusTooManyRequests, err.Error())
			return
		}
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if uc.sessions != nil {
		if err := uc.sessions.CreateSession(c.Request, user); err != nil {
			respondInternalError(c, err, "create session")
			return
		}
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout destroys the current session
// POST /logout
func (uc *UsersController) Logout(c *gin.Context) {
	if uc.sessions != nil {
		if err := uc.sessions.DestroySession(c.Request); err != nil {
			respondInternalError(c, err, "destroy session")
			return
		}
	}
	respondSuccess(c, "logged out")
}

// GetProfile returns the authenticated user
// GET /api/users/me
func (uc *UsersController) GetProfile(c *gin.Context) {
	user, err := uc.auth.GetUserByID(GetUserID(c))
	if err != nil {
		uc.respondAuthError(c, err, "get profile")
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// ChangePassword replaces the user's password after verifying the current one
// PUT /api/users/me/password
func (uc *UsersController) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "current_password and new_password are required")
		return
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		respondBadRequest(c, "password too short")
		return
	}

	if err := uc.auth.ChangePassword(GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, http.StatusUnauthorized, "current password is incorrect")
		return
	}
	respondSuccess(c, "password changed")
}

// GenerateToken issues a fresh API token, shown once in plaintext
// POST /api/users/me/token
func (uc *UsersController) GenerateToken(c *gin.Context) {
	token, err := uc.auth.GenerateToken(GetUserID(c))
	if err != nil {
		uc.respondAuthError(c, err, "generate token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetCSRFToken exposes the CSRF token for cookie-based clients
// GET /api/csrf
func (uc *UsersController) GetCSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": auth.GetCSRFToken(c)})
}

func (uc *UsersController) respondAuthError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		respondNotFound(c, "user")
	case errors.Is(err, auth.ErrUserExists):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrUsernameRequired),
		errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrUsernameInvalid),
		errors.Is(err, auth.ErrEmailInvalid),
		errors.Is(err, auth.ErrInvalidRole):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
