package auth

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrAuthRequired     = errors.New("authentication required")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
)

// Service handles authentication and user management.
type Service struct {
	users   *users.Repository
	config  config.Auth
	limiter *LoginLimiter
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:   repo,
		config:  cfg,
		limiter: NewLoginLimiter(DefaultMaxAttempts, DefaultAttemptWindow, DefaultLockout),
	}
}

// CreateUser registers a new user. The users repository provisions the
// default shelves in the same transaction that creates the user row.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 limits addresses to 254 bytes
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	switch role {
	case entities.UserRoleAdmin, entities.UserRoleMember:
	default:
		return nil, ErrInvalidRole
	}

	if _, err := s.users.GetUserByUsername(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, users.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate validates credentials and returns the user. Repeated failed
// attempts for the same username lock further attempts out for a while.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	if s.limiter.IsLocked(username) {
		return nil, ErrAccountLocked
	}

	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			// Burn a bcrypt comparison anyway so missing and existing
			// usernames take the same time to reject.
			_ = CheckPassword(password, dummyHash)
			s.limiter.RecordFailure(username)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.limiter.RecordFailure(username)
		return nil, err
	}

	s.limiter.Reset(username)
	return user, nil
}

// ValidateToken resolves an API token to its user.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByTokenHash(HashToken(token))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// HasUsers reports whether any user accounts exist yet.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.CountUsers()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByID retrieves a user by ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *Service) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(currentPassword, user.PasswordHash); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.UpdateUser(user)
}

// GenerateToken creates a fresh API token for the user, replacing any
// existing one. The plaintext token is returned once and only its SHA-256
// hash is stored.
func (s *Service) GenerateToken(userID uint) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}

	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", err
	}
	user.TokenHash = hash
	if err := s.users.UpdateUser(user); err != nil {
		return "", err
	}
	return plaintext, nil
}

// dummyHash is a valid bcrypt hash of an unguessable value, used to equalize
// timing when the username does not exist.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
