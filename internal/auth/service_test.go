package auth

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestService(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&entities.User{}, &entities.Shelf{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db, NewService(users.NewRepository(db), config.Auth{BcryptCost: 10})
}

func TestService_CreateUser(t *testing.T) {
	_, svc := setupTestService(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
		role     entities.UserRole
		wantErr  error
	}{
		{
			name:     "valid admin user",
			username: "admin",
			email:    "admin@example.com",
			password: "password12345",
			role:     entities.UserRoleAdmin,
			wantErr:  nil,
		},
		{
			name:     "valid member user",
			username: "reader",
			email:    "reader@example.com",
			password: "password12345",
			role:     entities.UserRoleMember,
			wantErr:  nil,
		},
		{
			name:     "missing username",
			username: "",
			email:    "test@example.com",
			password: "password12345",
			role:     entities.UserRoleMember,
			wantErr:  ErrUsernameRequired,
		},
		{
			name:     "missing email",
			username: "testuser",
			email:    "",
			password: "password12345",
			role:     entities.UserRoleMember,
			wantErr:  ErrEmailRequired,
		},
		{
			name:     "missing password",
			username: "testuser",
			email:    "test@example.com",
			password: "",
			role:     entities.UserRoleMember,
			wantErr:  ErrPasswordRequired,
		},
		{
			name:     "password too short",
			username: "testuser",
			email:    "test@example.com",
			password: "short",
			role:     entities.UserRoleMember,
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "invalid username characters",
			username: "bad user!",
			email:    "test@example.com",
			password: "password12345",
			role:     entities.UserRoleMember,
			wantErr:  ErrUsernameInvalid,
		},
		{
			name:     "invalid email",
			username: "testuser",
			email:    "not-an-email",
			password: "password12345",
			role:     entities.UserRoleMember,
			wantErr:  ErrEmailInvalid,
		},
		{
			name:     "invalid role",
			username: "testuser",
			email:    "test@example.com",
			password: "password12345",
			role:     entities.UserRole("invalid"),
			wantErr:  ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.CreateUser(tt.username, tt.email, tt.password, tt.role)

			if tt.wantErr != nil {
				if err == nil {
					t.Errorf("CreateUser() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateUser() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("CreateUser() unexpected error = %v", err)
				return
			}
			if user == nil {
				t.Error("CreateUser() returned nil user")
				return
			}
			if user.Username != tt.username {
				t.Errorf("user.Username = %v, want %v", user.Username, tt.username)
			}
			if user.Role != tt.role {
				t.Errorf("user.Role = %v, want %v", user.Role, tt.role)
			}
			if user.PasswordHash == "" {
				t.Error("user.PasswordHash is empty")
			}
		})
	}
}

func TestService_CreateUser_ProvisionsShelves(t *testing.T) {
	db, svc := setupTestService(t)

	user, err := svc.CreateUser("alice", "alice@example.com", "password12345", entities.UserRoleMember)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	var count int64
	if err := db.Model(&entities.Shelf{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count shelves: %v", err)
	}
	if count != 3 {
		t.Errorf("new user has %d shelves, want 3", count)
	}
}

func TestService_CreateUser_Duplicate(t *testing.T) {
	_, svc := setupTestService(t)

	_, err := svc.CreateUser("admin", "admin@example.com", "password12345", entities.UserRoleAdmin)
	if err != nil {
		t.Fatalf("Failed to create first user: %v", err)
	}

	_, err = svc.CreateUser("admin", "other@example.com", "password12345", entities.UserRoleMember)
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("Expected ErrUserExists for duplicate username, got %v", err)
	}
}

func TestService_Authenticate(t *testing.T) {
	_, svc := setupTestService(t)

	_, err := svc.CreateUser("testuser", "test@example.com", "password12345", entities.UserRoleMember)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	user, err := svc.Authenticate("testuser", "password12345")
	if err != nil {
		t.Errorf("Authenticate() error = %v for valid credentials", err)
	}
	if user == nil {
		t.Fatal("Authenticate() returned nil user for valid credentials")
	}

	_, err = svc.Authenticate("testuser", "wrongpassword99")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidPassword", err)
	}

	_, err = svc.Authenticate("nobody", "password12345")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Authenticate() error = %v, want ErrUserNotFound", err)
	}
}

func TestService_Authenticate_LocksAfterRepeatedFailures(t *testing.T) {
	_, svc := setupTestService(t)

	_, err := svc.CreateUser("testuser", "test@example.com", "password12345", entities.UserRoleMember)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	for i := 0; i < DefaultMaxAttempts; i++ {
		_, _ = svc.Authenticate("testuser", "wrongpassword99")
	}

	_, err = svc.Authenticate("testuser", "password12345")
	if !errors.Is(err, ErrAccountLocked) {
		t.Errorf("Authenticate() after lockout error = %v, want ErrAccountLocked", err)
	}
}

func TestService_ValidateToken(t *testing.T) {
	_, svc := setupTestService(t)

	user, err := svc.CreateUser("testuser", "test@example.com", "password12345", entities.UserRoleMember)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	token, err := svc.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	found, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("ValidateToken() user ID = %d, want %d", found.ID, user.ID)
	}

	if _, err := svc.ValidateToken("bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.ValidateToken(""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() with empty token error = %v, want ErrInvalidToken", err)
	}
}

func TestService_GenerateToken_ReplacesOldToken(t *testing.T) {
	_, svc := setupTestService(t)

	user, err := svc.CreateUser("testuser", "test@example.com", "password12345", entities.UserRoleMember)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	first, err := svc.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	second, err := svc.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := svc.ValidateToken(first); !errors.Is(err, ErrInvalidToken) {
		t.Error("old token still validates after rotation")
	}
	if _, err := svc.ValidateToken(second); err != nil {
		t.Errorf("new token does not validate: %v", err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	_, svc := setupTestService(t)

	user, err := svc.CreateUser("testuser", "test@example.com", "password12345", entities.UserRoleMember)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrongpassword99", "newpassword12345"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("ChangePassword() with wrong current password error = %v, want ErrInvalidPassword", err)
	}

	if err := svc.ChangePassword(user.ID, "password12345", "newpassword12345"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := svc.Authenticate("testuser", "newpassword12345"); err != nil {
		t.Errorf("Authenticate() with new password error = %v", err)
	}
}
