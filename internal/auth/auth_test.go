package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

type memoryUsers struct {
	byEmail map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemoryUsers()).WithCost(bcrypt.MinCost)

	user, err := a.Register(ctx, "  Alice@Example.com ", "", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized address", user.Email)
	}
	if user.DisplayName != "alice" {
		t.Errorf("DisplayName = %q, want local part", user.DisplayName)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in clear text")
	}

	tests := []struct {
		name     string
		register bool
		email    string
		password string
		wantErr  error
	}{
		{"login ok", false, "alice@example.com", "correct horse", nil},
		{"login case-insensitive email", false, "ALICE@example.com", "correct horse", nil},
		{"wrong password", false, "alice@example.com", "battery staple", ErrInvalidCredentials},
		{"unknown email", false, "bob@example.com", "correct horse", ErrInvalidCredentials},
		{"duplicate register", true, "alice@example.com", "another password", ErrEmailExists},
		{"weak password", true, "bob@example.com", "short", ErrWeakPassword},
		{"invalid email", true, "not-an-email", "long enough", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.register {
				_, err = a.Register(ctx, tt.email, "Bob", tt.password)
			} else {
				_, err = a.Authenticate(ctx, tt.email, tt.password)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com", DisplayName: "Alice"}

	token, expiresAt, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt %v is not in the future", expiresAt)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@example.com" || claims.DisplayName != "Alice" {
		t.Errorf("claims = %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTManager("test-secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		old, _, err := past.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := m.Validate(old); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate(strings.Repeat("x", 20)); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})
}
