package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"atrium/internal/config"
	"atrium/internal/models"
	"atrium/internal/services"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.AdminUser
	roles map[string][]string
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users: make(map[string]*models.AdminUser),
		roles: make(map[string][]string),
	}
}

func (m *memUserStore) add(user *models.AdminUser) *models.AdminUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.ID] = user
	return user
}

func (m *memUserStore) UserByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUserStore) UserByID(ctx context.Context, id string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUserStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) CreateUser(ctx context.Context, user *models.AdminUser) error {
	m.add(user)
	return nil
}

func (m *memUserStore) UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "username":
			u.Username = value.(string)
		case "email":
			u.Email = value.(string)
		case "password_hash":
			u.PasswordHash = value.(string)
		case "role_id":
			u.RoleID = value.(string)
		case "is_active":
			u.IsActive = value.(bool)
		}
	}
	return nil
}

func (m *memUserStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (m *memUserStore) PermissionsForRole(ctx context.Context, roleID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles[roleID], nil
}

func newAuthTestHandler(t *testing.T) (*AuthHandler, *memUserStore, *models.AdminUser) {
	t.Helper()
	store := newMemUserStore()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	role := &models.UserRole{Name: "administrator"}
	role.ID = "role-admin"
	admin := store.add(&models.AdminUser{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		RoleID:       role.ID,
		Role:         role,
		IsActive:     true,
	})
	store.roles[role.ID] = []string{"manage_users"}

	svc := services.NewAuthService(store, config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	})
	return NewAuthHandler(svc), store, admin
}

func TestAuthLogin(t *testing.T) {
	h, _, _ := newAuthTestHandler(t)
	e := newTestEcho()

	rec, c := postJSON(e, "/api/v1/auth", `{
		"action": "login",
		"username": "admin",
		"password": "correct horse"
	}`)
	require.NoError(t, h.Handle(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool              `json:"success"`
		Token   string            `json:"token"`
		User    services.UserInfo `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.User.Username)
	assert.Equal(t, "administrator", resp.User.Role)
}

func TestAuthLoginFailuresIndistinguishable(t *testing.T) {
	h, _, _ := newAuthTestHandler(t)
	e := newTestEcho()

	recUnknown, c := postJSON(e, "/api/v1/auth", `{
		"action": "login", "username": "nobody", "password": "correct horse"
	}`)
	require.NoError(t, h.Handle(c))

	recWrongPass, c := postJSON(e, "/api/v1/auth", `{
		"action": "login", "username": "admin", "password": "wrong"
	}`)
	require.NoError(t, h.Handle(c))

	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, recWrongPass.Code)
	// Byte-identical bodies: the response must not leak whether the username
	// exists.
	assert.Equal(t, recUnknown.Body.String(), recWrongPass.Body.String())
}

func TestAuthUnknownAction(t *testing.T) {
	h, _, _ := newAuthTestHandler(t)
	e := newTestEcho()

	tests := []struct {
		name string
		body string
	}{
		{"unknown action", `{"action": "delete_everything"}`},
		{"missing action", `{"username": "admin"}`},
		{"malformed json", `{"action": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, c := postJSON(e, "/api/v1/auth", tt.body)
			require.NoError(t, h.Handle(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAuthChangePassword(t *testing.T) {
	h, _, admin := newAuthTestHandler(t)
	e := newTestEcho()

	t.Run("wrong current password", func(t *testing.T) {
		rec, c := postJSON(e, "/api/v1/auth", fmt.Sprintf(`{
			"action": "change_password",
			"user_id": %q,
			"current_password": "wrong",
			"new_password": "brand new pass"
		}`, admin.ID))
		require.NoError(t, h.Handle(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("too short", func(t *testing.T) {
		rec, c := postJSON(e, "/api/v1/auth", fmt.Sprintf(`{
			"action": "change_password",
			"user_id": %q,
			"current_password": "correct horse",
			"new_password": "tiny"
		}`, admin.ID))
		require.NoError(t, h.Handle(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		rec, c := postJSON(e, "/api/v1/auth", fmt.Sprintf(`{
			"action": "change_password",
			"user_id": %q,
			"current_password": "correct horse",
			"new_password": "brand new pass"
		}`, admin.ID))
		require.NoError(t, h.Handle(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAuthCreateUser(t *testing.T) {
	h, store, _ := newAuthTestHandler(t)
	e := newTestEcho()

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rec, c := postJSON(e, "/api/v1/auth", `{
			"action": "create_user",
			"username": "admin",
			"password": "long enough",
			"role_id": "b9d7a1de-3c41-4a96-9f0e-33afae4f1c2a"
		}`)
		require.NoError(t, h.Handle(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec, c := postJSON(e, "/api/v1/auth", `{
			"action": "create_user",
			"username": "editor"
		}`)
		require.NoError(t, h.Handle(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		rec, c := postJSON(e, "/api/v1/auth", `{
			"action": "create_user",
			"username": "editor",
			"email": "editor@example.com",
			"password": "long enough",
			"role_id": "b9d7a1de-3c41-4a96-9f0e-33afae4f1c2a"
		}`)
		require.NoError(t, h.Handle(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		taken, err := store.UsernameTaken(context.Background(), "editor")
		require.NoError(t, err)
		assert.True(t, taken)
	})
}

func TestAuthUpdateUser(t *testing.T) {
	h, _, admin := newAuthTestHandler(t)
	e := newTestEcho()

	t.Run("unknown user", func(t *testing.T) {
		rec, c := postJSON(e, "/api/v1/auth", `{
			"action": "update_user",
			"user_id": "missing",
			"email": "x@example.com"
		}`)
		require.NoError(t, h.Handle(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		rec, c := postJSON(e, "/api/v1/auth", fmt.Sprintf(`{
			"action": "update_user",
			"user_id": %q,
			"email": "renamed@example.com"
		}`, admin.ID))
		require.NoError(t, h.Handle(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			User services.UserInfo `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "renamed@example.com", resp.User.Email)
		assert.Equal(t, "admin", resp.User.Username)
	})
}

func TestAuthResetPassword(t *testing.T) {
	h, _, admin := newAuthTestHandler(t)
	e := newTestEcho()

	rec, c := postJSON(e, "/api/v1/auth", fmt.Sprintf(`{
		"action": "reset_password",
		"user_id": %q,
		"new_password": "replacement pass"
	}`, admin.ID))
	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// The new password must be live.
	rec, c = postJSON(e, "/api/v1/auth", `{
		"action": "login",
		"username": "admin",
		"password": "replacement pass"
	}`)
	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
