package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homedesigner/auth_service/internal/models"
	"github.com/homedesigner/auth_service/pkg/authz"
)

func TestClient_CreateUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var attrs models.CreateUser
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&attrs))
		assert.Equal(t, "a@b.com", attrs.Email)
		assert.Equal(t, "pw", attrs.Password)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "665f1c2e9b1d4a0012a3b4c5",
			"email":    attrs.Email,
			"nickname": attrs.Nickname,
			"role":     "User",
			"password": "must be dropped",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	user, err := c.CreateUser(context.Background(), models.CreateUser{
		Email: "a@b.com", Password: "pw", Nickname: "A", Role: authz.RoleUser,
	})
	require.NoError(t, err)

	assert.Equal(t, "665f1c2e9b1d4a0012a3b4c5", user.ID)
	assert.Equal(t, "A", user.Nickname)
	assert.Equal(t, authz.RoleUser, user.Role)
}

func TestClient_AuthenticateUser_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signin", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Wrong email or password"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).AuthenticateUser(context.Background(), "a@b.com", "bad")
	require.Error(t, err)

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, http.StatusUnauthorized, uerr.Status)
	assert.Equal(t, "Wrong email or password", uerr.Message)
	assert.True(t, uerr.ClientError())
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).AuthenticateUser(context.Background(), "a@b.com", "pw")
	require.Error(t, err)

	var uerr *Error
	assert.False(t, errors.As(err, &uerr))
}

func TestLocalDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewLocalDirectory()

	created, err := dir.CreateUser(ctx, models.CreateUser{
		Email: " A@B.com ", Password: "pw", Nickname: "A",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "a@b.com", created.Email)
	assert.Equal(t, authz.RoleUser, created.Role)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := dir.CreateUser(ctx, models.CreateUser{Email: "a@b.com", Password: "x"})
		var uerr *Error
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, http.StatusConflict, uerr.Status)
	})

	t.Run("sign in", func(t *testing.T) {
		user, err := dir.AuthenticateUser(ctx, "a@b.com", "pw")
		require.NoError(t, err)
		assert.Equal(t, created, user)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := dir.AuthenticateUser(ctx, "a@b.com", "nope")
		var uerr *Error
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, http.StatusUnauthorized, uerr.Status)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := dir.AuthenticateUser(ctx, "x@b.com", "pw")
		var uerr *Error
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, http.StatusUnauthorized, uerr.Status)
	})

	t.Run("admin role kept", func(t *testing.T) {
		admin, err := dir.CreateUser(ctx, models.CreateUser{Email: "root@b.com", Password: "pw", Role: authz.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, authz.RoleAdmin, admin.Role)
	})
}
