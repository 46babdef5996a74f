package authz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("Admin"))
	assert.Equal(t, RoleAdmin, ParseRole(" admin "))
	assert.Equal(t, RoleUser, ParseRole("User"))
	assert.Equal(t, RoleUser, ParseRole(""))
	assert.Equal(t, RoleUser, ParseRole("root"))
}

func TestRoleAllows(t *testing.T) {
	assert.True(t, RoleUser.Allows(nil))
	assert.True(t, RoleAdmin.Allows([]Role{}))
	assert.True(t, RoleAdmin.Allows([]Role{RoleUser, RoleAdmin}))
	assert.False(t, RoleUser.Allows([]Role{RoleAdmin}))
}

type call struct {
	userID, token string
	roles         []Role
}

type fakeChecker struct {
	calls []call
	ok    bool
	err   error
}

func (f *fakeChecker) IsAuthenticated(_ context.Context, userID, accessToken string, allowedRoles []Role) (bool, error) {
	f.calls = append(f.calls, call{userID, accessToken, allowedRoles})
	return f.ok, f.err
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/items/:id", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	return r
}

func TestRequireAuthentication(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		cookie    string
		checker   *fakeChecker
		wantCode  int
		wantToken string
		wantCalls int
	}{
		{
			name:      "bearer accepted",
			header:    "Bearer tok",
			checker:   &fakeChecker{ok: true},
			wantCode:  http.StatusOK,
			wantToken: "tok",
			wantCalls: 1,
		},
		{
			name:      "scheme is case-insensitive",
			header:    "bearer tok",
			checker:   &fakeChecker{ok: true},
			wantCode:  http.StatusOK,
			wantToken: "tok",
			wantCalls: 1,
		},
		{
			name:      "cookie fallback",
			cookie:    "cookie-tok",
			checker:   &fakeChecker{ok: true},
			wantCode:  http.StatusOK,
			wantToken: "cookie-tok",
			wantCalls: 1,
		},
		{
			name:      "header wins over cookie",
			header:    "Bearer tok",
			cookie:    "cookie-tok",
			checker:   &fakeChecker{ok: true},
			wantCode:  http.StatusOK,
			wantToken: "tok",
			wantCalls: 1,
		},
		{
			name:     "no token",
			checker:  &fakeChecker{ok: true},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "other scheme",
			header:   "Basic dXNlcjpwdw==",
			checker:  &fakeChecker{ok: true},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "empty bearer",
			header:   "Bearer ",
			checker:  &fakeChecker{ok: true},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:      "denied",
			header:    "Bearer tok",
			checker:   &fakeChecker{ok: false},
			wantCode:  http.StatusUnauthorized,
			wantToken: "tok",
			wantCalls: 1,
		},
		{
			name:      "checker unavailable",
			header:    "Bearer tok",
			checker:   &fakeChecker{err: errors.New("connection refused")},
			wantCode:  http.StatusInternalServerError,
			wantToken: "tok",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(RequireAuthentication(tt.checker, []Role{RoleAdmin}))

			req := httptest.NewRequest(http.MethodGet, "/items/u-1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			require.Len(t, tt.checker.calls, tt.wantCalls)
			if tt.wantCalls > 0 {
				assert.Equal(t, call{"u-1", tt.wantToken, []Role{RoleAdmin}}, tt.checker.calls[0])
			}

			switch tt.wantCode {
			case http.StatusUnauthorized:
				assert.JSONEq(t, `{"message":"User not authorized"}`, w.Body.String())
			case http.StatusInternalServerError:
				assert.JSONEq(t, `{"message":"internal error"}`, w.Body.String())
			}
		})
	}
}

func TestRequireAuthentication_WithSubject(t *testing.T) {
	checker := &fakeChecker{ok: true}
	mw := RequireAuthentication(checker, nil, WithSubject(func(c *gin.Context) string {
		return c.GetHeader("X-User-ID")
	}))
	r := newRouter(mw)

	req := httptest.NewRequest(http.MethodGet, "/items/ignored", nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("X-User-ID", "u-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, checker.calls, 1)
	assert.Equal(t, "u-9", checker.calls[0].userID)
	assert.Nil(t, checker.calls[0].roles)

	req = httptest.NewRequest(http.MethodGet, "/items/ignored", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Len(t, checker.calls, 1)
}

func TestClient(t *testing.T) {
	var got StatusRequest
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(StatusResponse{IsAuthenticated: got.AccessToken == "good"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/auth/", time.Second)

	ok, err := c.IsAuthenticated(context.Background(), "u-1", "good", []Role{RoleUser, RoleAdmin})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/auth/status/u-1", gotPath)
	assert.Equal(t, StatusRequest{AccessToken: "good", AllowedRoles: []Role{RoleUser, RoleAdmin}}, got)

	ok, err = c.IsAuthenticated(context.Background(), "u-1", "bad", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).IsAuthenticated(context.Background(), "u-1", "tok", nil)
	assert.Error(t, err)

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	_, err = NewClient(dead.URL, 0).IsAuthenticated(context.Background(), "u-1", "tok", nil)
	assert.Error(t, err)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).IsAuthenticated(context.Background(), "u-1", "tok", nil)
	assert.Error(t, err)
}
