package users

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/homedesigner/auth_service/internal/auth"
	"github.com/homedesigner/auth_service/internal/models"
	"github.com/homedesigner/auth_service/pkg/authz"
)

type localUser struct {
	user         models.User
	passwordHash string
}

// LocalDirectory is an in-process Directory for running the service without
// user-management. Users live in memory only.
type LocalDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]*localUser
}

var _ Directory = (*LocalDirectory)(nil)

func NewLocalDirectory() *LocalDirectory {
	return &LocalDirectory{
		byEmail: make(map[string]*localUser),
	}
}

func (d *LocalDirectory) CreateUser(_ context.Context, attrs models.CreateUser) (models.User, error) {
	const op = "users.CreateUser"

	email := normalizeEmail(attrs.Email)
	if email == "" || attrs.Password == "" {
		return models.User{}, fmt.Errorf("%s: %w", op, &Error{Status: http.StatusBadRequest, Message: "email and password are required"})
	}

	hash, err := auth.HashPassword(attrs.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	role := attrs.Role
	if !role.Valid() {
		role = authz.RoleUser
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byEmail[email]; ok {
		return models.User{}, fmt.Errorf("%s: %w", op, &Error{Status: http.StatusConflict, Message: "email already in use"})
	}

	u := &localUser{
		user: models.User{
			ID:        id.String(),
			Email:     email,
			Nickname:  attrs.Nickname,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		},
		passwordHash: hash,
	}
	d.byEmail[email] = u

	return u.user, nil
}

func (d *LocalDirectory) AuthenticateUser(_ context.Context, email, password string) (models.User, error) {
	const op = "users.AuthenticateUser"

	d.mu.RLock()
	u, ok := d.byEmail[normalizeEmail(email)]
	d.mu.RUnlock()

	if !ok || !auth.CheckPasswordHash(u.passwordHash, password) {
		return models.User{}, fmt.Errorf("%s: %w", op, &Error{Status: http.StatusUnauthorized, Message: "wrong email or password"})
	}

	return u.user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
