// Package users talks to the user-management service, which owns user
// records and password verification.
package users

import (
	"context"
	"fmt"
	"net/http"

	"github.com/homedesigner/auth_service/internal/models"
)

// Directory creates and authenticates users.
type Directory interface {
	CreateUser(ctx context.Context, attrs models.CreateUser) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
}

// Error is a rejection reported by user-management, such as a duplicate
// email or a wrong password. Status is the HTTP status it answered with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("user-management: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("user-management: %s", e.Message)
}

// ClientError reports whether the rejection was caused by the request.
func (e *Error) ClientError() bool {
	return e.Status >= 400 && e.Status < 500
}
