package authz

import "context"

// StatusRequest is the body of POST /auth/status/:id.
type StatusRequest struct {
	AccessToken  string `json:"accessToken"`
	AllowedRoles []Role `json:"allowedRoles"`
}

// StatusResponse answers a StatusRequest.
type StatusResponse struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// Checker decides whether accessToken authenticates userID with one of
// allowedRoles. An error means the decision could not be made.
type Checker interface {
	IsAuthenticated(ctx context.Context, userID, accessToken string, allowedRoles []Role) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, userID, accessToken string, allowedRoles []Role) (bool, error)

func (f CheckerFunc) IsAuthenticated(ctx context.Context, userID, accessToken string, allowedRoles []Role) (bool, error) {
	return f(ctx, userID, accessToken, allowedRoles)
}
