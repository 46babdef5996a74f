package service

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/homedesigner/auth_service/internal/auth"
	"github.com/homedesigner/auth_service/internal/metrics"
	"github.com/homedesigner/auth_service/internal/models"
	"github.com/homedesigner/auth_service/internal/storage"
	"github.com/homedesigner/auth_service/internal/users"
	"github.com/homedesigner/auth_service/pkg/authz"
)

// Service drives a user's session through sign-up/sign-in, access-token
// refresh and sign-out, and answers authorization checks.
type Service interface {
	SignUp(ctx context.Context, attrs models.CreateUser) (AuthData, error)
	SignIn(ctx context.Context, email, password string) (AuthData, error)
	SignOut(ctx context.Context, userID string) error
	IsAuthenticated(ctx context.Context, userID, accessToken string, allowedRoles []authz.Role) bool
	RefreshAccess(ctx context.Context, userID, refreshToken string) (string, error)
}

// AuthData is returned by a successful sign-up or sign-in.
type AuthData struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}

type service struct {
	codec    auth.TokenCodec
	sessions storage.SessionStore
	users    users.Directory
	metrics  *metrics.Metrics
	log      *slog.Logger
}

var _ Service = (*service)(nil)

func NewService(codec auth.TokenCodec, st storage.SessionStore, dir users.Directory, m *metrics.Metrics, lgr *slog.Logger) *service {
	if lgr == nil {
		lgr = slog.New(slog.DiscardHandler)
	}

	return &service{
		codec:    codec,
		sessions: st,
		users:    dir,
		metrics:  m,
		log:      lgr,
	}
}

func (s *service) SignUp(ctx context.Context, attrs models.CreateUser) (AuthData, error) {
	const op = "service.SignUp"

	user, err := s.users.CreateUser(ctx, attrs)
	if err != nil {
		s.metrics.Operation("sign_up", metrics.OutcomeError)
		return AuthData{}, &Error{Kind: KindUpstream, Op: op, Err: err}
	}

	data, err := s.startSession(ctx, op, user)
	if err != nil {
		s.metrics.Operation("sign_up", metrics.OutcomeError)
		return AuthData{}, err
	}

	s.metrics.Operation("sign_up", metrics.OutcomeSuccess)
	s.log.Info("user signed up", slog.String("op", op), slog.String("user_id", user.ID))

	return data, nil
}

func (s *service) SignIn(ctx context.Context, email, password string) (AuthData, error) {
	const op = "service.SignIn"

	user, err := s.users.AuthenticateUser(ctx, email, password)
	if err != nil {
		s.metrics.Operation("sign_in", metrics.OutcomeDenied)
		return AuthData{}, &Error{Kind: KindUpstream, Op: op, Err: err}
	}

	data, err := s.startSession(ctx, op, user)
	if err != nil {
		s.metrics.Operation("sign_in", metrics.OutcomeError)
		return AuthData{}, err
	}

	s.metrics.Operation("sign_in", metrics.OutcomeSuccess)
	s.log.Info("user signed in", slog.String("op", op), slog.String("user_id", user.ID))

	return data, nil
}

// startSession issues a token pair and makes the refresh token the user's
// only valid one, superseding any earlier session.
func (s *service) startSession(ctx context.Context, op string, user models.User) (AuthData, error) {
	if user.ID == "" {
		return AuthData{}, &Error{Kind: KindUpstream, Op: op, Err: errEmptyUserRecord}
	}
	if !user.Role.Valid() {
		user.Role = authz.RoleUser
	}
	principal := user.Principal()

	accessToken, err := s.codec.IssueAccessToken(principal)
	if err != nil {
		return AuthData{}, &Error{Kind: KindInternal, Op: op, Err: err}
	}
	refreshToken, err := s.codec.IssueRefreshToken(principal)
	if err != nil {
		return AuthData{}, &Error{Kind: KindInternal, Op: op, Err: err}
	}

	if err := s.sessions.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return AuthData{}, &Error{Kind: KindInternal, Op: op, Err: err}
	}

	return AuthData{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *service) SignOut(ctx context.Context, userID string) error {
	const op = "service.SignOut"

	if userID == "" {
		return &Error{Kind: KindInvalidInput, Op: op, Err: storage.ErrEmptyUserID}
	}

	if err := s.sessions.SetRefreshToken(ctx, userID, ""); err != nil {
		s.metrics.Operation("sign_out", metrics.OutcomeError)
		return &Error{Kind: KindInternal, Op: op, Err: err}
	}

	s.metrics.Operation("sign_out", metrics.OutcomeSuccess)
	s.log.Info("user signed out", slog.String("op", op), slog.String("user_id", userID))

	return nil
}

func (s *service) IsAuthenticated(_ context.Context, userID, accessToken string, allowedRoles []authz.Role) bool {
	principal := s.codec.DecodeAndVerify(accessToken)

	ok := principal != nil &&
		principal.UserID == userID &&
		principal.Role.Allows(allowedRoles)

	if ok {
		s.metrics.Operation("is_authenticated", metrics.OutcomeSuccess)
	} else {
		s.metrics.Operation("is_authenticated", metrics.OutcomeDenied)
	}

	return ok
}

// RefreshAccess trades a refresh token for a new access token. The token
// must verify, belong to userID and equal the one currently stored for
// userID; the last check is what makes sign-out and re-login revoke
// outstanding refresh tokens before they expire.
func (s *service) RefreshAccess(ctx context.Context, userID, refreshToken string) (string, error) {
	const op = "service.RefreshAccess"

	principal := s.codec.DecodeAndVerify(refreshToken)
	if principal == nil || principal.UserID != userID {
		s.metrics.Operation("refresh_access", metrics.OutcomeDenied)
		return "", ErrInvalidRefreshToken
	}

	stored, err := s.sessions.GetRefreshToken(ctx, userID)
	if err != nil {
		s.metrics.Operation("refresh_access", metrics.OutcomeError)
		return "", &Error{Kind: KindInternal, Op: op, Err: err}
	}

	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		s.metrics.Operation("refresh_access", metrics.OutcomeDenied)
		s.log.Debug("refresh token is not current", slog.String("op", op), slog.String("user_id", userID))
		return "", ErrInvalidRefreshToken
	}

	accessToken, err := s.codec.IssueAccessToken(*principal)
	if err != nil {
		s.metrics.Operation("refresh_access", metrics.OutcomeError)
		return "", &Error{Kind: KindInternal, Op: op, Err: err}
	}

	s.metrics.Operation("refresh_access", metrics.OutcomeSuccess)

	return accessToken, nil
}
