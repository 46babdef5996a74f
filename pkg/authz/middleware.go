package authz

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie = "accessToken"

	msgNotAuthorized = "User not authorized"
	msgInternal      = "internal error"
)

type errorResponse struct {
	Message string `json:"message"`
}

type options struct {
	subject func(c *gin.Context) string
	log     *slog.Logger
}

type Option func(*options)

// WithSubject overrides how the guarded user id is taken from the request.
// By default it is the ":id" route param.
func WithSubject(fn func(c *gin.Context) string) Option {
	return func(o *options) {
		o.subject = fn
	}
}

// WithLogger logs checker failures to lgr.
func WithLogger(lgr *slog.Logger) Option {
	return func(o *options) {
		o.log = lgr
	}
}

// RequireAuthentication lets the request through only when checker confirms
// that the presented access token belongs to the subject user and carries
// one of roles. No roles means any role.
//
// The token is read from "Authorization: Bearer <token>" and, failing that,
// from the accessToken cookie.
func RequireAuthentication(checker Checker, roles []Role, opts ...Option) gin.HandlerFunc {
	o := options{
		subject: func(c *gin.Context) string { return c.Param("id") },
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		const op = "authz.RequireAuthentication"

		token := AccessToken(c.Request)
		if token == "" {
			deny(c)
			return
		}

		userID := o.subject(c)
		if userID == "" {
			deny(c)
			return
		}

		ok, err := checker.IsAuthenticated(c.Request.Context(), userID, token, roles)
		if err != nil {
			o.log.Error("authorization check failed", slog.String("op", op), slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Message: msgInternal})
			return
		}
		if !ok {
			deny(c)
			return
		}

		c.Next()
	}
}

func deny(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: msgNotAuthorized})
}

// AccessToken extracts the access token from the bearer header or the
// accessToken cookie. It returns "" when neither carries one.
func AccessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
