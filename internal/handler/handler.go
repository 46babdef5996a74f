package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/homedesigner/auth_service/internal/config"
	"github.com/homedesigner/auth_service/internal/metrics"
	"github.com/homedesigner/auth_service/internal/models"
	"github.com/homedesigner/auth_service/internal/service"
	"github.com/homedesigner/auth_service/internal/users"
	"github.com/homedesigner/auth_service/pkg/authz"
)

const msgSignedOut = "Signed out successfully"

type Handler struct {
	serviceLayer   service.Service
	metrics        *metrics.Metrics
	log            *slog.Logger
	cookiesEnabled bool
	accessCookie   cookieManager
	refreshCookie  cookieManager
}

type errorResponse struct {
	Message string `json:"message"`
}

type authResponse struct {
	models.User
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	UserID       string `json:"userId"`
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

func NewHandler(srvc service.Service, cfg *config.Config, m *metrics.Metrics, lgr *slog.Logger) *Handler {
	return &Handler{
		serviceLayer:   srvc,
		metrics:        m,
		log:            lgr,
		cookiesEnabled: cfg.Cookies.Enabled,
		accessCookie: cookieManager{
			name:   accessTokenCookie,
			path:   cfg.Cookies.AccessPath,
			domain: cfg.Cookies.Domain,
			maxAge: cfg.Tokens.AccessTTL(),
			secure: cfg.SecureCookies(),
		},
		refreshCookie: cookieManager{
			name:   refreshTokenCookie,
			path:   cfg.Cookies.RefreshPath,
			domain: cfg.Cookies.Domain,
			maxAge: cfg.Tokens.RefreshTTL(),
			secure: cfg.SecureCookies(),
		},
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.log), h.metrics.Instrument())

	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/signin", h.SignIn)
		auth.POST("/status/:id", h.Status)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/refresh/:id", h.Refresh)

		guard := authz.RequireAuthentication(h.checker(), nil, authz.WithLogger(h.log))
		auth.POST("/signout/:id", guard, h.SignOut)
	}

	return router
}

// checker lets the guard ask the service in-process instead of over HTTP.
func (h *Handler) checker() authz.Checker {
	return authz.CheckerFunc(func(ctx context.Context, userID, accessToken string, allowedRoles []authz.Role) (bool, error) {
		return h.serviceLayer.IsAuthenticated(ctx, userID, accessToken, allowedRoles), nil
	})
}

// GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// POST /auth/signup
func (h *Handler) SignUp(c *gin.Context) {
	const op = "handler.SignUp"

	log := h.log.With(slog.String("op", op))

	var user models.CreateUser
	if err := c.ShouldBindJSON(&user); err != nil {
		log.Error("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "wrong request format")

		return
	}

	if ok := IsValidEmail(user.Email); !ok {
		log.Error("given invalid email", slog.String("email", user.Email))

		newErrorResponse(c, http.StatusBadRequest, "not valid email")

		return
	}

	if user.Password == "" {
		log.Error("given empty password")

		newErrorResponse(c, http.StatusBadRequest, "empty password")

		return
	}

	data, err := h.serviceLayer.SignUp(c.Request.Context(), user)
	if err != nil {
		log.Error("failed to sign up", slog.Any("error", err))

		h.serviceError(c, err)

		return
	}

	h.saveAuthCookies(c, data)

	c.JSON(http.StatusCreated, authResponse{
		User:         data.User,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
	})
}

// POST /auth/signin
func (h *Handler) SignIn(c *gin.Context) {
	const op = "handler.SignIn"

	log := h.log.With(slog.String("op", op))

	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		log.Error("failed to unmarshal credentials", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "wrong request format")

		return
	}

	if creds.Email == "" || creds.Password == "" {
		newErrorResponse(c, http.StatusBadRequest, "email and password are required")

		return
	}

	data, err := h.serviceLayer.SignIn(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		log.Info("failed to sign in", slog.Any("error", err))

		h.serviceError(c, err)

		return
	}

	h.saveAuthCookies(c, data)

	c.JSON(http.StatusOK, authResponse{
		User:         data.User,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
	})
}

// POST /auth/signout/:id
func (h *Handler) SignOut(c *gin.Context) {
	const op = "handler.SignOut"

	log := h.log.With(slog.String("op", op))

	userID := c.Param("id")

	if err := h.serviceLayer.SignOut(c.Request.Context(), userID); err != nil {
		log.Error("failed to sign out", slog.String("user_id", userID), slog.Any("error", err))

		h.serviceError(c, err)

		return
	}

	if h.cookiesEnabled {
		h.accessCookie.expire(c)
		h.refreshCookie.expire(c)
	}

	c.JSON(http.StatusOK, gin.H{"message": msgSignedOut})
}

// POST /auth/status/:id
func (h *Handler) Status(c *gin.Context) {
	const op = "handler.Status"

	var req authz.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("failed to read status request", slog.String("op", op), slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "wrong request format")

		return
	}

	token := req.AccessToken
	if token == "" {
		token = authz.AccessToken(c.Request)
	}

	ok := h.serviceLayer.IsAuthenticated(c.Request.Context(), c.Param("id"), token, req.AllowedRoles)

	c.JSON(http.StatusOK, authz.StatusResponse{IsAuthenticated: ok})
}

// POST /auth/refresh/:id
// POST /auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	const op = "handler.Refresh"

	log := h.log.With(slog.String("op", op))

	var req refreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Error("failed to read refresh request", slog.Any("error", err))

			newErrorResponse(c, http.StatusBadRequest, "wrong request format")

			return
		}
	}

	userID := c.Param("id")
	if userID == "" {
		userID = strings.TrimSpace(req.UserID)
	}
	if userID == "" {
		newErrorResponse(c, http.StatusBadRequest, "user id is required")

		return
	}

	refreshToken := req.RefreshToken
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil && cookie != "" {
		refreshToken = cookie
	}

	accessToken, err := h.serviceLayer.RefreshAccess(c.Request.Context(), userID, refreshToken)
	if err != nil {
		log.Info("refresh rejected", slog.String("user_id", userID), slog.Any("error", err))

		h.serviceError(c, err)

		return
	}

	if h.cookiesEnabled {
		h.accessCookie.save(c, accessToken)
	}

	c.JSON(http.StatusOK, refreshResponse{AccessToken: accessToken})
}

func (h *Handler) saveAuthCookies(c *gin.Context, data service.AuthData) {
	if !h.cookiesEnabled {
		return
	}
	h.accessCookie.save(c, data.AccessToken)
	h.refreshCookie.save(c, data.RefreshToken)
}

// serviceError answers with the status that corresponds to the error kind.
// Rejections from user-management keep their status and message.
func (h *Handler) serviceError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindInvalidRefreshToken:
		newErrorResponse(c, http.StatusUnauthorized, "invalid refresh token")
	case service.KindInvalidInput:
		newErrorResponse(c, http.StatusBadRequest, "invalid input")
	case service.KindUpstream:
		var uerr *users.Error
		if errors.As(err, &uerr) && uerr.ClientError() {
			msg := uerr.Message
			if msg == "" {
				msg = http.StatusText(uerr.Status)
			}
			newErrorResponse(c, uerr.Status, msg)

			return
		}
		newErrorResponse(c, http.StatusInternalServerError, "internal error")
	default:
		newErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
