package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/homedesigner/auth_service/internal/models"
	"github.com/homedesigner/auth_service/pkg/authz"
)

const (
	DefaultAccessTTL  = 900 * time.Second
	DefaultRefreshTTL = 604800 * time.Second
	DefaultIssuer     = "auth_service"

	payloadVersion = 1
)

var ErrEmptySecret = errors.New("token signing secret is empty")

// TokenCodec issues and verifies self-contained signed tokens.
type TokenCodec interface {
	IssueAccessToken(p models.Principal) (string, error)
	IssueRefreshToken(p models.Principal) (string, error)
	// DecodeAndVerify returns nil for any token that is malformed, forged
	// or expired. Callers must not try to tell these cases apart.
	DecodeAndVerify(token string) *models.Principal
}

type Claims struct {
	UserID  string `json:"user_id,omitempty"`
	Role    string `json:"role,omitempty"`
	Version int    `json:"ver,omitempty"`
	jwt.RegisteredClaims
}

type CodecConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock used for issuing and verifying. Tests only.
	Now func() time.Time
}

// JWTCodec is a TokenCodec over HS256 JWTs.
type JWTCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

var _ TokenCodec = (*JWTCodec)(nil)

func NewJWTCodec(cfg CodecConfig) (*JWTCodec, error) {
	const op = "auth.NewJWTCodec"

	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, fmt.Errorf("%s: negative ttl", op)
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &JWTCodec{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(now),
		),
	}, nil
}

func (c *JWTCodec) IssueAccessToken(p models.Principal) (string, error) {
	return c.issue(p, c.accessTTL)
}

func (c *JWTCodec) IssueRefreshToken(p models.Principal) (string, error) {
	return c.issue(p, c.refreshTTL)
}

func (c *JWTCodec) issue(p models.Principal, ttl time.Duration) (string, error) {
	const op = "auth.issue"

	if strings.TrimSpace(p.UserID) == "" {
		return "", fmt.Errorf("%s: empty user id", op)
	}
	role := p.Role
	if !role.Valid() {
		role = authz.RoleUser
	}

	issuedAt := c.now()
	claims := &Claims{
		UserID:  p.UserID,
		Role:    string(role),
		Version: payloadVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func (c *JWTCodec) DecodeAndVerify(token string) *models.Principal {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}
	if claims.Version > payloadVersion {
		return nil
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil
	}

	return &models.Principal{
		UserID: userID,
		Role:   authz.ParseRole(claims.Role),
	}
}
