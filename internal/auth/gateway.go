package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopapi/internal/httpx"
	"shopapi/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const DefaultTokenTTL = 30 * 24 * time.Hour

var (
	ErrMissingSecret = errors.New("token signing secret is not configured")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrTokenExpired  = errors.New("token expired")
	ErrForbidden     = errors.New("forbidden")
)

// IdentityResolver loads the user a verified token points at.
type IdentityResolver interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

// Claims is the signed payload: the user id plus expiry and issuance times.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

type Gateway struct {
	secret []byte
	ttl    time.Duration
	mode   Mode
	users  IdentityResolver
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Gateway)

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// NewGateway fails without a secret in either mode.
func NewGateway(secret string, mode Mode, users IdentityResolver, opts ...Option) (*Gateway, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if mode != ModeEnforced && mode != ModeOpen {
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}

	g := &Gateway{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		mode:   mode,
		users:  users,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gateway) Mode() Mode { return g.mode }

func (g *Gateway) TTL() time.Duration { return g.ttl }

// IssueToken signs {id: userID} with HS256. The result depends only on the
// secret, the user id and the gateway clock.
func (g *Gateway) IssueToken(userID string) (string, time.Time, error) {
	issuedAt := g.now()
	expiresAt := issuedAt.Add(g.ttl)

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyToken returns the user id inside a valid token. Callers see only
// ErrTokenInvalid or ErrTokenExpired; the parser's reason goes to the debug log.
func (g *Gateway) VerifyToken(tokenString string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil {
		g.logger.Debug("token rejected", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if claims.UserID == "" {
		g.logger.Debug("token rejected", zap.String("reason", "missing id claim"))
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}

// ResolveIdentity loads the acting user. The returned record never carries
// the password hash.
func (g *Gateway) ResolveIdentity(ctx context.Context, userID string) (user.User, error) {
	u, err := g.users.FindByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// RequireRole is a strict equality check on the identity's role.
func (g *Gateway) RequireRole(identity httpx.Identity, role string) error {
	if identity.Role != role {
		return ErrForbidden
	}
	return nil
}
