package jwt

import (
	"errors"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every verification failure: malformed,
// badly signed, expired or of the wrong kind.
var ErrInvalidToken = errors.New("invalid token")

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Kind  Kind        `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type keyConfig struct {
	secret []byte
	ttl    time.Duration
}

// TokenService signs and verifies access and refresh tokens. It holds no
// state besides its keys and is safe for concurrent use.
type TokenService struct {
	access  keyConfig
	refresh keyConfig
	now     func() time.Time
}

type Option func(*TokenService)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(ts *TokenService) {
		ts.now = now
	}
}

func NewTokenService(accessSecret string, accessTTL time.Duration, refreshSecret string, refreshTTL time.Duration, opts ...Option) *TokenService {
	ts := &TokenService{
		access:  keyConfig{secret: []byte(accessSecret), ttl: accessTTL},
		refresh: keyConfig{secret: []byte(refreshSecret), ttl: refreshTTL},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

func (ts *TokenService) NewTokenPair(user models.User) (TokenPair, error) {
	accessToken, err := ts.IssueAccess(user)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := ts.IssueRefresh(user)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (ts *TokenService) IssueAccess(user models.User) (string, error) {
	return ts.issue(user, KindAccess, ts.access)
}

func (ts *TokenService) IssueRefresh(user models.User) (string, error) {
	return ts.issue(user, KindRefresh, ts.refresh)
}

func (ts *TokenService) issue(user models.User, kind Kind, key keyConfig) (string, error) {
	now := ts.now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key.secret)
}

// Verify parses token and checks signature, expiry and kind.
func (ts *TokenService) Verify(token string, kind Kind) (*Claims, error) {
	var key keyConfig
	switch kind {
	case KindAccess:
		key = ts.access
	case KindRefresh:
		key = ts.refresh
	default:
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
