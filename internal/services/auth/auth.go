package auth

//go:generate mockgen -source=auth.go -destination=../mocks/auth.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/lib/jwt"
	"github.com/14kear/online_voting/polls-service/internal/storage"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

type Auth struct {
	log          *slog.Logger
	userSaver    UserSaver
	userProvider UserProvider
	hasher       PasswordHasher
	tokens       *jwt.TokenService
	now          func() time.Time
}

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	SearchUsersByEmailPrefix(ctx context.Context, prefix string, limit int) ([]models.UserRef, error)
}

type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, hash []byte) (bool, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

// NewAuth returns a new instance of the Auth service.
func NewAuth(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	hasher PasswordHasher,
	tokens *jwt.TokenService,
) *Auth {
	return &Auth{
		log:          log,
		userSaver:    userSaver,
		userProvider: userProvider,
		hasher:       hasher,
		tokens:       tokens,
		now:          time.Now,
	}
}

// Register creates a user with the user role and returns a fresh token pair.
// A taken email fails with ErrUserExists.
func (a *Auth) Register(ctx context.Context, email, password string) (jwt.TokenPair, models.User, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))
	log.Info("registering user")

	user, err := a.createUser(ctx, email, password, models.RoleUser)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			log.Warn("user already exists")
		}
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := a.tokens.NewTokenPair(user)
	if err != nil {
		log.Error("failed to generate token pair", sl.Err(err))
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", user.ID))

	return pair, user, nil
}

// Login checks the credentials and returns a fresh token pair. An unknown
// email and a wrong password are reported the same way.
func (a *Auth) Login(ctx context.Context, email, password string) (jwt.TokenPair, models.User, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))
	log.Info("attempting to login user")

	user, err := a.userProvider.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))
			return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		log.Error("failed to get user", sl.Err(err))
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := a.hasher.Verify(password, user.PassHash)
	if err != nil {
		log.Error("failed to verify password", sl.Err(err))
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		log.Info("invalid credentials")
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := a.tokens.NewTokenPair(user)
	if err != nil {
		log.Error("failed to generate token pair", sl.Err(err))
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("successfully logged in", slog.String("user_id", user.ID))

	return pair, user, nil
}

// Refresh rotates a refresh token into a new pair. The user is reread by the
// token subject so role changes take effect. Any failure is jwt.ErrInvalidToken,
// except storage faults which are returned as is.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (jwt.TokenPair, models.User, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	claims, err := a.tokens.Verify(refreshToken, jwt.KindRefresh)
	if err != nil {
		log.Info("refresh token rejected")
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}

	user, err := a.userProvider.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("refresh token subject not found", slog.String("user_id", claims.Subject))
			return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
		}

		log.Error("failed to get user", sl.Err(err))
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := a.tokens.NewTokenPair(user)
	if err != nil {
		log.Error("failed to generate token pair", sl.Err(err))
		return jwt.TokenPair{}, models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user, nil
}

// ValidateAccess verifies an access token and returns the identity it carries.
func (a *Auth) ValidateAccess(_ context.Context, accessToken string) (models.Identity, error) {
	const op = "auth.ValidateAccess"

	claims, err := a.tokens.Verify(accessToken, jwt.KindAccess)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	role, err := models.ParseRole(string(claims.Role))
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}

	return models.Identity{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// SearchUsers looks users up by a case-insensitive email prefix.
func (a *Auth) SearchUsers(ctx context.Context, prefix string) ([]models.UserRef, error) {
	const op = "auth.SearchUsers"

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%s: %w: email prefix is required", op, models.ErrValidation)
	}

	refs, err := a.userProvider.SearchUsersByEmailPrefix(ctx, prefix, storage.DefaultSearchLimit)
	if err != nil {
		a.log.Error("failed to search users", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return refs, nil
}

// EnsureAdmin creates the admin account if no user with that email exists.
// An existing account is left untouched, even when it is not an admin.
func (a *Auth) EnsureAdmin(ctx context.Context, email, password string) (models.User, error) {
	const op = "auth.EnsureAdmin"

	log := a.log.With(slog.String("op", op))

	existing, err := a.userProvider.UserByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if !existing.Identity().IsAdmin() {
			log.Warn("bootstrap account exists without admin role", slog.String("user_id", existing.ID))
		}
		return existing, nil
	case !errors.Is(err, storage.ErrUserNotFound):
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.createUser(ctx, email, password, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			// lost a race with another instance
			return a.userProvider.UserByEmail(ctx, normalizeEmail(email))
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin account created", slog.String("user_id", user.ID))

	return user, nil
}

func (a *Auth) createUser(ctx context.Context, email, password string, role models.Role) (models.User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return models.User{}, err
	}

	passHash, err := a.hasher.Hash(password)
	if err != nil {
		a.log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, err
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		PassHash:  passHash,
		Role:      role,
		CreatedAt: a.now().UTC(),
	}

	if err := a.userSaver.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return models.User{}, ErrUserExists
		}
		a.log.Error("failed to save user", sl.Err(err))
		return models.User{}, err
	}

	return user, nil
}

func validateCredentials(email, password string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return fmt.Errorf("%w: email: %s", models.ErrValidation, err.Error())
	}
	if err := validation.Validate(password, validation.Required, validation.Length(minPasswordLen, maxPasswordLen)); err != nil {
		return fmt.Errorf("%w: password: %s", models.ErrValidation, err.Error())
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
