package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/lib/hasher"
	"github.com/14kear/online_voting/polls-service/internal/lib/jwt"
	"github.com/14kear/online_voting/polls-service/internal/lib/logger"
	"github.com/14kear/online_voting/polls-service/internal/services/mocks"
	"github.com/14kear/online_voting/polls-service/internal/storage"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestTokens() *jwt.TokenService {
	return jwt.NewTokenService("access-secret", 15*time.Minute, "refresh-secret", 7*24*time.Hour,
		jwt.WithClock(func() time.Time { return testNow }))
}

func newTestAuth(t *testing.T, us UserSaver, up UserProvider) *Auth {
	t.Helper()

	h, err := hasher.New(bcrypt.MinCost)
	require.NoError(t, err)

	a := NewAuth(logger.Discard(), us, up, h, newTestTokens())
	a.now = func() time.Time { return testNow }
	return a
}

func mustHash(s string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hash
}

func randomPassword() string {
	return gofakeit.Password(true, true, true, false, false, 12)
}

func TestAuth_Register_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	us := mocks.NewMockUserSaver(ctrl)

	email := "Alice@X.com"
	pass := randomPassword()

	var saved models.User
	us.EXPECT().SaveUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u models.User) error {
		saved = u
		return nil
	})

	a := newTestAuth(t, us, nil)

	pair, user, err := a.Register(context.Background(), email, pass)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	assert.Equal(t, "alice@x.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, saved.ID, user.ID)
	_, err = uuid.Parse(user.ID)
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(saved.PassHash, []byte(pass)))

	claims, err := newTestTokens().Verify(pair.AccessToken, jwt.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "alice@x.com", claims.Email)
}

func TestAuth_Register_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	us := mocks.NewMockUserSaver(ctrl)
	us.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrUserAlreadyExists)

	a := newTestAuth(t, us, nil)

	_, _, err := a.Register(context.Background(), "alice@x.com", randomPassword())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuth_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty email", email: "", password: randomPassword()},
		{name: "malformed email", email: "not-an-email", password: randomPassword()},
		{name: "short password", email: gofakeit.Email(), password: "short"},
		{name: "password over bcrypt limit", email: gofakeit.Email(), password: strings.Repeat("p", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// no storage call is expected
			a := newTestAuth(t, mocks.NewMockUserSaver(ctrl), nil)

			_, _, err := a.Register(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestAuth_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)

	pass := randomPassword()
	user := models.User{
		ID:       uuid.NewString(),
		Email:    "test@test.com",
		PassHash: mustHash(pass),
		Role:     models.RoleAdmin,
	}
	up.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	a := newTestAuth(t, nil, up)

	pair, got, err := a.Login(context.Background(), " Test@Test.com ", pass)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := newTestTokens().Verify(pair.AccessToken, jwt.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuth_Login_UserNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	up.EXPECT().UserByEmail(gomock.Any(), "kaban@mail.ru").Return(models.User{}, storage.ErrUserNotFound)

	a := newTestAuth(t, nil, up)

	_, _, err := a.Login(context.Background(), "kaban@mail.ru", "password")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	user := models.User{ID: uuid.NewString(), Email: "test@test.com", PassHash: mustHash("correct-password"), Role: models.RoleUser}
	up.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	a := newTestAuth(t, nil, up)

	_, _, err := a.Login(context.Background(), user.Email, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_Login_HasherFailureIsNotMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	ph := mocks.NewMockPasswordHasher(ctrl)

	user := models.User{ID: uuid.NewString(), Email: "test@test.com", PassHash: []byte("garbage"), Role: models.RoleUser}
	hashErr := errors.New("malformed hash")
	up.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	ph.EXPECT().Verify("password", user.PassHash).Return(false, hashErr)

	a := NewAuth(logger.Discard(), nil, up, ph, newTestTokens())

	_, _, err := a.Login(context.Background(), user.Email, "password")
	require.Error(t, err)
	assert.ErrorIs(t, err, hashErr)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_Login_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	dbErr := errors.New("connection refused")
	up.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).Return(models.User{}, dbErr)

	a := newTestAuth(t, nil, up)

	_, _, err := a.Login(context.Background(), "test@test.com", "password")
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_Refresh_RereadsUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)

	user := models.User{ID: uuid.NewString(), Email: "b@x.com", Role: models.RoleUser}
	tokens := newTestTokens()
	refresh, err := tokens.IssueRefresh(user)
	require.NoError(t, err)

	promoted := user
	promoted.Role = models.RoleAdmin
	up.EXPECT().UserByID(gomock.Any(), user.ID).Return(promoted, nil)

	a := newTestAuth(t, nil, up)

	pair, got, err := a.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	identity, err := a.ValidateAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{ID: user.ID, Email: user.Email, Role: models.RoleAdmin}, identity)

	_, err = tokens.Verify(pair.RefreshToken, jwt.KindRefresh)
	assert.NoError(t, err)
}

func TestAuth_Refresh_WithAccessToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	user := models.User{ID: uuid.NewString(), Email: "b@x.com", Role: models.RoleUser}
	access, err := newTestTokens().IssueAccess(user)
	require.NoError(t, err)

	// the user is never looked up
	a := newTestAuth(t, nil, mocks.NewMockUserProvider(ctrl))

	_, _, err = a.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuth_Refresh_UnknownSubject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)

	user := models.User{ID: uuid.NewString(), Email: "gone@x.com", Role: models.RoleUser}
	refresh, err := newTestTokens().IssueRefresh(user)
	require.NoError(t, err)

	up.EXPECT().UserByID(gomock.Any(), user.ID).Return(models.User{}, storage.ErrUserNotFound)

	a := newTestAuth(t, nil, up)

	_, _, err = a.Refresh(context.Background(), refresh)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuth_ValidateAccess(t *testing.T) {
	user := models.User{ID: uuid.NewString(), Email: "c@x.com", Role: models.RoleUser}
	tokens := newTestTokens()

	access, err := tokens.IssueAccess(user)
	require.NoError(t, err)
	refresh, err := tokens.IssueRefresh(user)
	require.NoError(t, err)

	a := newTestAuth(t, nil, nil)

	identity, err := a.ValidateAccess(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, user.Identity(), identity)

	_, err = a.ValidateAccess(context.Background(), refresh)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	_, err = a.ValidateAccess(context.Background(), "garbage")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestAuth_SearchUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	up := mocks.NewMockUserProvider(ctrl)
	refs := []models.UserRef{{ID: uuid.NewString(), Email: "alice@x.com"}}
	up.EXPECT().SearchUsersByEmailPrefix(gomock.Any(), "Al", storage.DefaultSearchLimit).Return(refs, nil)

	a := newTestAuth(t, nil, up)

	got, err := a.SearchUsers(context.Background(), " Al ")
	require.NoError(t, err)
	assert.Equal(t, refs, got)

	_, err = a.SearchUsers(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAuth_EnsureAdmin(t *testing.T) {
	t.Run("creates missing admin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		us := mocks.NewMockUserSaver(ctrl)
		up := mocks.NewMockUserProvider(ctrl)

		up.EXPECT().UserByEmail(gomock.Any(), "admin@x.com").Return(models.User{}, storage.ErrUserNotFound)
		us.EXPECT().SaveUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u models.User) error {
			assert.Equal(t, models.RoleAdmin, u.Role)
			return nil
		})

		a := newTestAuth(t, us, up)

		user, err := a.EnsureAdmin(context.Background(), "Admin@X.com", randomPassword())
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("keeps existing account", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		up := mocks.NewMockUserProvider(ctrl)
		existing := models.User{ID: uuid.NewString(), Email: "admin@x.com", Role: models.RoleAdmin}
		up.EXPECT().UserByEmail(gomock.Any(), "admin@x.com").Return(existing, nil)

		a := newTestAuth(t, mocks.NewMockUserSaver(ctrl), up)

		user, err := a.EnsureAdmin(context.Background(), "admin@x.com", randomPassword())
		require.NoError(t, err)
		assert.Equal(t, existing, user)
	})
}
