package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockImageStore is a mock implementation of ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Store(ctx context.Context, prefix, image string) (string, error) {
	args := m.Called(ctx, prefix, image)
	return args.String(0), args.Error(1)
}

type authFixture struct {
	service   *AuthService
	repo      *MockUserRepository
	images    *MockImageStore
	blacklist *auth.InMemoryTokenBlacklist
	jwt       *auth.JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-long-enough",
		Issuer:                 "storefront-test",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		MaxRefreshCount:        3,
	})
	f := &authFixture{
		repo:      new(MockUserRepository),
		images:    new(MockImageStore),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		jwt:       jwtService,
	}
	f.service = NewAuthService(f.repo, jwtService, f.blacklist, f.images, zap.NewNop())
	return f
}

func newTestUser(t *testing.T, email, password string) *identity.User {
	t.Helper()
	user, err := identity.NewUser("Asha", "Rao", email, password, "")
	require.NoError(t, err)
	return user
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(false, nil)
		f.repo.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		resp, err := f.service.Signup(ctx, SignupInput{
			FirstName: "Asha",
			LastName:  "Rao",
			Email:     "  Asha@Example.com ",
			Password:  "secret123",
		})

		require.NoError(t, err)
		assert.Equal(t, "asha@example.com", resp.Email)
		assert.Equal(t, "Asha", resp.FirstName)
		assert.NotEqual(t, uuid.Nil, resp.ID)
		f.images.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(true, nil)

		_, err := f.service.Signup(ctx, SignupInput{FirstName: "Asha", Email: "asha@example.com", Password: "secret123"})

		assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unique violation on save maps to duplicate", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(false, nil)
		f.repo.On("Save", mock.Anything, mock.Anything).
			Return(shared.WrapDomainError("ALREADY_EXISTS", "duplicate", errors.New("23505")))

		_, err := f.service.Signup(ctx, SignupInput{FirstName: "Asha", Email: "asha@example.com", Password: "secret123"})

		assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	})

	t.Run("uploads data url image", func(t *testing.T) {
		f := newAuthFixture(t)
		dataURL := "data:image/png;base64,iVBORw0KGgo="
		f.repo.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(false, nil)
		f.images.On("Store", mock.Anything, "users", dataURL).Return("https://cdn.example.com/users/a.png", nil)
		f.repo.On("Save", mock.Anything, mock.MatchedBy(func(u *identity.User) bool {
			return u.Image == "https://cdn.example.com/users/a.png"
		})).Return(nil)

		resp, err := f.service.Signup(ctx, SignupInput{FirstName: "Asha", Email: "asha@example.com", Password: "secret123", Image: dataURL})

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/users/a.png", resp.Image)
		f.images.AssertExpectations(t)
	})

	t.Run("image store failure", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(false, nil)
		f.images.On("Store", mock.Anything, "users", "data:image/png;base64,AA==").Return("", errors.New("s3 down"))

		_, err := f.service.Signup(ctx, SignupInput{FirstName: "Asha", Email: "asha@example.com", Password: "secret123", Image: "data:image/png;base64,AA=="})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3 down")
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("short password rejected by domain", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(false, nil)

		_, err := f.service.Signup(ctx, SignupInput{FirstName: "Asha", Email: "asha@example.com", Password: "123"})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		f := newAuthFixture(t)
		dbErr := errors.New("connection refused")
		f.repo.On("ExistsByEmail", mock.Anything, "asha@example.com").Return(false, dbErr)

		_, err := f.service.Signup(ctx, SignupInput{FirstName: "Asha", Email: "asha@example.com", Password: "secret123"})

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, "asha@example.com", "secret123")
		f.repo.On("FindByEmail", mock.Anything, "asha@example.com").Return(user, nil)
		f.repo.On("Save", mock.Anything, user).Return(nil)

		result, err := f.service.Login(ctx, LoginInput{Email: "ASHA@example.com", Password: "secret123"})

		require.NoError(t, err)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Equal(t, "asha@example.com", result.User.Email)
		require.NotNil(t, result.Tokens)
		assert.Equal(t, "Bearer", result.Tokens.TokenType)
		assert.NotNil(t, user.LastLoginAt)

		claims, err := f.jwt.ValidateAccessToken(result.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
	})

	t.Run("email not found", func(t *testing.T) {
		f := newAuthFixture(t)
		f.repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.ErrNotFound)

		_, err := f.service.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret123"})

		require.ErrorIs(t, err, ErrEmailNotFound)
		assert.Equal(t, "Email not found, please sign up", err.Error())
	})

	t.Run("storage error is not reported as not found", func(t *testing.T) {
		f := newAuthFixture(t)
		dbErr := errors.New("connection reset")
		f.repo.On("FindByEmail", mock.Anything, "asha@example.com").Return(nil, dbErr)

		_, err := f.service.Login(ctx, LoginInput{Email: "asha@example.com", Password: "secret123"})

		require.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, "asha@example.com", "secret123")
		f.repo.On("FindByEmail", mock.Anything, "asha@example.com").Return(user, nil)

		_, err := f.service.Login(ctx, LoginInput{Email: "asha@example.com", Password: "nope-nope"})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("failing to record login does not fail login", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, "asha@example.com", "secret123")
		f.repo.On("FindByEmail", mock.Anything, "asha@example.com").Return(user, nil)
		f.repo.On("Save", mock.Anything, user).Return(errors.New("read only"))

		result, err := f.service.Login(ctx, LoginInput{Email: "asha@example.com", Password: "secret123"})

		require.NoError(t, err)
		assert.NotEmpty(t, result.Tokens.AccessToken)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates and revokes the consumed token", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, "asha@example.com", "secret123")
		pair, err := f.jwt.GenerateTokenPair(user.ID, user.Email)
		require.NoError(t, err)
		f.repo.On("FindByID", ctx, user.ID).Return(user, nil)

		next, err := f.service.Refresh(ctx, RefreshInput{RefreshToken: pair.RefreshToken})
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
		assert.Equal(t, 1, f.blacklist.Len())

		_, err = f.service.Refresh(ctx, RefreshInput{RefreshToken: pair.RefreshToken})
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		pair, err := f.jwt.GenerateTokenPair(uuid.New(), "asha@example.com")
		require.NoError(t, err)

		_, err = f.service.Refresh(ctx, RefreshInput{RefreshToken: pair.AccessToken})
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.service.Refresh(ctx, RefreshInput{RefreshToken: "not-a-jwt"})
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("deleted user", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := uuid.New()
		pair, err := f.jwt.GenerateTokenPair(userID, "gone@example.com")
		require.NoError(t, err)
		f.repo.On("FindByID", ctx, userID).Return(nil, shared.ErrNotFound)

		_, err = f.service.Refresh(ctx, RefreshInput{RefreshToken: pair.RefreshToken})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := newTestUser(t, "asha@example.com", "secret123")
	pair, err := f.jwt.GenerateTokenPair(user.ID, user.Email)
	require.NoError(t, err)
	claims, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, LogoutInput{
		UserID:    user.ID,
		TokenJTI:  claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
	}))

	revoked, err := f.service.IsTokenRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.NoError(t, f.service.Logout(ctx, LogoutInput{UserID: user.ID}), "missing jti is a no-op")
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newTestUser(t, "asha@example.com", "secret123")
		f.repo.On("FindByID", ctx, user.ID).Return(user, nil)

		resp, err := f.service.CurrentUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, resp.Email)
	})

	t.Run("not found", func(t *testing.T) {
		f := newAuthFixture(t)
		id := uuid.New()
		f.repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.CurrentUser(ctx, id)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
