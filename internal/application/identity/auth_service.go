package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Object key prefix for uploaded profile images
const userImagePrefix = "users"

var (
	ErrEmailAlreadyRegistered = shared.NewDomainError("ALREADY_EXISTS", "Email already registered")
	ErrEmailNotFound          = shared.NewDomainError("NOT_FOUND", "Email not found, please sign up")
	ErrInvalidCredentials     = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrUserNotFound           = shared.NewDomainError("NOT_FOUND", "User not found")

	ErrTokenExpired    = shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	ErrTokenInvalid    = shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	ErrTokenRevoked    = shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	ErrTokenMaxRefresh = shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
)

// ImageStore persists an uploaded image and returns the reference to store.
// Values that are not data URLs are returned unchanged.
type ImageStore interface {
	Store(ctx context.Context, prefix, image string) (string, error)
}

// AuthService handles signup, login and token lifecycle
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	images     ImageStore
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	images ImageStore,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		images:     images,
		logger:     logger,
		now:        time.Now,
	}
}

// Signup registers a new user. A duplicate email yields ErrEmailAlreadyRegistered.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (_ *UserResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "signup")
	defer telemetry.EndSpan(span, &err)

	email := identity.NormalizeEmail(input.Email)
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	user, err := identity.NewUser(input.FirstName, input.LastName, email, input.Password, "")
	if err != nil {
		return nil, err
	}

	if input.Image != "" {
		image, err := s.images.Store(ctx, userImagePrefix, input.Image)
		if err != nil {
			return nil, fmt.Errorf("store profile image: %w", err)
		}
		user.SetImage(image)
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	logger.Ctx(ctx, s.logger).Info("User signed up", zap.String("user_id", user.ID.String()))

	resp := ToUserResponse(user)
	return &resp, nil
}

// Login authenticates by email and password and issues a token pair.
// Unknown emails yield ErrEmailNotFound; repository failures are returned as is.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (_ *LoginResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer telemetry.EndSpan(span, &err)

	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.CheckPassword(input.Password) {
		logger.Ctx(ctx, s.logger).Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordLogin(s.now())
	if err := s.userRepo.Save(ctx, user); err != nil {
		// Login still succeeds; only the timestamp is lost
		logger.Ctx(ctx, s.logger).Error("Failed to record login", zap.Error(err))
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	logger.Ctx(ctx, s.logger).Info("User logged in", zap.String("user_id", user.ID.String()))

	return &LoginResult{User: ToUserResponse(user), Tokens: tokens}, nil
}

// Refresh exchanges a refresh token for a new pair. The consumed refresh
// token is revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (*auth.TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	pair, consumed, err := s.jwtService.RefreshTokenPair(input.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if err := s.blacklist.Add(ctx, consumed.ID, consumed.RemainingTTL()); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	logger.Ctx(ctx, s.logger).Info("Token refreshed", zap.String("user_id", userID.String()))
	return pair, nil
}

// Logout revokes the access token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" {
		return nil
	}

	ttl := input.ExpiresAt.Sub(s.now())
	if err := s.blacklist.Add(ctx, input.TokenJTI, ttl); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	logger.Ctx(ctx, s.logger).Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// CurrentUser returns the authenticated user's profile
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// IsTokenRevoked reports whether a token ID has been blacklisted
func (s *AuthService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.blacklist.IsBlacklisted(ctx, jti)
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrTokenExpired
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return ErrTokenMaxRefresh
	default:
		return ErrTokenInvalid
	}
}
