package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"calcapi/internal/auth"
	"calcapi/internal/cache"
	apperrors "calcapi/internal/errors"
	"calcapi/internal/metrics"
	"calcapi/internal/model"
	"calcapi/internal/repository"
)

// ReasonUsernameHasAt is reported for usernames that could be mistaken for an email.
const ReasonUsernameHasAt = "username contains @"

// RegisterInput is a registration form that already passed schema validation.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
}

// Credentials is a login attempt. Identifier is a username or an email.
type Credentials struct {
	Identifier string
	Password   string
}

// AuthResult is returned by a successful Authenticate.
type AuthResult struct {
	User   *model.User
	Tokens *auth.TokenPair
}

// AuthService handles registration, login and token refresh.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenIssuer
	cache    *cache.Client
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service. cache may be nil; it
// is used to drop cached profiles after login bookkeeping.
func NewAuthService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer, cache *cache.Client, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		cache:    cache,
		logger:   logger.Named("auth"),
	}
}

// Register validates the password, hashes it and stores a new active,
// unverified user. Nothing touches the store unless the password passes.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	// Login treats identifiers containing '@' as emails.
	if strings.Contains(in.Username, "@") {
		metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, apperrors.NewValidationError(ReasonUsernameHasAt, "Username must not contain '@'")
	}

	if err := auth.ValidatePassword(in.Password); err != nil {
		metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, verr
		}
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   false,
	}

	err = s.userRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		return repo.Insert(ctx, user)
	})
	if errors.Is(err, apperrors.ErrDuplicateKey) {
		metrics.Registrations.WithLabelValues(metrics.OutcomeConflict).Inc()
		return nil, apperrors.ErrDuplicateKey
	}
	if err != nil {
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("insert user: %w", err)
	}

	metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

// Authenticate verifies creds and issues a token pair. Unknown identifiers
// and wrong passwords fail with the same error after a hash comparison.
func (s *authService) Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error) {
	user, err := s.userRepo.FindByUsernameOrEmail(ctx, creds.Identifier)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		s.hasher.VerifyDummy(creds.Password)
		return nil, s.loginFailed()
	}
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		return nil, s.loginFailed()
	}

	tokens, err := s.issue(user.ID)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	s.afterLogin(ctx, user, creds.Password)

	metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The subject must
// still exist.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	data, err := s.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	if data.UserID == nil {
		return nil, apperrors.ErrInvalidToken
	}

	if _, err := s.userRepo.FindByID(ctx, *data.UserID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return s.issue(*data.UserID)
}

func (s *authService) issue(userID uuid.UUID) (*auth.TokenPair, error) {
	tokens, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return tokens, nil
}

func (s *authService) loginFailed() error {
	metrics.Logins.WithLabelValues(metrics.OutcomeFailed).Inc()
	s.logger.Debug("login failed")
	return apperrors.ErrAuthenticationFailed
}

// afterLogin records the login and migrates stale hashes. Failures here are
// logged and never fail the login.
func (s *authService) afterLogin(ctx context.Context, user *model.User, password string) {
	defer func() { _ = s.cache.Delete(ctx, userCacheKey(user.ID)) }()

	if err := s.userRepo.UpdateTimestamps(ctx, user); err != nil {
		s.logger.Warn("update login timestamp", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("rehash password", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Warn("store rehashed password", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	user.PasswordHash = hash
	s.logger.Info("password hash migrated", zap.String("user_id", user.ID.String()), zap.String("algo", s.hasher.Algorithm()))
}
