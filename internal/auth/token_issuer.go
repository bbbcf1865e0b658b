package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "calcapi/internal/errors"
)

const (
	// DefaultAccessTokenExpiry is the lifetime of access tokens when none is configured.
	DefaultAccessTokenExpiry = 15 * time.Minute
	// DefaultRefreshTokenExpiry is the lifetime of refresh tokens when none is configured.
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour

	// TokenTypeBearer is the token_type reported to clients.
	TokenTypeBearer = "bearer"

	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// Claims represents JWT claims.
type Claims struct {
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenIssuer.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AuthData is what a decoded token says about its bearer. A nil UserID
// means the token was valid but carried no subject.
type AuthData struct {
	UserID *uuid.UUID
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a token issuer. Zero TTLs fall back to the defaults.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTokenExpiry
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTokenExpiry
	}
	return &TokenIssuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// Issue creates an access/refresh token pair for userID.
func (s *TokenIssuer) Issue(userID uuid.UUID) (*TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)

	access, err := s.sign(userID.String(), tokenUseAccess, now, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(userID.String(), tokenUseRefresh, now, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        TokenTypeBearer,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// DecodeAccess verifies an access token.
func (s *TokenIssuer) DecodeAccess(token string) (AuthData, error) {
	return s.decode(token, tokenUseAccess)
}

// DecodeRefresh verifies a refresh token.
func (s *TokenIssuer) DecodeRefresh(token string) (AuthData, error) {
	return s.decode(token, tokenUseRefresh)
}

func (s *TokenIssuer) sign(subject, use string, now, exp time.Time) (string, error) {
	claims := &Claims{
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenIssuer) decode(tokenString, use string) (AuthData, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return AuthData{}, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenUse != use {
		return AuthData{}, apperrors.ErrInvalidToken
	}

	if claims.Subject == "" {
		return AuthData{}, nil
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return AuthData{}, apperrors.ErrInvalidToken
	}
	return AuthData{UserID: &id}, nil
}
