package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"calcapi/internal/auth"
	apperrors "calcapi/internal/errors"
	"calcapi/internal/model"
	"calcapi/internal/repository"
)

type storeFixture struct {
	db     *gorm.DB
	repo   repository.UserRepository
	svc    AuthService
	tokens *auth.TokenIssuer
}

// newStoreFixture wires the real AuthService to an in-memory SQLite store.
func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(&model.User{}))

	hasher, err := auth.NewPasswordHasher(auth.AlgoBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: "test-secret-with-enough-entropy-0123456789", Issuer: "calcapi"})
	require.NoError(t, err)

	repo := repository.NewUserRepository(gdb)
	return &storeFixture{
		db:     gdb,
		repo:   repo,
		svc:    NewAuthService(repo, hasher, tokens, nil, zap.NewNop()),
		tokens: tokens,
	}
}

func TestAuthStore_JaneDoeRegistersAndLogsIn(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, janeDoe())
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsVerified)

	for _, identifier := range []string{"janedoe", "jane.doe@example.com"} {
		t.Run(identifier, func(t *testing.T) {
			result, err := f.svc.Authenticate(ctx, Credentials{Identifier: identifier, Password: "SecurePass123"})
			require.NoError(t, err)
			assert.Equal(t, auth.TokenTypeBearer, result.Tokens.TokenType)

			data, err := f.tokens.DecodeAccess(result.Tokens.AccessToken)
			require.NoError(t, err)
			require.NotNil(t, data.UserID)
			assert.Equal(t, user.ID, *data.UserID)

			stored, err := f.repo.FindByID(ctx, user.ID)
			require.NoError(t, err)
			assert.False(t, stored.UpdatedAt.Before(stored.CreatedAt))
		})
	}

	_, err = f.svc.Authenticate(ctx, Credentials{Identifier: "janedoe", Password: "securepass123"})
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)

	_, err = f.svc.Authenticate(ctx, Credentials{Identifier: "JaneDoe", Password: "SecurePass123"})
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
}

func TestAuthStore_DuplicateLeavesFirstUserIntact(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, janeDoe())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{name: "same username", mutate: func(in *RegisterInput) { in.Email = "other@example.com" }},
		{name: "same email", mutate: func(in *RegisterInput) { in.Username = "otherjane" }},
		{name: "email equal to a stored username", mutate: func(in *RegisterInput) {
			in.Username = "otherjane"
			in.Email = "janedoe"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := janeDoe()
			in.FirstName = "Impostor"
			in.Password = "OtherPass456"
			tt.mutate(&in)

			_, err := f.svc.Register(ctx, in)
			assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
		})
	}

	stored, err := f.repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.FirstName)
	assert.Equal(t, first.PasswordHash, stored.PasswordHash)

	var count int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = f.svc.Authenticate(ctx, Credentials{Identifier: "janedoe", Password: "SecurePass123"})
	assert.NoError(t, err)
}

func TestAuthStore_UsernameCannotShadowAnotherUsersEmail(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	victim, err := f.svc.Register(ctx, RegisterInput{
		Email:    "victim@example.com",
		Username: "victim",
		Password: "SecurePass123",
	})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, RegisterInput{
		Email:    "attacker@example.com",
		Username: "victim@example.com",
		Password: "SecurePass123",
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonUsernameHasAt, verr.Reason)

	// the store refuses it even without the registration flow
	err = f.repo.Insert(ctx, &model.User{
		Email:        "attacker@example.com",
		Username:     "victim@example.com",
		PasswordHash: "bcrypt$x",
	})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)

	// a row written around both checks still cannot capture the email login
	require.NoError(t, f.db.Create(&model.User{
		Email:        "attacker@example.com",
		Username:     "victim@example.com",
		PasswordHash: "bcrypt$x",
	}).Error)

	for i := 0; i < 20; i++ {
		result, err := f.svc.Authenticate(ctx, Credentials{Identifier: "victim@example.com", Password: "SecurePass123"})
		require.NoError(t, err)
		assert.Equal(t, victim.ID, result.User.ID)
	}
}
