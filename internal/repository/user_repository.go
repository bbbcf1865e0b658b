package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "calcapi/internal/errors"
	"calcapi/internal/model"
)

// UserRepository defines credential store operations.
type UserRepository interface {
	// FindByUsernameOrEmail returns the user whose email (value contains '@')
	// or username equals value exactly.
	FindByUsernameOrEmail(ctx context.Context, value string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Insert(ctx context.Context, user *model.User) error
	UpdateTimestamps(ctx context.Context, user *model.User) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, value string) (*model.User, error) {
	// Usernames never contain '@', so an identifier with one can only be an email.
	column := "username"
	if strings.Contains(value, "@") {
		column = "email"
	}

	var user model.User
	err := r.db.WithContext(ctx).
		Where(column+" = ?", value).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	// Case-insensitive collations (MySQL default) can match a differently cased row.
	stored := user.Username
	if column == "email" {
		stored = user.Email
	}
	if stored != value {
		return nil, apperrors.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Insert stores a new user. Unique-index violations on username or email
// are reported as ErrDuplicateKey, as is a username equal to a stored email
// or an email equal to a stored username.
func (r *userRepository) Insert(ctx context.Context, user *model.User) error {
	var clashes int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", user.Email, user.Username).
		Count(&clashes).Error
	if err != nil {
		return err
	}
	if clashes > 0 {
		return apperrors.ErrDuplicateKey
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.ErrDuplicateKey
		}
		return err
	}
	return nil
}

// UpdateTimestamps sets updated_at to now on the stored row and on user.
func (r *userRepository) UpdateTimestamps(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("updated_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	user.UpdatedAt = now
	return nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// WithTransaction executes a function within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &userRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

// isDuplicateKey recognizes unique violations whether or not the dialector
// translated them.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
