package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vidtube/internal/cache"
	"vidtube/internal/models"
	"vidtube/internal/security/password"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetWithSecrets(ctx context.Context, id uint) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateAccount(ctx context.Context, id uint, fullName, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id uint, url string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, id uint, url string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, digest string) error
	SetRefreshToken(ctx context.Context, id uint, token string) error
	SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID returns the user without secrets. Results are cached.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readerFor(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// GetWithSecrets reads the full record, including the password digest and
// refresh token, from the primary database.
func (r *userRepository) GetWithSecrets(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// FindByUsernameOrEmail returns the first user matching either identifier,
// including its password digest. Empty identifiers are ignored; when both
// are empty or nothing matches it returns (nil, nil).
func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	username = models.NormalizeIdentifier(username)
	email = models.NormalizeIdentifier(email)

	q := r.db.WithContext(ctx)
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		return nil, nil
	}

	var user models.User
	if err := q.Order("id").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Normalize()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User with email or username already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateAccount(ctx context.Context, id uint, fullName, email string) (*models.User, error) {
	return r.updateProfile(ctx, id, map[string]interface{}{
		"full_name": fullName,
		"email":     models.NormalizeIdentifier(email),
	})
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id uint, url string) (*models.User, error) {
	return r.updateProfile(ctx, id, map[string]interface{}{"avatar": url})
}

func (r *userRepository) UpdateCoverImage(ctx context.Context, id uint, url string) (*models.User, error) {
	return r.updateProfile(ctx, id, map[string]interface{}{"cover_image": url})
}

// updateProfile writes only the given columns and returns the fresh record.
func (r *userRepository) updateProfile(ctx context.Context, id uint, columns map[string]interface{}) (*models.User, error) {
	result := r.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(columns)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return nil, models.NewConflictError("User with email or username already exists")
		}
		return nil, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)

	user, err := r.GetWithSecrets(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// UpdatePassword stores a new digest. Plaintext is refused.
func (r *userRepository) UpdatePassword(ctx context.Context, id uint, digest string) error {
	if !password.IsDigest(digest) {
		return models.NewInternalError(models.ErrPlaintextPassword)
	}
	return r.updateColumn(ctx, id, "password", digest)
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id uint, token string) error {
	return r.updateColumn(ctx, id, "refresh_token", token)
}

// ClearRefreshToken revokes the current refresh token. Clearing an already
// empty token succeeds.
func (r *userRepository) ClearRefreshToken(ctx context.Context, id uint) error {
	err := r.updateColumn(ctx, id, "refresh_token", "")
	if models.IsCode(err, models.CodeNotFound) {
		return nil
	}
	return err
}

// SwapRefreshToken replaces expected with next only if expected is still the
// stored token. It reports false when another writer got there first.
func (r *userRepository) SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", next)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	cache.InvalidateUser(ctx, id)
	return result.RowsAffected == 1, nil
}

func (r *userRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{ID: id}).Update(column, value)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}
