package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/HSL-KM/class-registration-service/internal/cache"
	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	inTx         bool
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// newTxUserPostgreSQL binds the repository to an open transaction.
func newTxUserPostgreSQL(tx *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           tx,
		cacheManager: cache.NewCacheManager(redisClient),
		inTx:         true,
	}
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.getDB(tx)
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	cache.InvalidateUserCache(ctx, u.cacheManager)
	return nil
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).Preload("AdminPermission").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).
		Preload("AdminPermission").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*models.User, error) {
	if len(emails) == 0 {
		return []*models.User{}, nil
	}
	db := u.getDB(tx)
	var users []*models.User
	if err := db.WithContext(ctx).Where("email IN ?", emails).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.getDB(tx)
	if err := db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	cache.InvalidateUserCache(ctx, u.cacheManager)
	return nil
}

func (u *UserPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := u.getDB(tx)

	if _, err := u.GetByID(ctx, tx, id); err != nil {
		return err
	}

	result := db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	cache.InvalidateUserCache(ctx, u.cacheManager)
	return nil
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := u.getDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{})
	if filters.Search != "" {
		pattern := filters.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("name ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("AdminPermission").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListAdmins returns every user holding the admin role, ordered by sub-level.
func (u *UserPostgreSQL) ListAdmins(ctx context.Context, tx *gorm.DB) ([]*models.User, error) {
	db := u.getDB(tx)
	var users []*models.User
	if err := db.WithContext(ctx).
		Joins("JOIN admin_permissions ON admin_permissions.user_id = users.id").
		Preload("AdminPermission").
		Order("admin_permissions.admin_level DESC, users.name ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// AdminEmails returns the email of every user whose roles array contains the
// admin role. The post-commit notification fan-out reads this, so it is cached.
func (u *UserPostgreSQL) AdminEmails(ctx context.Context, tx *gorm.DB) ([]string, error) {
	db := u.getDB(tx)

	fetch := func() (interface{}, error) {
		needle, err := json.Marshal([]string{models.RoleAdmin})
		if err != nil {
			return nil, err
		}
		var emails []string
		if err := db.WithContext(ctx).
			Model(&models.User{}).
			Where("roles @> ? AND is_active = ?", string(needle), true).
			Pluck("email", &emails).Error; err != nil {
			return nil, err
		}
		return emails, nil
	}

	if tx != nil || u.inTx {
		raw, err := fetch()
		if err != nil {
			return nil, err
		}
		return raw.([]string), nil
	}

	var emails []string
	err := u.cacheManager.User.CacheOrExecute(ctx, "admin-emails", &emails, cache.UserCacheConfig.TTL, fetch)
	return emails, err
}

func (u *UserPostgreSQL) CountActiveAdmins(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := u.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.AdminPermission{}).
		Joins("JOIN users ON users.id = admin_permissions.user_id").
		Where("users.is_active = ?", true).
		Count(&count).Error
	return count, err
}

func (u *UserPostgreSQL) UpsertAdminPermission(ctx context.Context, tx *gorm.DB, userID uint, level int) error {
	db := u.getDB(tx)
	perm := models.AdminPermission{UserID: userID, AdminLevel: level}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"admin_level"}),
		}).
		Create(&perm).Error
	if err != nil {
		return fmt.Errorf("failed to upsert admin permission: %w", err)
	}
	cache.SafeDelete(ctx, u.cacheManager.User, "admin-emails")
	return nil
}

func (u *UserPostgreSQL) DeleteAdminPermission(ctx context.Context, tx *gorm.DB, userID uint) error {
	db := u.getDB(tx)
	result := db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.AdminPermission{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete admin permission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, u.cacheManager.User, "admin-emails")
	return nil
}
