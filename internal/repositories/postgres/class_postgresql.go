package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/HSL-KM/class-registration-service/internal/cache"
	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

type ClassPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
	inTx         bool
}

func NewClassPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ClassRepository {
	return &ClassPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// newTxClassPostgreSQL binds the repository to an open transaction. Reads on
// a tx-bound repository always go to the database.
func newTxClassPostgreSQL(tx *gorm.DB, redisClient *redis.Client) repositories.ClassRepository {
	return &ClassPostgreSQL{
		db:           tx,
		helpers:      NewSharedHelpers(tx),
		cacheManager: cache.NewCacheManager(redisClient),
		inTx:         true,
	}
}

func (c *ClassPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *ClassPostgreSQL) bypassCache(tx *gorm.DB) bool {
	return tx != nil || c.inTx
}

func (c *ClassPostgreSQL) Create(ctx context.Context, tx *gorm.DB, class *models.ClassSession) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Create(class).Error; err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	cache.InvalidateClassCache(ctx, c.cacheManager, class.ClassID)
	return nil
}

func (c *ClassPostgreSQL) GetByClassID(ctx context.Context, tx *gorm.DB, classID string) (*models.ClassSession, error) {
	db := c.getDB(tx)
	var class models.ClassSession

	// Reads inside a transaction must not be served from cache
	if c.bypassCache(tx) {
		if err := db.WithContext(ctx).Where("class_id = ?", classID).First(&class).Error; err != nil {
			return nil, err
		}
		return &class, nil
	}

	cacheKey := fmt.Sprintf("id:%s", classID)
	err := c.cacheManager.Class.CacheOrExecute(ctx, cacheKey, &class, cache.ClassCacheConfig.TTL, func() (interface{}, error) {
		var dbClass models.ClassSession
		if err := db.WithContext(ctx).Where("class_id = ?", classID).First(&dbClass).Error; err != nil {
			return nil, err
		}
		return &dbClass, nil
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// GetByClassIDForUpdate selects the class row with an exclusive row lock
// (SELECT ... FOR UPDATE). Concurrent registrations against the same class
// serialize behind this lock; callers must hold an open transaction.
func (c *ClassPostgreSQL) GetByClassIDForUpdate(ctx context.Context, tx *gorm.DB, classID string) (*models.ClassSession, error) {
	db := c.getDB(tx)
	var class models.ClassSession
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("class_id = ?", classID).
		First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (c *ClassPostgreSQL) Update(ctx context.Context, tx *gorm.DB, class *models.ClassSession) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Save(class).Error; err != nil {
		return fmt.Errorf("failed to update class: %w", err)
	}
	cache.InvalidateClassCache(ctx, c.cacheManager, class.ClassID)
	return nil
}

// UpdateRoster writes back only the registered_users column. It is the write
// half of the lock-read-check-write sequence and must run on the same tx that
// acquired the lock.
func (c *ClassPostgreSQL) UpdateRoster(ctx context.Context, tx *gorm.DB, classID string, roster []string) error {
	db := c.getDB(tx)
	raw, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}

	result := db.WithContext(ctx).
		Model(&models.ClassSession{}).
		Where("class_id = ?", classID).
		Update("registered_users", raw)
	if result.Error != nil {
		return fmt.Errorf("failed to update roster: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateClassCache(ctx, c.cacheManager, classID)
	return nil
}

func (c *ClassPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, classID string) error {
	db := c.getDB(tx)
	result := db.WithContext(ctx).Where("class_id = ?", classID).Delete(&models.ClassSession{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete class: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateClassCache(ctx, c.cacheManager, classID)
	return nil
}

// classListPage is the cached shape of one filtered listing.
type classListPage struct {
	Classes []*models.ClassSession `json:"classes"`
	Total   int64                  `json:"total"`
}

func classListCacheKey(f repositories.ClassFilters) string {
	status, creator, promoted := "", "", ""
	if f.Status != nil {
		status = string(*f.Status)
	}
	if f.CreatedByEmail != nil {
		creator = *f.CreatedByEmail
	}
	if f.Promoted != nil {
		promoted = strconv.FormatBool(*f.Promoted)
	}
	return fmt.Sprintf("list:%s|%s|%s|%s|%d|%d|%s|%s",
		status, creator, promoted, f.Search, f.Limit, f.Offset, f.SortBy, f.SortOrder)
}

func (c *ClassPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ClassFilters) ([]*models.ClassSession, int64, error) {
	db := c.getDB(tx)

	fetch := func() (*classListPage, error) {
		var classes []*models.ClassSession
		var total int64

		query := db.WithContext(ctx).Model(&models.ClassSession{})
		query = c.helpers.ApplyClassFilters(query, filters)

		if err := query.Count(&total).Error; err != nil {
			return nil, err
		}

		query = c.helpers.ApplyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, "created_at DESC")
		if err := query.Find(&classes).Error; err != nil {
			return nil, err
		}

		for _, class := range classes {
			class.RegisteredCount = len(class.Roster())
		}
		return &classListPage{Classes: classes, Total: total}, nil
	}

	if c.bypassCache(tx) {
		page, err := fetch()
		if err != nil {
			return nil, 0, err
		}
		return page.Classes, page.Total, nil
	}

	var page classListPage
	err := c.cacheManager.Class.CacheOrExecute(ctx, classListCacheKey(filters), &page, cache.ClassCacheConfig.TTL, func() (interface{}, error) {
		return fetch()
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Classes, page.Total, nil
}

func (c *ClassPostgreSQL) ListPromoted(ctx context.Context, tx *gorm.DB) ([]*models.ClassSession, error) {
	db := c.getDB(tx)
	var classes []*models.ClassSession

	fetch := func() (interface{}, error) {
		var dbClasses []*models.ClassSession
		if err := db.WithContext(ctx).
			Where("promoted = ? AND status <> ?", true, models.ClassClosed).
			Order("start_date ASC").
			Find(&dbClasses).Error; err != nil {
			return nil, err
		}
		return dbClasses, nil
	}

	if c.bypassCache(tx) {
		raw, err := fetch()
		if err != nil {
			return nil, err
		}
		return raw.([]*models.ClassSession), nil
	}

	err := c.cacheManager.Class.CacheOrExecute(ctx, "promoted", &classes, cache.ClassCacheConfig.TTL, fetch)
	return classes, err
}

// ListClosedRegisteredBy returns the closed classes whose roster contains the
// given email, used for the evaluation view.
func (c *ClassPostgreSQL) ListClosedRegisteredBy(ctx context.Context, tx *gorm.DB, email string) ([]*models.ClassSession, error) {
	db := c.getDB(tx)
	needle, err := json.Marshal([]string{email})
	if err != nil {
		return nil, fmt.Errorf("failed to encode email: %w", err)
	}

	var classes []*models.ClassSession
	if err := db.WithContext(ctx).
		Where("status = ? AND registered_users @> ?", models.ClassClosed, string(needle)).
		Order("end_date DESC").
		Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (c *ClassPostgreSQL) ExistsByClassID(ctx context.Context, tx *gorm.DB, classID string) (bool, error) {
	db := c.getDB(tx)

	check := func() (bool, error) {
		var count int64
		err := db.WithContext(ctx).
			Model(&models.ClassSession{}).
			Where("class_id = ?", classID).
			Count(&count).Error
		return count > 0, err
	}

	// The ID generator probes candidate IDs here; a cached "absent" answer
	// could hand out a duplicate, so existence checks inside a tx hit the DB.
	if c.bypassCache(tx) {
		return check()
	}

	var exists bool
	cacheKey := fmt.Sprintf("class:%s", classID)
	err := c.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		found, err := check()
		return found, err
	})
	return exists, err
}
