package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

type ActivityLogPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewActivityLogPostgreSQL(db *gorm.DB) repositories.ActivityLogRepository {
	return &ActivityLogPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a *ActivityLogPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *ActivityLogPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create activity log entry: %w", err)
	}
	return nil
}

func (a *ActivityLogPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ActivityLogFilters) *gorm.DB {
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("user_name ILIKE ? OR user_email ILIKE ?", pattern, pattern)
	}
	if filters.ActionType != "" {
		query = query.Where("action_type = ?", filters.ActionType)
	}
	if filters.DateFrom != nil {
		query = query.Where("timestamp >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("timestamp <= ?", *filters.DateTo)
	}
	return query
}

func (a *ActivityLogPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ActivityLogFilters) ([]*models.ActivityLog, int64, error) {
	db := a.getDB(tx)
	var entries []*models.ActivityLog
	var total int64

	query := db.WithContext(ctx).Model(&models.ActivityLog{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("timestamp DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListAll returns every matching entry without pagination, for exports.
func (a *ActivityLogPostgreSQL) ListAll(ctx context.Context, tx *gorm.DB, filters repositories.ActivityLogFilters) ([]*models.ActivityLog, error) {
	db := a.getDB(tx)
	var entries []*models.ActivityLog

	query := db.WithContext(ctx).Model(&models.ActivityLog{})
	query = a.applyFilters(query, filters)

	if err := query.Order("timestamp DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
