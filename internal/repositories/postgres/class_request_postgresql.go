package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

type ClassRequestPostgreSQL struct {
	db *gorm.DB
}

func NewClassRequestPostgreSQL(db *gorm.DB) repositories.ClassRequestRepository {
	return &ClassRequestPostgreSQL{db: db}
}

func (r *ClassRequestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ClassRequestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, req *models.ClassRequest) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create class request: %w", err)
	}
	return nil
}

func (r *ClassRequestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ClassRequest, error) {
	db := r.getDB(tx)
	var req models.ClassRequest
	if err := db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *ClassRequestPostgreSQL) Update(ctx context.Context, tx *gorm.DB, req *models.ClassRequest) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("failed to update class request: %w", err)
	}
	return nil
}

func (r *ClassRequestPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.ClassRequest{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete class request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ClassRequestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.RequestFilters) ([]*models.ClassRequest, int64, error) {
	db := r.getDB(tx)
	var requests []*models.ClassRequest
	var total int64

	query := db.WithContext(ctx).Model(&models.ClassRequest{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserEmail != nil {
		query = query.Where("user_email = ?", *filters.UserEmail)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}
