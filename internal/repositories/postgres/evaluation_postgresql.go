package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

type EvaluationPostgreSQL struct {
	db *gorm.DB
}

func NewEvaluationPostgreSQL(db *gorm.DB) repositories.EvaluationRepository {
	return &EvaluationPostgreSQL{db: db}
}

func (e *EvaluationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *EvaluationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, eval *models.Evaluation) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(eval).Error; err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (e *EvaluationPostgreSQL) ExistsByClassAndUser(ctx context.Context, tx *gorm.DB, classID, userEmail string) (bool, error) {
	db := e.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Where("class_id = ? AND user_email = ?", classID, userEmail).
		Count(&count).Error
	return count > 0, err
}

func (e *EvaluationPostgreSQL) ListByClass(ctx context.Context, tx *gorm.DB, classID string) ([]*models.Evaluation, error) {
	db := e.getDB(tx)
	var evals []*models.Evaluation
	if err := db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at ASC").
		Find(&evals).Error; err != nil {
		return nil, err
	}
	return evals, nil
}

func (e *EvaluationPostgreSQL) EvaluatedClassIDs(ctx context.Context, tx *gorm.DB, userEmail string) ([]string, error) {
	db := e.getDB(tx)
	var classIDs []string
	if err := db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Distinct("class_id").
		Where("user_email = ?", userEmail).
		Pluck("class_id", &classIDs).Error; err != nil {
		return nil, err
	}
	return classIDs, nil
}
