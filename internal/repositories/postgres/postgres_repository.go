package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/HSL-KM/class-registration-service/internal/cache"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

// PostgreSQLRepository aggregates the per-entity repositories over one
// database handle and one cache manager.
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	class        repositories.ClassRepository
	user         repositories.UserRepository
	classRequest repositories.ClassRequestRepository
	evaluation   repositories.EvaluationRepository
	activityLog  repositories.ActivityLogRepository
}

// RepositoryConfig carries the connections the repositories share. RedisClient
// may be nil; caching then degrades to direct database reads.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	repo.class = NewClassPostgreSQL(config.DB, config.RedisClient)
	repo.user = NewUserPostgreSQL(config.DB, config.RedisClient)
	repo.classRequest = NewClassRequestPostgreSQL(config.DB)
	repo.evaluation = NewEvaluationPostgreSQL(config.DB)
	repo.activityLog = NewActivityLogPostgreSQL(config.DB)

	return repo
}

func (r *PostgreSQLRepository) Class() repositories.ClassRepository {
	return r.class
}

func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

func (r *PostgreSQLRepository) ClassRequest() repositories.ClassRequestRepository {
	return r.classRequest
}

func (r *PostgreSQLRepository) Evaluation() repositories.EvaluationRepository {
	return r.evaluation
}

func (r *PostgreSQLRepository) ActivityLog() repositories.ActivityLogRepository {
	return r.activityLog
}

// WithTransaction executes a function within a database transaction. The
// repository handed to fn routes every query through the transaction, so a
// row lock taken inside is held until commit or rollback.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}

		txRepo.class = newTxClassPostgreSQL(tx, r.redisClient)
		txRepo.user = newTxUserPostgreSQL(tx, r.redisClient)
		txRepo.classRequest = NewClassRequestPostgreSQL(tx)
		txRepo.evaluation = NewEvaluationPostgreSQL(tx)
		txRepo.activityLog = NewActivityLogPostgreSQL(tx)

		return fn(txRepo)
	})
}

// Ping verifies the database and, when configured, the cache are reachable.
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

// Close releases the database connection pool. The Redis client is owned by
// main and closed there.
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// RepositoryManager owns the repository lifecycle: connection checks on
// startup, the shared Repository instance, shutdown.
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize verifies both connections before handing out the repository, so
// a bad DSN fails at startup rather than on the first request.
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
