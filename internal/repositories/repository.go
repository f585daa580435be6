package repositories

import "context"

// Repository aggregates all repository interfaces of the registration portal.
type Repository interface {
	// Class domain
	Class() ClassRepository

	// User domain
	User() UserRepository

	// Class-opening requests
	ClassRequest() ClassRequestRepository

	// Evaluations of completed classes
	Evaluation() EvaluationRepository

	// Audit trail
	ActivityLog() ActivityLogRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
