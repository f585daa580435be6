package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HSL-KM/class-registration-service/internal/events"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

// serviceManager wires the services together and owns their lifecycle.
type serviceManager struct {
	registration RegistrationService
	class        ClassService
	user         UserService
	classRequest ClassRequestService
	evaluation   EvaluationService
	activity     ActivityService
	notification NotificationService

	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

// NewServiceManager builds the full service graph. publisher may be nil when
// no broker is configured.
func NewServiceManager(repo repositories.Repository, v *validator.Validator, publisher events.EventPublisher, logger *slog.Logger) ServiceManager {
	notification := NewNotificationService(publisher, logger)
	activity := NewActivityService(repo, publisher, logger)

	return &serviceManager{
		registration: NewRegistrationService(repo, activity, notification, logger),
		class:        NewClassService(repo, v, activity, logger),
		user:         NewUserService(repo, v, activity, logger),
		classRequest: NewClassRequestService(repo, v, activity, notification, logger),
		evaluation:   NewEvaluationService(repo, v, activity, logger),
		activity:     activity,
		notification: notification,
		repo:         repo,
		publisher:    publisher,
		logger:       logger,
	}
}

func (m *serviceManager) Registration() RegistrationService { return m.registration }
func (m *serviceManager) Class() ClassService               { return m.class }
func (m *serviceManager) User() UserService                 { return m.user }
func (m *serviceManager) ClassRequest() ClassRequestService { return m.classRequest }
func (m *serviceManager) Evaluation() EvaluationService     { return m.evaluation }
func (m *serviceManager) Activity() ActivityService         { return m.activity }
func (m *serviceManager) Notification() NotificationService { return m.notification }

func (m *serviceManager) Initialize(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository not reachable: %w", err)
	}
	m.logger.Info("Service manager initialized")
	return nil
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			m.logger.Error("Failed to close event publisher", "error", err)
		}
	}
	m.logger.Info("Service manager shut down")
	return nil
}

func (m *serviceManager) HealthCheck(ctx context.Context) error {
	return m.repo.Ping(ctx)
}
