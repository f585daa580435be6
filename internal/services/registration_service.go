package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

// registrationService implements the registration/cancellation core. All
// roster mutations happen inside a single transaction that re-reads the class
// row under an exclusive lock, so two concurrent requests for the same class
// serialize and the capacity check always sees the committed roster.
type registrationService struct {
	repo         repositories.Repository
	activity     ActivityService
	notification NotificationService
	logger       *slog.Logger
}

// NewRegistrationService creates the registration service.
func NewRegistrationService(repo repositories.Repository, activity ActivityService, notification NotificationService, logger *slog.Logger) RegistrationService {
	return &registrationService{
		repo:         repo,
		activity:     activity,
		notification: notification,
		logger:       logger,
	}
}

func (s *registrationService) Register(ctx context.Context, classID string, identity Identity) (*RegistrationResult, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, NewPermissionError(identity.Email, "class", "register", "missing authenticated email")
	}

	var (
		class  *models.ClassSession
		roster []string
	)

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		locked, err := txRepo.Class().GetByClassIDForUpdate(ctx, nil, classID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrClassNotFound
			}
			return fmt.Errorf("failed to lock class %s: %w", classID, err)
		}

		if locked.Status != models.ClassOpen {
			return ErrClassNotOpen
		}

		current := locked.Roster()
		for _, registered := range current {
			if strings.EqualFold(registered, email) {
				return ErrAlreadyRegistered
			}
		}

		if !locked.Unlimited() && len(current) >= locked.MaxParticipants {
			return ErrClassFull
		}

		updated := append(current, email)
		if err := txRepo.Class().UpdateRoster(ctx, nil, classID, updated); err != nil {
			return fmt.Errorf("failed to update roster for class %s: %w", classID, err)
		}

		class = locked
		roster = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered for class",
		"class_id", classID,
		"email", email,
		"registered_count", len(roster),
	)

	// Post-commit side effects never fail the registration.
	s.activity.LogActivity(ctx, identity, models.ActionRegisterClass, models.TargetClass, &classID, map[string]interface{}{
		"class_title": class.Title,
	})
	s.dispatchRegistrationNotices(ctx, class, identity, roster)

	return &RegistrationResult{
		Message: "Successfully registered for the class",
		ClassID: classID,
		Roster:  roster,
	}, nil
}

func (s *registrationService) Cancel(ctx context.Context, classID string, identity Identity) (*RegistrationResult, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, NewPermissionError(identity.Email, "class", "cancel", "missing authenticated email")
	}

	var (
		class  *models.ClassSession
		roster []string
	)

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		locked, err := txRepo.Class().GetByClassIDForUpdate(ctx, nil, classID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrClassNotFound
			}
			return fmt.Errorf("failed to lock class %s: %w", classID, err)
		}

		if locked.Status == models.ClassClosed {
			return ErrClassNotOpen
		}

		current := locked.Roster()
		remaining := make([]string, 0, len(current))
		found := false
		for _, registered := range current {
			if strings.EqualFold(registered, email) {
				found = true
				continue
			}
			remaining = append(remaining, registered)
		}
		if !found {
			return ErrNotRegistered
		}

		if err := txRepo.Class().UpdateRoster(ctx, nil, classID, remaining); err != nil {
			return fmt.Errorf("failed to update roster for class %s: %w", classID, err)
		}

		class = locked
		roster = remaining
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User cancelled class registration",
		"class_id", classID,
		"email", email,
		"registered_count", len(roster),
	)

	s.activity.LogActivity(ctx, identity, models.ActionCancelRegistration, models.TargetClass, &classID, map[string]interface{}{
		"class_title": class.Title,
	})
	s.dispatchCancellationNotices(ctx, class, identity, roster)

	return &RegistrationResult{
		Message: "Registration cancelled successfully",
		ClassID: classID,
		Roster:  roster,
	}, nil
}

// dispatchRegistrationNotices sends the confirmation to the registrant and the
// roster update to the admins. Failures are logged and swallowed.
func (s *registrationService) dispatchRegistrationNotices(ctx context.Context, class *models.ClassSession, identity Identity, roster []string) {
	if err := s.notification.SendRegistrationConfirmation(ctx, identity.Email, class, identity.Name); err != nil {
		s.logger.Error("Failed to send registration confirmation",
			"class_id", class.ClassID, "email", identity.Email, "error", err)
	}

	adminEmails, err := s.repo.User().AdminEmails(ctx, nil)
	if err != nil {
		s.logger.Error("Failed to load admin emails for registration notice",
			"class_id", class.ClassID, "error", err)
		return
	}
	if len(adminEmails) == 0 {
		return
	}

	participants := s.resolveParticipants(ctx, roster)
	registrant := RegistrantInfo{Name: identity.Name, Email: identity.Email, Roles: identity.Roles}
	if err := s.notification.SendAdminRegistrationNotice(ctx, adminEmails, class, registrant, participants); err != nil {
		s.logger.Error("Failed to send admin registration notice",
			"class_id", class.ClassID, "error", err)
	}
}

func (s *registrationService) dispatchCancellationNotices(ctx context.Context, class *models.ClassSession, identity Identity, remaining []string) {
	adminEmails, err := s.repo.User().AdminEmails(ctx, nil)
	if err != nil {
		s.logger.Error("Failed to load admin emails for cancellation notice",
			"class_id", class.ClassID, "error", err)
		return
	}
	if len(adminEmails) == 0 {
		return
	}

	participants := s.resolveParticipants(ctx, remaining)
	if err := s.notification.SendAdminCancellationNotice(ctx, adminEmails, identity.Name, identity.Email, class, participants); err != nil {
		s.logger.Error("Failed to send admin cancellation notice",
			"class_id", class.ClassID, "error", err)
	}
}

// resolveParticipants joins roster emails with user profiles. Emails without a
// user row still appear in the result so admin notices never drop registrants.
func (s *registrationService) resolveParticipants(ctx context.Context, emails []string) []RegistrantInfo {
	infos := make([]RegistrantInfo, 0, len(emails))
	if len(emails) == 0 {
		return infos
	}

	users, err := s.repo.User().GetByEmails(ctx, nil, emails)
	if err != nil {
		s.logger.Warn("Failed to resolve roster profiles", "error", err)
		users = nil
	}

	byEmail := make(map[string]*models.User, len(users))
	for _, u := range users {
		byEmail[strings.ToLower(u.Email)] = u
	}

	for _, email := range emails {
		info := RegistrantInfo{Email: email}
		if u, ok := byEmail[strings.ToLower(email)]; ok {
			info.Name = u.Name
			info.Phone = u.Phone
			info.Roles = u.RoleNames()
		}
		infos = append(infos, info)
	}
	return infos
}
