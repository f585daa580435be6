package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	validator *validator.Validator
	activity  ActivityService
	logger    *slog.Logger
}

// NewUserService creates the user and admin management service.
func NewUserService(repo repositories.Repository, v *validator.Validator, activity ActivityService, logger *slog.Logger) UserService {
	return &userService{repo: repo, validator: v, activity: activity, logger: logger}
}

// CheckOrCreate backs the OAuth callback: it finds or provisions the user row
// for the authenticated email and tells the frontend whether the profile
// still needs completion.
func (s *userService) CheckOrCreate(ctx context.Context, email string) (*CheckOrCreateResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validator.Validate(&validator.CheckOrCreateUserRequest{Email: email}); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up user %s: %w", email, err)
	}

	if user == nil || repositories.IsNotFoundError(err) {
		user = &models.User{Email: email, IsActive: true}
		user.SetRoles(nil)
		if err := s.repo.User().Create(ctx, nil, user); err != nil {
			if repositories.IsDuplicateError(err) {
				// Lost a race with a concurrent callback for the same email.
				user, err = s.repo.User().GetByEmail(ctx, nil, email)
				if err != nil {
					return nil, fmt.Errorf("failed to load user %s after create race: %w", email, err)
				}
			} else {
				return nil, fmt.Errorf("failed to create user %s: %w", email, err)
			}
		} else {
			s.logger.Info("User provisioned", "email", email)
			s.activity.LogActivity(ctx, Identity{UserID: &user.ID, Name: user.Name, Email: email}, models.ActionCreateUser, models.TargetUser, nil, nil)
		}
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Every successful callback is a login.
	s.activity.LogActivity(ctx, Identity{UserID: &user.ID, Name: user.Name, Email: email},
		models.ActionLoginSuccess, models.TargetSession, nil, map[string]interface{}{
			"profile_completed": user.ProfileCompleted,
		})

	status := "ok"
	if !user.ProfileCompleted {
		status = "profile_incomplete"
	}
	return &CheckOrCreateResult{Status: status, User: user}, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", email, err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UpdateProfile completes or edits the caller's own profile. The first
// successful update flips profile_completed.
func (s *userService) UpdateProfile(ctx context.Context, req *UpdateProfileRequest, actor Identity) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.GetByEmail(ctx, actor.Email)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Phone = req.Phone
	user.PDPAConsent = req.PDPAConsent
	user.OriginalName = req.OriginalName
	user.NameUpdatedByUser = req.NameUpdatedByUser
	user.ProfileCompleted = true
	user.SetRoles(req.Roles)

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update profile for %s: %w", actor.Email, err)
	}
	return user, nil
}

func (s *userService) UpdateRoles(ctx context.Context, id uint, roles []string, actor Identity) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Stripping the admin role from the last active admin would lock everyone
	// out of the administration panel.
	if user.HasRole(models.RoleAdmin) && !containsRole(roles, models.RoleAdmin) {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return nil, err
		}
	}

	user.SetRoles(roles)
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update roles for user %d: %w", id, err)
	}
	return user, nil
}

func (s *userService) UpdateStatus(ctx context.Context, id uint, isActive bool, actor Identity) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !isActive && user.HasRole(models.RoleAdmin) {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return err
		}
	}

	user.IsActive = isActive
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return fmt.Errorf("failed to update status for user %d: %w", id, err)
	}

	s.logger.Info("User status changed", "user_id", id, "is_active", isActive, "changed_by", actor.Email)
	return nil
}

func (s *userService) Delete(ctx context.Context, id uint, actor Identity) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if actor.UserID != nil && *actor.UserID == id {
		return ErrSelfRevoke
	}
	if user.HasRole(models.RoleAdmin) {
		if err := s.ensureNotLastAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	s.logger.Info("User deleted", "user_id", id, "email", user.Email, "deleted_by", actor.Email)
	return nil
}

func (s *userService) ListAdmins(ctx context.Context) ([]*models.User, error) {
	admins, err := s.repo.User().ListAdmins(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

func (s *userService) AppointAdmin(ctx context.Context, req *AppointAdminRequest, actor Identity) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.GetByID(ctx, req.UserID)
	if err != nil {
		return err
	}

	if !user.HasRole(models.RoleAdmin) {
		user.SetRoles(append(user.RoleNames(), models.RoleAdmin))
		if err := s.repo.User().Update(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to grant admin role to user %d: %w", req.UserID, err)
		}
	}
	if err := s.repo.User().UpsertAdminPermission(ctx, nil, req.UserID, req.AdminLevel); err != nil {
		return fmt.Errorf("failed to set admin level for user %d: %w", req.UserID, err)
	}

	targetID := fmt.Sprintf("%d", req.UserID)
	s.activity.LogActivity(ctx, actor, models.ActionAppointAdmin, models.TargetUser, &targetID, map[string]interface{}{
		"email":       user.Email,
		"admin_level": req.AdminLevel,
	})
	return nil
}

func (s *userService) ChangeAdminLevel(ctx context.Context, userID uint, level int, actor Identity) error {
	if err := s.validator.Validate(&validator.AdminLevelRequest{AdminLevel: level}); err != nil {
		return err
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasRole(models.RoleAdmin) {
		return ErrAdminNotFound
	}

	if err := s.repo.User().UpsertAdminPermission(ctx, nil, userID, level); err != nil {
		return fmt.Errorf("failed to change admin level for user %d: %w", userID, err)
	}

	targetID := fmt.Sprintf("%d", userID)
	s.activity.LogActivity(ctx, actor, models.ActionChangeAdminLevel, models.TargetUser, &targetID, map[string]interface{}{
		"email":       user.Email,
		"admin_level": level,
	})
	return nil
}

func (s *userService) RevokeAdmin(ctx context.Context, userID uint, actor Identity) error {
	if actor.UserID != nil && *actor.UserID == userID {
		return ErrSelfRevoke
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasRole(models.RoleAdmin) {
		return ErrAdminNotFound
	}
	if err := s.ensureNotLastAdmin(ctx); err != nil {
		return err
	}

	roles := make([]string, 0)
	for _, r := range user.RoleNames() {
		if r != models.RoleAdmin {
			roles = append(roles, r)
		}
	}
	user.SetRoles(roles)
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return fmt.Errorf("failed to revoke admin role from user %d: %w", userID, err)
	}
	if err := s.repo.User().DeleteAdminPermission(ctx, nil, userID); err != nil {
		return fmt.Errorf("failed to drop admin level for user %d: %w", userID, err)
	}

	targetID := fmt.Sprintf("%d", userID)
	s.activity.LogActivity(ctx, actor, models.ActionRevokeAdmin, models.TargetUser, &targetID, map[string]interface{}{
		"email": user.Email,
	})
	return nil
}

func (s *userService) ensureNotLastAdmin(ctx context.Context) error {
	count, err := s.repo.User().CountActiveAdmins(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to count active admins: %w", err)
	}
	if count <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
