package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

type classRequestService struct {
	repo         repositories.Repository
	validator    *validator.Validator
	activity     ActivityService
	notification NotificationService
	logger       *slog.Logger
}

// NewClassRequestService creates the class-opening request service.
func NewClassRequestService(repo repositories.Repository, v *validator.Validator, activity ActivityService, notification NotificationService, logger *slog.Logger) ClassRequestService {
	return &classRequestService{
		repo:         repo,
		validator:    v,
		activity:     activity,
		notification: notification,
		logger:       logger,
	}
}

func (s *classRequestService) Submit(ctx context.Context, req *SubmitClassRequest, actor Identity) (*models.ClassRequest, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	request := &models.ClassRequest{
		Title:            req.Title,
		Reason:           req.Reason,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		SuggestedSpeaker: req.Speaker,
		RequestedByEmail: actor.Email,
		Status:           models.RequestPending,
	}
	if req.Format != "" {
		request.Format = req.Format
	}
	if actor.Name != "" {
		request.RequestedByName = &actor.Name
	}

	if err := s.repo.ClassRequest().Create(ctx, nil, request); err != nil {
		return nil, fmt.Errorf("failed to create class request: %w", err)
	}

	s.logger.Info("Class request submitted", "request_id", request.ID, "title", request.Title, "user_email", actor.Email)

	requestID := fmt.Sprintf("%d", request.ID)
	s.activity.LogActivity(ctx, actor, models.ActionSubmitRequest, models.TargetRequest, &requestID, map[string]interface{}{
		"title": request.Title,
	})

	adminEmails, err := s.repo.User().AdminEmails(ctx, nil)
	if err != nil {
		s.logger.Error("Failed to load admin emails for request notice", "request_id", request.ID, "error", err)
	} else if len(adminEmails) > 0 {
		if err := s.notification.SendClassRequestSubmitted(ctx, adminEmails, request); err != nil {
			s.logger.Error("Failed to send class request notice", "request_id", request.ID, "error", err)
		}
	}

	return request, nil
}

// Update lets the requester edit a still-unresolved request. Any edit resets
// the request to pending so admins review the new content.
func (s *classRequestService) Update(ctx context.Context, requestID uint, req *UpdateClassRequestPayload, actor Identity) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RequestedByEmail != actor.Email && !actor.IsAdmin() {
		return NewPermissionError(actor.Email, "class_request", "update", "not the requester")
	}

	request.Title = req.Title
	request.Reason = req.Reason
	request.StartDate = req.StartDate
	request.EndDate = req.EndDate
	request.StartTime = req.StartTime
	request.EndTime = req.EndTime
	request.SuggestedSpeaker = req.Speaker
	if req.Format != "" {
		request.Format = req.Format
	}
	request.Status = models.RequestPending
	request.RejectionReason = nil
	request.AdminComment = nil
	request.ActionByEmail = nil

	if err := s.repo.ClassRequest().Update(ctx, nil, request); err != nil {
		return fmt.Errorf("failed to update class request %d: %w", requestID, err)
	}

	id := fmt.Sprintf("%d", requestID)
	s.activity.LogActivity(ctx, actor, models.ActionUpdateRequest, models.TargetRequest, &id, map[string]interface{}{
		"title": request.Title,
	})
	return nil
}

func (s *classRequestService) Delete(ctx context.Context, requestID uint, actor Identity) error {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RequestedByEmail != actor.Email && !actor.IsAdmin() {
		return NewPermissionError(actor.Email, "class_request", "delete", "not the requester")
	}

	if err := s.repo.ClassRequest().Delete(ctx, nil, requestID); err != nil {
		return fmt.Errorf("failed to delete class request %d: %w", requestID, err)
	}

	id := fmt.Sprintf("%d", requestID)
	s.activity.LogActivity(ctx, actor, models.ActionDeleteRequest, models.TargetRequest, &id, map[string]interface{}{
		"title": request.Title,
	})
	return nil
}

func (s *classRequestService) List(ctx context.Context, filters repositories.RequestFilters) ([]*models.ClassRequest, int64, error) {
	requests, total, err := s.repo.ClassRequest().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list class requests: %w", err)
	}
	return requests, total, nil
}

// Resolve approves or rejects a pending request and notifies the requester.
func (s *classRequestService) Resolve(ctx context.Context, requestID uint, action string, reason *string, actor Identity) error {
	if err := s.validator.Validate(&validator.RequestActionRequest{Action: action, Reason: reason}); err != nil {
		return err
	}

	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return err
	}

	approved := action == "approve"
	if approved {
		request.Status = models.RequestApproved
		request.RejectionReason = nil
	} else {
		request.Status = models.RequestRejected
		request.RejectionReason = reason
	}
	request.ActionByEmail = &actor.Email

	if err := s.repo.ClassRequest().Update(ctx, nil, request); err != nil {
		return fmt.Errorf("failed to resolve class request %d: %w", requestID, err)
	}

	logAction := models.ActionApproveRequest
	if !approved {
		logAction = models.ActionRejectRequest
	}
	id := fmt.Sprintf("%d", requestID)
	s.activity.LogActivity(ctx, actor, logAction, models.TargetRequest, &id, map[string]interface{}{
		"title": request.Title,
	})

	if err := s.notification.SendClassRequestResolved(ctx, request, approved); err != nil {
		s.logger.Error("Failed to send request resolution notice", "request_id", requestID, "error", err)
	}
	return nil
}

func (s *classRequestService) getRequest(ctx context.Context, requestID uint) (*models.ClassRequest, error) {
	request, err := s.repo.ClassRequest().GetByID(ctx, nil, requestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load class request %d: %w", requestID, err)
	}
	return request, nil
}
