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

type evaluationService struct {
	repo      repositories.Repository
	validator *validator.Validator
	activity  ActivityService
	logger    *slog.Logger
}

// NewEvaluationService creates the class evaluation service.
func NewEvaluationService(repo repositories.Repository, v *validator.Validator, activity ActivityService, logger *slog.Logger) EvaluationService {
	return &evaluationService{repo: repo, validator: v, activity: activity, logger: logger}
}

// Submit stores one evaluation per (class, user). The class must be closed
// and the caller must have been registered for it.
func (s *evaluationService) Submit(ctx context.Context, req *SubmitEvaluationRequest, actor Identity) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	class, err := s.repo.Class().GetByClassID(ctx, nil, req.ClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrClassNotFound
		}
		return fmt.Errorf("failed to load class %s: %w", req.ClassID, err)
	}
	if class.Status != models.ClassClosed {
		return ErrEvaluationNotClosed
	}

	registered := false
	for _, email := range class.Roster() {
		if strings.EqualFold(email, actor.Email) {
			registered = true
			break
		}
	}
	if !registered {
		return ErrNotRegistered
	}

	exists, err := s.repo.Evaluation().ExistsByClassAndUser(ctx, nil, req.ClassID, actor.Email)
	if err != nil {
		return fmt.Errorf("failed to check existing evaluation: %w", err)
	}
	if exists {
		return ErrEvaluationExists
	}

	eval := &models.Evaluation{
		ClassID:       req.ClassID,
		UserEmail:     actor.Email,
		ScoreContent:  req.ScoreContent,
		ScoreMaterial: req.ScoreMaterial,
		ScoreDuration: req.ScoreDuration,
		ScoreFormat:   req.ScoreFormat,
		ScoreSpeaker:  req.ScoreSpeaker,
		Comments:      req.Comment,
	}
	if err := s.repo.Evaluation().Create(ctx, nil, eval); err != nil {
		// The composite unique index catches the race two concurrent submits
		// can open between the existence check and the insert.
		if repositories.IsDuplicateError(err) {
			return ErrEvaluationExists
		}
		return fmt.Errorf("failed to store evaluation: %w", err)
	}

	s.activity.LogActivity(ctx, actor, models.ActionSubmitEvaluation, models.TargetClass, &req.ClassID, map[string]interface{}{
		"class_title": class.Title,
	})
	return nil
}

func (s *evaluationService) EvaluatedClassIDs(ctx context.Context, email string) ([]string, error) {
	ids, err := s.repo.Evaluation().EvaluatedClassIDs(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluated classes for %s: %w", email, err)
	}
	return ids, nil
}

// SummaryByClass joins each evaluation with the evaluator's profile for the
// admin view. Free-text comments are also collected into one suggestion list.
func (s *evaluationService) SummaryByClass(ctx context.Context, classID string) (*EvaluationSummary, error) {
	if _, err := s.repo.Class().GetByClassID(ctx, nil, classID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to load class %s: %w", classID, err)
	}

	evals, err := s.repo.Evaluation().ListByClass(ctx, nil, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations for class %s: %w", classID, err)
	}

	emails := make([]string, 0, len(evals))
	for _, e := range evals {
		emails = append(emails, e.UserEmail)
	}
	byEmail := make(map[string]*models.User)
	if len(emails) > 0 {
		users, err := s.repo.User().GetByEmails(ctx, nil, emails)
		if err != nil {
			s.logger.Warn("Failed to resolve evaluator profiles", "class_id", classID, "error", err)
		}
		for _, u := range users {
			byEmail[strings.ToLower(u.Email)] = u
		}
	}

	summary := &EvaluationSummary{
		Evaluations: make([]EvaluationEntry, 0, len(evals)),
		Suggestions: make([]string, 0),
	}
	for _, e := range evals {
		entry := EvaluationEntry{
			ScoreContent:  e.ScoreContent,
			ScoreMaterial: e.ScoreMaterial,
			ScoreDuration: e.ScoreDuration,
			ScoreFormat:   e.ScoreFormat,
			ScoreSpeaker:  e.ScoreSpeaker,
			Comments:      e.Comments,
		}
		if u, ok := byEmail[strings.ToLower(e.UserEmail)]; ok {
			entry.Name = u.Name
			entry.UserRoles = u.RoleNames()
		}
		summary.Evaluations = append(summary.Evaluations, entry)
		if e.Comments != nil && strings.TrimSpace(*e.Comments) != "" {
			summary.Suggestions = append(summary.Suggestions, *e.Comments)
		}
	}
	return summary, nil
}
