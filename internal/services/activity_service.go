package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/HSL-KM/class-registration-service/internal/events"
	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

// activityService writes the audit trail and serves the admin activity view.
type activityService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

// NewActivityService creates the activity service. The publisher mirrors
// every audit entry onto the audit topic and may be nil.
func NewActivityService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) ActivityService {
	return &activityService{repo: repo, publisher: publisher, logger: logger}
}

func (s *activityService) LogActivity(ctx context.Context, actor Identity, actionType, targetType string, targetID *string, details map[string]interface{}) {
	entry := &models.ActivityLog{
		UserID:     actor.UserID,
		UserName:   actor.Name,
		UserEmail:  actor.Email,
		ActionType: actionType,
		TargetType: targetType,
		TargetID:   targetID,
		IPAddress:  actor.IPAddress,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("Failed to encode activity details", "action_type", actionType, "error", err)
		} else {
			entry.Details = raw
		}
	}

	if err := s.repo.ActivityLog().Create(ctx, nil, entry); err != nil {
		s.logger.Error("Failed to write activity log",
			"action_type", actionType, "user_email", actor.Email, "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.TopicAudit, actionType, entry); err != nil {
			s.logger.Warn("Failed to publish audit event", "action_type", actionType, "error", err)
		}
	}
}

func (s *activityService) List(ctx context.Context, filters repositories.ActivityLogFilters) (*ActivityLogPage, error) {
	logs, total, err := s.repo.ActivityLog().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return &ActivityLogPage{Logs: logs, Total: total}, nil
}

// ExportXLSX renders the filtered audit trail as a spreadsheet.
func (s *activityService) ExportXLSX(ctx context.Context, filters repositories.ActivityLogFilters) ([]byte, error) {
	logs, err := s.repo.ActivityLog().ListAll(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity logs: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Activity Logs"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Timestamp", "Name", "Email", "Action", "Target Type", "Target ID", "IP Address", "Details"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, entry := range logs {
		targetID := ""
		if entry.TargetID != nil {
			targetID = *entry.TargetID
		}
		values := []interface{}{
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.UserName,
			entry.UserEmail,
			entry.ActionType,
			entry.TargetType,
			targetID,
			entry.IPAddress,
			string(entry.Details),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render activity export: %w", err)
	}
	return buf.Bytes(), nil
}
