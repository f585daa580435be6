package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

// maxClassIDAttempts bounds the rejection-sampling loop for the public
// 6-digit class id. 900k candidates make collisions after ten draws a sign of
// something much worse than bad luck.
const maxClassIDAttempts = 10

type classService struct {
	repo      repositories.Repository
	validator *validator.Validator
	activity  ActivityService
	logger    *slog.Logger
}

// NewClassService creates the class management service.
func NewClassService(repo repositories.Repository, v *validator.Validator, activity ActivityService, logger *slog.Logger) ClassService {
	return &classService{repo: repo, validator: v, activity: activity, logger: logger}
}

func (s *classService) Create(ctx context.Context, req *CreateClassRequest, actor Identity) (*models.ClassSession, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateClassSchedule(req.StartDate, req.EndDate, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	class := &models.ClassSession{
		Title:           req.Title,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Format:          req.Format,
		JoinLink:        req.JoinLink,
		Location:        req.Location,
		MaxParticipants: req.MaxParticipants,
		Status:          models.ClassOpen,
		CreatedByEmail:  actor.Email,
	}
	if req.Language != "" {
		class.Language = req.Language
	}
	class.Speaker = encodeStrings(req.Speaker)
	class.TargetGroups = encodeStrings(req.TargetGroups)
	class.Materials = encodeStrings(req.Materials)
	class.SetRoster(nil)

	// Generate the public id and insert in one transaction so a concurrent
	// create cannot claim the same id between the existence check and the write.
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for attempt := 0; attempt < maxClassIDAttempts; attempt++ {
			candidate := fmt.Sprintf("%06d", rand.IntN(900000)+100000)
			exists, err := txRepo.Class().ExistsByClassID(ctx, nil, candidate)
			if err != nil {
				return fmt.Errorf("failed to check class id availability: %w", err)
			}
			if exists {
				continue
			}
			class.ClassID = candidate
			return txRepo.Class().Create(ctx, nil, class)
		}
		return fmt.Errorf("could not allocate a unique class id after %d attempts", maxClassIDAttempts)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Class created", "class_id", class.ClassID, "title", class.Title, "created_by", actor.Email)
	s.activity.LogActivity(ctx, actor, models.ActionCreateClass, models.TargetClass, &class.ClassID, map[string]interface{}{
		"class_title": class.Title,
	})

	class.RegisteredCount = 0
	return class, nil
}

func (s *classService) Update(ctx context.Context, classID string, req *UpdateClassRequest, actor Identity) (*models.ClassSession, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateClassSchedule(req.StartDate, req.EndDate, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	class, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	class.Title = req.Title
	class.Description = req.Description
	class.StartDate = req.StartDate
	class.EndDate = req.EndDate
	class.StartTime = req.StartTime
	class.EndTime = req.EndTime
	class.Format = req.Format
	class.JoinLink = req.JoinLink
	class.Location = req.Location
	if req.Language != "" {
		class.Language = req.Language
	}
	class.MaxParticipants = req.MaxParticipants
	class.Speaker = encodeStrings(req.Speaker)
	class.TargetGroups = encodeStrings(req.TargetGroups)
	class.Materials = encodeStrings(append(append([]string{}, req.ExistingFiles...), req.Materials...))

	if err := s.repo.Class().Update(ctx, nil, class); err != nil {
		return nil, fmt.Errorf("failed to update class %s: %w", classID, err)
	}

	action := models.ActionUpdateClass
	if class.Status == models.ClassClosed {
		action = models.ActionUpdateClosedClass
	}
	s.activity.LogActivity(ctx, actor, action, models.TargetClass, &classID, map[string]interface{}{
		"class_title": class.Title,
	})

	class.RegisteredCount = len(class.Roster())
	return class, nil
}

func (s *classService) Delete(ctx context.Context, classID string, actor Identity) error {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return err
	}

	if err := s.repo.Class().Delete(ctx, nil, classID); err != nil {
		return fmt.Errorf("failed to delete class %s: %w", classID, err)
	}

	s.logger.Info("Class deleted", "class_id", classID, "deleted_by", actor.Email)
	s.activity.LogActivity(ctx, actor, models.ActionDeleteClass, models.TargetClass, &classID, map[string]interface{}{
		"class_title": class.Title,
	})
	return nil
}

// Close finalizes a class: status goes to closed and the recording link plus
// post-class materials are attached. Closing an already-closed class just
// updates the attachments.
func (s *classService) Close(ctx context.Context, classID string, req *CloseClassRequest, actor Identity) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	class, err := s.getClass(ctx, classID)
	if err != nil {
		return err
	}

	class.Status = models.ClassClosed
	class.VideoLink = req.VideoLink
	class.Materials = encodeStrings(append(append([]string{}, req.ExistingMaterials...), req.Materials...))

	if err := s.repo.Class().Update(ctx, nil, class); err != nil {
		return fmt.Errorf("failed to close class %s: %w", classID, err)
	}

	action := models.ActionCloseClass
	if req.IsEditing {
		action = models.ActionUpdateClosedClass
	}
	s.activity.LogActivity(ctx, actor, action, models.TargetClass, &classID, map[string]interface{}{
		"class_title": class.Title,
	})
	return nil
}

func (s *classService) SetPromoted(ctx context.Context, classID string, promoted bool, actor Identity) error {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return err
	}
	if class.Promoted == promoted {
		return nil
	}

	class.Promoted = promoted
	if err := s.repo.Class().Update(ctx, nil, class); err != nil {
		return fmt.Errorf("failed to update promotion for class %s: %w", classID, err)
	}

	action := models.ActionPromoteClass
	if !promoted {
		action = models.ActionUnpromoteClass
	}
	s.activity.LogActivity(ctx, actor, action, models.TargetClass, &classID, map[string]interface{}{
		"class_title": class.Title,
	})
	return nil
}

func (s *classService) GetByClassID(ctx context.Context, classID string) (*models.ClassSession, error) {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	class.RegisteredCount = len(class.Roster())
	return class, nil
}

func (s *classService) List(ctx context.Context, filters repositories.ClassFilters, actor Identity) (*ClassListResponse, error) {
	// Drafts stay invisible to non-admins.
	if !actor.IsAdmin() {
		if filters.Status != nil && *filters.Status == models.ClassDraft {
			return nil, NewPermissionError(actor.Email, "class", "list", "drafts are admin-only")
		}
	}

	classes, total, err := s.repo.Class().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	visible := make([]*models.ClassSession, 0, len(classes))
	for _, class := range classes {
		if class.Status == models.ClassDraft && !actor.IsAdmin() {
			total--
			continue
		}
		class.RegisteredCount = len(class.Roster())
		visible = append(visible, class)
	}

	page, size := 1, len(visible)
	if filters.Limit > 0 {
		size = filters.Limit
		page = filters.Offset/filters.Limit + 1
	}
	return &ClassListResponse{Classes: visible, Total: total, Page: page, Size: size}, nil
}

func (s *classService) ListPromoted(ctx context.Context) ([]*models.ClassSession, error) {
	classes, err := s.repo.Class().ListPromoted(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list promoted classes: %w", err)
	}
	for _, class := range classes {
		class.RegisteredCount = len(class.Roster())
	}
	return classes, nil
}

func (s *classService) ListClosedRegisteredBy(ctx context.Context, email string) ([]*models.ClassSession, error) {
	classes, err := s.repo.Class().ListClosedRegisteredBy(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list closed classes for %s: %w", email, err)
	}
	for _, class := range classes {
		class.RegisteredCount = len(class.Roster())
	}
	return classes, nil
}

func (s *classService) Registrants(ctx context.Context, classID string) ([]RegistrantInfo, error) {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	roster := class.Roster()
	infos := make([]RegistrantInfo, 0, len(roster))
	if len(roster) == 0 {
		return infos, nil
	}

	users, err := s.repo.User().GetByEmails(ctx, nil, roster)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve registrants for class %s: %w", classID, err)
	}
	byEmail := make(map[string]*models.User, len(users))
	for _, u := range users {
		byEmail[strings.ToLower(u.Email)] = u
	}

	for _, email := range roster {
		info := RegistrantInfo{Email: email}
		if u, ok := byEmail[strings.ToLower(email)]; ok {
			info.Name = u.Name
			info.Phone = u.Phone
			info.Roles = u.RoleNames()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ExportRegistrants renders the roster as a spreadsheet for the admin panel.
func (s *classService) ExportRegistrants(ctx context.Context, classID string) ([]byte, error) {
	class, err := s.getClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	registrants, err := s.Registrants(ctx, classID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Registrants"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s (%s)", class.Title, class.ClassID))
	headers := []string{"#", "Name", "Email", "Phone", "Roles"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, h)
	}

	for i, r := range registrants {
		phone := ""
		if r.Phone != nil {
			phone = *r.Phone
		}
		values := []interface{}{i + 1, r.Name, r.Email, phone, strings.Join(r.Roles, ", ")}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+3)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render registrant export: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *classService) getClass(ctx context.Context, classID string) (*models.ClassSession, error) {
	class, err := s.repo.Class().GetByClassID(ctx, nil, classID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to load class %s: %w", classID, err)
	}
	return class, nil
}

func encodeStrings(values []string) []byte {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return raw
}
