package services

import (
	"context"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests. WithTransaction
// serializes callers on one mutex, which mirrors the row-lock semantics the
// registration core relies on: two transactions touching the same class never
// interleave between the locked read and the roster write.
type mockRepository struct {
	mu    sync.Mutex
	logMu sync.Mutex

	classes  map[string]*models.ClassSession
	users    map[string]*models.User
	requests map[uint]*models.ClassRequest
	evals    []*models.Evaluation
	logs     []*models.ActivityLog

	nextRequestID uint

	// failRosterUpdate makes the next UpdateRoster fail so rollback paths can
	// be exercised.
	failRosterUpdate error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		classes:       make(map[string]*models.ClassSession),
		users:         make(map[string]*models.User),
		requests:      make(map[uint]*models.ClassRequest),
		nextRequestID: 1,
	}
}

func (m *mockRepository) addClass(class *models.ClassSession) {
	if class.RegisteredUsers == nil {
		class.SetRoster(nil)
	}
	m.classes[class.ClassID] = class
}

func (m *mockRepository) addUser(user *models.User) {
	m.users[strings.ToLower(user.Email)] = user
}

func (m *mockRepository) roster(classID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if class, ok := m.classes[classID]; ok {
		return class.Roster()
	}
	return nil
}

// ===== Repository =====

func (m *mockRepository) Class() repositories.ClassRepository             { return (*mockClassRepo)(m) }
func (m *mockRepository) User() repositories.UserRepository               { return (*mockUserRepo)(m) }
func (m *mockRepository) ClassRequest() repositories.ClassRequestRepository {
	return (*mockRequestRepo)(m)
}
func (m *mockRepository) Evaluation() repositories.EvaluationRepository { return (*mockEvalRepo)(m) }
func (m *mockRepository) ActivityLog() repositories.ActivityLogRepository {
	return (*mockLogRepo)(m)
}

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn((*txMockRepository)(m))
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// txMockRepository is the transaction-bound view. It reuses the same storage
// but skips locking because WithTransaction already holds the mutex.
type txMockRepository mockRepository

func (t *txMockRepository) Class() repositories.ClassRepository { return (*txMockClassRepo)(t) }
func (t *txMockRepository) User() repositories.UserRepository   { return (*mockUserRepo)(t) }
func (t *txMockRepository) ClassRequest() repositories.ClassRequestRepository {
	return (*mockRequestRepo)(t)
}
func (t *txMockRepository) Evaluation() repositories.EvaluationRepository { return (*mockEvalRepo)(t) }
func (t *txMockRepository) ActivityLog() repositories.ActivityLogRepository {
	return (*mockLogRepo)(t)
}
func (t *txMockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(t)
}
func (t *txMockRepository) Ping(ctx context.Context) error { return nil }
func (t *txMockRepository) Close() error                   { return nil }

// ===== ClassRepository =====

type mockClassRepo mockRepository

func (r *mockClassRepo) locked() *txMockClassRepo { return (*txMockClassRepo)((*txMockRepository)(r)) }

func (r *mockClassRepo) Create(ctx context.Context, tx *gorm.DB, class *models.ClassSession) error {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	return r.locked().Create(ctx, tx, class)
}

func (r *mockClassRepo) GetByClassID(ctx context.Context, tx *gorm.DB, classID string) (*models.ClassSession, error) {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	return r.locked().GetByClassID(ctx, tx, classID)
}

func (r *mockClassRepo) GetByClassIDForUpdate(ctx context.Context, tx *gorm.DB, classID string) (*models.ClassSession, error) {
	return r.GetByClassID(ctx, tx, classID)
}

func (r *mockClassRepo) Update(ctx context.Context, tx *gorm.DB, class *models.ClassSession) error {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[class.ClassID] = class
	return nil
}

func (r *mockClassRepo) UpdateRoster(ctx context.Context, tx *gorm.DB, classID string, roster []string) error {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	return r.locked().UpdateRoster(ctx, tx, classID, roster)
}

func (r *mockClassRepo) Delete(ctx context.Context, tx *gorm.DB, classID string) error {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.classes, classID)
	return nil
}

func (r *mockClassRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ClassFilters) ([]*models.ClassSession, int64, error) {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ClassSession, 0, len(m.classes))
	for _, class := range m.classes {
		if filters.Status != nil && class.Status != *filters.Status {
			continue
		}
		out = append(out, class)
	}
	return out, int64(len(out)), nil
}

func (r *mockClassRepo) ListPromoted(ctx context.Context, tx *gorm.DB) ([]*models.ClassSession, error) {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ClassSession, 0)
	for _, class := range m.classes {
		if class.Promoted {
			out = append(out, class)
		}
	}
	return out, nil
}

func (r *mockClassRepo) ListClosedRegisteredBy(ctx context.Context, tx *gorm.DB, email string) ([]*models.ClassSession, error) {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ClassSession, 0)
	for _, class := range m.classes {
		if class.Status != models.ClassClosed {
			continue
		}
		for _, registered := range class.Roster() {
			if strings.EqualFold(registered, email) {
				out = append(out, class)
				break
			}
		}
	}
	return out, nil
}

func (r *mockClassRepo) ExistsByClassID(ctx context.Context, tx *gorm.DB, classID string) (bool, error) {
	m := (*mockRepository)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.classes[classID]
	return ok, nil
}

// txMockClassRepo serves calls made inside WithTransaction, where the mutex
// is already held.
type txMockClassRepo txMockRepository

func (r *txMockClassRepo) Create(ctx context.Context, tx *gorm.DB, class *models.ClassSession) error {
	m := (*mockRepository)(r)
	if _, exists := m.classes[class.ClassID]; exists {
		return gorm.ErrDuplicatedKey
	}
	if class.RegisteredUsers == nil {
		class.SetRoster(nil)
	}
	m.classes[class.ClassID] = class
	return nil
}

func (r *txMockClassRepo) GetByClassID(ctx context.Context, tx *gorm.DB, classID string) (*models.ClassSession, error) {
	m := (*mockRepository)(r)
	class, ok := m.classes[classID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *class
	return &copied, nil
}

func (r *txMockClassRepo) GetByClassIDForUpdate(ctx context.Context, tx *gorm.DB, classID string) (*models.ClassSession, error) {
	return r.GetByClassID(ctx, tx, classID)
}

func (r *txMockClassRepo) Update(ctx context.Context, tx *gorm.DB, class *models.ClassSession) error {
	m := (*mockRepository)(r)
	m.classes[class.ClassID] = class
	return nil
}

func (r *txMockClassRepo) UpdateRoster(ctx context.Context, tx *gorm.DB, classID string, roster []string) error {
	m := (*mockRepository)(r)
	if m.failRosterUpdate != nil {
		err := m.failRosterUpdate
		m.failRosterUpdate = nil
		return err
	}
	class, ok := m.classes[classID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	class.SetRoster(roster)
	return nil
}

func (r *txMockClassRepo) Delete(ctx context.Context, tx *gorm.DB, classID string) error {
	m := (*mockRepository)(r)
	delete(m.classes, classID)
	return nil
}

func (r *txMockClassRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ClassFilters) ([]*models.ClassSession, int64, error) {
	m := (*mockRepository)(r)
	out := make([]*models.ClassSession, 0, len(m.classes))
	for _, class := range m.classes {
		if filters.Status != nil && class.Status != *filters.Status {
			continue
		}
		out = append(out, class)
	}
	return out, int64(len(out)), nil
}

func (r *txMockClassRepo) ListPromoted(ctx context.Context, tx *gorm.DB) ([]*models.ClassSession, error) {
	return nil, nil
}

func (r *txMockClassRepo) ListClosedRegisteredBy(ctx context.Context, tx *gorm.DB, email string) ([]*models.ClassSession, error) {
	return nil, nil
}

func (r *txMockClassRepo) ExistsByClassID(ctx context.Context, tx *gorm.DB, classID string) (bool, error) {
	m := (*mockRepository)(r)
	_, ok := m.classes[classID]
	return ok, nil
}

// ===== UserRepository =====

type mockUserRepo mockRepository

func (r *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	m := (*mockRepository)(r)
	key := strings.ToLower(user.Email)
	if _, exists := m.users[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	user.ID = uint(len(m.users) + 1)
	m.users[key] = user
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	m := (*mockRepository)(r)
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	m := (*mockRepository)(r)
	if user, ok := m.users[strings.ToLower(email)]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*models.User, error) {
	m := (*mockRepository)(r)
	out := make([]*models.User, 0, len(emails))
	for _, email := range emails {
		if user, ok := m.users[strings.ToLower(email)]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *mockUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	m := (*mockRepository)(r)
	m.users[strings.ToLower(user.Email)] = user
	return nil
}

func (r *mockUserRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	m := (*mockRepository)(r)
	for key, user := range m.users {
		if user.ID == id {
			delete(m.users, key)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *mockUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	m := (*mockRepository)(r)
	out := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (r *mockUserRepo) ListAdmins(ctx context.Context, tx *gorm.DB) ([]*models.User, error) {
	m := (*mockRepository)(r)
	out := make([]*models.User, 0)
	for _, user := range m.users {
		if user.HasRole(models.RoleAdmin) {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *mockUserRepo) AdminEmails(ctx context.Context, tx *gorm.DB) ([]string, error) {
	admins, _ := r.ListAdmins(ctx, tx)
	emails := make([]string, 0, len(admins))
	for _, admin := range admins {
		if admin.IsActive {
			emails = append(emails, admin.Email)
		}
	}
	return emails, nil
}

func (r *mockUserRepo) CountActiveAdmins(ctx context.Context, tx *gorm.DB) (int64, error) {
	emails, _ := r.AdminEmails(ctx, tx)
	return int64(len(emails)), nil
}

func (r *mockUserRepo) UpsertAdminPermission(ctx context.Context, tx *gorm.DB, userID uint, level int) error {
	user, err := r.GetByID(ctx, tx, userID)
	if err != nil {
		return err
	}
	user.AdminPermission = &models.AdminPermission{UserID: userID, AdminLevel: level}
	return nil
}

func (r *mockUserRepo) DeleteAdminPermission(ctx context.Context, tx *gorm.DB, userID uint) error {
	user, err := r.GetByID(ctx, tx, userID)
	if err != nil {
		return err
	}
	user.AdminPermission = nil
	return nil
}

// ===== ClassRequestRepository =====

type mockRequestRepo mockRepository

func (r *mockRequestRepo) Create(ctx context.Context, tx *gorm.DB, req *models.ClassRequest) error {
	m := (*mockRepository)(r)
	req.ID = m.nextRequestID
	m.nextRequestID++
	m.requests[req.ID] = req
	return nil
}

func (r *mockRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ClassRequest, error) {
	m := (*mockRepository)(r)
	if req, ok := m.requests[id]; ok {
		return req, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockRequestRepo) Update(ctx context.Context, tx *gorm.DB, req *models.ClassRequest) error {
	m := (*mockRepository)(r)
	if _, ok := m.requests[req.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.requests[req.ID] = req
	return nil
}

func (r *mockRequestRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	m := (*mockRepository)(r)
	delete(m.requests, id)
	return nil
}

func (r *mockRequestRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.RequestFilters) ([]*models.ClassRequest, int64, error) {
	m := (*mockRepository)(r)
	out := make([]*models.ClassRequest, 0, len(m.requests))
	for _, req := range m.requests {
		if filters.Status != nil && req.Status != *filters.Status {
			continue
		}
		if filters.UserEmail != nil && !strings.EqualFold(req.RequestedByEmail, *filters.UserEmail) {
			continue
		}
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

// ===== EvaluationRepository =====

type mockEvalRepo mockRepository

func (r *mockEvalRepo) Create(ctx context.Context, tx *gorm.DB, eval *models.Evaluation) error {
	m := (*mockRepository)(r)
	for _, existing := range m.evals {
		if existing.ClassID == eval.ClassID && strings.EqualFold(existing.UserEmail, eval.UserEmail) {
			return gorm.ErrDuplicatedKey
		}
	}
	eval.ID = uint(len(m.evals) + 1)
	m.evals = append(m.evals, eval)
	return nil
}

func (r *mockEvalRepo) ExistsByClassAndUser(ctx context.Context, tx *gorm.DB, classID, userEmail string) (bool, error) {
	m := (*mockRepository)(r)
	for _, eval := range m.evals {
		if eval.ClassID == classID && strings.EqualFold(eval.UserEmail, userEmail) {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockEvalRepo) ListByClass(ctx context.Context, tx *gorm.DB, classID string) ([]*models.Evaluation, error) {
	m := (*mockRepository)(r)
	out := make([]*models.Evaluation, 0)
	for _, eval := range m.evals {
		if eval.ClassID == classID {
			out = append(out, eval)
		}
	}
	return out, nil
}

func (r *mockEvalRepo) EvaluatedClassIDs(ctx context.Context, tx *gorm.DB, userEmail string) ([]string, error) {
	m := (*mockRepository)(r)
	out := make([]string, 0)
	for _, eval := range m.evals {
		if strings.EqualFold(eval.UserEmail, userEmail) {
			out = append(out, eval.ClassID)
		}
	}
	return out, nil
}

// ===== ActivityLogRepository =====

type mockLogRepo mockRepository

func (r *mockLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *models.ActivityLog) error {
	m := (*mockRepository)(r)
	m.logMu.Lock()
	defer m.logMu.Unlock()
	entry.ID = uint(len(m.logs) + 1)
	m.logs = append(m.logs, entry)
	return nil
}

func (r *mockLogRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.ActivityLogFilters) ([]*models.ActivityLog, int64, error) {
	m := (*mockRepository)(r)
	m.logMu.Lock()
	defer m.logMu.Unlock()
	out := make([]*models.ActivityLog, 0, len(m.logs))
	for _, entry := range m.logs {
		if filters.ActionType != "" && entry.ActionType != filters.ActionType {
			continue
		}
		out = append(out, entry)
	}
	return out, int64(len(out)), nil
}

func (r *mockLogRepo) ListAll(ctx context.Context, tx *gorm.DB, filters repositories.ActivityLogFilters) ([]*models.ActivityLog, error) {
	logs, _, err := r.List(ctx, tx, filters)
	return logs, err
}
