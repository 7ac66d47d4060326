package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

// ── Mock ProfileRepository ──

type mockProfileRepo struct {
	profiles map[string]*model.Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (m *mockProfileRepo) add(p *model.Profile) { m.profiles[p.ID] = p }

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) ListByIDs(_ context.Context, ids []string) ([]model.Profile, error) {
	var result []model.Profile
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockProfileRepo) List(_ context.Context, filter repository.ProfileFilter, offset, limit int) ([]model.Profile, int64, error) {
	var result []model.Profile
	for _, p := range m.profiles {
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockProfileRepo) Update(_ context.Context, profile *model.Profile) error {
	if _, ok := m.profiles[profile.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if profile.EmployeeCode != nil {
		for id, p := range m.profiles {
			if id != profile.ID && p.EmployeeCode != nil && *p.EmployeeCode == *profile.EmployeeCode {
				return pkgerrors.ErrDuplicate
			}
		}
	}
	cp := *profile
	m.profiles[profile.ID] = &cp
	return nil
}

// ── Mock PermissionRepository ──

type mockPermissionRepo struct {
	policies []model.RolePermission
	rules    []model.RoleAttributeRule
	nextID   uint64
}

func newMockPermissionRepo() *mockPermissionRepo {
	return &mockPermissionRepo{}
}

func (m *mockPermissionRepo) ListPolicies(_ context.Context) ([]model.RolePermission, error) {
	return append([]model.RolePermission(nil), m.policies...), nil
}

func (m *mockPermissionRepo) ListPoliciesByRole(_ context.Context, role string) ([]model.RolePermission, error) {
	var result []model.RolePermission
	for _, p := range m.policies {
		if p.Role == role {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPermissionRepo) CreatePolicy(_ context.Context, p *model.RolePermission) error {
	for _, existing := range m.policies {
		if existing.Role == p.Role && existing.PermissionKey == p.PermissionKey {
			return pkgerrors.ErrDuplicate
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.policies = append(m.policies, *p)
	return nil
}

func (m *mockPermissionRepo) DeletePolicy(_ context.Context, id uint64) (bool, error) {
	for i, p := range m.policies {
		if p.ID == id {
			m.policies = append(m.policies[:i], m.policies[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPermissionRepo) ListAttributeRules(_ context.Context) ([]model.RoleAttributeRule, error) {
	return append([]model.RoleAttributeRule(nil), m.rules...), nil
}

func (m *mockPermissionRepo) CreateAttributeRule(_ context.Context, rule *model.RoleAttributeRule) error {
	m.nextID++
	rule.ID = m.nextID
	m.rules = append(m.rules, *rule)
	return nil
}

func (m *mockPermissionRepo) DeleteAttributeRule(_ context.Context, id uint64) (bool, error) {
	for i, r := range m.rules {
		if r.ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ── Mock TaskTemplateRepository ──

type mockTaskTemplateRepo struct {
	templates map[string]*model.TaskTemplate
	seq       int
}

func newMockTaskTemplateRepo() *mockTaskTemplateRepo {
	return &mockTaskTemplateRepo{templates: make(map[string]*model.TaskTemplate)}
}

func (m *mockTaskTemplateRepo) Create(_ context.Context, tpl *model.TaskTemplate) error {
	if tpl.ID == "" {
		m.seq++
		tpl.ID = fmt.Sprintf("tpl-%d", m.seq)
	}
	tpl.Version = 1
	cp := *tpl
	m.templates[tpl.ID] = &cp
	return nil
}

func (m *mockTaskTemplateRepo) GetByID(_ context.Context, id string) (*model.TaskTemplate, error) {
	if t, ok := m.templates[id]; ok && !t.DeletedAt.Valid {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskTemplateRepo) List(_ context.Context, keyword string) ([]model.TaskTemplate, error) {
	var result []model.TaskTemplate
	for _, t := range m.templates {
		if t.DeletedAt.Valid {
			continue
		}
		if keyword != "" && !strings.Contains(t.Title, keyword) {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockTaskTemplateRepo) Update(_ context.Context, tpl *model.TaskTemplate) error {
	cur, ok := m.templates[tpl.ID]
	if !ok || cur.DeletedAt.Valid || cur.Version != tpl.Version {
		return pkgerrors.ErrOptimisticLock
	}
	tpl.Version++
	cp := *tpl
	m.templates[tpl.ID] = &cp
	return nil
}

func (m *mockTaskTemplateRepo) Delete(_ context.Context, id string, deletedBy string) error {
	t, ok := m.templates[id]
	if !ok || t.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	t.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	t.DeletedBy = &deletedBy
	return nil
}

// ── Mock TaskAssignmentRepository ──

type mockTaskAssignmentRepo struct {
	assignments map[string]*model.TaskAssignment
	logs        map[string][]model.TaskLog
	seq         int
	logSeq      uint64
	clock       time.Time

	// beforeAppend 在获取行锁前触发，用于模拟并发写入
	beforeAppend func(assignmentID string)
}

func newMockTaskAssignmentRepo() *mockTaskAssignmentRepo {
	return &mockTaskAssignmentRepo{
		assignments: make(map[string]*model.TaskAssignment),
		logs:        make(map[string][]model.TaskLog),
		clock:       time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *mockTaskAssignmentRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *mockTaskAssignmentRepo) Create(_ context.Context, a *model.TaskAssignment) error {
	if a.ID == "" {
		m.seq++
		a.ID = fmt.Sprintf("asg-%d", m.seq)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.tick()
	}
	for i := range a.Collaborators {
		a.Collaborators[i].AssignmentID = a.ID
	}
	cp := *a
	cp.Collaborators = append([]model.TaskCollaborator(nil), a.Collaborators...)
	m.assignments[a.ID] = &cp
	return nil
}

func (m *mockTaskAssignmentRepo) GetByID(_ context.Context, id string) (*model.TaskAssignment, error) {
	if a, ok := m.assignments[id]; ok {
		cp := *a
		cp.Collaborators = append([]model.TaskCollaborator(nil), a.Collaborators...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskAssignmentRepo) List(_ context.Context, filter repository.AssignmentFilter, offset, limit int) ([]model.TaskAssignment, int64, error) {
	var result []model.TaskAssignment
	for _, a := range m.assignments {
		if filter.Participant != "" && !isParticipant(a, filter.Participant) {
			continue
		}
		if filter.AssignedTo != "" && a.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockTaskAssignmentRepo) ListArchived(_ context.Context) ([]model.TaskAssignment, error) {
	var result []model.TaskAssignment
	for _, a := range m.assignments {
		if a.Status == model.AssignmentArchived {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockTaskAssignmentRepo) UpdateState(_ context.Context, id string, from, to model.AssignmentStatus, archivedAt *time.Time) (bool, error) {
	a, ok := m.assignments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.ArchivedAt = archivedAt
	return true, nil
}

func (m *mockTaskAssignmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	delete(m.logs, id)
	return nil
}

func (m *mockTaskAssignmentRepo) AddCollaborators(_ context.Context, assignmentID string, userIDs []string) error {
	a, ok := m.assignments[assignmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, uid := range userIDs {
		if isParticipant(a, uid) && a.AssignedTo != uid {
			continue
		}
		a.Collaborators = append(a.Collaborators, model.TaskCollaborator{AssignmentID: assignmentID, UserID: uid})
	}
	return nil
}

func (m *mockTaskAssignmentRepo) RemoveCollaborator(_ context.Context, assignmentID, userID string) (bool, error) {
	a, ok := m.assignments[assignmentID]
	if !ok {
		return false, nil
	}
	for i, c := range a.Collaborators {
		if c.UserID == userID {
			a.Collaborators = append(a.Collaborators[:i], a.Collaborators[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTaskAssignmentRepo) AppendLog(_ context.Context, assignmentID string, build repository.EntryFunc, derive repository.DeriveFunc) (*model.TaskAssignment, []model.TaskLog, error) {
	if m.beforeAppend != nil {
		m.beforeAppend(assignmentID)
	}
	a, ok := m.assignments[assignmentID]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	if a.Status == model.AssignmentArchived {
		return nil, nil, repository.ErrAssignmentLocked
	}
	log := build(append([]model.TaskLog(nil), m.logs[assignmentID]...))
	log.AssignmentID = assignmentID
	m.appendRaw(log)

	logs := append([]model.TaskLog(nil), m.logs[assignmentID]...)
	change := derive(a, logs)
	a.Status = change.Status
	a.CompletedAt = change.CompletedAt

	cp := *a
	return &cp, logs, nil
}

// appendRaw 直接写入一条日志，不推导状态
func (m *mockTaskAssignmentRepo) appendRaw(log *model.TaskLog) {
	m.logSeq++
	log.ID = m.logSeq
	log.CreatedAt = m.tick()
	m.logs[log.AssignmentID] = append(m.logs[log.AssignmentID], *log)
}

func (m *mockTaskAssignmentRepo) ListLogs(_ context.Context, assignmentID string) ([]model.TaskLog, error) {
	return append([]model.TaskLog(nil), m.logs[assignmentID]...), nil
}

// ── Mock CampaignRepository ──

type mockCampaignRepo struct {
	campaigns map[string]*model.Campaign
	seq       int
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{campaigns: make(map[string]*model.Campaign)}
}

func (m *mockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	if c.ID == "" {
		m.seq++
		c.ID = fmt.Sprintf("cmp-%d", m.seq)
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *mockCampaignRepo) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	if c, ok := m.campaigns[id]; ok {
		cp := *c
		cp.Schedules = append([]model.CampaignSchedule(nil), c.Schedules...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCampaignRepo) List(_ context.Context, role string) ([]model.Campaign, error) {
	var result []model.Campaign
	for _, c := range m.campaigns {
		if role != "" && !c.VisibleTo(role) {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (m *mockCampaignRepo) Update(_ context.Context, c *model.Campaign) error {
	cur, ok := m.campaigns[c.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *c
	cp.Schedules = cur.Schedules
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *mockCampaignRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.campaigns[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.campaigns, id)
	return nil
}

func (m *mockCampaignRepo) CreateSchedule(_ context.Context, s *model.CampaignSchedule) error {
	c, ok := m.campaigns[s.CampaignID]
	if !ok {
		return pkgerrors.ErrReferenced
	}
	if s.ID == "" {
		m.seq++
		s.ID = fmt.Sprintf("sch-%d", m.seq)
	}
	c.Schedules = append(c.Schedules, *s)
	return nil
}

func (m *mockCampaignRepo) GetSchedule(_ context.Context, campaignID, scheduleID string) (*model.CampaignSchedule, error) {
	if c, ok := m.campaigns[campaignID]; ok {
		for _, s := range c.Schedules {
			if s.ID == scheduleID {
				cp := s
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCampaignRepo) UpdateSchedule(_ context.Context, s *model.CampaignSchedule) error {
	if c, ok := m.campaigns[s.CampaignID]; ok {
		for i := range c.Schedules {
			if c.Schedules[i].ID == s.ID {
				c.Schedules[i] = *s
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockCampaignRepo) DeleteSchedule(_ context.Context, campaignID, scheduleID string) error {
	if c, ok := m.campaigns[campaignID]; ok {
		for i, s := range c.Schedules {
			if s.ID == scheduleID {
				c.Schedules = append(c.Schedules[:i], c.Schedules[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock StoreRepository ──

type mockStoreRepo struct {
	stores   map[string]*model.Store
	managers []model.StoreManager
	profiles *mockProfileRepo
}

func newMockStoreRepo(profiles *mockProfileRepo) *mockStoreRepo {
	return &mockStoreRepo{stores: make(map[string]*model.Store), profiles: profiles}
}

func (m *mockStoreRepo) add(s *model.Store) { m.stores[s.ID] = s }

func (m *mockStoreRepo) GetByID(_ context.Context, id string) (*model.Store, error) {
	if s, ok := m.stores[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStoreRepo) List(_ context.Context, filter repository.StoreFilter) ([]model.Store, error) {
	var result []model.Store
	for _, s := range m.stores {
		if !filter.IncludeInactive && !s.IsActive {
			continue
		}
		if filter.Region != "" && s.Region != filter.Region {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StoreCode < result[j].StoreCode })
	return result, nil
}

func (m *mockStoreRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, s := range m.stores {
		if s.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockStoreRepo) ExistingIDs(_ context.Context, ids []string) ([]string, error) {
	var found []string
	for _, id := range ids {
		if _, ok := m.stores[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (m *mockStoreRepo) ListManagers(_ context.Context, roleType string) ([]model.StoreManager, error) {
	var result []model.StoreManager
	for _, r := range m.managers {
		if roleType != "" && r.RoleType != roleType {
			continue
		}
		if m.profiles != nil {
			if p, ok := m.profiles.profiles[r.UserID]; ok {
				r.Profile = p
			}
		}
		result = append(result, r)
	}
	return result, nil
}

func (m *mockStoreRepo) ReplacePrimaryStoreManager(_ context.Context, userID string, storeIDs []string) error {
	kept := m.managers[:0]
	for _, r := range m.managers {
		if r.UserID == userID && r.RoleType == model.StoreRoleStoreManager && r.IsPrimary {
			continue
		}
		kept = append(kept, r)
	}
	m.managers = kept
	for _, sid := range storeIDs {
		m.managers = append(m.managers, model.StoreManager{
			UserID: userID, StoreID: sid, RoleType: model.StoreRoleStoreManager, IsPrimary: true,
		})
	}
	return nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees  []model.StoreEmployee
	movements  []model.EmployeeMovementHistory
	promotions []model.EmployeePromotionHistory
	seq        uint64
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{}
}

func (m *mockEmployeeRepo) CreateEmployee(_ context.Context, e *model.StoreEmployee) error {
	for _, existing := range m.employees {
		if existing.EmployeeCode == e.EmployeeCode {
			return pkgerrors.ErrDuplicate
		}
	}
	m.seq++
	e.ID = fmt.Sprintf("emp-%d", m.seq)
	m.employees = append(m.employees, *e)
	return nil
}

func (m *mockEmployeeRepo) ListEmployees(_ context.Context, filter repository.EmployeeFilter, offset, limit int) ([]model.StoreEmployee, int64, error) {
	var result []model.StoreEmployee
	for _, e := range m.employees {
		if filter.StoreID != "" && e.StoreID != filter.StoreID {
			continue
		}
		if !filter.IncludeInactive && !e.IsActive {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(e.Name, filter.Keyword) && !strings.Contains(e.EmployeeCode, filter.Keyword) {
			continue
		}
		result = append(result, e)
	}
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockEmployeeRepo) CountActiveByStore(_ context.Context, storeID string) (int64, error) {
	var n int64
	for _, e := range m.employees {
		if e.StoreID == storeID && e.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockEmployeeRepo) CreateMovement(_ context.Context, mv *model.EmployeeMovementHistory) error {
	m.seq++
	mv.ID = m.seq
	m.movements = append(m.movements, *mv)
	return nil
}

func (m *mockEmployeeRepo) ListMovements(_ context.Context, filter repository.MovementFilter, offset, limit int) ([]model.EmployeeMovementHistory, int64, error) {
	var result []model.EmployeeMovementHistory
	for _, mv := range m.movements {
		if filter.EmployeeCode != "" && mv.EmployeeCode != filter.EmployeeCode {
			continue
		}
		if filter.MovementType != "" && mv.MovementType != filter.MovementType {
			continue
		}
		if filter.StoreID != "" && !ptrEq(mv.FromStoreID, filter.StoreID) && !ptrEq(mv.ToStoreID, filter.StoreID) {
			continue
		}
		if filter.From != nil && mv.EffectiveDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && mv.EffectiveDate.After(*filter.To) {
			continue
		}
		result = append(result, mv)
	}
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockEmployeeRepo) CreatePromotion(_ context.Context, p *model.EmployeePromotionHistory) error {
	m.seq++
	p.ID = m.seq
	m.promotions = append(m.promotions, *p)
	return nil
}

func (m *mockEmployeeRepo) ListPromotions(_ context.Context, filter repository.PromotionFilter, offset, limit int) ([]model.EmployeePromotionHistory, int64, error) {
	var result []model.EmployeePromotionHistory
	for _, p := range m.promotions {
		if filter.EmployeeCode != "" && p.EmployeeCode != filter.EmployeeCode {
			continue
		}
		if filter.StoreID != "" && p.StoreID != filter.StoreID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		result = append(result, p)
	}
	return page(result, offset, limit), int64(len(result)), nil
}

// ── Mock InspectionRepository ──

type mockInspectionRepo struct {
	templates map[string]*model.InspectionTemplate
	masters   map[string]*model.InspectionMaster
	seq       int
}

func newMockInspectionRepo() *mockInspectionRepo {
	return &mockInspectionRepo{
		templates: make(map[string]*model.InspectionTemplate),
		masters:   make(map[string]*model.InspectionMaster),
	}
}

func (m *mockInspectionRepo) CreateTemplate(_ context.Context, tpl *model.InspectionTemplate) error {
	if tpl.ID == "" {
		m.seq++
		tpl.ID = fmt.Sprintf("itpl-%d", m.seq)
	}
	cp := *tpl
	m.templates[tpl.ID] = &cp
	return nil
}

func (m *mockInspectionRepo) GetTemplate(_ context.Context, id string) (*model.InspectionTemplate, error) {
	if t, ok := m.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInspectionRepo) ListTemplates(_ context.Context, includeInactive bool) ([]model.InspectionTemplate, error) {
	var result []model.InspectionTemplate
	for _, t := range m.templates {
		if !includeInactive && !t.IsActive {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockInspectionRepo) UpdateTemplate(_ context.Context, tpl *model.InspectionTemplate) error {
	if _, ok := m.templates[tpl.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *tpl
	m.templates[tpl.ID] = &cp
	return nil
}

func (m *mockInspectionRepo) DeleteTemplate(_ context.Context, id string) error {
	if _, ok := m.templates[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, im := range m.masters {
		if im.TemplateID == id {
			return pkgerrors.ErrReferenced
		}
	}
	delete(m.templates, id)
	return nil
}

func (m *mockInspectionRepo) Create(_ context.Context, im *model.InspectionMaster) error {
	m.seq++
	im.ID = fmt.Sprintf("insp-%d", m.seq)
	for i := range im.Results {
		im.Results[i].InspectionID = im.ID
	}
	cp := *im
	m.masters[im.ID] = &cp
	return nil
}

func (m *mockInspectionRepo) GetByID(_ context.Context, id string) (*model.InspectionMaster, error) {
	if im, ok := m.masters[id]; ok {
		cp := *im
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInspectionRepo) List(_ context.Context, filter repository.InspectionFilter, offset, limit int) ([]model.InspectionMaster, int64, error) {
	var result []model.InspectionMaster
	for _, im := range m.masters {
		if filter.StoreID != "" && im.StoreID != filter.StoreID {
			continue
		}
		if filter.From != nil && im.InspectionDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && im.InspectionDate.After(*filter.To) {
			continue
		}
		result = append(result, *im)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InspectionDate.After(result[j].InspectionDate) })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockInspectionRepo) LatestByStore(_ context.Context, storeID string) (*model.InspectionMaster, error) {
	var latest *model.InspectionMaster
	for _, im := range m.masters {
		if im.StoreID != storeID {
			continue
		}
		if latest == nil || im.InspectionDate.After(latest.InspectionDate) {
			latest = im
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockInspectionRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.masters[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.masters, id)
	return nil
}

// ── Mock PayrollRepository ──

type mockPayrollRepo struct {
	staff     []model.MonthlyStaffStatus
	bonus     []model.SupportStaffBonus
	meals     []model.MealAllowanceRecord
	transport []model.TransportExpense
	seq       int
	// replaceErr 非空时 ReplaceBonusBatch 返回该错误且不修改数据
	replaceErr error
}

func newMockPayrollRepo() *mockPayrollRepo {
	return &mockPayrollRepo{}
}

func (m *mockPayrollRepo) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *mockPayrollRepo) ListStaffStatus(_ context.Context, storeID, yearMonth string) ([]model.MonthlyStaffStatus, error) {
	var result []model.MonthlyStaffStatus
	for _, r := range m.staff {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockPayrollRepo) SumStaffStatus(_ context.Context, storeID, yearMonth string) (repository.MonthTotal, error) {
	total := repository.MonthTotal{Total: decimal.Zero}
	for _, r := range m.staff {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			total.Count++
			total.Total = total.Total.Add(r.TotalAmount)
		}
	}
	return total, nil
}

func (m *mockPayrollRepo) ListBonus(_ context.Context, storeID, yearMonth string) ([]model.SupportStaffBonus, error) {
	var result []model.SupportStaffBonus
	for _, r := range m.bonus {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockPayrollRepo) ReplaceBonusBatch(_ context.Context, storeID, yearMonth string, rows []model.SupportStaffBonus) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	kept := m.bonus[:0]
	for _, r := range m.bonus {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			continue
		}
		kept = append(kept, r)
	}
	m.bonus = kept
	for i := range rows {
		rows[i].ID = m.nextID("bonus")
		m.bonus = append(m.bonus, rows[i])
	}
	return nil
}

func (m *mockPayrollRepo) SumBonus(_ context.Context, storeID, yearMonth string) (repository.MonthTotal, error) {
	total := repository.MonthTotal{Total: decimal.Zero}
	for _, r := range m.bonus {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			total.Count++
			total.Total = total.Total.Add(r.Amount)
		}
	}
	return total, nil
}

func (m *mockPayrollRepo) ListMealAllowances(_ context.Context, storeID, yearMonth string) ([]model.MealAllowanceRecord, error) {
	var result []model.MealAllowanceRecord
	for _, r := range m.meals {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockPayrollRepo) UpsertMealAllowances(_ context.Context, rows []model.MealAllowanceRecord) error {
	for i := range rows {
		found := false
		for j := range m.meals {
			cur := &m.meals[j]
			if cur.EmployeeCode == rows[i].EmployeeCode && cur.StoreID == rows[i].StoreID && cur.YearMonth == rows[i].YearMonth {
				rows[i].ID = cur.ID
				*cur = rows[i]
				found = true
				break
			}
		}
		if !found {
			rows[i].ID = m.nextID("meal")
			m.meals = append(m.meals, rows[i])
		}
	}
	return nil
}

func (m *mockPayrollRepo) DeleteMealAllowance(_ context.Context, id string) error {
	for i, r := range m.meals {
		if r.ID == id {
			m.meals = append(m.meals[:i], m.meals[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockPayrollRepo) SumMealAllowances(_ context.Context, storeID, yearMonth string) (repository.MonthTotal, error) {
	total := repository.MonthTotal{Total: decimal.Zero}
	for _, r := range m.meals {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			total.Count++
			total.Total = total.Total.Add(r.Amount)
		}
	}
	return total, nil
}

func (m *mockPayrollRepo) ListTransportExpenses(_ context.Context, storeID, yearMonth string) ([]model.TransportExpense, error) {
	var result []model.TransportExpense
	for _, r := range m.transport {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockPayrollRepo) UpsertTransportExpense(_ context.Context, row *model.TransportExpense) error {
	for j := range m.transport {
		cur := &m.transport[j]
		if cur.EmployeeCode == row.EmployeeCode && cur.StoreID == row.StoreID && cur.YearMonth == row.YearMonth {
			row.ID = cur.ID
			*cur = *row
			return nil
		}
	}
	row.ID = m.nextID("trans")
	m.transport = append(m.transport, *row)
	return nil
}

func (m *mockPayrollRepo) DeleteTransportExpense(_ context.Context, id string) error {
	for i, r := range m.transport {
		if r.ID == id {
			m.transport = append(m.transport[:i], m.transport[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockPayrollRepo) SumTransportExpenses(_ context.Context, storeID, yearMonth string) (repository.MonthTotal, error) {
	total := repository.MonthTotal{Total: decimal.Zero}
	for _, r := range m.transport {
		if r.StoreID == storeID && r.YearMonth == yearMonth {
			total.Count++
			total.Total = total.Total.Add(r.Amount)
		}
	}
	return total, nil
}

// ── Fake Authorizer ──

// fakeAuthorizer 按 userID → 权限键集合判定，"*" 表示全部
type fakeAuthorizer struct {
	grants  map[string]map[string]bool
	roles   map[string][]string
	reloads int
}

func newFakeAuthorizer() *fakeAuthorizer {
	return &fakeAuthorizer{grants: make(map[string]map[string]bool), roles: make(map[string][]string)}
}

func (f *fakeAuthorizer) grant(userID string, keys ...string) {
	if f.grants[userID] == nil {
		f.grants[userID] = make(map[string]bool)
	}
	for _, k := range keys {
		f.grants[userID][k] = true
	}
}

func (f *fakeAuthorizer) Mode() authz.Mode { return authz.ModeEnforce }

func (f *fakeAuthorizer) Check(_ context.Context, userID, key string) (bool, error) {
	g := f.grants[userID]
	return g["*"] || g[key], nil
}

func (f *fakeAuthorizer) Require(ctx context.Context, userID, key string) (authz.Decision, error) {
	ok, _ := f.Check(ctx, userID, key)
	d := authz.Decision{Allowed: ok, Key: key}
	if !ok {
		d.Message = authz.DeniedMessage(key)
	}
	return d, nil
}

func (f *fakeAuthorizer) Roles(_ context.Context, userID string) ([]string, error) {
	return f.roles[userID], nil
}

func (f *fakeAuthorizer) Reload(_ context.Context) error {
	f.reloads++
	return nil
}

// ── Fake PasswordResetter ──

type fakePasswordResetter struct {
	err   error
	calls map[string]string
}

func (f *fakePasswordResetter) AdminUpdatePassword(_ context.Context, userID, password string) error {
	if f.err != nil {
		return f.err
	}
	if f.calls == nil {
		f.calls = make(map[string]string)
	}
	f.calls[userID] = password
	return nil
}

// ── 测试夹具 ──

type testRepos struct {
	profile    *mockProfileRepo
	permission *mockPermissionRepo
	template   *mockTaskTemplateRepo
	assignment *mockTaskAssignmentRepo
	campaign   *mockCampaignRepo
	store      *mockStoreRepo
	employee   *mockEmployeeRepo
	inspection *mockInspectionRepo
	payroll    *mockPayrollRepo
}

func newTestRepos() (*testRepos, *repository.Repository) {
	profiles := newMockProfileRepo()
	r := &testRepos{
		profile:    profiles,
		permission: newMockPermissionRepo(),
		template:   newMockTaskTemplateRepo(),
		assignment: newMockTaskAssignmentRepo(),
		campaign:   newMockCampaignRepo(),
		store:      newMockStoreRepo(profiles),
		employee:   newMockEmployeeRepo(),
		inspection: newMockInspectionRepo(),
		payroll:    newMockPayrollRepo(),
	}
	return r, &repository.Repository{
		Profile:        r.profile,
		Permission:     r.permission,
		TaskTemplate:   r.template,
		TaskAssignment: r.assignment,
		Campaign:       r.campaign,
		Store:          r.store,
		Employee:       r.employee,
		Inspection:     r.inspection,
		Payroll:        r.payroll,
	}
}

func testLogger() *zap.Logger { return zap.NewNop() }

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func ptrEq(p *string, v string) bool { return p != nil && *p == v }

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
