package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Profile        ProfileRepository
	Permission     PermissionRepository
	TaskTemplate   TaskTemplateRepository
	TaskAssignment TaskAssignmentRepository
	Campaign       CampaignRepository
	Store          StoreRepository
	Employee       EmployeeRepository
	Inspection     InspectionRepository
	Payroll        PayrollRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Profile:        NewProfileRepo(db),
		Permission:     NewPermissionRepo(db),
		TaskTemplate:   NewTaskTemplateRepo(db),
		TaskAssignment: NewTaskAssignmentRepo(db),
		Campaign:       NewCampaignRepo(db),
		Store:          NewStoreRepo(db),
		Employee:       NewEmployeeRepo(db),
		Inspection:     NewInspectionRepo(db),
		Payroll:        NewPayrollRepo(db),
	}
}
