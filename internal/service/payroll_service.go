package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/export"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

// ── 薪资模块业务错误 ──

var (
	ErrBonusDuplicateEmployee = errors.New("同一员工在一批奖金中出现多次")
	ErrNegativeAmount         = errors.New("金额与天数不能为负数")
	ErrMealAllowanceNotFound  = errors.New("伙食补贴记录不存在")
	ErrTransportNotFound      = errors.New("交通费记录不存在")
	ErrImportFile             = errors.New("导入文件无法解析")
	ErrImportEmpty            = errors.New("导入文件没有可用数据")
)

// PayrollService 月度状态、支援奖金、伙食补贴、交通费业务接口
type PayrollService interface {
	ListStaffStatus(ctx context.Context, q *dto.StoreMonthQuery) ([]dto.MonthlyStaffStatusResponse, error)

	ListBonus(ctx context.Context, q *dto.StoreMonthQuery) (*dto.BonusBatchResponse, error)
	// ReplaceBonus 在一个事务中整批替换 (store, year_month) 的支援奖金
	ReplaceBonus(ctx context.Context, req *dto.ReplaceBonusRequest, callerID string) (*dto.BonusBatchResponse, error)

	ListMealAllowances(ctx context.Context, q *dto.StoreMonthQuery) ([]dto.MealAllowanceResponse, error)
	UpsertMealAllowance(ctx context.Context, req *dto.UpsertMealAllowanceRequest, callerID string) (*dto.MealAllowanceResponse, error)
	DeleteMealAllowance(ctx context.Context, id string) error
	// ImportMealAllowances 从 xlsx 导入；可解析的行在一条语句内 upsert，其余行报告原因
	ImportMealAllowances(ctx context.Context, q *dto.StoreMonthQuery, r io.Reader, callerID string) (*dto.ImportResultResponse, error)

	ListTransportExpenses(ctx context.Context, q *dto.StoreMonthQuery) ([]dto.TransportExpenseResponse, error)
	UpsertTransportExpense(ctx context.Context, req *dto.UpsertTransportExpenseRequest, callerID string) (*dto.TransportExpenseResponse, error)
	DeleteTransportExpense(ctx context.Context, id string) error
}

type payrollService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewPayrollService 创建 PayrollService 实例
func NewPayrollService(repo *repository.Repository, logger *zap.Logger) PayrollService {
	return &payrollService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── 月度状态 ──────────────────────

func (s *payrollService) ListStaffStatus(ctx context.Context, q *dto.StoreMonthQuery) ([]dto.MonthlyStaffStatusResponse, error) {
	rows, err := s.repo.Payroll.ListStaffStatus(ctx, q.StoreID, q.YearMonth)
	if err != nil {
		s.logger.Error("查询月度状态失败", zap.String("store_id", q.StoreID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MonthlyStaffStatusResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toStaffStatusResponse(&rows[i]))
	}
	return result, nil
}

// ────────────────────── 支援奖金 ──────────────────────

func (s *payrollService) ListBonus(ctx context.Context, q *dto.StoreMonthQuery) (*dto.BonusBatchResponse, error) {
	rows, err := s.repo.Payroll.ListBonus(ctx, q.StoreID, q.YearMonth)
	if err != nil {
		s.logger.Error("查询支援奖金失败", zap.String("store_id", q.StoreID), zap.Error(err))
		return nil, err
	}
	return toBonusBatchResponse(q.StoreID, q.YearMonth, rows), nil
}

func (s *payrollService) ReplaceBonus(ctx context.Context, req *dto.ReplaceBonusRequest, callerID string) (*dto.BonusBatchResponse, error) {
	if _, err := s.repo.Store.GetByID(ctx, req.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		s.logger.Error("查询门店失败", zap.Error(err))
		return nil, err
	}

	rows := make([]model.SupportStaffBonus, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	for _, it := range req.Items {
		if seen[it.EmployeeCode] {
			return nil, fmt.Errorf("%w: %s", ErrBonusDuplicateEmployee, it.EmployeeCode)
		}
		seen[it.EmployeeCode] = true
		if it.Amount.IsNegative() || it.SupportDays.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, it.EmployeeCode)
		}
		rows = append(rows, model.SupportStaffBonus{
			EmployeeCode: it.EmployeeCode,
			EmployeeName: it.EmployeeName,
			StoreID:      req.StoreID,
			YearMonth:    req.YearMonth,
			SupportDays:  it.SupportDays,
			Amount:       it.Amount,
			Note:         it.Note,
			CreatedBy:    callerID,
		})
	}

	if err := s.repo.Payroll.ReplaceBonusBatch(ctx, req.StoreID, req.YearMonth, rows); err != nil {
		s.logger.Error("替换支援奖金失败",
			zap.String("store_id", req.StoreID),
			zap.String("year_month", req.YearMonth),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("支援奖金已替换",
		zap.String("store_id", req.StoreID),
		zap.String("year_month", req.YearMonth),
		zap.Int("rows", len(rows)),
		zap.String("operator", callerID),
	)
	return toBonusBatchResponse(req.StoreID, req.YearMonth, rows), nil
}

// ────────────────────── 伙食补贴 ──────────────────────

func (s *payrollService) ListMealAllowances(ctx context.Context, q *dto.StoreMonthQuery) ([]dto.MealAllowanceResponse, error) {
	rows, err := s.repo.Payroll.ListMealAllowances(ctx, q.StoreID, q.YearMonth)
	if err != nil {
		s.logger.Error("查询伙食补贴失败", zap.String("store_id", q.StoreID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MealAllowanceResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toMealAllowanceResponse(&rows[i]))
	}
	return result, nil
}

func (s *payrollService) UpsertMealAllowance(ctx context.Context, req *dto.UpsertMealAllowanceRequest, callerID string) (*dto.MealAllowanceResponse, error) {
	if req.Amount.IsNegative() || req.Days.IsNegative() {
		return nil, ErrNegativeAmount
	}
	row := model.MealAllowanceRecord{
		EmployeeCode: req.EmployeeCode,
		EmployeeName: req.EmployeeName,
		StoreID:      req.StoreID,
		YearMonth:    req.YearMonth,
		Days:         req.Days,
		Amount:       req.Amount,
		Note:         req.Note,
		UpdatedBy:    callerID,
		UpdatedAt:    s.now(),
	}
	rows := []model.MealAllowanceRecord{row}
	if err := s.repo.Payroll.UpsertMealAllowances(ctx, rows); err != nil {
		if pkgerrors.Classify(err) == pkgerrors.ErrReferenced {
			return nil, ErrStoreNotFound
		}
		s.logger.Error("保存伙食补贴失败", zap.String("employee_code", req.EmployeeCode), zap.Error(err))
		return nil, err
	}
	resp := toMealAllowanceResponse(&rows[0])
	return &resp, nil
}

func (s *payrollService) DeleteMealAllowance(ctx context.Context, id string) error {
	if err := s.repo.Payroll.DeleteMealAllowance(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMealAllowanceNotFound
		}
		s.logger.Error("删除伙食补贴失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *payrollService) ImportMealAllowances(ctx context.Context, q *dto.StoreMonthQuery, r io.Reader, callerID string) (*dto.ImportResultResponse, error) {
	if _, err := s.repo.Store.GetByID(ctx, q.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		s.logger.Error("查询门店失败", zap.Error(err))
		return nil, err
	}

	parsed, rowErrs, err := export.ReadMealAllowanceSheet(r)
	switch {
	case errors.Is(err, export.ErrSheetEmpty):
		return nil, ErrImportEmpty
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrImportFile, err)
	}

	result := &dto.ImportResultResponse{Skipped: make([]dto.ImportRowError, 0, len(rowErrs))}
	for _, e := range rowErrs {
		result.Skipped = append(result.Skipped, dto.ImportRowError{Row: e.Line, Reason: e.Message})
	}

	// 同一工号多次出现时保留首行；单条 upsert 语句不能两次命中同一行
	now := s.now()
	rows := make([]model.MealAllowanceRecord, 0, len(parsed))
	firstLine := make(map[string]int, len(parsed))
	for _, p := range parsed {
		if line, ok := firstLine[p.EmployeeCode]; ok {
			result.Skipped = append(result.Skipped, dto.ImportRowError{
				Row:    p.Line,
				Reason: fmt.Sprintf("工号 %s 与第 %d 行重复", p.EmployeeCode, line),
			})
			continue
		}
		firstLine[p.EmployeeCode] = p.Line
		rows = append(rows, model.MealAllowanceRecord{
			EmployeeCode: p.EmployeeCode,
			EmployeeName: p.EmployeeName,
			StoreID:      q.StoreID,
			YearMonth:    q.YearMonth,
			Days:         p.Days,
			Amount:       p.Amount,
			Note:         p.Note,
			UpdatedBy:    callerID,
			UpdatedAt:    now,
		})
	}
	if len(rows) == 0 {
		if len(result.Skipped) == 0 {
			return nil, ErrImportEmpty
		}
		return result, nil
	}

	if err := s.repo.Payroll.UpsertMealAllowances(ctx, rows); err != nil {
		s.logger.Error("导入伙食补贴失败",
			zap.String("store_id", q.StoreID),
			zap.String("year_month", q.YearMonth),
			zap.Error(err),
		)
		return nil, err
	}
	result.Imported = len(rows)

	s.logger.Info("伙食补贴已导入",
		zap.String("store_id", q.StoreID),
		zap.String("year_month", q.YearMonth),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// ────────────────────── 交通费 ──────────────────────

func (s *payrollService) ListTransportExpenses(ctx context.Context, q *dto.StoreMonthQuery) ([]dto.TransportExpenseResponse, error) {
	rows, err := s.repo.Payroll.ListTransportExpenses(ctx, q.StoreID, q.YearMonth)
	if err != nil {
		s.logger.Error("查询交通费失败", zap.String("store_id", q.StoreID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.TransportExpenseResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toTransportExpenseResponse(&rows[i]))
	}
	return result, nil
}

func (s *payrollService) UpsertTransportExpense(ctx context.Context, req *dto.UpsertTransportExpenseRequest, callerID string) (*dto.TransportExpenseResponse, error) {
	if req.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	row := &model.TransportExpense{
		EmployeeCode: req.EmployeeCode,
		EmployeeName: req.EmployeeName,
		StoreID:      req.StoreID,
		YearMonth:    req.YearMonth,
		Trips:        req.Trips,
		Amount:       req.Amount,
		Note:         req.Note,
		UpdatedBy:    callerID,
		UpdatedAt:    s.now(),
	}
	if err := s.repo.Payroll.UpsertTransportExpense(ctx, row); err != nil {
		if pkgerrors.Classify(err) == pkgerrors.ErrReferenced {
			return nil, ErrStoreNotFound
		}
		s.logger.Error("保存交通费失败", zap.String("employee_code", req.EmployeeCode), zap.Error(err))
		return nil, err
	}
	resp := toTransportExpenseResponse(row)
	return &resp, nil
}

func (s *payrollService) DeleteTransportExpense(ctx context.Context, id string) error {
	if err := s.repo.Payroll.DeleteTransportExpense(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransportNotFound
		}
		s.logger.Error("删除交通费失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部方法 ──

func toStaffStatusResponse(r *model.MonthlyStaffStatus) dto.MonthlyStaffStatusResponse {
	return dto.MonthlyStaffStatusResponse{
		ID:                 r.ID,
		EmployeeCode:       r.EmployeeCode,
		EmployeeName:       r.EmployeeName,
		StoreID:            r.StoreID,
		YearMonth:          r.YearMonth,
		Position:           r.Position,
		EmploymentStatus:   r.EmploymentStatus,
		WorkDays:           r.WorkDays,
		BaseBonus:          r.BaseBonus,
		TransportAllowance: r.TransportAllowance,
		MealAllowance:      r.MealAllowance,
		TotalAmount:        r.TotalAmount,
	}
}

func toBonusBatchResponse(storeID, yearMonth string, rows []model.SupportStaffBonus) *dto.BonusBatchResponse {
	resp := &dto.BonusBatchResponse{
		StoreID:   storeID,
		YearMonth: yearMonth,
		Total:     decimal.Zero,
		Items:     make([]dto.SupportStaffBonusResponse, 0, len(rows)),
	}
	for _, r := range rows {
		resp.Total = resp.Total.Add(r.Amount)
		resp.Items = append(resp.Items, dto.SupportStaffBonusResponse{
			ID:           r.ID,
			EmployeeCode: r.EmployeeCode,
			EmployeeName: r.EmployeeName,
			StoreID:      r.StoreID,
			YearMonth:    r.YearMonth,
			SupportDays:  r.SupportDays,
			Amount:       r.Amount,
			Note:         r.Note,
		})
	}
	return resp
}

func toMealAllowanceResponse(r *model.MealAllowanceRecord) dto.MealAllowanceResponse {
	return dto.MealAllowanceResponse{
		ID:           r.ID,
		EmployeeCode: r.EmployeeCode,
		EmployeeName: r.EmployeeName,
		StoreID:      r.StoreID,
		YearMonth:    r.YearMonth,
		Days:         r.Days,
		Amount:       r.Amount,
		Note:         r.Note,
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
}

func toTransportExpenseResponse(r *model.TransportExpense) dto.TransportExpenseResponse {
	return dto.TransportExpenseResponse{
		ID:           r.ID,
		EmployeeCode: r.EmployeeCode,
		EmployeeName: r.EmployeeName,
		StoreID:      r.StoreID,
		YearMonth:    r.YearMonth,
		Trips:        r.Trips,
		Amount:       r.Amount,
		Note:         r.Note,
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
}
