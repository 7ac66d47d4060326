package service

import (
	"bytes"
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/config"
	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/export"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出以内存缓冲返回，由 Handler 层设置 Content-Disposition 后写入响应。
// 相同输入产出相同字节。
type ExportService interface {
	// BonusWorkbook 支援奖金导出为 Excel，含合计行
	BonusWorkbook(ctx context.Context, q *dto.StoreMonthQuery) (*bytes.Buffer, string, error)
	// StaffStatusPDF 员工月度状态导出为 PDF
	StaffStatusPDF(ctx context.Context, q *dto.StoreMonthQuery) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	cfg    config.ExportConfig
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, cfg config.ExportConfig, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, cfg: cfg, logger: logger}
}

// ────────────────────── BonusWorkbook ──────────────────────

func (s *exportService) BonusWorkbook(ctx context.Context, q *dto.StoreMonthQuery) (*bytes.Buffer, string, error) {
	store, err := s.getStore(ctx, q.StoreID)
	if err != nil {
		return nil, "", err
	}
	rows, err := s.repo.Payroll.ListBonus(ctx, q.StoreID, q.YearMonth)
	if err != nil {
		s.logger.Error("查询支援奖金失败", zap.String("store_id", q.StoreID), zap.Error(err))
		return nil, "", err
	}

	buf, err := export.BuildBonusWorkbook(export.BonusSheet{
		StoreName: store.Name,
		YearMonth: q.YearMonth,
		Rows:      rows,
		WithTotal: true,
	})
	if err != nil {
		s.logger.Error("生成支援奖金表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("支援奖金已导出",
		zap.String("store_id", q.StoreID),
		zap.String("year_month", q.YearMonth),
		zap.Int("rows", len(rows)),
	)
	return buf, export.BonusFilename(store.Name, q.YearMonth), nil
}

// ────────────────────── StaffStatusPDF ──────────────────────

func (s *exportService) StaffStatusPDF(ctx context.Context, q *dto.StoreMonthQuery) ([]byte, string, error) {
	store, err := s.getStore(ctx, q.StoreID)
	if err != nil {
		return nil, "", err
	}
	rows, err := s.repo.Payroll.ListStaffStatus(ctx, q.StoreID, q.YearMonth)
	if err != nil {
		s.logger.Error("查询月度状态失败", zap.String("store_id", q.StoreID), zap.Error(err))
		return nil, "", err
	}

	result, err := export.BuildStaffStatusPDF(export.StaffStatusReport{
		StoreName: store.Name,
		YearMonth: q.YearMonth,
		Rows:      rows,
	}, export.PDFOptions{FontPath: s.fontPath()})
	if err != nil {
		s.logger.Error("生成月度状态 PDF 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("月度状态已导出",
		zap.String("store_id", q.StoreID),
		zap.String("year_month", q.YearMonth),
		zap.Int("rows", len(rows)),
		zap.Int("pages", result.Pages),
	)
	return result.Data, export.StaffStatusFilename(store.Name, q.YearMonth), nil
}

// ── 内部方法 ──

func (s *exportService) getStore(ctx context.Context, id string) (*model.Store, error) {
	store, err := s.repo.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		s.logger.Error("查询门店失败", zap.String("store_id", id), zap.Error(err))
		return nil, err
	}
	return store, nil
}

// fontPath 配置的字体不可读时退回内置字体
func (s *exportService) fontPath() string {
	if s.cfg.PDFFontPath == "" {
		return ""
	}
	if _, err := os.Stat(s.cfg.PDFFontPath); err != nil {
		s.logger.Warn("PDF 字体不可用，使用内置字体", zap.String("path", s.cfg.PDFFontPath), zap.Error(err))
		return ""
	}
	return s.cfg.PDFFontPath
}
