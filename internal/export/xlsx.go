package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pharmacy-ops/backend/internal/model"
)

var (
	// ErrSheetEmpty 导入文件没有任何数据行
	ErrSheetEmpty = errors.New("表格中没有数据")
	// ErrSheetHeader 导入文件缺少必需列
	ErrSheetHeader = errors.New("表格缺少必需列")
)

const bonusSheetName = "支援奖金"

// bonusHeaders 支援奖金导出列头
var bonusHeaders = []interface{}{"工号", "姓名", "支援天数", "金额", "备注"}

// BonusSheet 支援奖金导出输入
type BonusSheet struct {
	StoreName string
	YearMonth string
	Rows      []model.SupportStaffBonus
	WithTotal bool // 末尾追加合计行
}

// BonusFilename 导出文件名，形如 支援奖金_城东店_202403.xlsx
func BonusFilename(storeName, yearMonth string) string {
	if storeName == "" {
		return fmt.Sprintf("支援奖金_%s.xlsx", yearMonth)
	}
	return fmt.Sprintf("支援奖金_%s_%s.xlsx", storeName, yearMonth)
}

// BuildBonusWorkbook 生成支援奖金工作簿
//
// 布局：第 1 行为列头，随后每条记录一行；WithTotal 时追加一行合计。
func BuildBonusWorkbook(in BonusSheet) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bonusSheetName); err != nil {
		return nil, err
	}

	header := bonusHeaders
	if err := f.SetSheetRow(bonusSheetName, "A1", &header); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i, r := range in.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			r.EmployeeCode,
			r.EmployeeName,
			r.SupportDays.InexactFloat64(),
			r.Amount.InexactFloat64(),
			r.Note,
		}
		if err := f.SetSheetRow(bonusSheetName, cell, &row); err != nil {
			return nil, err
		}
		total = total.Add(r.Amount)
	}

	if in.WithTotal {
		cell, err := excelize.CoordinatesToCellName(1, len(in.Rows)+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{"合计", "", "", total.InexactFloat64(), ""}
		if err := f.SetSheetRow(bonusSheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(bonusSheetName, "A1", "E1", bold); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(bonusSheetName, "A", "B", 14)
	_ = f.SetColWidth(bonusSheetName, "E", "E", 30)

	return f.WriteToBuffer()
}

// MealAllowanceRow 伙食补贴导入行
type MealAllowanceRow struct {
	Line         int // Excel 行号（从 1 开始）
	EmployeeCode string
	EmployeeName string
	Days         decimal.Decimal
	Amount       decimal.Decimal
	Note         string
}

// RowError 单行解析错误
type RowError struct {
	Line    int
	Message string
}

// 导入列头别名
var mealColumnAliases = map[string][]string{
	"code":   {"工号", "员工编号"},
	"name":   {"姓名", "员工姓名"},
	"days":   {"天数", "出勤天数"},
	"amount": {"金额", "补贴金额"},
	"note":   {"备注"},
}

// ReadMealAllowanceSheet 解析伙食补贴导入文件的第一个工作表
//
// 列头按别名匹配，顺序不限；工号、姓名、金额为必需列。
// 无法解析的行记入 RowError 并跳过，不中断整体解析。
func ReadMealAllowanceSheet(r io.Reader) ([]MealAllowanceRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("读取表格失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrSheetEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, ErrSheetEmpty
	}

	cols := locateColumns(rows[0])
	for _, required := range []string{"code", "name", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrSheetHeader, mealColumnAliases[required][0])
		}
	}

	var (
		out     []MealAllowanceRow
		rowErrs []RowError
	)
	for i, raw := range rows[1:] {
		line := i + 2
		get := func(key string) string {
			idx, ok := cols[key]
			if !ok || idx >= len(raw) {
				return ""
			}
			return strings.TrimSpace(raw[idx])
		}

		code, name := get("code"), get("name")
		if code == "" && name == "" && get("amount") == "" {
			continue // 空行
		}
		if code == "" || name == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "工号或姓名为空"})
			continue
		}

		amount, err := parseDecimal(get("amount"))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "金额格式错误: " + get("amount")})
			continue
		}
		days, err := parseDecimal(get("days"))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "天数格式错误: " + get("days")})
			continue
		}
		if amount.IsNegative() || days.IsNegative() {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "金额与天数不能为负数"})
			continue
		}

		out = append(out, MealAllowanceRow{
			Line:         line,
			EmployeeCode: code,
			EmployeeName: name,
			Days:         days,
			Amount:       amount,
			Note:         get("note"),
		})
	}
	return out, rowErrs, nil
}

func locateColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for idx, h := range header {
		h = strings.TrimSpace(h)
		for key, aliases := range mealColumnAliases {
			for _, a := range aliases {
				if h == a {
					if _, seen := cols[key]; !seen {
						cols[key] = idx
					}
				}
			}
		}
	}
	return cols
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}
