package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pharmacy-ops/backend/internal/model"
)

func bonusRows(n int) []model.SupportStaffBonus {
	rows := make([]model.SupportStaffBonus, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, model.SupportStaffBonus{
			EmployeeCode: "E00" + string(rune('1'+i)),
			EmployeeName: "员工",
			SupportDays:  decimal.NewFromInt(2),
			Amount:       decimal.NewFromInt(int64(100 * (i + 1))),
		})
	}
	return rows
}

func readSheet(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(bonusSheetName)
	require.NoError(t, err)
	return rows
}

func TestBuildBonusWorkbook_RowCount(t *testing.T) {
	buf, err := BuildBonusWorkbook(BonusSheet{YearMonth: "202403", Rows: bonusRows(3)})
	require.NoError(t, err)

	rows := readSheet(t, buf)
	require.Len(t, rows, 1+3)
	assert.Equal(t, []string{"工号", "姓名", "支援天数", "金额", "备注"}, rows[0][:5])
	assert.Equal(t, "E001", rows[1][0])
	assert.Equal(t, "300", rows[3][3])
}

func TestBuildBonusWorkbook_WithTotal(t *testing.T) {
	buf, err := BuildBonusWorkbook(BonusSheet{YearMonth: "202403", Rows: bonusRows(3), WithTotal: true})
	require.NoError(t, err)

	rows := readSheet(t, buf)
	require.Len(t, rows, 1+3+1)
	last := rows[len(rows)-1]
	assert.Equal(t, "合计", last[0])
	assert.Equal(t, "600", last[3])
}

func TestBuildBonusWorkbook_Empty(t *testing.T) {
	buf, err := BuildBonusWorkbook(BonusSheet{YearMonth: "202403"})
	require.NoError(t, err)
	assert.Len(t, readSheet(t, buf), 1)
}

func TestBonusFilename(t *testing.T) {
	assert.Equal(t, "支援奖金_城东店_202403.xlsx", BonusFilename("城东店", "202403"))
	assert.Equal(t, "支援奖金_202403.xlsx", BonusFilename("", "202403"))
}

func mealWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadMealAllowanceSheet(t *testing.T) {
	buf := mealWorkbook(t, [][]interface{}{
		{"姓名", "工号", "金额", "天数", "备注"},
		{"张三", "E001", "420.5", "21", ""},
		{"", "", "", "", ""},
		{"李四", "", "300", "20", ""},
		{"王五", "E003", "abc", "20", ""},
		{"赵六", "E004", "1,200", "", "补发"},
	})

	rows, rowErrs, err := ReadMealAllowanceSheet(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "E001", rows[0].EmployeeCode)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("420.5")))
	assert.True(t, rows[0].Days.Equal(decimal.NewFromInt(21)))
	assert.Equal(t, 2, rows[0].Line)
	assert.True(t, rows[1].Amount.Equal(decimal.NewFromInt(1200)))
	assert.True(t, rows[1].Days.IsZero())
	assert.Equal(t, "补发", rows[1].Note)

	require.Len(t, rowErrs, 2)
	assert.Equal(t, 4, rowErrs[0].Line)
	assert.Equal(t, 5, rowErrs[1].Line)
}

func TestReadMealAllowanceSheet_MissingHeader(t *testing.T) {
	buf := mealWorkbook(t, [][]interface{}{
		{"姓名", "天数"},
		{"张三", "21"},
	})
	_, _, err := ReadMealAllowanceSheet(buf)
	assert.ErrorIs(t, err, ErrSheetHeader)
}

func TestReadMealAllowanceSheet_Empty(t *testing.T) {
	buf := mealWorkbook(t, [][]interface{}{{"工号", "姓名", "金额"}})
	_, _, err := ReadMealAllowanceSheet(buf)
	assert.ErrorIs(t, err, ErrSheetEmpty)
}

func TestPageOffsets(t *testing.T) {
	cases := []struct {
		name    string
		h, p    float64
		offsets []float64
	}{
		{"shorter than a page", 100, 190, []float64{0}},
		{"exactly one page", 190, 190, []float64{0}},
		{"just over one page", 191, 190, []float64{0, -190}},
		{"three pages", 500, 190, []float64{0, -190, -380}},
		{"empty content", 0, 190, []float64{0}},
		{"bad page height", 500, 0, []float64{0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.offsets, PageOffsets(tc.h, tc.p))
		})
	}
}

func staffRows(n int) []model.MonthlyStaffStatus {
	rows := make([]model.MonthlyStaffStatus, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, model.MonthlyStaffStatus{
			EmployeeCode:     "E100",
			EmployeeName:     "Zhang",
			Position:         "clerk",
			EmploymentStatus: "active",
			WorkDays:         decimal.NewFromInt(22),
			BaseBonus:        decimal.NewFromInt(500),
			TotalAmount:      decimal.NewFromInt(500),
		})
	}
	return rows
}

func TestBuildStaffStatusPDF_Pagination(t *testing.T) {
	// A4 横向可打印高度 210-20=190mm；标题 12 + 行高 8
	one, err := BuildStaffStatusPDF(StaffStatusReport{YearMonth: "202403", Rows: staffRows(5)}, PDFOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, one.Pages)
	assert.True(t, bytes.HasPrefix(one.Data, []byte("%PDF-")))

	many, err := BuildStaffStatusPDF(StaffStatusReport{YearMonth: "202403", Rows: staffRows(60)}, PDFOptions{})
	require.NoError(t, err)
	// 12 + 61*8 = 500 → 3 页
	assert.Equal(t, 3, many.Pages)
}

func TestBuildStaffStatusPDF_Deterministic(t *testing.T) {
	report := StaffStatusReport{StoreName: "East", YearMonth: "202403", Rows: staffRows(30)}
	a, err := BuildStaffStatusPDF(report, PDFOptions{})
	require.NoError(t, err)
	b, err := BuildStaffStatusPDF(report, PDFOptions{})
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

func TestBuildStaffStatusPDF_BadFont(t *testing.T) {
	_, err := BuildStaffStatusPDF(StaffStatusReport{YearMonth: "202403"}, PDFOptions{FontPath: "/nonexistent/font.ttf"})
	assert.Error(t, err)
}

func TestAsciiOnly(t *testing.T) {
	assert.Equal(t, "E1 ??", asciiOnly("E1 张三"))
}

func TestBuildCampaignCalendar(t *testing.T) {
	store := "store-1"
	campaigns := []model.Campaign{
		{
			ID: "c1", Title: "春季促销",
			StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			Schedules: []model.CampaignSchedule{{
				ID: "s1", Title: "陈列", StoreID: &store,
				StartDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
			}},
		},
		{
			ID: "c2", Title: "会员日",
			StartDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	out := BuildCampaignCalendar("活动日历", campaigns, stamp)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "UID:schedule-s1@pharmacy-ops")
	assert.Contains(t, out, "UID:campaign-c2@pharmacy-ops")
	assert.Contains(t, out, "20240305")
	assert.Contains(t, out, "20240308") // 结束日期次日
	assert.Contains(t, out, "20240402")

	assert.Equal(t, out, BuildCampaignCalendar("活动日历", campaigns, stamp))
}
