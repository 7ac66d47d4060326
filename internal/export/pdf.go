package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"pharmacy-ops/backend/internal/model"
)

// PageOffsets 计算整张内容按页高切片时每页的纵向偏移
//
// 第 k 页偏移为 -k*pageHeight；剩余高度 (H - k*P) 依次累减，直到不大于 0 为止。
// 至少返回一页。
func PageOffsets(contentHeight, pageHeight float64) []float64 {
	offsets := []float64{0}
	if pageHeight <= 0 {
		return offsets
	}
	heightLeft := contentHeight - pageHeight
	for heightLeft > 0 {
		offsets = append(offsets, heightLeft-contentHeight)
		heightLeft -= pageHeight
	}
	return offsets
}

// StaffStatusReport 月度状态 PDF 输入
type StaffStatusReport struct {
	StoreName string
	YearMonth string
	Rows      []model.MonthlyStaffStatus
}

// PDFOptions PDF 渲染选项
type PDFOptions struct {
	// FontPath 中文 TTF 字体；为空时使用内置 Helvetica 与英文列头，非 ASCII 字符替换为 ?
	FontPath string
}

// PDFResult 渲染结果
type PDFResult struct {
	Data  []byte
	Pages int
}

// StaffStatusFilename 导出文件名
func StaffStatusFilename(storeName, yearMonth string) string {
	if storeName == "" {
		return fmt.Sprintf("员工月度状态_%s.pdf", yearMonth)
	}
	return fmt.Sprintf("员工月度状态_%s_%s.pdf", storeName, yearMonth)
}

// 版面参数（mm，A4 横向）
const (
	pdfMargin    = 10.0
	pdfTitleH    = 12.0
	pdfRowH      = 8.0
	pdfFontSize  = 9.0
	pdfTitleSize = 13.0
	pdfFontName  = "report"
)

var (
	staffColumnsZH = []string{"工号", "姓名", "职位", "状态", "出勤天数", "基础奖金", "交通补贴", "伙食补贴", "合计"}
	staffColumnsEN = []string{"Code", "Name", "Position", "Status", "Days", "Base", "Transport", "Meal", "Total"}
	staffColWidths = []float64{24, 30, 34, 24, 24, 32, 32, 32, 45}
)

// 固定元数据时间，保证相同输入产出相同文件
var pdfEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// BuildStaffStatusPDF 将月度状态渲染为表格并按页高切片分页
//
// 整张表按一块连续内容排版（标题 + 列头 + N 行），每页以 PageOffsets 的偏移
// 平移后裁剪到可打印区域，与先整体渲染再切片的效果一致。
func BuildStaffStatusPDF(report StaffStatusReport, opts PDFOptions) (*PDFResult, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetModificationDate(pdfEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)

	columns := staffColumnsEN
	text := asciiOnly
	family := "Helvetica"
	if opts.FontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", opts.FontPath)
		family = pdfFontName
		columns = staffColumnsZH
		text = func(s string) string { return s }
	}
	if pdf.Err() {
		return nil, fmt.Errorf("加载字体失败: %w", pdf.Error())
	}

	_, pageH := pdf.GetPageSize()
	printable := pageH - 2*pdfMargin
	contentH := pdfTitleH + pdfRowH*float64(len(report.Rows)+1)

	title := fmt.Sprintf("%s %s", report.StoreName, report.YearMonth)
	if opts.FontPath != "" {
		title = fmt.Sprintf("%s 员工月度状态 %s", report.StoreName, report.YearMonth)
	} else {
		title = "Monthly staff status " + title
	}

	tableW := 0.0
	for _, w := range staffColWidths {
		tableW += w
	}

	offsets := PageOffsets(contentH, printable)
	for _, off := range offsets {
		pdf.AddPage()
		pdf.ClipRect(pdfMargin, pdfMargin, tableW, printable, false)

		top := pdfMargin + off
		visible := func(y, h float64) bool {
			return y+h > pdfMargin && y < pdfMargin+printable
		}

		if visible(top, pdfTitleH) {
			pdf.SetFont(family, "", pdfTitleSize)
			pdf.SetXY(pdfMargin, top)
			pdf.CellFormat(tableW, pdfTitleH, text(title), "", 0, "L", false, 0, "")
		}

		pdf.SetFont(family, "", pdfFontSize)
		y := top + pdfTitleH
		if visible(y, pdfRowH) {
			pdf.SetFillColor(230, 230, 230)
			drawRow(pdf, y, columns, true)
		}
		y += pdfRowH

		for _, r := range report.Rows {
			if visible(y, pdfRowH) {
				drawRow(pdf, y, []string{
					text(r.EmployeeCode),
					text(r.EmployeeName),
					text(r.Position),
					text(r.EmploymentStatus),
					r.WorkDays.String(),
					r.BaseBonus.StringFixed(2),
					r.TransportAllowance.StringFixed(2),
					r.MealAllowance.StringFixed(2),
					r.TotalAmount.StringFixed(2),
				}, false)
			}
			y += pdfRowH
		}
		pdf.ClipEnd()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成 PDF 失败: %w", err)
	}
	return &PDFResult{Data: buf.Bytes(), Pages: len(offsets)}, nil
}

func drawRow(pdf *fpdf.Fpdf, y float64, cells []string, header bool) {
	pdf.SetXY(pdfMargin, y)
	for i, c := range cells {
		align := "L"
		if !header && i >= 4 {
			align = "R"
		}
		pdf.CellFormat(staffColWidths[i], pdfRowH, c, "1", 0, align, header, 0, "")
	}
}

func asciiOnly(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r > 0x7e {
			r = '?'
		}
		out = append(out, r)
	}
	return string(out)
}
