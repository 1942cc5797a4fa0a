package schedule

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Event 赛程表中的一行
type Event struct {
	RaceName  string
	StartDate string
	EndDate   string
}

// PDFOptions 赛程表选项
type PDFOptions struct {
	Title       string    // 标题，默认 "Upcoming Schedule"
	Team        string    // 页眉中的车队名
	GeneratedAt time.Time // 页脚时间，零值时使用当前时间
}

// 品牌红色
var accent = [3]int{220, 38, 38}

// RenderPDF 生成A4纵向的赛程表PDF
func RenderPDF(events []Event, opts PDFOptions) ([]byte, error) {
	if opts.Title == "" {
		opts.Title = "Upcoming Schedule"
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(opts.Title, false)
	if opts.Team != "" {
		pdf.SetAuthor(opts.Team, false)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Generated %s - page %d", opts.GeneratedAt.Format("Jan 2, 2006"), pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	if opts.Team != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(accent[0], accent[1], accent[2])
		pdf.CellFormat(0, 8, tr(opts.Team), "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 12, tr(opts.Title), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(events) == 0 {
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 10, "No events scheduled.", "", 1, "L", false, 0, "")
	} else {
		// 表头
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(accent[0], accent[1], accent[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(70, 9, "Date", "", 0, "L", true, 0, "")
		pdf.CellFormat(0, 9, "Race", "", 1, "L", true, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(0, 0, 0)
		for i, ev := range events {
			fill := i%2 == 1
			pdf.SetFillColor(243, 244, 246)
			pdf.CellFormat(70, 8, tr(FormatDateRange(ev.StartDate, ev.EndDate)), "B", 0, "L", fill, 0, "")
			pdf.CellFormat(0, 8, tr(ev.RaceName), "B", 1, "L", fill, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render schedule pdf: %w", err)
	}
	return buf.Bytes(), nil
}
