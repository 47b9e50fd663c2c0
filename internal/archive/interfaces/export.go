// Package interfaces renders archived weeks for download.
package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	archive "plantpulse/internal/archive/domain"
)

// BuildArchivePDF renders a minimal PDF for an archived week.
func BuildArchivePDF(record archive.WeeklyArchive) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Weekly Submission Archive")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Week: %s to %s", record.Period.Start, record.Period.End))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Timezone: %s", record.Period.TZ))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Winner: %s", record.Winner))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Saved: %s", record.SavedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	// Per-day table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "1st", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "2nd", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "3rd", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, day := range record.Days {
		pdf.CellFormat(50, 6, day.Label, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", day.First), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", day.Second), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", day.Third), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "1st", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "2nd", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "3rd", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	rows := []struct {
		label  string
		counts [3]int
	}{
		{"Raw total", [3]int{record.Totals.First, record.Totals.Second, record.Totals.Third}},
		{"Counted", [3]int{record.Counted.First, record.Counted.Second, record.Counted.Third}},
		{"Percent", [3]int{record.Percent.First, record.Percent.Second, record.Percent.Third}},
	}
	for _, row := range rows {
		pdf.CellFormat(50, 6, row.label, "1", 0, "L", false, 0, "")
		for _, value := range row.counts {
			pdf.CellFormat(40, 6, fmt.Sprintf("%d", value), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildArchiveXLSX renders a minimal XLSX for an archived week.
func BuildArchiveXLSX(record archive.WeeklyArchive) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	daysSheet := "days"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(daysSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Weekly Submission Archive")
	_ = f.SetCellValue(summarySheet, "A3", "Week start")
	_ = f.SetCellValue(summarySheet, "B3", record.Period.Start)
	_ = f.SetCellValue(summarySheet, "A4", "Week end")
	_ = f.SetCellValue(summarySheet, "B4", record.Period.End)
	_ = f.SetCellValue(summarySheet, "A5", "Timezone")
	_ = f.SetCellValue(summarySheet, "B5", record.Period.TZ)
	_ = f.SetCellValue(summarySheet, "A6", "Winner")
	_ = f.SetCellValue(summarySheet, "B6", record.Winner)
	_ = f.SetCellValue(summarySheet, "A7", "Saved")
	_ = f.SetCellValue(summarySheet, "B7", record.SavedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A9", "Shift")
	_ = f.SetCellValue(summarySheet, "B9", "Raw total")
	_ = f.SetCellValue(summarySheet, "C9", "Counted")
	_ = f.SetCellValue(summarySheet, "D9", "Percent")
	shiftRows := []struct {
		label                    string
		total, counted, percent int
	}{
		{"1st", record.Totals.First, record.Counted.First, record.Percent.First},
		{"2nd", record.Totals.Second, record.Counted.Second, record.Percent.Second},
		{"3rd", record.Totals.Third, record.Counted.Third, record.Percent.Third},
	}
	for i, row := range shiftRows {
		r := i + 10
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", r), row.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", r), row.total)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", r), row.counted)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", r), row.percent)
	}

	_ = f.SetCellValue(daysSheet, "A1", "Day")
	_ = f.SetCellValue(daysSheet, "B1", "1st")
	_ = f.SetCellValue(daysSheet, "C1", "2nd")
	_ = f.SetCellValue(daysSheet, "D1", "3rd")
	for i, day := range record.Days {
		row := i + 2
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("A%d", row), day.Label)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("B%d", row), day.First)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("C%d", row), day.Second)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("D%d", row), day.Third)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
