package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/render"
)

// XLSXContentType is the MIME type for the exported workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var historyColumns = []string{"Date", "Time In", "Time Out", "Status", "Total", "Overtime", "Undertime"}

// ExportHistory writes the loaded attendance history as an xlsx workbook:
// a summary header for the student followed by one row per record.
func ExportHistory(w io.Writer, student *api.Student, records []api.AttendanceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	setCell := func(cell string, value interface{}) {
		_ = f.SetCellValue(sheet, cell, value)
	}

	setCell("A1", "Student")
	setCell("B1", student.FullName)
	setCell("A2", "Badge")
	setCell("B2", student.Badge)
	setCell("A3", "School")
	setCell("B3", student.School)
	setCell("A4", "Accumulated")
	setCell("B4", render.Hours(student.TotalHours))
	if student.RequiredHours != nil {
		setCell("A5", "Required")
		setCell("B5", render.Hours(*student.RequiredHours))
		pct := render.ProgressPercent(student.TotalHours, *student.RequiredHours)
		setCell("A6", "Progress")
		setCell("B6", fmt.Sprintf("%.1f%%", pct))
	}

	const headerRow = 8
	for i, col := range historyColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		setCell(cell, col)
	}

	for i, rec := range records {
		row := headerRow + 1 + i
		values := []interface{}{
			render.DateLong(rec.TimeIn),
			render.ClockTime(rec.TimeIn),
			"—",
			render.StatusLabel(rec.Status),
			render.Hours(rec.TotalHours),
			render.Hours(rec.OvertimeHours),
			render.Hours(rec.UndertimeHours),
		}
		if rec.TimeOut != nil {
			values[2] = render.ClockTime(*rec.TimeOut)
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			setCell(cell, value)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename builds the export file name for a badge.
func Filename(badge string) string {
	if badge == "" {
		return "attendance-history.xlsx"
	}
	return "attendance-history-" + badge + ".xlsx"
}
