package exportsvc

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/xenthrall/academy/core/report"
	"github.com/xenthrall/academy/core/school"
)

// ContentType is the MIME type of the workbooks written by WriteXLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const noData = "No data"

// Table is one worksheet: a header row followed by data rows.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]interface{}
}

// WriteXLSX writes one worksheet per table, in order, to w.
func WriteXLSX(w io.Writer, tables ...Table) error {
	if len(tables) == 0 {
		return errors.New("no table to export")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	defaultSheet := f.GetSheetName(0)
	for i, table := range tables {
		if i == 0 {
			f.SetSheetName(defaultSheet, table.Sheet)
		} else if _, err = f.NewSheet(table.Sheet); err != nil {
			return errors.Wrapf(err, "adding sheet %q", table.Sheet)
		}
		if err = writeTable(f, table, bold); err != nil {
			return errors.Wrapf(err, "writing sheet %q", table.Sheet)
		}
	}
	f.SetActiveSheet(0)

	return errors.Wrap(f.Write(w), "writing workbook")
}

func writeTable(f *excelize.File, table Table, headerStyle int) error {
	headers := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(table.Sheet, "A1", &headers); err != nil {
		return err
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err = f.SetCellStyle(table.Sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err = f.SetSheetRow(table.Sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// SubjectNames resolves subject ids to display names.
type SubjectNames map[int]string

func NewSubjectNames(subjects []school.Subject) SubjectNames {
	names := make(SubjectNames, len(subjects))
	for _, s := range subjects {
		names[s.ID] = s.Name
	}
	return names
}

func (names SubjectNames) Name(id int) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Subject %d", id)
}

// FormatGrade renders a grade with 2 decimals.
func FormatGrade(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func EnrollmentTable(rows []report.CourseEnrollment) Table {
	t := Table{Sheet: "Enrollment", Headers: []string{"Course ID", "Course", "Students"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.CourseID, r.CourseName, r.Students})
	}
	return t
}

// AttendanceTable lists the known statuses first, then any other status by name, then the total.
func AttendanceTable(sum report.AttendanceSummary) Table {
	t := Table{Sheet: "Attendance", Headers: []string{"Status", "Records"}}

	seen := make(map[string]bool, len(school.Statuses))
	for _, status := range school.Statuses {
		seen[string(status)] = true
		if n, ok := sum[string(status)]; ok {
			t.Rows = append(t.Rows, []interface{}{string(status), n})
		}
	}
	var others []string
	for status := range sum {
		if !seen[status] {
			others = append(others, status)
		}
	}
	sort.Strings(others)
	for _, status := range others {
		t.Rows = append(t.Rows, []interface{}{status, sum[status]})
	}

	t.Rows = append(t.Rows, []interface{}{"Total", sum.Total()})
	return t
}

func SubjectAveragesTable(avgs []report.SubjectAverage, names SubjectNames) Table {
	t := Table{Sheet: "Averages", Headers: []string{"Subject", "Average"}}
	for _, avg := range avgs {
		t.Rows = append(t.Rows, []interface{}{names.Name(avg.SubjectID), FormatGrade(avg.Average)})
	}
	return t
}

func SubjectAverageTable(subjectID int, avg null.Float64, names SubjectNames) Table {
	value := noData
	if avg.Valid {
		value = FormatGrade(avg.Float64)
	}
	return Table{
		Sheet:   "Average",
		Headers: []string{"Subject", "Average"},
		Rows:    [][]interface{}{{names.Name(subjectID), value}},
	}
}

func GradeStatisticsTable(stats []report.SubjectGradeStats, names SubjectNames) Table {
	t := Table{Sheet: "Statistics", Headers: []string{"Subject", "Average", "Min", "Max"}}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{
			names.Name(s.SubjectID), FormatGrade(s.Average), FormatGrade(s.Min), FormatGrade(s.Max),
		})
	}
	return t
}
