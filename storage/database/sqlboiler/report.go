package boiledrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/xenthrall/academy/core"
	"github.com/xenthrall/academy/core/report"
	"github.com/xenthrall/academy/storage/database"
)

// reportRepository binds hand-written aggregate queries with sqlboiler.
// Queries are written with `?` placeholders and rebound for the driver.
type reportRepository struct {
	bindType int
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(driverName string) *reportRepository {
	return &reportRepository{bindType: sqlx.BindType(driverName)}
}

type (
	enrollmentRow struct {
		CourseID   int    `boil:"course_id"`
		CourseName string `boil:"course_name"`
		Students   int    `boil:"students"`
	}

	statusCountRow struct {
		Status string `boil:"status"`
		Total  int    `boil:"total"`
	}

	subjectAverageRow struct {
		SubjectID int     `boil:"subject_id"`
		Average   float64 `boil:"average"`
	}

	averageRow struct {
		Average null.Float64 `boil:"average"`
	}

	gradeStatsRow struct {
		SubjectID int     `boil:"subject_id"`
		Average   float64 `boil:"average"`
		Min       float64 `boil:"min_grade"`
		Max       float64 `boil:"max_grade"`
	}
)

func (repo reportRepository) bind(ctx context.Context, exec core.DBExecutor, obj interface{}, query string, args ...interface{}) error {
	err := queries.Raw(sqlx.Rebind(repo.bindType, query), args...).Bind(ctx, exec, obj)
	if database.IsConnectionLost(err) {
		return report.ConnectionLost(err)
	}
	return err
}

// dateFilter appends the optional inclusive bounds of rng on `col`.
func dateFilter(col string, rng report.DateRange, args []interface{}) (string, []interface{}) {
	if rng.IsZero() {
		return "", args
	}
	var sb strings.Builder
	if !rng.From.IsZero() {
		sb.WriteString(" AND " + col + " >= ?")
		args = append(args, rng.From)
	}
	if !rng.To.IsZero() {
		sb.WriteString(" AND " + col + " <= ?")
		args = append(args, rng.To)
	}
	return sb.String(), args
}

func (repo reportRepository) CountStudentsByCourse(ctx context.Context, exec core.DBExecutor) ([]report.CourseEnrollment, error) {
	const q = `
		SELECT c.id_curso AS course_id, c.nombre AS course_name, COUNT(e.id_estudiante) AS students
		FROM curso c
		LEFT JOIN estudiante e ON e.id_curso = c.id_curso
		GROUP BY c.id_curso, c.nombre
		ORDER BY c.id_curso`

	var rows []enrollmentRow
	if err := repo.bind(ctx, exec, &rows, q); err != nil {
		return nil, errors.Wrap(err, "counting students by course")
	}
	enrollment := make([]report.CourseEnrollment, 0, len(rows))
	for _, row := range rows {
		enrollment = append(enrollment, report.CourseEnrollment{
			CourseID:   row.CourseID,
			CourseName: row.CourseName,
			Students:   row.Students,
		})
	}
	return enrollment, nil
}

func summarize(rows []statusCountRow) report.AttendanceSummary {
	sum := make(report.AttendanceSummary, len(rows))
	for _, row := range rows {
		if row.Total > 0 {
			sum[row.Status] = row.Total
		}
	}
	return sum
}

func (repo reportRepository) CountAttendanceByStudent(ctx context.Context, exec core.DBExecutor, studentID int, rng report.DateRange) (report.AttendanceSummary, error) {
	where, args := dateFilter("a.fecha", rng, []interface{}{studentID})
	q := `
		SELECT a.estado_asistencia AS status, COUNT(*) AS total
		FROM asistencia a
		WHERE a.id_estudiante = ?` + where + `
		GROUP BY a.estado_asistencia`

	var rows []statusCountRow
	if err := repo.bind(ctx, exec, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "counting attendance by student")
	}
	return summarize(rows), nil
}

func (repo reportRepository) CountAttendanceByCourse(ctx context.Context, exec core.DBExecutor, courseID int, rng report.DateRange) (report.AttendanceSummary, error) {
	where, args := dateFilter("a.fecha", rng, []interface{}{courseID})
	q := `
		SELECT a.estado_asistencia AS status, COUNT(*) AS total
		FROM asistencia a
		JOIN estudiante e ON e.id_estudiante = a.id_estudiante
		WHERE e.id_curso = ?` + where + `
		GROUP BY a.estado_asistencia`

	var rows []statusCountRow
	if err := repo.bind(ctx, exec, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "counting attendance by course")
	}
	return summarize(rows), nil
}

func (repo reportRepository) AverageGradesByStudent(ctx context.Context, exec core.DBExecutor, studentID int) ([]report.SubjectAverage, error) {
	const q = `
		SELECT n.id_materia AS subject_id, AVG(n.nota) AS average
		FROM notas n
		WHERE n.id_estudiante = ?
		GROUP BY n.id_materia
		ORDER BY n.id_materia`

	var rows []subjectAverageRow
	if err := repo.bind(ctx, exec, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "averaging grades by student")
	}
	avgs := make([]report.SubjectAverage, 0, len(rows))
	for _, row := range rows {
		avgs = append(avgs, report.SubjectAverage{SubjectID: row.SubjectID, Average: row.Average})
	}
	return avgs, nil
}

func (repo reportRepository) AverageGradeForSubject(ctx context.Context, exec core.DBExecutor, subjectID int) (null.Float64, error) {
	const q = `SELECT AVG(n.nota) AS average FROM notas n WHERE n.id_materia = ?`

	// AVG over no rows is NULL, never "no row"
	var row averageRow
	if err := repo.bind(ctx, exec, &row, q, subjectID); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return null.Float64{}, nil
		}
		return null.Float64{}, errors.Wrap(err, "averaging grades for subject")
	}
	return row.Average, nil
}

func (repo reportRepository) GradeStatisticsByCourse(ctx context.Context, exec core.DBExecutor, courseID int) ([]report.SubjectGradeStats, error) {
	const q = `
		SELECT n.id_materia AS subject_id, AVG(n.nota) AS average, MIN(n.nota) AS min_grade, MAX(n.nota) AS max_grade
		FROM notas n
		JOIN estudiante e ON e.id_estudiante = n.id_estudiante
		WHERE e.id_curso = ?
		GROUP BY n.id_materia
		ORDER BY n.id_materia`

	var rows []gradeStatsRow
	if err := repo.bind(ctx, exec, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "computing grade statistics by course")
	}
	stats := make([]report.SubjectGradeStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, report.SubjectGradeStats{
			SubjectID: row.SubjectID,
			Average:   row.Average,
			Min:       row.Min,
			Max:       row.Max,
		})
	}
	return stats, nil
}
