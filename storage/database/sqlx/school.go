package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/xenthrall/academy/core"
	"github.com/xenthrall/academy/core/school"
	"github.com/xenthrall/academy/storage/database"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sql.DB, driverName string) *schoolRepository {
	return &schoolRepository{db: sqlx.NewDb(db, driverName)}
}

type (
	courseRow struct {
		ID          int         `db:"id_curso"`
		Name        string      `db:"nombre"`
		Description null.String `db:"descripcion"`
	}

	studentRow struct {
		ID        int         `db:"id_estudiante"`
		Name      string      `db:"nombre"`
		Surname   string      `db:"apellido"`
		BirthDate core.Date   `db:"fecha_nacimiento"`
		Address   null.String `db:"direccion"`
		Phone     null.String `db:"telefono"`
		Email     null.String `db:"email"`
		CourseID  null.Int    `db:"id_curso"`
	}

	subjectRow struct {
		ID          int         `db:"id_materia"`
		Name        string      `db:"nombre_materia"`
		Description null.String `db:"descripcion"`
	}

	teacherRow struct {
		ID      int         `db:"id_profesor"`
		Name    string      `db:"nombre"`
		Surname string      `db:"apellido"`
		Email   null.String `db:"email"`
		Phone   null.String `db:"telefono"`
	}

	attendanceRow struct {
		ID        int       `db:"id_asistencia"`
		StudentID int       `db:"id_estudiante"`
		Date      core.Date `db:"fecha"`
		Status    string    `db:"estado_asistencia"`
	}

	gradeRow struct {
		ID        int       `db:"id_nota"`
		StudentID int       `db:"id_estudiante"`
		SubjectID int       `db:"id_materia"`
		Value     float64   `db:"nota"`
		Date      core.Date `db:"fecha"`
	}
)

const (
	courseCols     = "id_curso, nombre, descripcion"
	studentCols    = "id_estudiante, nombre, apellido, fecha_nacimiento, direccion, telefono, email, id_curso"
	subjectCols    = "id_materia, nombre_materia, descripcion"
	teacherCols    = "id_profesor, nombre, apellido, email, telefono"
	attendanceCols = "id_asistencia, id_estudiante, fecha, estado_asistencia"
	gradeCols      = "id_nota, id_estudiante, id_materia, nota, fecha"
)

var studentOrderingCols = map[string]string{
	"id":      "id_estudiante",
	"name":    "nombre",
	"surname": "apellido",
}

func optString(s string) null.String { return null.NewString(s, s != "") }

func trapNoRowsErr(err error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return err
}

// insert runs an INSERT and returns the generated id of `idCol`.
func insert(ctx context.Context, ext sqlx.ExtContext, table, idCol string, cols []string, args ...interface{}) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)

	if ext.DriverName() == database.Postgres {
		var id int
		err := ext.QueryRowxContext(ctx, ext.Rebind(q+" RETURNING "+idCol), args...).Scan(&id)
		return id, err
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// deleteByID deletes one row and reports school.ErrNotFound when there was none.
func (repo schoolRepository) deleteByID(ctx context.Context, table, idCol string, id int) error {
	q := repo.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, idCol))
	res, err := repo.db.ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	if n == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (repo schoolRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// Courses

func (row courseRow) unboil() school.Course {
	return school.Course{ID: row.ID, Name: row.Name, Description: row.Description.String}
}

func (repo schoolRepository) CreateCourse(ctx context.Context, course school.Course) (school.Course, error) {
	id, err := insert(ctx, repo.db, "curso", "id_curso",
		[]string{"nombre", "descripcion"},
		course.Name, optString(course.Description),
	)
	if err != nil {
		return school.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, id)
}

func (repo schoolRepository) QueryCourses(ctx context.Context) ([]school.Course, error) {
	var rows []courseRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, "SELECT "+courseCols+" FROM curso ORDER BY id_curso"); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]school.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.unboil())
	}
	return courses, nil
}

func (repo schoolRepository) GetCourse(ctx context.Context, id int) (school.Course, error) {
	var row courseRow
	q := repo.db.Rebind("SELECT " + courseCols + " FROM curso WHERE id_curso = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return school.Course{}, trapNoRowsErr(err)
	}
	return row.unboil(), nil
}

// Students

func (row studentRow) unboil() school.Student {
	return school.Student{
		ID:        row.ID,
		Name:      row.Name,
		Surname:   row.Surname,
		BirthDate: row.BirthDate,
		Address:   row.Address.String,
		Phone:     row.Phone.String,
		Email:     row.Email.String,
		CourseID:  row.CourseID,
	}
}

func (repo schoolRepository) CreateStudent(ctx context.Context, student school.Student) (school.Student, error) {
	id, err := insert(ctx, repo.db, "estudiante", "id_estudiante",
		[]string{"nombre", "apellido", "fecha_nacimiento", "direccion", "telefono", "email", "id_curso"},
		student.Name, student.Surname, student.BirthDate,
		optString(student.Address), optString(student.Phone), optString(student.Email), student.CourseID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return school.Student{}, school.ErrEmailExists
		}
		if database.IsForeignKeyViolation(err) {
			return school.Student{}, school.ErrMissingReference
		}
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.GetStudent(ctx, id)
}

func (repo schoolRepository) QueryStudents(ctx context.Context, filter school.StudentFilter) ([]school.Student, error) {
	q := "SELECT " + studentCols + " FROM estudiante"
	var args []interface{}
	if filter.CourseID > 0 {
		q += " WHERE id_curso = ?"
		args = append(args, filter.CourseID)
	}
	q += " ORDER BY " + core.OrderByClause(filter.Orderings, studentOrderingCols, "id_estudiante ASC")

	var rows []studentRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.unboil())
	}
	return students, nil
}

func (repo schoolRepository) GetStudent(ctx context.Context, id int) (school.Student, error) {
	var row studentRow
	q := repo.db.Rebind("SELECT " + studentCols + " FROM estudiante WHERE id_estudiante = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return school.Student{}, trapNoRowsErr(err)
	}
	return row.unboil(), nil
}

// Subjects

func (row subjectRow) unboil() school.Subject {
	return school.Subject{ID: row.ID, Name: row.Name, Description: row.Description.String}
}

func unboilSubjects(rows []subjectRow) []school.Subject {
	subjects := make([]school.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.unboil())
	}
	return subjects
}

func (repo schoolRepository) CreateSubject(ctx context.Context, subject school.Subject) (school.Subject, error) {
	id, err := insert(ctx, repo.db, "materia", "id_materia",
		[]string{"nombre_materia", "descripcion"},
		subject.Name, optString(subject.Description),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return school.Subject{}, school.ErrSubjectNameExists
		}
		return school.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return repo.GetSubject(ctx, id)
}

func (repo schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	var rows []subjectRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, "SELECT "+subjectCols+" FROM materia ORDER BY id_materia"); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	return unboilSubjects(rows), nil
}

func (repo schoolRepository) GetSubject(ctx context.Context, id int) (school.Subject, error) {
	var row subjectRow
	q := repo.db.Rebind("SELECT " + subjectCols + " FROM materia WHERE id_materia = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return school.Subject{}, trapNoRowsErr(err)
	}
	return row.unboil(), nil
}

// Teachers

func (row teacherRow) unboil() school.Teacher {
	return school.Teacher{
		ID:      row.ID,
		Name:    row.Name,
		Surname: row.Surname,
		Email:   row.Email.String,
		Phone:   row.Phone.String,
	}
}

func (repo schoolRepository) CreateTeacher(ctx context.Context, teacher school.Teacher) (school.Teacher, error) {
	id, err := insert(ctx, repo.db, "profesor", "id_profesor",
		[]string{"nombre", "apellido", "email", "telefono"},
		teacher.Name, teacher.Surname, optString(teacher.Email), optString(teacher.Phone),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return school.Teacher{}, school.ErrEmailExists
		}
		return school.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return repo.GetTeacher(ctx, id)
}

func (repo schoolRepository) QueryTeachers(ctx context.Context) ([]school.Teacher, error) {
	var rows []teacherRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, "SELECT "+teacherCols+" FROM profesor ORDER BY id_profesor"); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	teachers := make([]school.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.unboil())
	}
	return teachers, nil
}

func (repo schoolRepository) GetTeacher(ctx context.Context, id int) (school.Teacher, error) {
	var row teacherRow
	q := repo.db.Rebind("SELECT " + teacherCols + " FROM profesor WHERE id_profesor = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return school.Teacher{}, trapNoRowsErr(err)
	}
	return row.unboil(), nil
}

func (repo schoolRepository) AssignSubjects(ctx context.Context, teacherID int, subjectIDs []int) error {
	return repo.inTx(ctx, func(tx *sqlx.Tx) error {
		existsQ := tx.Rebind("SELECT COUNT(*) FROM profesor_materia WHERE id_profesor = ? AND id_materia = ?")
		for _, subjectID := range subjectIDs {
			var n int
			if err := sqlx.GetContext(ctx, tx, &n, existsQ, teacherID, subjectID); err != nil {
				return errors.Wrap(err, "checking teacher subject")
			}
			if n > 0 {
				continue
			}
			q := tx.Rebind("INSERT INTO profesor_materia (id_profesor, id_materia) VALUES (?, ?)")
			if _, err := tx.ExecContext(ctx, q, teacherID, subjectID); err != nil {
				if database.IsForeignKeyViolation(err) {
					return school.ErrMissingReference
				}
				return errors.Wrap(err, "inserting teacher subject")
			}
		}
		return nil
	})
}

func (repo schoolRepository) UnassignSubjects(ctx context.Context, teacherID int, subjectIDs []int) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM profesor_materia WHERE id_profesor = ? AND id_materia IN (?)", teacherID, subjectIDs)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting teacher subjects")
	}
	return nil
}

func (repo schoolRepository) QueryTeacherSubjects(ctx context.Context, teacherID int) ([]school.Subject, error) {
	q := repo.db.Rebind(`
		SELECT m.id_materia, m.nombre_materia, m.descripcion
		FROM materia m
		JOIN profesor_materia pm ON pm.id_materia = m.id_materia
		WHERE pm.id_profesor = ?
		ORDER BY m.id_materia`)

	var rows []subjectRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "selecting teacher subjects")
	}
	return unboilSubjects(rows), nil
}

// Attendance

func (row attendanceRow) unboil() school.Attendance {
	return school.Attendance{
		ID:        row.ID,
		StudentID: row.StudentID,
		Date:      row.Date,
		Status:    school.Status(row.Status),
	}
}

func getAttendance(ctx context.Context, ext sqlx.ExtContext, id int) (school.Attendance, error) {
	var row attendanceRow
	q := ext.Rebind("SELECT " + attendanceCols + " FROM asistencia WHERE id_asistencia = ?")
	if err := sqlx.GetContext(ctx, ext, &row, q, id); err != nil {
		return school.Attendance{}, trapNoRowsErr(err)
	}
	return row.unboil(), nil
}

const upsertAttendanceQuery = "INSERT INTO asistencia (id_estudiante, fecha, estado_asistencia) VALUES (?, ?, ?)"

// upsertAttendanceClause resolves a second record for the same student and day in the statement itself,
// so concurrent writers never both insert.
func upsertAttendanceClause(driverName string) string {
	if driverName == database.MySQL {
		return " ON DUPLICATE KEY UPDATE estado_asistencia = VALUES(estado_asistencia)"
	}
	return " ON CONFLICT (id_estudiante, fecha) DO UPDATE SET estado_asistencia = excluded.estado_asistencia"
}

func (repo schoolRepository) UpsertAttendance(ctx context.Context, att school.Attendance) (school.Attendance, error) {
	var saved school.Attendance
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		q := tx.Rebind(upsertAttendanceQuery + upsertAttendanceClause(tx.DriverName()))
		if _, err := tx.ExecContext(ctx, q, att.StudentID, att.Date, string(att.Status)); err != nil {
			if database.IsForeignKeyViolation(err) {
				return school.ErrMissingReference
			}
			return errors.Wrap(err, "upserting attendance")
		}

		var row attendanceRow
		q = tx.Rebind("SELECT " + attendanceCols + " FROM asistencia WHERE id_estudiante = ? AND fecha = ?")
		if err := sqlx.GetContext(ctx, tx, &row, q, att.StudentID, att.Date); err != nil {
			return errors.Wrap(err, "selecting attendance")
		}
		saved = row.unboil()
		return nil
	})
	return saved, err
}

func (repo schoolRepository) UpdateAttendance(ctx context.Context, att school.Attendance) (school.Attendance, error) {
	if _, err := getAttendance(ctx, repo.db, att.ID); err != nil {
		return school.Attendance{}, err
	}
	q := repo.db.Rebind("UPDATE asistencia SET estado_asistencia = ? WHERE id_asistencia = ?")
	if _, err := repo.db.ExecContext(ctx, q, string(att.Status), att.ID); err != nil {
		return school.Attendance{}, errors.Wrap(err, "updating attendance")
	}
	return getAttendance(ctx, repo.db, att.ID)
}

func (repo schoolRepository) DeleteAttendance(ctx context.Context, id int) error {
	return repo.deleteByID(ctx, "asistencia", "id_asistencia", id)
}

func (repo schoolRepository) QueryStudentAttendance(ctx context.Context, studentID int) ([]school.Attendance, error) {
	q := repo.db.Rebind("SELECT " + attendanceCols + " FROM asistencia WHERE id_estudiante = ? ORDER BY fecha, id_asistencia")
	var rows []attendanceRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting attendance")
	}
	records := make([]school.Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.unboil())
	}
	return records, nil
}

// Grades

func (row gradeRow) unboil() school.Grade {
	return school.Grade{
		ID:        row.ID,
		StudentID: row.StudentID,
		SubjectID: row.SubjectID,
		Value:     row.Value,
		Date:      row.Date,
	}
}

func (repo schoolRepository) getGrade(ctx context.Context, id int) (school.Grade, error) {
	var row gradeRow
	q := repo.db.Rebind("SELECT " + gradeCols + " FROM notas WHERE id_nota = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return school.Grade{}, trapNoRowsErr(err)
	}
	return row.unboil(), nil
}

func (repo schoolRepository) CreateGrade(ctx context.Context, grade school.Grade) (school.Grade, error) {
	id, err := insert(ctx, repo.db, "notas", "id_nota",
		[]string{"id_estudiante", "id_materia", "nota", "fecha"},
		grade.StudentID, grade.SubjectID, grade.Value, grade.Date,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return school.Grade{}, school.ErrMissingReference
		}
		return school.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return repo.getGrade(ctx, id)
}

func (repo schoolRepository) UpdateGrade(ctx context.Context, grade school.Grade) (school.Grade, error) {
	if _, err := repo.getGrade(ctx, grade.ID); err != nil {
		return school.Grade{}, err
	}
	q := repo.db.Rebind("UPDATE notas SET nota = ? WHERE id_nota = ?")
	if _, err := repo.db.ExecContext(ctx, q, grade.Value, grade.ID); err != nil {
		return school.Grade{}, errors.Wrap(err, "updating grade")
	}
	return repo.getGrade(ctx, grade.ID)
}

func (repo schoolRepository) DeleteGrade(ctx context.Context, id int) error {
	return repo.deleteByID(ctx, "notas", "id_nota", id)
}

func (repo schoolRepository) QueryStudentGrades(ctx context.Context, studentID int) ([]school.Grade, error) {
	q := repo.db.Rebind("SELECT " + gradeCols + " FROM notas WHERE id_estudiante = ? ORDER BY fecha, id_nota")
	var rows []gradeRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}
	grades := make([]school.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.unboil())
	}
	return grades, nil
}
