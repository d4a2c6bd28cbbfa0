package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/xenthrall/academy/core"
)

var (
	// errors
	ErrNotFound          = errors.New("record not found")
	ErrEmailExists       = errors.New("this email is already in use")
	ErrSubjectNameExists = errors.New("a subject with this name already exists")
	// ErrMissingReference is returned by a Repository when a row points at one that was deleted meanwhile.
	ErrMissingReference = errors.New("referenced record not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, course Course) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)

		CreateStudent(ctx context.Context, student Student) (Student, error)
		QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		GetStudent(ctx context.Context, id int) (Student, error)

		CreateSubject(ctx context.Context, subject Subject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)

		CreateTeacher(ctx context.Context, teacher Teacher) (Teacher, error)
		QueryTeachers(ctx context.Context) ([]Teacher, error)
		GetTeacher(ctx context.Context, id int) (Teacher, error)
		// AssignSubjects skips subjects already assigned to the teacher.
		AssignSubjects(ctx context.Context, teacherID int, subjectIDs []int) error
		UnassignSubjects(ctx context.Context, teacherID int, subjectIDs []int) error
		QueryTeacherSubjects(ctx context.Context, teacherID int) ([]Subject, error)

		// UpsertAttendance replaces the status of the student's record for that date, or creates it.
		UpsertAttendance(ctx context.Context, att Attendance) (Attendance, error)
		UpdateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		DeleteAttendance(ctx context.Context, id int) error
		QueryStudentAttendance(ctx context.Context, studentID int) ([]Attendance, error)

		CreateGrade(ctx context.Context, grade Grade) (Grade, error)
		UpdateGrade(ctx context.Context, grade Grade) (Grade, error)
		DeleteGrade(ctx context.Context, id int) error
		QueryStudentGrades(ctx context.Context, studentID int) ([]Grade, error)
	}

	Service interface {
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)

		CreateStudent(ctx context.Context, ns NewStudent) (Student, error)
		QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		GetStudent(ctx context.Context, id int) (Student, error)

		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)

		CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error)
		QueryTeachers(ctx context.Context) ([]Teacher, error)
		GetTeacher(ctx context.Context, id int) (Teacher, error)
		AssignSubjects(ctx context.Context, teacherID int, subjectIDs ...int) error
		UnassignSubjects(ctx context.Context, teacherID int, subjectIDs ...int) error
		QueryTeacherSubjects(ctx context.Context, teacherID int) ([]Subject, error)

		RecordAttendance(ctx context.Context, na NewAttendance) (Attendance, error)
		UpdateAttendance(ctx context.Context, id int, status Status) (Attendance, error)
		DeleteAttendance(ctx context.Context, id int) error
		QueryStudentAttendance(ctx context.Context, studentID int) ([]Attendance, error)

		RecordGrade(ctx context.Context, ng NewGrade) (Grade, error)
		UpdateGrade(ctx context.Context, id int, value float64) (Grade, error)
		DeleteGrade(ctx context.Context, id int) error
		QueryStudentGrades(ctx context.Context, studentID int) ([]Grade, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// mustExist turns a missing referenced record into a validation error on `field`.
func mustExist(err error, field, msg string) error {
	if err == nil {
		return nil
	}
	switch errors.Cause(err) {
	case ErrNotFound, ErrMissingReference:
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: msg})
	}
	return err
}

func missingReferenceErr(err error) error {
	if errors.Cause(err) == ErrMissingReference {
		return core.NewValidationError(ErrMissingReference)
	}
	return err
}

func uniqueFieldErr(err error, field string) error {
	switch errors.Cause(err) {
	case ErrEmailExists, ErrSubjectNameExists:
		cause := errors.Cause(err)
		return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
	}
	return err
}

// Courses

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	course, err := svc.repo.CreateCourse(ctx, Course{Name: nc.Name, Description: nc.Description})
	return course, errors.Wrap(err, "creating course")
}

func (svc *service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

func (svc *service) GetCourse(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

// Students

func (svc *service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if ns.CourseID.Valid {
		_, err := svc.repo.GetCourse(ctx, ns.CourseID.Int)
		if err = mustExist(err, "course_id", "course not found"); err != nil {
			return Student{}, err
		}
	}

	student, err := svc.repo.CreateStudent(ctx, Student{
		Name:      ns.Name,
		Surname:   ns.Surname,
		BirthDate: ns.BirthDate,
		Address:   ns.Address,
		Phone:     ns.Phone,
		Email:     ns.Email,
		CourseID:  ns.CourseID,
	})
	if err != nil {
		err = mustExist(err, "course_id", "course not found")
		return Student{}, uniqueFieldErr(err, "email")
	}
	return student, nil
}

func (svc *service) QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *service) GetStudent(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

// Subjects

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	subject, err := svc.repo.CreateSubject(ctx, Subject{Name: ns.Name, Description: ns.Description})
	if err != nil {
		return Subject{}, uniqueFieldErr(err, "name")
	}
	return subject, nil
}

func (svc *service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *service) GetSubject(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

// Teachers

func (svc *service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	teacher, err := svc.repo.CreateTeacher(ctx, Teacher{
		Name:    nt.Name,
		Surname: nt.Surname,
		Email:   nt.Email,
		Phone:   nt.Phone,
	})
	if err != nil {
		return Teacher{}, uniqueFieldErr(err, "email")
	}
	return teacher, nil
}

func (svc *service) QueryTeachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx)
}

func (svc *service) GetTeacher(ctx context.Context, id int) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *service) checkSubjects(ctx context.Context, subjectIDs []int) error {
	for _, id := range subjectIDs {
		_, err := svc.repo.GetSubject(ctx, id)
		if err = mustExist(err, "subject_ids", "subject not found"); err != nil {
			return err
		}
	}
	return nil
}

func (svc *service) AssignSubjects(ctx context.Context, teacherID int, subjectIDs ...int) error {
	if _, err := svc.repo.GetTeacher(ctx, teacherID); err != nil {
		return err
	}
	if err := svc.checkSubjects(ctx, subjectIDs); err != nil {
		return err
	}
	return missingReferenceErr(errors.Wrap(svc.repo.AssignSubjects(ctx, teacherID, subjectIDs), "assigning subjects"))
}

func (svc *service) UnassignSubjects(ctx context.Context, teacherID int, subjectIDs ...int) error {
	if _, err := svc.repo.GetTeacher(ctx, teacherID); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.UnassignSubjects(ctx, teacherID, subjectIDs), "unassigning subjects")
}

func (svc *service) QueryTeacherSubjects(ctx context.Context, teacherID int) ([]Subject, error) {
	if _, err := svc.repo.GetTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	return svc.repo.QueryTeacherSubjects(ctx, teacherID)
}

// Attendance

func (svc *service) RecordAttendance(ctx context.Context, na NewAttendance) (Attendance, error) {
	_, err := svc.repo.GetStudent(ctx, na.StudentID)
	if err = mustExist(err, "student_id", "student not found"); err != nil {
		return Attendance{}, err
	}
	att, err := svc.repo.UpsertAttendance(ctx, Attendance{StudentID: na.StudentID, Date: na.Date, Status: na.Status})
	return att, mustExist(errors.Wrap(err, "recording attendance"), "student_id", "student not found")
}

func (svc *service) UpdateAttendance(ctx context.Context, id int, status Status) (Attendance, error) {
	return svc.repo.UpdateAttendance(ctx, Attendance{ID: id, Status: status})
}

func (svc *service) DeleteAttendance(ctx context.Context, id int) error {
	return svc.repo.DeleteAttendance(ctx, id)
}

func (svc *service) QueryStudentAttendance(ctx context.Context, studentID int) ([]Attendance, error) {
	if _, err := svc.repo.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentAttendance(ctx, studentID)
}

// Grades

func (svc *service) RecordGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	_, err := svc.repo.GetStudent(ctx, ng.StudentID)
	if err = mustExist(err, "student_id", "student not found"); err != nil {
		return Grade{}, err
	}
	_, err = svc.repo.GetSubject(ctx, ng.SubjectID)
	if err = mustExist(err, "subject_id", "subject not found"); err != nil {
		return Grade{}, err
	}

	var value float64
	if ng.Value != nil {
		value = *ng.Value
	}
	grade, err := svc.repo.CreateGrade(ctx, Grade{
		StudentID: ng.StudentID,
		SubjectID: ng.SubjectID,
		Value:     value,
		Date:      ng.Date,
	})
	return grade, missingReferenceErr(errors.Wrap(err, "recording grade"))
}

func (svc *service) UpdateGrade(ctx context.Context, id int, value float64) (Grade, error) {
	return svc.repo.UpdateGrade(ctx, Grade{ID: id, Value: value})
}

func (svc *service) DeleteGrade(ctx context.Context, id int) error {
	return svc.repo.DeleteGrade(ctx, id)
}

func (svc *service) QueryStudentGrades(ctx context.Context, studentID int) ([]Grade, error) {
	if _, err := svc.repo.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentGrades(ctx, studentID)
}
