package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/xenthrall/academy/core"
	"github.com/xenthrall/academy/core/school"
	"github.com/xenthrall/academy/storage/database"
	sqlxrepos "github.com/xenthrall/academy/storage/database/sqlx"
)

// Engine is the engine test databases run on.
const Engine = database.SQLite

var dbSeq int64

// NewConfig returns a config pointing at a fresh in-memory SQLite database.
func NewConfig(t *testing.T) *core.Config {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conf := &core.Config{Env: "TEST", TestMode: true, AppName: "Academy", SecretKey: "test-secret"}
	conf.Database.Engine = Engine
	conf.Database.Path = fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&dbSeq, 1))
	conf.Database.PingAttempts = 1
	conf.Server.JWTExpirationDelta = core.DefaultJWTExpiration
	return conf
}

// PrepareDB opens a migrated in-memory database which is closed when the test ends.
func PrepareDB(t *testing.T, conf ...*core.Config) *sql.DB {
	var c *core.Config
	if len(conf) > 0 {
		c = conf[0]
	} else {
		c = NewConfig(t)
	}

	db, err := database.Open(c)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, c.Database.Engine); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func NewSchoolRepository(db *sql.DB) school.Repository {
	return sqlxrepos.NewSchoolRepository(db, Engine)
}

func CreateCourse(t *testing.T, repo school.Repository, name string) school.Course {
	course, err := repo.CreateCourse(context.Background(), school.Course{Name: name})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return course
}

// CreateStudent creates a student enrolled in courseID, or in no course when courseID is 0.
func CreateStudent(t *testing.T, repo school.Repository, name, surname string, courseID int) school.Student {
	student, err := repo.CreateStudent(context.Background(), school.Student{
		Name:     name,
		Surname:  surname,
		CourseID: null.NewInt(courseID, courseID > 0),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return student
}

func CreateSubject(t *testing.T, repo school.Repository, name string) school.Subject {
	subject, err := repo.CreateSubject(context.Background(), school.Subject{Name: name})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return subject
}

func CreateTeacher(t *testing.T, repo school.Repository, name, surname, email string) school.Teacher {
	teacher, err := repo.CreateTeacher(context.Background(), school.Teacher{Name: name, Surname: surname, Email: email})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return teacher
}

func RecordAttendance(t *testing.T, repo school.Repository, studentID int, date string, status school.Status) school.Attendance {
	att, err := repo.UpsertAttendance(context.Background(), school.Attendance{
		StudentID: studentID,
		Date:      core.MustParseDate(date),
		Status:    status,
	})
	if err != nil {
		t.Fatalf("RecordAttendance() failed: %v", err)
	}
	return att
}

func RecordGrade(t *testing.T, repo school.Repository, studentID, subjectID int, value float64, date string) school.Grade {
	grade, err := repo.CreateGrade(context.Background(), school.Grade{
		StudentID: studentID,
		SubjectID: subjectID,
		Value:     value,
		Date:      core.MustParseDate(date),
	})
	if err != nil {
		t.Fatalf("RecordGrade() failed: %v", err)
	}
	return grade
}
