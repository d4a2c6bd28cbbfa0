package report

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/xenthrall/academy/core"
)

type (
	// CourseEnrollment is the number of students enrolled in a course.
	CourseEnrollment struct {
		CourseID   int    `json:"course_id"`
		CourseName string `json:"course_name"`
		Students   int    `json:"students"`
	}

	// AttendanceSummary maps an attendance status to the number of records with that status.
	// Statuses without records are absent.
	AttendanceSummary map[string]int

	SubjectAverage struct {
		SubjectID int     `json:"subject_id"`
		Average   float64 `json:"average"`
	}

	SubjectGradeStats struct {
		SubjectID int     `json:"subject_id"`
		Average   float64 `json:"average"`
		Min       float64 `json:"min"`
		Max       float64 `json:"max"`
	}

	// DateRange bounds attendance dates, both ends inclusive.
	// A zero From or To leaves that side open.
	DateRange struct {
		From core.Date `json:"from"`
		To   core.Date `json:"to"`
	}
)

func (rng DateRange) IsZero() bool { return rng.From.IsZero() && rng.To.IsZero() }

// IsEmpty reports whether no date can fall within rng, i.e. To is before From.
func (rng DateRange) IsEmpty() bool {
	return !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From)
}

// Total is the number of attendance records summarized.
func (sum AttendanceSummary) Total() int {
	var total int
	for _, n := range sum {
		total += n
	}
	return total
}

// Repository runs the read-only aggregate queries behind each report.
// Every method runs on the executor it is given.
type Repository interface {
	CountStudentsByCourse(ctx context.Context, exec core.DBExecutor) ([]CourseEnrollment, error)
	CountAttendanceByStudent(ctx context.Context, exec core.DBExecutor, studentID int, rng DateRange) (AttendanceSummary, error)
	CountAttendanceByCourse(ctx context.Context, exec core.DBExecutor, courseID int, rng DateRange) (AttendanceSummary, error)
	AverageGradesByStudent(ctx context.Context, exec core.DBExecutor, studentID int) ([]SubjectAverage, error)
	// AverageGradeForSubject returns an invalid null.Float64 when the subject has no grades.
	AverageGradeForSubject(ctx context.Context, exec core.DBExecutor, subjectID int) (null.Float64, error)
	GradeStatisticsByCourse(ctx context.Context, exec core.DBExecutor, courseID int) ([]SubjectGradeStats, error)
}
