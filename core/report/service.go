package report

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/xenthrall/academy/core"
)

// DefaultQueryTimeout bounds a report when no timeout is configured.
const DefaultQueryTimeout = 10 * time.Second

// Service computes the aggregate reports.
// Reports never write to the store; NotFound yields an empty result, never an error.
type Service interface {
	EnrollmentByCourse(ctx context.Context) ([]CourseEnrollment, error)
	AttendanceByStudent(ctx context.Context, studentID int, rng DateRange) (AttendanceSummary, error)
	AttendanceByCourse(ctx context.Context, courseID int, rng DateRange) (AttendanceSummary, error)
	AverageGradeByStudent(ctx context.Context, studentID int) ([]SubjectAverage, error)
	AverageGradeBySubject(ctx context.Context, subjectID int) (null.Float64, error)
	GradeStatisticsByCourse(ctx context.Context, courseID int) ([]SubjectGradeStats, error)
}

type service struct {
	db           core.DB
	repo         Repository
	queryTimeout time.Duration
}

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, queryTimeout time.Duration) Service {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &service{db: db, repo: repo, queryTimeout: queryTimeout}
}

// read runs fn inside a read-only transaction which is released on every path.
func (svc *service) read(ctx context.Context, op string, fn func(ctx context.Context, exec core.DBExecutor) error) error {
	ctx, cancel := context.WithTimeout(ctx, svc.queryTimeout)
	defer cancel()

	tx, err := svc.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		err = errors.Wrap(err, "beginning transaction")
		if errors.Is(err, context.Canceled) {
			return &Error{Kind: KindCanceled, Op: op, Err: err}
		}
		return storeUnavailable(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err = fn(ctx, tx); err != nil {
		return classify(op, err)
	}
	if err = tx.Commit(); err != nil {
		return classify(op, errors.Wrap(err, "committing transaction"))
	}
	return nil
}

func (svc *service) EnrollmentByCourse(ctx context.Context) ([]CourseEnrollment, error) {
	var rows []CourseEnrollment
	err := svc.read(ctx, "enrollment by course", func(ctx context.Context, exec core.DBExecutor) error {
		var err error
		rows, err = svc.repo.CountStudentsByCourse(ctx, exec)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []CourseEnrollment{}
	}
	return rows, nil
}

func (svc *service) AttendanceByStudent(ctx context.Context, studentID int, rng DateRange) (AttendanceSummary, error) {
	if rng.IsEmpty() {
		return AttendanceSummary{}, nil
	}
	var sum AttendanceSummary
	err := svc.read(ctx, "attendance by student", func(ctx context.Context, exec core.DBExecutor) error {
		var err error
		sum, err = svc.repo.CountAttendanceByStudent(ctx, exec, studentID, rng)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sum == nil {
		sum = AttendanceSummary{}
	}
	return sum, nil
}

func (svc *service) AttendanceByCourse(ctx context.Context, courseID int, rng DateRange) (AttendanceSummary, error) {
	if rng.IsEmpty() {
		return AttendanceSummary{}, nil
	}
	var sum AttendanceSummary
	err := svc.read(ctx, "attendance by course", func(ctx context.Context, exec core.DBExecutor) error {
		var err error
		sum, err = svc.repo.CountAttendanceByCourse(ctx, exec, courseID, rng)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sum == nil {
		sum = AttendanceSummary{}
	}
	return sum, nil
}

func (svc *service) AverageGradeByStudent(ctx context.Context, studentID int) ([]SubjectAverage, error) {
	var rows []SubjectAverage
	err := svc.read(ctx, "average grade by student", func(ctx context.Context, exec core.DBExecutor) error {
		var err error
		rows, err = svc.repo.AverageGradesByStudent(ctx, exec, studentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []SubjectAverage{}
	}
	return rows, nil
}

func (svc *service) AverageGradeBySubject(ctx context.Context, subjectID int) (null.Float64, error) {
	var avg null.Float64
	err := svc.read(ctx, "average grade by subject", func(ctx context.Context, exec core.DBExecutor) error {
		var err error
		avg, err = svc.repo.AverageGradeForSubject(ctx, exec, subjectID)
		return err
	})
	if err != nil {
		return null.Float64{}, err
	}
	return avg, nil
}

func (svc *service) GradeStatisticsByCourse(ctx context.Context, courseID int) ([]SubjectGradeStats, error) {
	var rows []SubjectGradeStats
	err := svc.read(ctx, "grade statistics by course", func(ctx context.Context, exec core.DBExecutor) error {
		var err error
		rows, err = svc.repo.GradeStatisticsByCourse(ctx, exec, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []SubjectGradeStats{}
	}
	return rows, nil
}
