package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/xenthrall/academy/core/report"
	"github.com/xenthrall/academy/core/school"
	exportsvc "github.com/xenthrall/academy/services/export"
)

const formatXLSX = "xlsx"

type reportApi struct {
	svc       report.Service
	schoolSvc school.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service, schoolSvc school.Service) {
	api := reportApi{svc: svc, schoolSvc: schoolSvc}

	rg := g.Group("/reports", jwt, roleMiddleware(RoleReports))
	rg.GET("/enrollment", api.enrollmentByCourse)
	rg.GET("/attendance/students/:id", api.attendanceByStudent)
	rg.GET("/attendance/courses/:id", api.attendanceByCourse)
	rg.GET("/grades/students/:id", api.averageGradeByStudent)
	rg.GET("/grades/subjects/:id", api.averageGradeBySubject)
	rg.GET("/grades/courses/:id", api.gradeStatisticsByCourse)
}

type SubjectAverageResponse struct {
	SubjectID int          `json:"subject_id"`
	Average   null.Float64 `json:"average"` // null when the subject has no grades
}

func wantsXLSX(ctx echo.Context) bool {
	return ctx.QueryParam("format") == formatXLSX
}

func sendXLSX(ctx echo.Context, filename string, table exportsvc.Table) error {
	var buf bytes.Buffer
	if err := exportsvc.WriteXLSX(&buf, table); err != nil {
		return errors.Wrap(err, "exporting report")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename+"."+formatXLSX))
	return ctx.Blob(http.StatusOK, exportsvc.ContentType, buf.Bytes())
}

func (api *reportApi) subjectNames(ctx echo.Context) (exportsvc.SubjectNames, error) {
	subjects, err := api.schoolSvc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return exportsvc.NewSubjectNames(subjects), nil
}

// Handlers

func (api *reportApi) enrollmentByCourse(ctx echo.Context) error {
	rows, err := api.svc.EnrollmentByCourse(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing enrollment by course")
	}
	if wantsXLSX(ctx) {
		return sendXLSX(ctx, "enrollment", exportsvc.EnrollmentTable(rows))
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *reportApi) attendance(ctx echo.Context, name string, count func(id int, rng report.DateRange) (report.AttendanceSummary, error)) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	rng, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	sum, err := count(id, rng)
	if err != nil {
		return errors.Wrapf(err, "computing attendance by %s", name)
	}
	if wantsXLSX(ctx) {
		return sendXLSX(ctx, fmt.Sprintf("attendance-%s-%d", name, id), exportsvc.AttendanceTable(sum))
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *reportApi) attendanceByStudent(ctx echo.Context) error {
	return api.attendance(ctx, "student", func(id int, rng report.DateRange) (report.AttendanceSummary, error) {
		return api.svc.AttendanceByStudent(ctx.Request().Context(), id, rng)
	})
}

func (api *reportApi) attendanceByCourse(ctx echo.Context) error {
	return api.attendance(ctx, "course", func(id int, rng report.DateRange) (report.AttendanceSummary, error) {
		return api.svc.AttendanceByCourse(ctx.Request().Context(), id, rng)
	})
}

func (api *reportApi) averageGradeByStudent(ctx echo.Context) error {
	studentID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	avgs, err := api.svc.AverageGradeByStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "computing average grades by student")
	}

	if wantsXLSX(ctx) {
		names, err := api.subjectNames(ctx)
		if err != nil {
			return err
		}
		return sendXLSX(ctx, fmt.Sprintf("grades-student-%d", studentID), exportsvc.SubjectAveragesTable(avgs, names))
	}
	return ctx.JSON(http.StatusOK, avgs)
}

func (api *reportApi) averageGradeBySubject(ctx echo.Context) error {
	subjectID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	avg, err := api.svc.AverageGradeBySubject(ctx.Request().Context(), subjectID)
	if err != nil {
		return errors.Wrap(err, "computing average grade by subject")
	}

	if wantsXLSX(ctx) {
		names, err := api.subjectNames(ctx)
		if err != nil {
			return err
		}
		return sendXLSX(ctx, fmt.Sprintf("grades-subject-%d", subjectID), exportsvc.SubjectAverageTable(subjectID, avg, names))
	}
	return ctx.JSON(http.StatusOK, SubjectAverageResponse{SubjectID: subjectID, Average: avg})
}

func (api *reportApi) gradeStatisticsByCourse(ctx echo.Context) error {
	courseID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	stats, err := api.svc.GradeStatisticsByCourse(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "computing grade statistics by course")
	}

	if wantsXLSX(ctx) {
		names, err := api.subjectNames(ctx)
		if err != nil {
			return err
		}
		return sendXLSX(ctx, fmt.Sprintf("grades-course-%d", courseID), exportsvc.GradeStatisticsTable(stats, names))
	}
	return ctx.JSON(http.StatusOK, stats)
}
