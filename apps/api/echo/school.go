package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/xenthrall/academy/core/school"
)

type schoolApi struct {
	svc      school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc school.Service, validate *validator.Validate) {
	api := schoolApi{svc: svc, validate: validate}
	records := roleMiddleware(RoleRecords)

	cg := g.Group("/courses", jwt)
	cg.GET("", api.queryCourses)
	cg.POST("", api.createCourse, records)
	cg.GET("/:id", api.retrieveCourse)

	sg := g.Group("/students", jwt)
	sg.GET("", api.queryStudents)
	sg.POST("", api.createStudent, records)
	sg.GET("/:id", api.retrieveStudent)
	sg.GET("/:id/attendance", api.queryStudentAttendance)
	sg.GET("/:id/grades", api.queryStudentGrades)

	mg := g.Group("/subjects", jwt)
	mg.GET("", api.querySubjects)
	mg.POST("", api.createSubject, records)
	mg.GET("/:id", api.retrieveSubject)

	tg := g.Group("/teachers", jwt)
	tg.GET("", api.queryTeachers)
	tg.POST("", api.createTeacher, records)
	tg.GET("/:id", api.retrieveTeacher)
	tg.GET("/:id/subjects", api.queryTeacherSubjects)
	tg.POST("/:id/subjects", api.assignSubjects, records)
	tg.DELETE("/:id/subjects", api.unassignSubjects, records)

	ag := g.Group("/attendance", jwt, records)
	ag.POST("", api.recordAttendance)
	ag.PUT("/:id", api.updateAttendance)
	ag.DELETE("/:id", api.destroyAttendance)

	ng := g.Group("/grades", jwt, records)
	ng.POST("", api.recordGrade)
	ng.PUT("/:id", api.updateGrade)
	ng.DELETE("/:id", api.destroyGrade)
}

// Courses

func (api *schoolApi) createCourse(ctx echo.Context) error {
	var data school.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	course, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *schoolApi) queryCourses(ctx echo.Context) error {
	courses, err := api.svc.QueryCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *schoolApi) retrieveCourse(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	course, err := api.svc.GetCourse(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, course)
}

// Students

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	student, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, student)
}

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	courseID, err := queryInt(ctx, "course_id")
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), school.StudentFilter{
		CourseID:  courseID,
		Orderings: ordering.Orderings,
	})
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	student, err := api.svc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *schoolApi) queryStudentAttendance(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	records, err := api.svc.QueryStudentAttendance(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying student attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *schoolApi) queryStudentGrades(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	grades, err := api.svc.QueryStudentGrades(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying student grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

// Subjects

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	subject, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subject)
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) retrieveSubject(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	subject, err := api.svc.GetSubject(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, subject)
}

// Teachers

func (api *schoolApi) createTeacher(ctx echo.Context) error {
	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	teacher, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, teacher)
}

func (api *schoolApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.svc.QueryTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *schoolApi) retrieveTeacher(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	teacher, err := api.svc.GetTeacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return ctx.JSON(http.StatusOK, teacher)
}

func (api *schoolApi) queryTeacherSubjects(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	subjects, err := api.svc.QueryTeacherSubjects(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying teacher subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) bindTeacherSubjects(ctx echo.Context) (int, school.TeacherSubjects, error) {
	var data school.TeacherSubjects
	id, err := pathID(ctx, "id")
	if err != nil {
		return 0, data, err
	}
	if err = ctx.Bind(&data); err != nil {
		return 0, data, errors.Wrap(err, "binding to TeacherSubjects")
	}
	return id, data, data.Validate(api.validate)
}

func (api *schoolApi) assignSubjects(ctx echo.Context) error {
	id, data, err := api.bindTeacherSubjects(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.AssignSubjects(ctx.Request().Context(), id, data.SubjectIDs...); err != nil {
		return errors.Wrap(err, "assigning subjects")
	}
	return api.queryTeacherSubjects(ctx)
}

func (api *schoolApi) unassignSubjects(ctx echo.Context) error {
	id, data, err := api.bindTeacherSubjects(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.UnassignSubjects(ctx.Request().Context(), id, data.SubjectIDs...); err != nil {
		return errors.Wrap(err, "unassigning subjects")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Attendance

func (api *schoolApi) recordAttendance(ctx echo.Context) error {
	var data school.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.RecordAttendance(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *schoolApi) updateAttendance(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data school.UpdateAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.UpdateAttendance(ctx.Request().Context(), id, data.Status)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *schoolApi) destroyAttendance(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteAttendance(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Grades

func (api *schoolApi) recordGrade(ctx echo.Context) error {
	var data school.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grade, err := api.svc.RecordGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *schoolApi) updateGrade(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data school.UpdateGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	grade, err := api.svc.UpdateGrade(ctx.Request().Context(), id, *data.Value)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, grade)
}

func (api *schoolApi) destroyGrade(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteGrade(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}
