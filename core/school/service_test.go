package school

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/xenthrall/academy/core"
)

type repoMock struct {
	mock.Mock
	Repository // methods not overridden below panic when called
}

func (m *repoMock) GetCourse(ctx context.Context, id int) (Course, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Course), args.Error(1)
}

func (m *repoMock) GetStudent(ctx context.Context, id int) (Student, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Student), args.Error(1)
}

func (m *repoMock) GetSubject(ctx context.Context, id int) (Subject, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Subject), args.Error(1)
}

func (m *repoMock) GetTeacher(ctx context.Context, id int) (Teacher, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Teacher), args.Error(1)
}

func (m *repoMock) CreateStudent(ctx context.Context, student Student) (Student, error) {
	args := m.Called(ctx, student)
	return args.Get(0).(Student), args.Error(1)
}

func (m *repoMock) CreateSubject(ctx context.Context, subject Subject) (Subject, error) {
	args := m.Called(ctx, subject)
	return args.Get(0).(Subject), args.Error(1)
}

func (m *repoMock) AssignSubjects(ctx context.Context, teacherID int, subjectIDs []int) error {
	return m.Called(ctx, teacherID, subjectIDs).Error(0)
}

func (m *repoMock) UpsertAttendance(ctx context.Context, att Attendance) (Attendance, error) {
	args := m.Called(ctx, att)
	return args.Get(0).(Attendance), args.Error(1)
}

func (m *repoMock) CreateGrade(ctx context.Context, grade Grade) (Grade, error) {
	args := m.Called(ctx, grade)
	return args.Get(0).(Grade), args.Error(1)
}

func fieldErrors(t *testing.T, err error) []core.FieldError {
	t.Helper()
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "want *core.ValidationError, got %v", err)
	return vErr.Fields
}

func TestService_CreateStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown course", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("GetCourse", ctx, 9).Return(Course{}, ErrNotFound)
		svc := NewService(repo)

		_, err := svc.CreateStudent(ctx, NewStudent{Name: "Ana", Surname: "Diaz", CourseID: null.IntFrom(9)})
		assert.Equal(t, []core.FieldError{{Field: "course_id", Error: "course not found"}}, fieldErrors(t, err))
		repo.AssertNotCalled(t, "CreateStudent", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("CreateStudent", ctx, mock.Anything).Return(Student{}, errors.Wrap(ErrEmailExists, "inserting student"))
		svc := NewService(repo)

		_, err := svc.CreateStudent(ctx, NewStudent{Name: "Ana", Surname: "Diaz", Email: "ana@test.cd"})
		assert.Equal(t, []core.FieldError{{Field: "email", Error: ErrEmailExists.Error()}}, fieldErrors(t, err))
	})

	t.Run("course deleted meanwhile", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("GetCourse", ctx, 9).Return(Course{ID: 9}, nil)
		repo.On("CreateStudent", ctx, mock.Anything).Return(Student{}, ErrMissingReference)
		svc := NewService(repo)

		_, err := svc.CreateStudent(ctx, NewStudent{Name: "Ana", Surname: "Diaz", CourseID: null.IntFrom(9)})
		assert.Equal(t, []core.FieldError{{Field: "course_id", Error: "course not found"}}, fieldErrors(t, err))
	})

	t.Run("without course", func(t *testing.T) {
		repo := new(repoMock)
		want := Student{ID: 1, Name: "Ana", Surname: "Diaz"}
		repo.On("CreateStudent", ctx, Student{Name: "Ana", Surname: "Diaz"}).Return(want, nil)
		svc := NewService(repo)

		got, err := svc.CreateStudent(ctx, NewStudent{Name: "Ana", Surname: "Diaz"})
		require.NoError(t, err)
		assert.Equal(t, want, got)
		repo.AssertNotCalled(t, "GetCourse", mock.Anything, mock.Anything)
	})
}

func TestService_CreateSubject_duplicate(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMock)
	repo.On("CreateSubject", ctx, Subject{Name: "Math"}).Return(Subject{}, ErrSubjectNameExists)
	svc := NewService(repo)

	_, err := svc.CreateSubject(ctx, NewSubject{Name: "Math"})
	assert.Equal(t, []core.FieldError{{Field: "name", Error: ErrSubjectNameExists.Error()}}, fieldErrors(t, err))
}

func TestService_AssignSubjects(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown teacher", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("GetTeacher", ctx, 4).Return(Teacher{}, ErrNotFound)
		svc := NewService(repo)

		err := svc.AssignSubjects(ctx, 4, 1)
		assert.Equal(t, ErrNotFound, errors.Cause(err))
	})

	t.Run("unknown subject", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("GetTeacher", ctx, 1).Return(Teacher{ID: 1}, nil)
		repo.On("GetSubject", ctx, 1).Return(Subject{ID: 1}, nil)
		repo.On("GetSubject", ctx, 2).Return(Subject{}, ErrNotFound)
		svc := NewService(repo)

		err := svc.AssignSubjects(ctx, 1, 1, 2)
		assert.Equal(t, []core.FieldError{{Field: "subject_ids", Error: "subject not found"}}, fieldErrors(t, err))
		repo.AssertNotCalled(t, "AssignSubjects", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("teacher deleted meanwhile", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("GetTeacher", ctx, 1).Return(Teacher{ID: 1}, nil)
		repo.On("GetSubject", ctx, 1).Return(Subject{ID: 1}, nil)
		repo.On("AssignSubjects", ctx, 1, []int{1}).Return(ErrMissingReference)
		svc := NewService(repo)

		err := svc.AssignSubjects(ctx, 1, 1)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, ErrMissingReference, vErr.Err)
	})

	t.Run("assigned", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("GetTeacher", ctx, 1).Return(Teacher{ID: 1}, nil)
		repo.On("GetSubject", ctx, mock.Anything).Return(Subject{}, nil)
		repo.On("AssignSubjects", ctx, 1, []int{1, 2}).Return(nil)
		svc := NewService(repo)

		require.NoError(t, svc.AssignSubjects(ctx, 1, 1, 2))
		repo.AssertExpectations(t)
	})
}

func TestService_RecordAttendance(t *testing.T) {
	ctx := context.Background()
	date := core.MustParseDate("2024-05-02")

	t.Run("unknown student", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("GetStudent", ctx, 5).Return(Student{}, ErrNotFound)
		svc := NewService(repo)

		_, err := svc.RecordAttendance(ctx, NewAttendance{StudentID: 5, Date: date, Status: StatusLate})
		assert.Equal(t, []core.FieldError{{Field: "student_id", Error: "student not found"}}, fieldErrors(t, err))
	})

	t.Run("student deleted meanwhile", func(t *testing.T) {
		repo := new(repoMock)
		repo.On("GetStudent", ctx, 5).Return(Student{ID: 5}, nil)
		repo.On("UpsertAttendance", ctx, mock.Anything).Return(Attendance{}, ErrMissingReference)
		svc := NewService(repo)

		_, err := svc.RecordAttendance(ctx, NewAttendance{StudentID: 5, Date: date, Status: StatusLate})
		assert.Equal(t, []core.FieldError{{Field: "student_id", Error: "student not found"}}, fieldErrors(t, err))
	})

	t.Run("recorded", func(t *testing.T) {
		repo := new(repoMock)
		att := Attendance{StudentID: 5, Date: date, Status: StatusLate}
		repo.On("GetStudent", ctx, 5).Return(Student{ID: 5}, nil)
		repo.On("UpsertAttendance", ctx, att).Return(Attendance{ID: 3, StudentID: 5, Date: date, Status: StatusLate}, nil)
		svc := NewService(repo)

		got, err := svc.RecordAttendance(ctx, NewAttendance{StudentID: 5, Date: date, Status: StatusLate})
		require.NoError(t, err)
		assert.Equal(t, 3, got.ID)
	})
}

func TestService_RecordGrade(t *testing.T) {
	ctx := context.Background()
	date := core.MustParseDate("2024-05-02")
	value := 4.5

	repo := new(repoMock)
	repo.On("GetStudent", ctx, 1).Return(Student{ID: 1}, nil)
	repo.On("GetSubject", ctx, 2).Return(Subject{}, ErrNotFound)
	repo.On("GetSubject", ctx, 3).Return(Subject{ID: 3}, nil)
	repo.On("CreateGrade", ctx, Grade{StudentID: 1, SubjectID: 3, Value: 4.5, Date: date}).
		Return(Grade{ID: 8, StudentID: 1, SubjectID: 3, Value: 4.5, Date: date}, nil)
	svc := NewService(repo)

	_, err := svc.RecordGrade(ctx, NewGrade{StudentID: 1, SubjectID: 2, Value: &value, Date: date})
	assert.Equal(t, []core.FieldError{{Field: "subject_id", Error: "subject not found"}}, fieldErrors(t, err))

	grade, err := svc.RecordGrade(ctx, NewGrade{StudentID: 1, SubjectID: 3, Value: &value, Date: date})
	require.NoError(t, err)
	assert.Equal(t, 8, grade.ID)
}

func TestService_RecordGrade_missingReference(t *testing.T) {
	ctx := context.Background()
	value := 3.0

	repo := new(repoMock)
	repo.On("GetStudent", ctx, 1).Return(Student{ID: 1}, nil)
	repo.On("GetSubject", ctx, 3).Return(Subject{ID: 3}, nil)
	repo.On("CreateGrade", ctx, mock.Anything).Return(Grade{}, ErrMissingReference)
	svc := NewService(repo)

	_, err := svc.RecordGrade(ctx, NewGrade{StudentID: 1, SubjectID: 3, Value: &value, Date: core.MustParseDate("2024-05-02")})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "want *core.ValidationError, got %v", err)
	assert.Equal(t, ErrMissingReference, vErr.Err)
}

func newValidator() *validator.Validate {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func failedFields(err error) []string {
	var fields []string
	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			fields = append(fields, fe.Field())
		}
	}
	return fields
}

func TestNewAttendance_Validate(t *testing.T) {
	validate := newValidator()
	date := core.MustParseDate("2024-05-02")

	tests := []struct {
		name       string
		data       NewAttendance
		wantFields []string
	}{
		{name: "valid", data: NewAttendance{StudentID: 1, Date: date, Status: StatusPresent}},
		{name: "empty", data: NewAttendance{}, wantFields: []string{"student_id", "date", "status"}},
		{name: "unknown status", data: NewAttendance{StudentID: 1, Date: date, Status: "Presente"}, wantFields: []string{"status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			assert.ElementsMatch(t, tt.wantFields, failedFields(err))
		})
	}
}

func TestNewGrade_Validate(t *testing.T) {
	validate := newValidator()
	date := core.MustParseDate("2024-05-02")
	val := func(f float64) *float64 { return &f }

	tests := []struct {
		name       string
		data       NewGrade
		wantFields []string
	}{
		{name: "valid", data: NewGrade{StudentID: 1, SubjectID: 1, Value: val(3.5), Date: date}},
		{name: "zero is a grade", data: NewGrade{StudentID: 1, SubjectID: 1, Value: val(0), Date: date}},
		{name: "upper bound", data: NewGrade{StudentID: 1, SubjectID: 1, Value: val(5), Date: date}},
		{name: "above scale", data: NewGrade{StudentID: 1, SubjectID: 1, Value: val(5.1), Date: date}, wantFields: []string{"value"}},
		{name: "negative", data: NewGrade{StudentID: 1, SubjectID: 1, Value: val(-1), Date: date}, wantFields: []string{"value"}},
		{name: "missing value and date", data: NewGrade{StudentID: 1, SubjectID: 1}, wantFields: []string{"value", "date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			assert.ElementsMatch(t, tt.wantFields, failedFields(err))
		})
	}
}

func TestNewCourse_Validate(t *testing.T) {
	validate := newValidator()

	nc := NewCourse{Name: "  10th grade  ", Description: " morning "}
	require.NoError(t, nc.Validate(validate))
	assert.Equal(t, "10th grade", nc.Name)
	assert.Equal(t, "morning", nc.Description)

	blank := NewCourse{Name: "   "}
	assert.ElementsMatch(t, []string{"name"}, failedFields(blank.Validate(validate)))
}
