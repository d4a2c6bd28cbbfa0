package school

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/xenthrall/academy/core"
)

// Status is the attendance status of a student on a given day.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusLate    Status = "Late"
)

var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate}

func (s Status) IsValid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// grades are on a 0 to 5 scale
const (
	MinGrade = 0.0
	MaxGrade = 5.0
)

type (
	Course struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	Student struct {
		ID        int       `json:"id"`
		Name      string    `json:"name"`
		Surname   string    `json:"surname"`
		BirthDate core.Date `json:"birth_date"`
		Address   string    `json:"address"`
		Phone     string    `json:"phone"`
		Email     string    `json:"email"`
		CourseID  null.Int  `json:"course_id"`
	}

	Subject struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	Teacher struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
	}

	Attendance struct {
		ID        int       `json:"id"`
		StudentID int       `json:"student_id"`
		Date      core.Date `json:"date"`
		Status    Status    `json:"status"`
	}

	Grade struct {
		ID        int       `json:"id"`
		StudentID int       `json:"student_id"`
		SubjectID int       `json:"subject_id"`
		Value     float64   `json:"value"`
		Date      core.Date `json:"date"`
	}

	StudentFilter struct {
		CourseID  int
		Orderings []core.DBOrdering
	}
)

type NewCourse struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type NewStudent struct {
	Name      string    `json:"name" validate:"required,notblank,max=100"`
	Surname   string    `json:"surname" validate:"required,notblank,max=100"`
	BirthDate core.Date `json:"birth_date"`
	Address   string    `json:"address" validate:"max=255"`
	Phone     string    `json:"phone" validate:"max=20"`
	Email     string    `json:"email" validate:"omitempty,email"`
	CourseID  null.Int  `json:"course_id"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Surname = core.CleanString(ns.Surname)
	ns.Address = core.CleanString(ns.Address)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

type NewSubject struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

type NewTeacher struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Surname string `json:"surname" validate:"required,notblank,max=100"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=20"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Surname = core.CleanString(nt.Surname)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.CleanString(nt.Phone)
	return validate.Struct(nt)
}

type TeacherSubjects struct {
	SubjectIDs []int `json:"subject_ids" validate:"required,min=1,dive,gt=0"`
}

func (ts TeacherSubjects) Validate(validate *validator.Validate) error { return validate.Struct(ts) }

type NewAttendance struct {
	StudentID int       `json:"student_id" validate:"required,gt=0"`
	Date      core.Date `json:"date" validate:"required"`
	Status    Status    `json:"status" validate:"required,attendance_status"`
}

func (na NewAttendance) Validate(validate *validator.Validate) error { return validate.Struct(na) }

type UpdateAttendance struct {
	Status Status `json:"status" validate:"required,attendance_status"`
}

func (ua UpdateAttendance) Validate(validate *validator.Validate) error { return validate.Struct(ua) }

type NewGrade struct {
	StudentID int       `json:"student_id" validate:"required,gt=0"`
	SubjectID int       `json:"subject_id" validate:"required,gt=0"`
	Value     *float64  `json:"value" validate:"required,gte=0,lte=5"`
	Date      core.Date `json:"date" validate:"required"`
}

func (ng NewGrade) Validate(validate *validator.Validate) error { return validate.Struct(ng) }

type UpdateGrade struct {
	Value *float64 `json:"value" validate:"required,gte=0,lte=5"`
}

func (ug UpdateGrade) Validate(validate *validator.Validate) error { return validate.Struct(ug) }
