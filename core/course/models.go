package course

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kenova/core"
)

type Course struct {
	ID        int    `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	TeacherID int    `db:"teacher_id" json:"teacher_id"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name string `form:"name" validate:"max=140"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	if nc.Name == "" {
		return core.NewValidationError(ErrNameRequired, core.FieldError{Field: "name", Error: ErrNameRequired.Error()})
	}
	return validate.Struct(nc)
}

type Enrollment struct {
	ID        int `db:"id" json:"id"`
	StudentID int `db:"student_id" json:"student_id"`
	CourseID  int `db:"course_id" json:"course_id"`
}

type Assignment struct {
	ID          int         `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Description null.String `db:"description" json:"description"`
	CourseID    int         `db:"course_id" json:"course_id"`
	DueDate     null.Time   `db:"due_date" json:"due_date"`
}

// NewAssignment contains information needed to add an Assignment to a Course.
type NewAssignment struct {
	CourseID    int         `form:"course" validate:"required"`
	Title       string      `form:"title" validate:"notblank,max=140"`
	Description null.String `form:"description"`
	DueDate     null.Time   `form:"due"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	if na.Description.Valid {
		na.Description = null.NewString(core.CleanString(na.Description.String), true)
		if na.Description.String == "" {
			na.Description = null.String{}
		}
	}
	if na.DueDate.Valid {
		na.DueDate = null.TimeFrom(na.DueDate.Time.UTC())
	}
	return validate.Struct(na)
}

// Submission is a student's answer to an Assignment. Grade and Feedback stay null until graded.
type Submission struct {
	ID           int          `db:"id" json:"id"`
	AssignmentID int          `db:"assignment_id" json:"assignment_id"`
	StudentID    int          `db:"student_id" json:"student_id"`
	SubmittedAt  null.Time    `db:"submitted_at" json:"submitted_at"`
	Grade        null.Float64 `db:"grade" json:"grade"`
	Feedback     null.String  `db:"feedback" json:"feedback"`
}
