package course

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/kenova/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrNameRequired     = errors.New("Course name is required")
	ErrNotATeacher      = errors.New("user is not a teacher")
	ErrEnrollmentExists = errors.New("this student is already enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		// QueryCoursesByTeacher returns the courses taught by teacherID, ordered by ID.
		QueryCoursesByTeacher(ctx context.Context, teacherID int) ([]Course, error)
		// QueryCoursesByStudent returns the courses studentID is enrolled in, ordered by ID.
		QueryCoursesByStudent(ctx context.Context, studentID int) ([]Course, error)
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	}

	// UserGetter is the part of user.Service the course Service needs to check roles.
	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service interface {
		Create(ctx context.Context, teacherID int, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id int) (Course, error)
		ListByTeacher(ctx context.Context, teacherID int) ([]Course, error)
		ListForStudent(ctx context.Context, studentID int) ([]Course, error)
		Enroll(ctx context.Context, studentID, courseID int) (Enrollment, error)
		AddAssignment(ctx context.Context, na NewAssignment) (Assignment, error)
	}

	service struct {
		repo     Repository
		users    UserGetter
		validate *validator.Validate
	}
)

func NewService(repo Repository, users UserGetter, validate *validator.Validate) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &service{repo: repo, users: users, validate: validate}
}

// Create validates nc and creates a Course owned by teacherID. Nothing is written when an error is returned.
func (svc *service) Create(ctx context.Context, teacherID int, nc NewCourse) (Course, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	teacher, err := svc.users.GetByID(ctx, teacherID)
	if err != nil {
		return Course{}, errors.Wrapf(err, "teacher %d", teacherID)
	}
	if !teacher.IsTeacher() {
		return Course{}, ErrNotATeacher
	}
	return svc.repo.CreateCourse(ctx, Course{Name: nc.Name, TeacherID: teacher.ID})
}

func (svc *service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) ListByTeacher(ctx context.Context, teacherID int) ([]Course, error) {
	return svc.repo.QueryCoursesByTeacher(ctx, teacherID)
}

func (svc *service) ListForStudent(ctx context.Context, studentID int) ([]Course, error) {
	return svc.repo.QueryCoursesByStudent(ctx, studentID)
}

// Enroll registers studentID in courseID; the user must hold the student role.
func (svc *service) Enroll(ctx context.Context, studentID, courseID int) (Enrollment, error) {
	student, err := svc.users.GetByID(ctx, studentID)
	if err != nil {
		return Enrollment{}, errors.Wrapf(err, "student %d", studentID)
	}
	if !student.IsStudent() {
		return Enrollment{}, user.ErrNotAStudent
	}
	crs, err := svc.GetByID(ctx, courseID)
	if err != nil {
		return Enrollment{}, errors.Wrapf(err, "course %d", courseID)
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{StudentID: student.ID, CourseID: crs.ID})
}

func (svc *service) AddAssignment(ctx context.Context, na NewAssignment) (Assignment, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Assignment{}, err
	}
	crs, err := svc.GetByID(ctx, na.CourseID)
	if err != nil {
		return Assignment{}, errors.Wrapf(err, "course %d", na.CourseID)
	}
	return svc.repo.CreateAssignment(ctx, Assignment{
		Title:       na.Title,
		Description: na.Description,
		CourseID:    crs.ID,
		DueDate:     na.DueDate,
	})
}
