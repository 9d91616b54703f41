package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/storage/database"
)

type courseRepository struct {
	db core.DBExecutor
}

func NewCourseRepository(db core.DBExecutor) course.Repository {
	vala.BeginValidation().Validate(vala.IsNotNil(db, "db")).CheckAndPanic()
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `INSERT INTO course (name, teacher_id) VALUES ($1, $2) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, c.Name, c.TeacherID).Scan(&c.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	var c course.Course
	if err := repo.db.GetContext(ctx, &c, `SELECT id, name, teacher_id FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	return c, nil
}

func (repo *courseRepository) QueryCoursesByTeacher(ctx context.Context, teacherID int) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	q := `SELECT id, name, teacher_id FROM course WHERE teacher_id = $1 ORDER BY id`
	if err := repo.db.SelectContext(ctx, &courses, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "selecting teacher courses")
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByStudent(ctx context.Context, studentID int) ([]course.Course, error) {
	q := `SELECT c.id, c.name, c.teacher_id
		FROM course c
		JOIN enrollment e ON e.course_id = c.id
		WHERE e.student_id = $1
		ORDER BY c.id`

	courses := make([]course.Course, 0)
	if err := repo.db.SelectContext(ctx, &courses, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting student courses")
	}
	return courses, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	q := `INSERT INTO enrollment (student_id, course_id) VALUES ($1, $2) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, e.StudentID, e.CourseID).Scan(&e.ID); err != nil {
		if database.IsUniqueViolation(err) {
			return course.Enrollment{}, course.ErrEnrollmentExists
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *courseRepository) CreateAssignment(ctx context.Context, a course.Assignment) (course.Assignment, error) {
	q := `INSERT INTO assignment (title, description, course_id, due_date) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, a.Title, a.Description, a.CourseID, a.DueDate).Scan(&a.ID); err != nil {
		return course.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}
