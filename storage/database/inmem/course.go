package inmemdb

import (
	"context"

	"github.com/trezcool/kenova/core/course"
)

type courseRepository struct {
	db         *table[course.Course]
	enrollment *table[course.Enrollment]
	assignment *table[course.Assignment]
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course, enrollment: db.enrollment, assignment: db.assignment}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = repo.db.nextID()
	repo.db.rows[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id int) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.rows[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCoursesByTeacher(_ context.Context, teacherID int) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.sorted() {
		if c.TeacherID == teacherID {
			courses = append(courses, c)
		}
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByStudent(_ context.Context, studentID int) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	repo.enrollment.mutex.RLock()
	defer repo.enrollment.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.sorted() {
		for _, e := range repo.enrollment.rows {
			if e.StudentID == studentID && e.CourseID == c.ID {
				courses = append(courses, c)
				break
			}
		}
	}
	return courses, nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.enrollment.mutex.Lock()
	defer repo.enrollment.mutex.Unlock()

	for _, row := range repo.enrollment.rows {
		if row.StudentID == e.StudentID && row.CourseID == e.CourseID {
			return course.Enrollment{}, course.ErrEnrollmentExists
		}
	}
	e.ID = repo.enrollment.nextID()
	repo.enrollment.rows[e.ID] = &e
	return e, nil
}

func (repo *courseRepository) CreateAssignment(_ context.Context, a course.Assignment) (course.Assignment, error) {
	repo.assignment.mutex.Lock()
	defer repo.assignment.mutex.Unlock()

	a.ID = repo.assignment.nextID()
	repo.assignment.rows[a.ID] = &a
	return a, nil
}
