package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kenova/core/course"
)

func (cli *commandLine) enroll(studentID, courseID int) error {
	e, err := cli.courseSvc.Enroll(context.Background(), studentID, courseID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "enrollment %d: student %d in course %d\n", e.ID, e.StudentID, e.CourseID)
	return nil
}

func (cli *commandLine) linkParent(parentID, studentID int) error {
	ps, err := cli.userSvc.LinkParent(context.Background(), parentID, studentID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "link %d: parent %d of student %d\n", ps.ID, ps.ParentID, ps.StudentID)
	return nil
}

func (cli *commandLine) addAssignment(courseID int, title, description, due string) error {
	na := course.NewAssignment{CourseID: courseID, Title: title}
	if description != "" {
		na.Description = null.StringFrom(description)
	}
	if due != "" {
		dueDate, err := time.Parse(time.RFC3339, due)
		if err != nil {
			return errors.Wrap(err, "parsing -due")
		}
		na.DueDate = null.TimeFrom(dueDate)
	}

	a, err := cli.courseSvc.AddAssignment(context.Background(), na)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "assignment %d: %q in course %d\n", a.ID, a.Title, a.CourseID)
	return nil
}
