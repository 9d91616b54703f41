package testutil

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/core/user"
	emailsvc "github.com/trezcool/kenova/services/email"
	logsvc "github.com/trezcool/kenova/services/logger"
)

// NewLogger returns a logger discarding its output and never reporting to Rollbar.
func NewLogger(conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// NewMailer returns a synchronous EmailService recording what it sends, with email templates parsed.
func NewMailer(conf *core.Config, logger core.Logger) *emailsvc.ConsoleServiceMock {
	core.ParseEmailTemplates(conf, logger)
	return emailsvc.NewConsoleServiceMock(conf, logger)
}

// NewValidator returns a validator knowing every custom tag of the app.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, email, pwd string, role user.Role, validated bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Email:     email,
		Role:      role,
		Validated: validated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, name string, teacherID int) course.Course {
	t.Helper()
	crs, err := repo.CreateCourse(context.Background(), course.Course{Name: name, TeacherID: teacherID})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func Enroll(t *testing.T, repo course.Repository, studentID, courseID int) course.Enrollment {
	t.Helper()
	e, err := repo.CreateEnrollment(context.Background(), course.Enrollment{StudentID: studentID, CourseID: courseID})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return e
}

func LinkParent(t *testing.T, repo user.Repository, parentID, studentID int) user.ParentStudent {
	t.Helper()
	ps, err := repo.CreateParentStudent(context.Background(), user.ParentStudent{ParentID: parentID, StudentID: studentID})
	if err != nil {
		t.Fatalf("LinkParent() failed: %v", err)
	}
	return ps
}

// PostForm submits form values to path and returns the recorded response.
func PostForm(h http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// Login posts the credentials to /login and returns the session cookie.
func Login(t *testing.T, h http.Handler, email, pwd string) *http.Cookie {
	t.Helper()
	rec := PostForm(h, "/login", url.Values{"email": {email}, "password": {pwd}})
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("Login(%s) failed: code = %d; no session cookie", email, rec.Code)
	return nil
}
