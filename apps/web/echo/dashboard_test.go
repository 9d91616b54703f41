package echoweb

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kenova/core/user"
	"github.com/trezcool/kenova/testutil"
)

func Test_dashboardPath(t *testing.T) {
	tests := []struct {
		role user.Role
		want string
	}{
		{user.RoleSuperadmin, "/dashboard/superadmin"},
		{user.RoleTeacher, "/dashboard/teacher"},
		{user.RoleStudent, "/dashboard/student"},
		{user.RoleParent, "/dashboard/parent"},
		{user.Role("janitor"), "/"},
		{user.Role(""), "/"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := dashboardPath(tt.role); got != tt.want {
				t.Errorf("dashboardPath(%q) = %q; want %q", tt.role, got, tt.want)
			}
		})
	}
}

func Test_webApp_dashboard(t *testing.T) {
	app := setup(t)
	for _, role := range user.AllRoles {
		email := string(role) + "@kenova.xyz"
		if role == user.RoleSuperadmin {
			email = "administrador@kenova.xyz"
		}
		usr := testutil.CreateUser(t, app.userRepo, email, "pw", role, true)
		cookie := app.login(t, usr, "pw")

		app.run(t, httpTest{path: "/dashboard", cookie: cookie, wantCode: http.StatusFound, wantLocation: dashboardPath(role)})
		app.run(t, httpTest{path: dashboardPath(role), cookie: cookie, wantCode: http.StatusOK})
	}
}

func Test_webApp_requiresAuthentication(t *testing.T) {
	app := setup(t)
	tests := []httpTest{
		{method: http.MethodGet, path: "/dashboard"},
		{method: http.MethodGet, path: "/dashboard/superadmin"},
		{method: http.MethodGet, path: "/validate_user/1"},
		{method: http.MethodGet, path: "/assign_role/1/teacher"},
		{method: http.MethodGet, path: "/dashboard/teacher"},
		{method: http.MethodPost, path: "/create_course", form: url.Values{"name": {"Math"}}},
		{method: http.MethodGet, path: "/dashboard/student"},
		{method: http.MethodGet, path: "/dashboard/parent"},
	}
	for _, tt := range tests {
		tt.wantCode = http.StatusFound
		tt.wantLocation = "/login"
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			app.run(t, tt)
		})
	}
	assert.Zero(t, app.db.Len()["course"])
}

func Test_webApp_wrongRole(t *testing.T) {
	ctx := context.Background()
	app := setup(t)
	student := testutil.CreateUser(t, app.userRepo, "s@kenova.xyz", "pw", user.RoleStudent, true)
	teacher := testutil.CreateUser(t, app.userRepo, "t@kenova.xyz", "pw", user.RoleTeacher, true)
	pending := testutil.CreateUser(t, app.userRepo, "p@kenova.xyz", "pw", user.RoleParent, false)
	studentCookie := app.login(t, student, "pw")
	teacherCookie := app.login(t, teacher, "pw")

	tests := []httpTest{
		{name: "student on superadmin dashboard", path: "/dashboard/superadmin", cookie: studentCookie},
		{name: "teacher validates", path: "/validate_user/3", cookie: teacherCookie},
		{name: "teacher assigns role", path: "/assign_role/3/superadmin", cookie: teacherCookie},
		{name: "student on teacher dashboard", path: "/dashboard/teacher", cookie: studentCookie},
		{name: "student creates course", method: http.MethodPost, path: "/create_course", form: url.Values{"name": {"Math"}}, cookie: studentCookie},
		{name: "teacher on student dashboard", path: "/dashboard/student", cookie: teacherCookie},
		{name: "teacher on parent dashboard", path: "/dashboard/parent", cookie: teacherCookie},
	}
	for _, tt := range tests {
		tt.wantCode = http.StatusFound
		tt.wantLocation = "/"
		tt.wantFlashes = []string{}
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	// zero writes
	assert.Zero(t, app.db.Len()["course"])
	got, err := app.userSvc.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, got.Validated)
	assert.Equal(t, user.RoleParent, got.Role)
	assert.Empty(t, app.mailer.Sent())
}

func Test_webApp_superadminDashboard(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.userRepo, "administrador@kenova.xyz", "pw", user.RoleSuperadmin, true)
	testutil.CreateUser(t, app.userRepo, "pending@kenova.xyz", "pw", user.RoleStudent, false)
	cookie := app.login(t, admin, "pw")

	rec := app.get("/dashboard/superadmin", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	pendingTable := body[strings.Index(body, `class="pending"`):strings.Index(body, `class="validated"`)]
	validatedTable := body[strings.Index(body, `class="validated"`):]
	assert.Contains(t, pendingTable, "pending@kenova.xyz")
	assert.Contains(t, pendingTable, `href="/validate_user/2"`)
	assert.Contains(t, validatedTable, "administrador@kenova.xyz")
	assert.NotContains(t, validatedTable, "pending@kenova.xyz")
}

func Test_webApp_validateUser(t *testing.T) {
	ctx := context.Background()
	app := setup(t)
	admin := testutil.CreateUser(t, app.userRepo, "administrador@kenova.xyz", "pw", user.RoleSuperadmin, true)
	usr := testutil.CreateUser(t, app.userRepo, "s@kenova.xyz", "pw", user.RoleStudent, false)
	cookie := app.login(t, admin, "pw")

	tests := []httpTest{
		{name: "validate", path: "/validate_user/2", wantCode: http.StatusFound, wantLocation: "/dashboard/superadmin", wantFlashes: []string{"User s@kenova.xyz has been validated."}},
		{name: "validate again", path: "/validate_user/2", wantCode: http.StatusFound, wantLocation: "/dashboard/superadmin", wantFlashes: []string{"User s@kenova.xyz has been validated."}},
		{name: "unknown id", path: "/validate_user/999", wantCode: http.StatusNotFound},
		{name: "non-integer id", path: "/validate_user/abc", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt.cookie = cookie
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	got, err := app.userSvc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, got.Validated)

	sent := app.mailer.Sent()
	require.Len(t, sent, 1, "the second validation sends nothing")
	assert.Equal(t, "Account Validated", sent[0].Subject)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)
}

func Test_webApp_assignRole(t *testing.T) {
	ctx := context.Background()
	app := setup(t)
	admin := testutil.CreateUser(t, app.userRepo, "administrador@kenova.xyz", "pw", user.RoleSuperadmin, true)
	usr := testutil.CreateUser(t, app.userRepo, "u@kenova.xyz", "pw", user.RoleStudent, true)
	cookie := app.login(t, admin, "pw")

	tests := []httpTest{
		{name: "invalid role", path: "/assign_role/2/janitor", wantCode: http.StatusFound, wantLocation: "/dashboard/superadmin", wantFlashes: []string{"Invalid role: janitor"}},
		{name: "unknown id", path: "/assign_role/999/teacher", wantCode: http.StatusNotFound},
		{name: "non-integer id", path: "/assign_role/x/teacher", wantCode: http.StatusNotFound},
		{name: "teacher", path: "/assign_role/2/teacher", wantCode: http.StatusFound, wantLocation: "/dashboard/superadmin", wantFlashes: []string{"User u@kenova.xyz has been assigned the role of teacher."}},
	}
	for _, tt := range tests {
		tt.cookie = cookie
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	got, err := app.userSvc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, got.Role)

	// the new role applies to the existing session, and starts with no courses
	usrCookie := app.login(t, got, "pw")
	app.run(t, httpTest{path: "/dashboard", cookie: usrCookie, wantCode: http.StatusFound, wantLocation: "/dashboard/teacher"})
	rec := app.get("/dashboard/teacher", usrCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have no courses yet.")
}

func Test_webApp_roleChangeAppliesToOpenSession(t *testing.T) {
	ctx := context.Background()
	app := setup(t)
	usr := testutil.CreateUser(t, app.userRepo, "u@kenova.xyz", "pw", user.RoleTeacher, true)
	cookie := app.login(t, usr, "pw")
	app.run(t, httpTest{path: "/dashboard", cookie: cookie, wantCode: http.StatusFound, wantLocation: "/dashboard/teacher"})

	_, err := app.userSvc.AssignRole(ctx, usr.ID, "student")
	require.NoError(t, err)
	app.run(t, httpTest{path: "/dashboard", cookie: cookie, wantCode: http.StatusFound, wantLocation: "/dashboard/student"})
	app.run(t, httpTest{path: "/dashboard/teacher", cookie: cookie, wantCode: http.StatusFound, wantLocation: "/"})
}

func Test_webApp_teacherDashboards(t *testing.T) {
	app := setup(t)
	teacherT := testutil.CreateUser(t, app.userRepo, "t@kenova.xyz", "pw", user.RoleTeacher, true)
	teacherU := testutil.CreateUser(t, app.userRepo, "u@kenova.xyz", "pw", user.RoleTeacher, true)
	testutil.CreateCourse(t, app.courseRepo, "Algebra", teacherT.ID)
	testutil.CreateCourse(t, app.courseRepo, "Geometry", teacherT.ID)

	bodyT := app.get("/dashboard/teacher", app.login(t, teacherT, "pw")).Body.String()
	assert.Equal(t, 2, strings.Count(bodyT, "<li>"))
	assert.Contains(t, bodyT, "Algebra")
	assert.Contains(t, bodyT, "Geometry")

	bodyU := app.get("/dashboard/teacher", app.login(t, teacherU, "pw")).Body.String()
	assert.NotContains(t, bodyU, "Algebra")
	assert.NotContains(t, bodyU, "Geometry")
	assert.Contains(t, bodyU, "You have no courses yet.")
}

func Test_webApp_createCourse(t *testing.T) {
	ctx := context.Background()
	app := setup(t)
	teacher := testutil.CreateUser(t, app.userRepo, "t@kenova.xyz", "pw", user.RoleTeacher, true)
	cookie := app.login(t, teacher, "pw")

	tests := []httpTest{
		{name: "blank name", form: url.Values{"name": {"  "}}, wantFlashes: []string{"Course name is required"}},
		{name: "missing name", form: url.Values{}, wantFlashes: []string{"Course name is required"}},
		{name: "ok", form: url.Values{"name": {"Math"}}, wantFlashes: []string{"Course created successfully"}},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/create_course"
		tt.cookie = cookie
		tt.wantCode = http.StatusFound
		tt.wantLocation = "/dashboard/teacher"
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	courses, err := app.courseRepo.QueryCoursesByTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Math", courses[0].Name)
}

func Test_webApp_studentDashboard(t *testing.T) {
	app := setup(t)
	teacher := testutil.CreateUser(t, app.userRepo, "t@kenova.xyz", "pw", user.RoleTeacher, true)
	student := testutil.CreateUser(t, app.userRepo, "s@kenova.xyz", "pw", user.RoleStudent, true)
	other := testutil.CreateUser(t, app.userRepo, "o@kenova.xyz", "pw", user.RoleStudent, true)
	math := testutil.CreateCourse(t, app.courseRepo, "Math", teacher.ID)
	art := testutil.CreateCourse(t, app.courseRepo, "Art", teacher.ID)
	testutil.Enroll(t, app.courseRepo, student.ID, math.ID)
	testutil.Enroll(t, app.courseRepo, other.ID, art.ID)

	body := app.get("/dashboard/student", app.login(t, student, "pw")).Body.String()
	assert.Contains(t, body, "Math")
	assert.NotContains(t, body, "Art")

	body = app.get("/dashboard/student", app.login(t, other, "pw")).Body.String()
	assert.Contains(t, body, "Art")
	assert.NotContains(t, body, "Math")
}

func Test_webApp_parentDashboard(t *testing.T) {
	app := setup(t)
	parent := testutil.CreateUser(t, app.userRepo, "mom@kenova.xyz", "pw", user.RoleParent, true)
	kid := testutil.CreateUser(t, app.userRepo, "kid@kenova.xyz", "pw", user.RoleStudent, true)
	testutil.CreateUser(t, app.userRepo, "stranger@kenova.xyz", "pw", user.RoleStudent, true)
	testutil.LinkParent(t, app.userRepo, parent.ID, kid.ID)

	body := app.get("/dashboard/parent", app.login(t, parent, "pw")).Body.String()
	assert.Contains(t, body, "kid@kenova.xyz")
	assert.NotContains(t, body, "stranger@kenova.xyz")
}

func Test_webApp_endToEnd(t *testing.T) {
	ctx := context.Background()
	app := setup(t)

	app.run(t, httpTest{
		method:       http.MethodPost,
		path:         "/register",
		form:         registerForm("a@kenova.xyz", "pw", "teacher"),
		wantCode:     http.StatusFound,
		wantLocation: "/login",
	})

	rec := app.do(http.MethodPost, "/login", url.Values{"email": {"a@kenova.xyz"}, "password": {"pw"}})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	app.run(t, httpTest{path: "/dashboard", cookie: cookie, wantCode: http.StatusFound, wantLocation: "/dashboard/teacher"})
	app.run(t, httpTest{
		method:       http.MethodPost,
		path:         "/create_course",
		form:         url.Values{"name": {"Math"}},
		cookie:       cookie,
		wantCode:     http.StatusFound,
		wantLocation: "/dashboard/teacher",
		wantFlashes:  []string{"Course created successfully"},
	})

	body := app.get("/dashboard/teacher", cookie).Body.String()
	assert.Contains(t, body, "<li>Math</li>")

	teacher, err := app.userSvc.GetByEmail(ctx, "a@kenova.xyz")
	require.NoError(t, err)
	assert.False(t, teacher.Validated)
	courses, err := app.courseRepo.QueryCoursesByTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Math", courses[0].Name)
	assert.Equal(t, teacher.ID, courses[0].TeacherID)
}
