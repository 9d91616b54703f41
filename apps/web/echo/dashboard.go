package echoweb

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/core/user"
)

func registerDashboardRoutes(app *echo.Echo, wa *webApp) {
	app.GET("/dashboard", requireAuth(wa.dashboard))

	app.GET("/dashboard/superadmin", withRole(user.RoleSuperadmin, wa.superadminDashboard))
	app.GET("/validate_user/:user_id", withRole(user.RoleSuperadmin, wa.validateUser))
	app.GET("/assign_role/:user_id/:role", withRole(user.RoleSuperadmin, wa.assignRole))

	app.GET("/dashboard/teacher", withRole(user.RoleTeacher, wa.teacherDashboard))
	app.POST("/create_course", withRole(user.RoleTeacher, wa.createCourse))

	app.GET("/dashboard/student", withRole(user.RoleStudent, wa.studentDashboard))
	app.GET("/dashboard/parent", withRole(user.RoleParent, wa.parentDashboard))
}

// dashboardPath maps a role to its dashboard; unknown roles go home.
func dashboardPath(role user.Role) string {
	switch role {
	case user.RoleSuperadmin:
		return "/dashboard/superadmin"
	case user.RoleTeacher:
		return "/dashboard/teacher"
	case user.RoleStudent:
		return "/dashboard/student"
	case user.RoleParent:
		return "/dashboard/parent"
	default:
		return "/"
	}
}

// parseID reads the integer path param name; anything else is a 404.
func parseID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHTTPNotFound
	}
	return id, nil
}

// Handlers

func (wa *webApp) dashboard(ctx echo.Context, id Identity) error {
	return ctx.Redirect(http.StatusFound, dashboardPath(id.Role))
}

type superadminData struct {
	Pending   []user.User
	Validated []user.User
	Roles     []user.Role
}

func (wa *webApp) superadminDashboard(ctx echo.Context, _ Identity) error {
	reqCtx := ctx.Request().Context()
	pending, err := wa.userSvc.ListByValidation(reqCtx, false)
	if err != nil {
		return errors.Wrap(err, "listing pending users")
	}
	validated, err := wa.userSvc.ListByValidation(reqCtx, true)
	if err != nil {
		return errors.Wrap(err, "listing validated users")
	}
	data := superadminData{Pending: pending, Validated: validated, Roles: user.AllRoles}
	return render(ctx, wa.conf, http.StatusOK, "dashboard_superadmin", "Superadmin Dashboard", data)
}

func (wa *webApp) validateUser(ctx echo.Context, _ Identity) error {
	userID, err := parseID(ctx, "user_id")
	if err != nil {
		return err
	}
	usr, err := wa.userSvc.MarkValidated(ctx.Request().Context(), userID)
	if err != nil {
		if err == user.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "validating user")
	}
	return flashRedirect(ctx, wa.conf, "/dashboard/superadmin", "User "+usr.Email+" has been validated.")
}

func (wa *webApp) assignRole(ctx echo.Context, _ Identity) error {
	userID, err := parseID(ctx, "user_id")
	if err != nil {
		return err
	}
	role := ctx.Param("role")
	usr, err := wa.userSvc.AssignRole(ctx.Request().Context(), userID, role)
	switch err {
	case nil:
		msg := "User " + usr.Email + " has been assigned the role of " + usr.Role.String() + "."
		return flashRedirect(ctx, wa.conf, "/dashboard/superadmin", msg)
	case user.ErrNotFound:
		return errHTTPNotFound
	case user.ErrInvalidRole:
		return flashRedirect(ctx, wa.conf, "/dashboard/superadmin", "Invalid role: "+role)
	default:
		return errors.Wrap(err, "assigning role")
	}
}

func (wa *webApp) teacherDashboard(ctx echo.Context, id Identity) error {
	courses, err := wa.courseSvc.ListByTeacher(ctx.Request().Context(), id.ID)
	if err != nil {
		return errors.Wrap(err, "listing teacher courses")
	}
	return render(ctx, wa.conf, http.StatusOK, "dashboard_teacher", "Teacher Dashboard", courses)
}

func (wa *webApp) createCourse(ctx echo.Context, id Identity) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return flashRedirect(ctx, wa.conf, "/dashboard/teacher", course.ErrNameRequired.Error())
	}

	if _, err := wa.courseSvc.Create(ctx.Request().Context(), id.ID, data); err != nil {
		if msgs, ok := core.ValidationMessages(err, wa.translator); ok {
			return flashRedirect(ctx, wa.conf, "/dashboard/teacher", msgs...)
		}
		return errors.Wrap(err, "creating course")
	}
	return flashRedirect(ctx, wa.conf, "/dashboard/teacher", "Course created successfully")
}

func (wa *webApp) studentDashboard(ctx echo.Context, id Identity) error {
	courses, err := wa.courseSvc.ListForStudent(ctx.Request().Context(), id.ID)
	if err != nil {
		return errors.Wrap(err, "listing student courses")
	}
	return render(ctx, wa.conf, http.StatusOK, "dashboard_student", "Student Dashboard", courses)
}

func (wa *webApp) parentDashboard(ctx echo.Context, id Identity) error {
	children, err := wa.userSvc.Children(ctx.Request().Context(), id.ID)
	if err != nil {
		return errors.Wrap(err, "listing children")
	}
	return render(ctx, wa.conf, http.StatusOK, "dashboard_parent", "Parent Dashboard", children)
}
