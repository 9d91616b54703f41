package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/user"
)

func registerAccountRoutes(app *echo.Echo, wa *webApp) {
	app.GET("/", wa.index)
	app.GET("/login", anonymousOnly(wa.loginForm))
	app.POST("/login", anonymousOnly(wa.login))
	app.GET("/logout", requireAuth(wa.logout))
	app.GET("/register", anonymousOnly(wa.registerForm))
	app.POST("/register", anonymousOnly(wa.register))
}

// Handlers

func (wa *webApp) index(ctx echo.Context) error {
	return render(ctx, wa.conf, http.StatusOK, "index", "Home", nil)
}

func (wa *webApp) loginForm(ctx echo.Context) error {
	return render(ctx, wa.conf, http.StatusOK, "login", "Sign In", nil)
}

func (wa *webApp) login(ctx echo.Context) error {
	usr, err := wa.userSvc.Authenticate(ctx.Request().Context(), ctx.FormValue("email"), ctx.FormValue("password"))
	if err != nil {
		if err == user.ErrInvalidCredentials {
			return flashRedirect(ctx, wa.conf, "/login", err.Error())
		}
		return errors.Wrap(err, "authenticating")
	}
	if err = login(ctx, usr, wa.conf); err != nil {
		return errors.Wrap(err, "opening session")
	}
	return ctx.Redirect(http.StatusFound, "/dashboard")
}

func (wa *webApp) logout(ctx echo.Context, _ Identity) error {
	logout(ctx, wa.conf)
	return ctx.Redirect(http.StatusFound, "/")
}

func (wa *webApp) registerForm(ctx echo.Context) error {
	return render(ctx, wa.conf, http.StatusOK, "register", "Register", user.AllRoles)
}

func (wa *webApp) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return flashRedirect(ctx, wa.conf, "/register", "Invalid registration form")
	}

	if _, err := wa.userSvc.Register(ctx.Request().Context(), data); err != nil {
		if msgs, ok := core.ValidationMessages(err, wa.translator); ok {
			return flashRedirect(ctx, wa.conf, "/register", msgs...)
		}
		return errors.Wrap(err, "registering user")
	}
	return flashRedirect(ctx, wa.conf, "/login", "Congratulations, you are now a registered user!")
}
