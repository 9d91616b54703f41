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

var errHTTPNotFound = echo.NewHTTPError(http.StatusNotFound, "Page not found")

type errorPage struct {
	Code    int
	Message string
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering our error page.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(conf *core.Config, logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			switch m, ok := origErr.Message.(string); {
			case code == http.StatusNotFound:
				message = errHTTPNotFound.Message.(string)
			case ok:
				message = m
			default:
				message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default:
			if origErr == user.ErrNotFound || origErr == course.ErrNotFound {
				code = http.StatusNotFound
				message = errHTTPNotFound.Message.(string)
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(code)

			args := []interface{}{errors.Wrap(err, message)}
			if usr, ok := getContextUser(ctx); ok {
				args = append(args, usr)
			}
			logger.Error(message, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				pd := pageData{
					AppName: conf.AppName,
					Title:   strconv.Itoa(code),
					Data:    errorPage{Code: code, Message: message},
				}
				if id, ok := getContextIdentity(ctx); ok {
					pd.User = &id
				}
				err = ctx.Render(code, "error", pd)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
