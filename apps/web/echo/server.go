package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/core/user"
)

type (
	Options struct {
		DisableReqLogs bool
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}

	// webApp holds what every handler needs.
	webApp struct {
		conf       *core.Config
		logger     core.Logger
		userSvc    user.Service
		courseSvc  course.Service
		translator ut.Translator
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(
	conf *core.Config,
	logger core.Logger,
	userSvc user.Service,
	courseSvc course.Service,
	translator ut.Translator,
	opts ...Options,
) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(userSvc, "userSvc"),
		vala.IsNotNil(courseSvc, "courseSvc"),
		vala.IsNotNil(translator, "translator"),
	).CheckAndPanic()

	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}

	s := &Server{
		conf:     conf,
		logger:   logger,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	wa := &webApp{
		conf:       conf,
		logger:     logger,
		userSvc:    userSvc,
		courseSvc:  courseSvc,
		translator: translator,
	}
	s.setup(wa, opt)
	return s
}

func (s *Server) setup(wa *webApp, opt Options) {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.Renderer = newTemplateRenderer(s.conf)
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.conf, s.logger, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !opt.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(sessionMiddleware(wa.userSvc, s.conf))

	s.app.GET("/healthz", healthz)

	registerAccountRoutes(s.app, wa)
	registerDashboardRoutes(s.app, wa)
}

// Start listens on conf.Server.Address; any error ends up on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
