package di

import (
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoweb "github.com/trezcool/kenova/apps/web/echo"
	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/core/user"
	emailsvc "github.com/trezcool/kenova/services/email"
	logsvc "github.com/trezcool/kenova/services/logger"
	"github.com/trezcool/kenova/storage/database"
	inmemdb "github.com/trezcool/kenova/storage/database/inmem"
	"github.com/trezcool/kenova/storage/database/sqlxrepos"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Storage is what the configured database engine provides.
	Storage struct {
		dig.Out
		UserRepo   user.Repository
		CourseRepo course.Repository
		Close      func() error `name:"dbClose"`
	}

	CloseParam struct {
		dig.In
		Close func() error `name:"dbClose"`
	}
)

func newStdLogger(conf *core.Config) *log.Logger {
	std := logsvc.NewStdLogger(conf)
	std.SetPrefix("WEB : ")
	return std
}

func newLogger(std *log.Logger, conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(std, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	std := logsvc.NewStdLogger(conf)
	std.SetPrefix("DB : ")
	return logsvc.NewRollbarLogger(std, conf)
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Database.Engine == "memory" {
		mem := inmemdb.Open()
		return Storage{
			UserRepo:   inmemdb.NewUserRepository(mem),
			CourseRepo: inmemdb.NewCourseRepository(mem),
			Close:      func() error { return nil },
		}
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Migrate(db.DB); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}
	return Storage{
		UserRepo:   sqlxrepos.NewUserRepository(db),
		CourseRepo: sqlxrepos.NewCourseRepository(db),
		Close:      db.Close,
	}
}

func newEmailService(conf *core.Config, std *log.Logger, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, std, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// course.NewService only needs a UserGetter
func newCourseService(repo course.Repository, userSvc user.Service, validate *validator.Validate) course.Service {
	return course.NewService(repo, userSvc, validate)
}

func newServer(conf *core.Config, logger core.Logger, userSvc user.Service, courseSvc course.Service, translator ut.Translator) *echoweb.Server {
	return echoweb.NewServer(conf, logger, userSvc, courseSvc, translator)
}

// New returns the dependency injection dig.Container of the web app.
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newStdLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewRegistrationPolicy))
	must(c.Provide(user.NewService))
	must(c.Provide(newCourseService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
