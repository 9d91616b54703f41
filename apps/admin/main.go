package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/core/user"
	emailsvc "github.com/trezcool/kenova/services/email"
	logsvc "github.com/trezcool/kenova/services/logger"
	"github.com/trezcool/kenova/storage/database"
	inmemdb "github.com/trezcool/kenova/storage/database/inmem"
	"github.com/trezcool/kenova/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()
	std := logsvc.NewStdLogger(conf)
	std.SetPrefix("ADMIN : ")
	logger := logsvc.NewRollbarLogger(std, conf)
	defer logger.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up DB & repos
	var (
		db         *sql.DB
		usrRepo    user.Repository
		courseRepo course.Repository
	)
	switch conf.Database.Engine {
	case "memory":
		mem := inmemdb.Open()
		usrRepo = inmemdb.NewUserRepository(mem)
		courseRepo = inmemdb.NewCourseRepository(mem)
	default:
		sqlxDB, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() { _ = sqlxDB.Close() }()
		db = sqlxDB.DB
		usrRepo = sqlxrepos.NewUserRepository(sqlxDB)
		courseRepo = sqlxrepos.NewCourseRepository(sqlxDB)
	}

	mailSvc := emailsvc.NewConsoleService(conf, std, logger)
	userSvc := user.NewService(usrRepo, mailSvc, validate, user.NewRegistrationPolicy(conf))

	// start CLI
	cli := commandLine{
		db:        db,
		usrRepo:   usrRepo,
		userSvc:   userSvc,
		courseSvc: course.NewService(courseRepo, userSvc, validate),
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			if msgs, ok := core.ValidationMessages(err, translator); ok {
				for _, msg := range msgs {
					std.Printf("error: %s", msg)
				}
			} else {
				std.Printf("error: %v", err)
			}
		}
		logger.Close()
		os.Exit(1)
	}
}
