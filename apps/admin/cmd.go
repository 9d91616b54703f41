package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/kenova/core/course"
	"github.com/trezcool/kenova/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp     = errors.New("help provided")
	errNoSQLDB  = errors.New("migrate needs the postgres database engine")
	errEmptyPwd = errors.New("password cannot be empty")
)

type commandLine struct {
	db        *sql.DB // nil with the memory engine
	usrRepo   user.Repository
	userSvc   user.Service
	courseSvc course.Service
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                               - run a goose command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -email EMAIL -role ROLE [-validated]         - update or create a user")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                           - reset user's password")
	_, _ = fmt.Fprintln(cli.out, "  enroll -student ID -course ID                        - enroll a student in a course")
	_, _ = fmt.Fprintln(cli.out, "  linkparent -parent ID -student ID                    - link a parent to a student")
	_, _ = fmt.Fprintln(cli.out, "  addassignment -course ID -title TITLE [-description DESC] [-due RFC3339]")
	_, _ = fmt.Fprintln(cli.out, "                                                       - add an assignment to a course")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// promptPassword reads a password without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errEmptyPwd
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		cmd := cli.newFlagSet("adduser")
		email := cmd.String("email", "", "The user's email. The password will be prompted next.")
		role := cmd.String("role", "", "One of superadmin, teacher, student or parent.")
		validated := cmd.Bool("validated", false, "Mark the user as validated.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" || *role == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.addUser(*email, *role, pwd, *validated)

	case "resetpassword":
		cmd := cli.newFlagSet("resetpassword")
		email := cmd.String("email", "", "The user's email. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.resetPassword(*email, pwd)

	case "enroll":
		cmd := cli.newFlagSet("enroll")
		studentID := cmd.Int("student", 0, "The student's user ID.")
		courseID := cmd.Int("course", 0, "The course ID.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *studentID <= 0 || *courseID <= 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.enroll(*studentID, *courseID)

	case "linkparent":
		cmd := cli.newFlagSet("linkparent")
		parentID := cmd.Int("parent", 0, "The parent's user ID.")
		studentID := cmd.Int("student", 0, "The student's user ID.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *parentID <= 0 || *studentID <= 0 {
			cmd.Usage()
			return errHelp
		}
		return cli.linkParent(*parentID, *studentID)

	case "addassignment":
		cmd := cli.newFlagSet("addassignment")
		courseID := cmd.Int("course", 0, "The course ID.")
		title := cmd.String("title", "", "The assignment title.")
		description := cmd.String("description", "", "An optional description.")
		due := cmd.String("due", "", "An optional due date, RFC3339 formatted (eg. 2030-01-31T23:59:00Z).")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *courseID <= 0 || *title == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addAssignment(*courseID, *title, *description, *due)

	default:
		cli.printUsage()
		return errHelp
	}
}
