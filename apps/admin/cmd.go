package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/xenthrall/academy/core"
	"github.com/xenthrall/academy/core/report"
	"github.com/xenthrall/academy/core/school"
)

var (
	readSecretFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	db        *sql.DB
	reportSvc report.Service
	schoolSvc school.Service
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command: up, up-by-one, up-to V, down, down-to V, redo, reset, status, version, create NAME [sql|go], fix")
	fmt.Fprintln(cli.out, "  issuetoken -subject NAME [-roles reports,records] [-ttl 720h] [-ask-secret] - print a signed operator token")
	fmt.Fprintln(cli.out, "  report NAME [-student N] [-course N] [-subject N] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-out FILE.xlsx] - print a report")
	fmt.Fprintln(cli.out, "    reports: "+reportNames())
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
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

	case "issuetoken":
		cmd := cli.newFlagSet("issuetoken")
		subject := cmd.String("subject", "", "The operator the token is issued to.")
		roles := cmd.String("roles", "", "Comma separated roles granted to the operator.")
		ttl := cmd.Duration("ttl", 0, "How long the token stays valid. Defaults to the configured JWT expiration.")
		askSecret := cmd.Bool("ask-secret", false, "Prompt for the signing key instead of using the configured one.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *subject == "" {
			cmd.Usage()
			return errHelp
		}

		secret := cli.conf.SecretKey
		if *askSecret {
			fmt.Fprint(cli.out, "Enter signing key:")
			key, err := readSecretFunc(int(syscall.Stdin))
			fmt.Fprintln(cli.out)
			if err != nil {
				return err
			}
			if len(key) == 0 {
				cmd.Usage()
				return errHelp
			}
			secret = string(key)
		}
		return cli.issueToken(secret, *subject, *roles, *ttl)

	case "report":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		cmd := cli.newFlagSet("report " + args[2])
		opts := reportOptions{name: args[2]}
		cmd.IntVar(&opts.studentID, "student", 0, "Student id.")
		cmd.IntVar(&opts.courseID, "course", 0, "Course id.")
		cmd.IntVar(&opts.subjectID, "subject", 0, "Subject id.")
		cmd.StringVar(&opts.from, "from", "", "First day of attendance, inclusive (YYYY-MM-DD).")
		cmd.StringVar(&opts.to, "to", "", "Last day of attendance, inclusive (YYYY-MM-DD).")
		cmd.StringVar(&opts.out, "out", "", "Write the report to this .xlsx file instead of printing it.")
		if err := cmd.Parse(args[3:]); err != nil {
			return errHelp
		}
		return cli.report(opts)

	default:
		cli.printUsage()
		return errHelp
	}
}
