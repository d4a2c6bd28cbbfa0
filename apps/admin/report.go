package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/xenthrall/academy/core"
	"github.com/xenthrall/academy/core/report"
	exportsvc "github.com/xenthrall/academy/services/export"
)

type reportOptions struct {
	name      string
	studentID int
	courseID  int
	subjectID int
	from      string
	to        string
	out       string // .xlsx path
}

// reportResult is what a report prints as JSON and the table it exports.
type reportResult struct {
	data  interface{}
	table exportsvc.Table
}

type reportFunc func(ctx context.Context, cli *commandLine, opts reportOptions) (reportResult, error)

var reports = map[string]reportFunc{
	"enrollment": func(ctx context.Context, cli *commandLine, _ reportOptions) (reportResult, error) {
		rows, err := cli.reportSvc.EnrollmentByCourse(ctx)
		return reportResult{rows, exportsvc.EnrollmentTable(rows)}, err
	},
	"attendance-student": func(ctx context.Context, cli *commandLine, opts reportOptions) (reportResult, error) {
		if err := requireID("student", opts.studentID); err != nil {
			return reportResult{}, err
		}
		rng, err := opts.dateRange()
		if err != nil {
			return reportResult{}, err
		}
		sum, err := cli.reportSvc.AttendanceByStudent(ctx, opts.studentID, rng)
		return reportResult{sum, exportsvc.AttendanceTable(sum)}, err
	},
	"attendance-course": func(ctx context.Context, cli *commandLine, opts reportOptions) (reportResult, error) {
		if err := requireID("course", opts.courseID); err != nil {
			return reportResult{}, err
		}
		rng, err := opts.dateRange()
		if err != nil {
			return reportResult{}, err
		}
		sum, err := cli.reportSvc.AttendanceByCourse(ctx, opts.courseID, rng)
		return reportResult{sum, exportsvc.AttendanceTable(sum)}, err
	},
	"grades-student": func(ctx context.Context, cli *commandLine, opts reportOptions) (reportResult, error) {
		if err := requireID("student", opts.studentID); err != nil {
			return reportResult{}, err
		}
		avgs, err := cli.reportSvc.AverageGradeByStudent(ctx, opts.studentID)
		if err != nil {
			return reportResult{}, err
		}
		names, err := cli.subjectNames(ctx)
		return reportResult{avgs, exportsvc.SubjectAveragesTable(avgs, names)}, err
	},
	"grades-subject": func(ctx context.Context, cli *commandLine, opts reportOptions) (reportResult, error) {
		if err := requireID("subject", opts.subjectID); err != nil {
			return reportResult{}, err
		}
		avg, err := cli.reportSvc.AverageGradeBySubject(ctx, opts.subjectID)
		if err != nil {
			return reportResult{}, err
		}
		names, err := cli.subjectNames(ctx)
		data := map[string]interface{}{"subject_id": opts.subjectID, "average": avg}
		return reportResult{data, exportsvc.SubjectAverageTable(opts.subjectID, avg, names)}, err
	},
	"grades-course": func(ctx context.Context, cli *commandLine, opts reportOptions) (reportResult, error) {
		if err := requireID("course", opts.courseID); err != nil {
			return reportResult{}, err
		}
		stats, err := cli.reportSvc.GradeStatisticsByCourse(ctx, opts.courseID)
		if err != nil {
			return reportResult{}, err
		}
		names, err := cli.subjectNames(ctx)
		return reportResult{stats, exportsvc.GradeStatisticsTable(stats, names)}, err
	},
}

func reportNames() string {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func requireID(flagName string, id int) error {
	if id <= 0 {
		return errors.Errorf("-%s must be a positive integer", flagName)
	}
	return nil
}

func (opts reportOptions) dateRange() (report.DateRange, error) {
	var (
		rng report.DateRange
		err error
	)
	if opts.from != "" {
		if rng.From, err = core.ParseDate(opts.from); err != nil {
			return rng, errors.Wrap(err, "-from")
		}
	}
	if opts.to != "" {
		if rng.To, err = core.ParseDate(opts.to); err != nil {
			return rng, errors.Wrap(err, "-to")
		}
	}
	return rng, nil
}

func (cli *commandLine) subjectNames(ctx context.Context) (exportsvc.SubjectNames, error) {
	subjects, err := cli.schoolSvc.QuerySubjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return exportsvc.NewSubjectNames(subjects), nil
}

func (cli *commandLine) report(opts reportOptions) error {
	fn, ok := reports[opts.name]
	if !ok {
		return errors.Errorf("%q: no such report, expected one of: %s", opts.name, reportNames())
	}

	res, err := fn(context.Background(), cli, opts)
	if err != nil {
		return err
	}

	if opts.out == "" {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.data)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	if err = exportsvc.WriteXLSX(f, res.table); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing export file")
	}
	fmt.Fprintf(cli.out, "report written to %s\n", opts.out)
	return nil
}
