// Command groupagg groups a tabular file by one or more columns, applies
// computations to every group and prints the combined table.
//
//	groupagg -input gapminder.tsv -group continent -compute max:lifeExp
//	groupagg -input gapminder.xlsx -group continent,country \
//	    -compute linfit:lifeExp:year:1952 -format xlsx -out fits.xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"groupagg/internal/aggregate"
	"groupagg/internal/config"
	apperrors "groupagg/internal/errors"
	"groupagg/internal/exporter"
	"groupagg/internal/infrastructure"
	"groupagg/internal/loader"
	"groupagg/internal/services"
	"groupagg/internal/validation"
)

// listFlag collects repeated flags; each occurrence may hold a
// comma-separated list.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// errUsage marks command-line mistakes, reported with exit status 2.
var errUsage = errors.New("usage")

type options struct {
	input      string
	sheet      string
	group      listFlag
	compute    listFlag
	where      []string
	ordering   string
	workers    int
	levelOrder string
	format     string
	out        string
	precision  int
	bom        bool
	logLevel   string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("groupagg", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.input, "input", "", "input file (.csv, .tsv, .txt, .xlsx, .parquet)")
	fs.StringVar(&opts.sheet, "sheet", "", "worksheet name for .xlsx input (default first sheet)")
	fs.Var(&opts.group, "group", "grouping column; repeat or comma-separate for several")
	fs.Var(&opts.compute, "compute", "computation such as max:lifeExp, n, linfit:lifeExp:year:1952; repeatable")
	fs.Func("where", "keep rows matching column=value; repeatable", func(v string) error {
		opts.where = append(opts.where, v)
		return nil
	})
	fs.StringVar(&opts.ordering, "ordering", "", "group ordering: appearance, sorted or levels (default from config)")
	fs.IntVar(&opts.workers, "workers", -1, "worker count; 0 uses every CPU, 1 runs sequentially (default from config)")
	fs.StringVar(&opts.levelOrder, "levels", "", "factor level order for loaded columns: sorted or appearance")
	fs.StringVar(&opts.format, "format", "", "output format: csv, tsv, json, html or xlsx (default from -out extension, else csv)")
	fs.StringVar(&opts.out, "out", "", "output file (default stdout)")
	fs.IntVar(&opts.precision, "precision", -1, "digits after the decimal point; negative for shortest form")
	fs.BoolVar(&opts.bom, "bom", false, "prefix CSV or TSV output with a UTF-8 BOM")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if opts.input == "" {
		return nil, fmt.Errorf("%w: -input is required", errUsage)
	}
	if len(opts.group) == 0 {
		return nil, fmt.Errorf("%w: at least one -group column is required", errUsage)
	}
	if len(opts.compute) == 0 {
		return nil, fmt.Errorf("%w: at least one -compute is required", errUsage)
	}
	return opts, nil
}

func (o *options) outputFormat() (exporter.Format, error) {
	if o.format != "" {
		return exporter.ParseFormat(o.format)
	}
	if o.out != "" {
		if f, err := exporter.ParseFormat(filepath.Ext(o.out)); err == nil {
			return f, nil
		}
	}
	return exporter.FormatCSV, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Logging.Level = opts.logLevel
	cfg.Logging.Output = "console"

	logger, logFile, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	aggCfg, err := cfg.Aggregation.AggregatorConfig()
	if err != nil {
		return err
	}
	if opts.workers >= 0 {
		aggCfg.Workers = opts.workers
	}

	if opts.levelOrder != "" {
		cfg.Loader.LevelOrder = opts.levelOrder
	}
	loadOpts, err := cfg.Loader.Options()
	if err != nil {
		return err
	}

	format, err := opts.outputFormat()
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	ctx = infrastructure.EnsureTraceID(ctx)

	files := validation.NewFileValidator(logger)
	if err := files.ValidateInputFile(opts.input); err != nil {
		return err
	}
	if opts.out != "" {
		if err := files.ValidateOutputFile(opts.out, opts.input); err != nil {
			return err
		}
	}

	tbl, err := loader.LoadFile(ctx, opts.input, opts.sheet, loadOpts)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "input loaded",
		slog.String("path", opts.input),
		slog.Int("rows", tbl.Len()),
		slog.Any("columns", tbl.ColumnNames()))

	svc := services.NewAggregationService(aggCfg, logger)
	result, err := svc.Aggregate(ctx, tbl, services.AggregateRequest{
		GroupBy:  opts.group,
		Compute:  opts.compute,
		Ordering: opts.ordering,
		Where:    opts.where,
	})
	if err != nil {
		return err
	}

	writeOpts := exporter.WriteOptions{
		BOMPrefix: opts.bom,
		Precision: opts.precision,
	}
	if opts.out != "" {
		return exporter.WriteFile(opts.out, result, format, writeOpts)
	}
	return exporter.Write(stdout, result, format, writeOpts)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		return 1
	}
}

// describe renders err for the terminal, naming the failing group of
// computation errors.
func describe(err error) string {
	if key, ok := aggregate.FailedGroup(err); ok {
		msg := err.Error()
		if group := key.String(); !strings.Contains(msg, group) {
			msg = fmt.Sprintf("%s (group %s)", msg, group)
		}
		return msg
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Error()
	}
	return err.Error()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if code := exitCode(err); code != 0 {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "groupagg:", describe(err))
		}
		os.Exit(code)
	}
}
