// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run command, which executes one vsearch operation over a set of
// input files.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/vsbatch/cmd/cmdstate"
	"github.com/matt-FFFFFF/vsbatch/internal/config"
	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/vsbatch/internal/jobbuilder"
	"github.com/matt-FFFFFF/vsbatch/internal/progress"
	"github.com/matt-FFFFFF/vsbatch/internal/resolve"
	"github.com/matt-FFFFFF/vsbatch/internal/runbatch"
	"github.com/matt-FFFFFF/vsbatch/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	commandFlag     = "command"
	queryFlag       = "query"
	centroidsFlag   = "centroids"
	dbFlag          = "db"
	idFlag          = "id"
	fastqASCIIFlag  = "fastq-ascii"
	outDirFlag      = "out-dir"
	binDirFlag      = "bin-dir"
	threadsFlag     = "threads"
	jobsFlag        = "jobs"
	recursiveFlag   = "recursive"
	terminateFlag   = "terminate"
	configFlag      = "config"
	reportFlag      = "report"
	tuiFlag         = "tui"
	tuiCloseFlag    = "tui-close"
	showSuccessFlag = "show-success"
	showCommandFlag = "show-command"

	reporterBufferSize = 64
	cliExitStr         = ""
)

// FS is the filesystem the output directory and the report are written to.
var FS = afero.NewOsFs()

// tuiOptions are added to the job board program options, tests replace them.
var tuiOptions []tea.ProgramOption

// newExecutor returns the executor jobs run on, tests replace it.
var newExecutor = func(stderr io.Writer) runbatch.Executor {
	return &runbatch.OSExecutor{Stderr: stderr}
}

var (
	// ErrMissingFlag is returned when a required setting is given neither as a flag nor in the config file.
	ErrMissingFlag = errors.New("missing required flag")
	// ErrCreateOutDir is returned when the output directory cannot be created.
	ErrCreateOutDir = errors.New("failed to create output directory")
)

// NewCommand returns the run command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a vsearch operation over every input file",
		Description: `Run one vsearch command per input file, at most --jobs at a time.

Directories given with --query are expanded to the regular files they contain.
The first failed job stops the batch: no further jobs are started and the jobs that are
already running are allowed to finish, unless --terminate is given.

Interrupt once to stop starting jobs, twice to kill the running ones.

Settings can be read from a YAML or HCL file with --config. The file may be a local path or any
URL supported by Hashicorp's go-getter, see https://github.com/hashicorp/go-getter.
Flags override the file.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     commandFlag,
				Aliases:  []string{"c"},
				Usage:    "The vsearch command to run, e.g. cluster_fast. See `vsbatch operations`",
				OnlyOnce: true,
			},
			&cli.StringSliceFlag{
				Name:      queryFlag,
				Aliases:   []string{"q"},
				Usage:     "Input file or directory. Specify multiple times for multiple inputs",
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:      centroidsFlag,
				Aliases:   []string{"e"},
				Usage:     "Centroids file, passed with --centroids",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      dbFlag,
				Aliases:   []string{"d"},
				Usage:     "Database file, passed with --db",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.FloatFlag{
				Name:     idFlag,
				Aliases:  []string{"i"},
				Usage:    "Similarity threshold, between 0 and 1 exclusive",
				OnlyOnce: true,
			},
			&cli.IntFlag{
				Name:     fastqASCIIFlag,
				Aliases:  []string{"f"},
				Usage:    "FASTQ quality offset, 33 or 64",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:        outDirFlag,
				Aliases:     []string{"o"},
				Usage:       "Directory the output files are written to, created if missing",
				DefaultText: "./" + config.DefaultOutDir,
				TakesFile:   true,
				OnlyOnce:    true,
			},
			&cli.StringFlag{
				Name:      binDirFlag,
				Aliases:   []string{"b"},
				Usage:     "Directory containing the vsearch executable. Defaults to searching PATH",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.IntFlag{
				Name:        threadsFlag,
				Aliases:     []string{"t"},
				Usage:       fmt.Sprintf("Threads per job, 1 to %d", config.MaxThreads),
				DefaultText: fmt.Sprint(config.DefaultThreads),
				OnlyOnce:    true,
			},
			&cli.IntFlag{
				Name:        jobsFlag,
				Aliases:     []string{"j"},
				Usage:       "Maximum number of jobs running at once",
				DefaultText: "number of CPUs / threads",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:    recursiveFlag,
				Aliases: []string{"r"},
				Usage:   "Expand directories recursively",
			},
			&cli.BoolFlag{
				Name:  terminateFlag,
				Usage: "Kill running jobs when the batch stops instead of letting them finish",
			},
			&cli.StringFlag{
				Name:     configFlag,
				Usage:    "YAML or HCL config file. Supports Hashicorp's go-getter syntax",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      reportFlag,
				Usage:     "Write a YAML report of the run to this file",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:  tuiFlag,
				Usage: "Show an interactive job board while the batch runs",
			},
			&cli.BoolFlag{
				Name:  tuiCloseFlag,
				Usage: "Close the job board as soon as the batch finishes instead of waiting for 'q'",
			},
			&cli.BoolFlag{
				Name:  showSuccessFlag,
				Usage: "List succeeded jobs in the summary",
			},
			&cli.BoolFlag{
				Name:  showCommandFlag,
				Usage: "Print the command line of each listed job",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running run command")

	cfg, err := LoadConfig(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	queries := cmd.StringSlice(queryFlag)
	if len(queries) == 0 {
		return cli.Exit(fmt.Sprintf("%s: --%s", ErrMissingFlag, queryFlag), 1)
	}

	files, err := resolve.Files(ctx, queries, resolve.Options{Recursive: cfg.Recursive})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	outDir, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	builder, err := jobbuilder.New(jobbuilder.Options{
		ToolName: cfg.ToolName,
		BinDir:   cfg.BinDir,
		OutDir:   outDir,
		Threads:  cfg.Threads,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	batch, err := builder.Build(jobbuilder.Params{
		Operation:  cfg.Operation,
		Threshold:  cfg.Threshold,
		AuxFile:    cfg.AuxFile(),
		FastqASCII: cfg.FastqASCII,
	}, files)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := FS.MkdirAll(outDir, 0o755); err != nil {
		return cli.Exit(errors.Join(ErrCreateOutDir, err).Error(), 1)
	}

	logger.Info("batch built",
		"operation", cfg.Operation,
		"jobs", len(batch),
		"concurrency", cfg.Concurrency(),
		"outDir", outDir,
	)

	stdout := cmd.Root().Writer
	stderr := cmd.Root().ErrWriter

	policy := runbatch.InFlightDrain
	if cfg.Terminate {
		policy = runbatch.InFlightTerminate
	}

	halter := cmdstate.HalterFrom(ctx)

	runner := &runbatch.Runner{
		Limit:    cfg.Concurrency(),
		Executor: newExecutor(stderr),
		Policy:   policy,
		Halt:     halter.Done(),
	}

	var res *runbatch.Result

	if cmd.Bool(tuiFlag) {
		res, err = runWithTUI(ctx, runner, batch, halter, cmd.Bool(tuiCloseFlag), stderr)
	} else {
		res, err = runWithLog(ctx, runner, batch)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if path := cmd.String(reportFlag); path != "" {
		if err := writeReport(path, res); err != nil {
			logger.Error("failed to write report", "file", path, "error", err)
			return cli.Exit(err.Error(), 1)
		}

		logger.Info("report written", "file", path)
	}

	opts := runbatch.DefaultOutputOptions()
	opts.ShowSuccess = cmd.Bool(showSuccessFlag)
	opts.ShowCommand = cmd.Bool(showCommandFlag)

	if err := runbatch.WriteText(stdout, res, opts); err != nil {
		logger.Error("failed to write results", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	if err := res.Err(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

// LoadConfig returns the defaults overridden by the --config file and then by the flags that
// were set.
func LoadConfig(ctx context.Context, cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(ctx, cmd.String(configFlag))
	if err != nil {
		return config.Config{}, err //nolint:wrapcheck
	}

	if cmd.IsSet(commandFlag) {
		cfg.Operation = cmd.String(commandFlag)
	}

	if cmd.IsSet(centroidsFlag) {
		cfg.Centroids = cmd.String(centroidsFlag)
	}

	if cmd.IsSet(dbFlag) {
		cfg.DB = cmd.String(dbFlag)
	}

	if cmd.IsSet(idFlag) {
		v := cmd.Float(idFlag)
		cfg.Threshold = &v
	}

	if cmd.IsSet(fastqASCIIFlag) {
		v := cmd.Int(fastqASCIIFlag)
		cfg.FastqASCII = &v
	}

	if cmd.IsSet(outDirFlag) {
		cfg.OutDir = cmd.String(outDirFlag)
	}

	if cmd.IsSet(binDirFlag) {
		cfg.BinDir = cmd.String(binDirFlag)
	}

	if cmd.IsSet(threadsFlag) {
		cfg.Threads = cmd.Int(threadsFlag)
	}

	if cmd.IsSet(jobsFlag) {
		cfg.Jobs = cmd.Int(jobsFlag)
	}

	if cmd.IsSet(recursiveFlag) {
		cfg.Recursive = cmd.Bool(recursiveFlag)
	}

	if cmd.IsSet(terminateFlag) {
		cfg.Terminate = cmd.Bool(terminateFlag)
	}

	if cfg.Operation == "" {
		return config.Config{}, fmt.Errorf("%w: --%s", ErrMissingFlag, commandFlag)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err //nolint:wrapcheck
	}

	return cfg, nil
}

func runWithLog(ctx context.Context, runner *runbatch.Runner, batch runbatch.Batch) (*runbatch.Result, error) {
	reporter := progress.NewChannelReporter(reporterBufferSize)
	reporter.Listen(progress.LogListener(ctx))

	runner.Reporter = reporter

	res, err := runner.Run(ctx, batch)

	reporter.Close()

	return res, err //nolint:wrapcheck
}

// runWithTUI runs the batch behind the job board. Log and tool output are held back until the
// board closes.
func runWithTUI(
	ctx context.Context,
	runner *runbatch.Runner,
	batch runbatch.Batch,
	halter *cmdstate.Halter,
	closeWhenDone bool,
	stderr io.Writer,
) (*runbatch.Result, error) {
	buf := &lockedBuffer{}
	tuiCtx := ctxlog.New(ctx, ctxlog.NewLogger(ctxlog.FormatPretty, buf))
	runner.Executor = newExecutor(buf)

	board := tui.NewRunner(tuiCtx, fmt.Sprintf("vsbatch: %d jobs", len(batch)), halter.Halt, tuiOptions...)
	if closeWhenDone {
		board.QuitWhenDone()
	}

	res, err := board.Run(func(reporter progress.Reporter) (*runbatch.Result, error) {
		runner.Reporter = reporter
		return runner.Run(tuiCtx, batch)
	})

	buf.writeTo(stderr) //nolint:errcheck

	return res, err //nolint:wrapcheck
}

func writeReport(path string, res *runbatch.Result) error {
	f, err := FS.Create(path)
	if err != nil {
		return errors.Join(runbatch.ErrWriteReport, err)
	}

	defer f.Close() //nolint:errcheck

	return runbatch.WriteYAML(f, res) //nolint:wrapcheck
}

// lockedBuffer collects output written from several goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p) //nolint:wrapcheck
}

func (b *lockedBuffer) writeTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.WriteTo(w) //nolint:wrapcheck
}
