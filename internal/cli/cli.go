package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/bonetider/internal/config"
	"github.com/pfrederiksen/bonetider/internal/extract"
	"github.com/pfrederiksen/bonetider/internal/logger"
	"github.com/pfrederiksen/bonetider/internal/scraper"
	"github.com/pfrederiksen/bonetider/internal/service"
	"github.com/pfrederiksen/bonetider/internal/storage"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitFallback = 2
)

// exitStatus ends a command with a specific exit code and no error message
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds state shared by every command of one invocation
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	configFile string
	logLevel   string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      config.New(),
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp(os.Stdout, os.Stderr))
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bonetider",
		Short: "Daily prayer times from the Islamiska förbundet timetable",
		Long: `A CLI tool and HTTP service that extracts today's prayer times from the
Islamiska förbundet Bonetider timetable widget.

When the upstream timetable cannot be read, the last stored record for the date
is served, then the configured static times.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default $HOME/.bonetider.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	a.v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		newTodayCmd(a),
		newServeCmd(a),
		newInspectCmd(a),
		newHistoryCmd(a),
		newNotifyCmd(a),
	)

	return cmd
}

// setup loads the configuration and installs the default logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := config.ReadFile(a.v, a.configFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, a.stderr))

	a.cfg = cfg
	return nil
}

// scraperOptions maps the upstream section onto scraper options
func (a *app) scraperOptions() scraper.Options {
	up := a.cfg.Upstream
	return scraper.Options{
		URL:        up.URL,
		City:       up.City,
		Origin:     up.Origin,
		Referer:    up.Referer,
		UserAgent:  up.UserAgent,
		Timeout:    up.Timeout,
		MaxRetries: up.MaxRetries,
	}
}

// newService wires the fetcher, engine and record store. A timetable read from
// file ("-" for stdin) is never persisted.
func (a *app) newService(file string, stdin io.Reader, loc *time.Location, cacheTTL time.Duration, engine service.Extractor) (*service.Service, error) {
	var (
		fetcher service.Fetcher
		store   service.Store
	)
	if file != "" {
		fetcher = &fileFetcher{path: file, stdin: stdin}
	} else {
		fetcher = scraper.New(a.scraperOptions())
		st, err := storage.New(a.cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		store = st
	}

	if engine == nil {
		engine = extract.New(a.cfg.EngineOptions())
	}

	return service.New(fetcher, engine, store, service.Options{
		City:     a.cfg.Upstream.City,
		Location: loc,
		CacheTTL: cacheTTL,
		Fallback: a.cfg.Fallback.Times(),
		Metrics:  logger.DefaultMetrics(),
	}), nil
}

// datedEngine returns an engine for a date other than today. The upstream
// highlight always marks the real current day, so the marker tier is left out.
func (a *app) datedEngine() *extract.Engine {
	opts := a.cfg.EngineOptions()
	ladder := extract.DefaultLadder(opts.MinCells, opts.TodayMarkers).Without(extract.TierMarker)
	return extract.NewWithLadder(opts.ContainerID, ladder)
}

// Run executes the CLI with args and returns the process exit code
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return run(newApp(stdout, stderr), args, stdin)
}

func run(a *app, args []string, stdin io.Reader) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	if err := cmd.Execute(); err != nil {
		var status *exitStatus
		if errors.As(err, &status) {
			return status.code
		}
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
