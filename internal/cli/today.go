package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/bonetider/internal/extract"
	"github.com/pfrederiksen/bonetider/internal/service"
)

type todayOptions struct {
	file       string
	day        int
	month      int
	year       int
	format     string
	noFallback bool
	verbose    bool
}

func newTodayCmd(a *app) *cobra.Command {
	var opts todayOptions

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the prayer times for today",
		Long: `Print the prayer times for today, or for the date given with --day,
--month and --year.

Exits with status 2 when the times come from a stored record or the static
fallback instead of the live timetable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runToday(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Read the timetable from a file ('-' for stdin) instead of fetching it")
	cmd.Flags().IntVar(&opts.day, "day", 0, "Day of month (default today)")
	cmd.Flags().IntVar(&opts.month, "month", 0, "Month 1-12 (default current month)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Year (default current year)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json, yaml or ics")
	cmd.Flags().BoolVar(&opts.noFallback, "no-fallback", false, "Fail instead of serving stored or static times")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Show where the times came from")

	return cmd
}

func (a *app) runToday(cmd *cobra.Command, opts todayOptions) error {
	format, err := ParseFormat(opts.format)
	if err != nil {
		return err
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	now := a.now().In(loc)

	target := extract.TargetOf(now)
	if cmd.Flags().Changed("day") {
		target.Day = opts.day
	}
	if cmd.Flags().Changed("month") {
		target.Month = opts.month
	}
	if cmd.Flags().Changed("year") {
		target.Year = opts.year
	}

	if !target.Valid() {
		return fmt.Errorf("invalid date: %s", target.Date())
	}

	var engine service.Extractor
	if target != extract.TargetOf(now) {
		engine = a.datedEngine()
	}

	svc, err := a.newService(opts.file, cmd.InOrStdin(), loc, 0, engine)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var resp *service.Response
	if opts.noFallback {
		resp, err = svc.Lookup(ctx, target)
		if err != nil {
			return fmt.Errorf("looking up prayer times: %w", err)
		}
	} else {
		resp = svc.ResolveTarget(ctx, target)
	}

	if err := WriteOutput(a.stdout, resp, format, OutputOptions{
		Now:      now,
		Location: loc,
		City:     a.cfg.Upstream.City,
		Verbose:  opts.verbose,
	}); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if resp.Degraded() {
		return &exitStatus{code: ExitFallback}
	}
	return nil
}

// fileFetcher serves a saved timetable document regardless of month
type fileFetcher struct {
	path  string
	stdin io.Reader
}

func (f *fileFetcher) Fetch(ctx context.Context, month int) (string, error) {
	if f.path == "-" {
		data, err := io.ReadAll(f.stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("reading timetable file: %w", err)
	}
	return string(data), nil
}
