package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/bonetider/internal/extract"
	"github.com/pfrederiksen/bonetider/internal/inspect"
	"github.com/pfrederiksen/bonetider/internal/prayer"
	"github.com/pfrederiksen/bonetider/internal/scraper"
	"github.com/pfrederiksen/bonetider/internal/service"
)

type inspectOptions struct {
	file   string
	month  int
	format string
}

// inspectResult is the JSON form of the inspect command
type inspectResult struct {
	*inspect.Report
	Target    string         `json:"target"`
	Tier      string         `json:"tier,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
	Record    *prayer.Record `json:"record,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Report on the structure of the upstream timetable",
		Long: `Fetch the timetable (or read it with --file) and report whether the
container is present, which other tables the document holds, how many rows
carry times, and what extraction makes of today's date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Read the timetable from a file ('-' for stdin) instead of fetching it")
	cmd.Flags().IntVar(&opts.month, "month", 0, "Month to fetch (default current month)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")

	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, opts inspectOptions) error {
	if opts.format != string(FormatText) && opts.format != string(FormatJSON) {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	target := extract.TargetOf(a.now().In(loc))
	if cmd.Flags().Changed("month") {
		target.Month = opts.month
	}

	var fetcher service.Fetcher
	if opts.file != "" {
		fetcher = &fileFetcher{path: opts.file, stdin: cmd.InOrStdin()}
	} else {
		fetcher = scraper.New(a.scraperOptions())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	document, err := fetcher.Fetch(ctx, target.Month)
	if err != nil {
		return fmt.Errorf("fetching timetable: %w", err)
	}

	engine := extract.New(a.cfg.EngineOptions())
	report, err := inspect.Inspect(document, engine.ContainerID())
	if err != nil {
		return err
	}

	result := inspectResult{Report: report, Target: target.Date()}
	res, extractErr := engine.Extract(document, target)
	if extractErr != nil {
		result.ErrorKind = string(extract.KindOf(extractErr))
		result.Error = extractErr.Error()
	} else {
		result.Tier = res.Tier
		result.Record = res.Record
	}

	if opts.format == string(FormatJSON) {
		encoder := json.NewEncoder(a.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	if err := report.WriteText(a.stdout); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout)
	if extractErr != nil {
		fmt.Fprintf(a.stdout, "Extraction for %s failed: %v\n", result.Target, extractErr)
		return nil
	}
	fmt.Fprintf(a.stdout, "Extraction for %s matched by %s: %s\n",
		result.Target, res.Tier, formatTimes(res.Record.Times()))
	return nil
}
