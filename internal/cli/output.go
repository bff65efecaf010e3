package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/bonetider/internal/calendar"
	"github.com/pfrederiksen/bonetider/internal/prayer"
	"github.com/pfrederiksen/bonetider/internal/service"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatICS  OutputFormat = "ics"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text', 'json', 'yaml' or 'ics')", s)
	}
}

// OutputOptions carries context for rendering a response
type OutputOptions struct {
	Now      time.Time
	Location *time.Location
	City     string
	Verbose  bool
}

// WriteOutput writes the response in the specified format
func WriteOutput(w io.Writer, resp *service.Response, format OutputFormat, opts OutputOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, resp)
	case FormatYAML:
		return writeYAML(w, resp)
	case FormatICS:
		return writeICS(w, resp, opts)
	case FormatText:
		return writeText(w, resp, opts)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the response as JSON
func writeJSON(w io.Writer, resp *service.Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

func writeYAML(w io.Writer, resp *service.Response) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(resp); err != nil {
		return err
	}
	return encoder.Close()
}

func writeICS(w io.Writer, resp *service.Response, opts OutputOptions) error {
	_, err := io.WriteString(w, calendar.GenerateICS(&resp.Record, calendar.Options{
		City:     opts.City,
		Location: opts.Location,
		Stamp:    opts.Now,
	}))
	return err
}

// writeText outputs the response as a human-readable table
func writeText(w io.Writer, resp *service.Response, opts OutputOptions) error {
	header := "Prayer times for " + resp.Date
	if opts.City != "" {
		header += " (" + opts.City + ")"
	}
	fmt.Fprintln(w, header)

	var next prayer.Slot
	hasNext := false
	if !opts.Now.IsZero() && prayer.DateOf(opts.Now) == resp.Date {
		next, hasNext = resp.Next(opts.Now)
	}

	for _, slot := range resp.Slots() {
		marker := ""
		if hasNext && slot.Name == next.Name {
			marker = "  <- next"
		}
		fmt.Fprintf(w, "  %-7s %5s%s\n", slot.Name, slot.Time, marker)
	}

	switch {
	case resp.Fallback:
		fmt.Fprintf(w, "\nWarning: live times unavailable, showing static fallback times (%s)\n", resp.Error)
	case resp.Stale:
		fmt.Fprintf(w, "\nWarning: live times unavailable, showing stored times (%s)\n", resp.Error)
	}

	if opts.Verbose {
		fmt.Fprintf(w, "\nSource: %s", resp.Source)
		if resp.Tier != "" {
			fmt.Fprintf(w, " (matched by %s)", resp.Tier)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// formatTimes renders slot times on one line
func formatTimes(times [6]string) string {
	return strings.Join(times[:], " ")
}
