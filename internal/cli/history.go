package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/bonetider/internal/prayer"
	"github.com/pfrederiksen/bonetider/internal/storage"
)

func newHistoryCmd(a *app) *cobra.Command {
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored prayer time records",
		Long: `List the records stored by earlier runs. These are served when the live
timetable cannot be read. --prune removes records older than the given number
of days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(pruneDays)
		},
	}

	cmd.Flags().IntVar(&pruneDays, "prune", 0, "Remove records older than this many days")

	return cmd
}

func (a *app) runHistory(pruneDays int) error {
	store, err := storage.New(a.cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	if pruneDays > 0 {
		loc, err := a.cfg.Location()
		if err != nil {
			return err
		}
		cutoff := prayer.DateOf(a.now().In(loc).AddDate(0, 0, -pruneDays))
		n, err := store.Prune(cutoff)
		if err != nil {
			return fmt.Errorf("pruning records: %w", err)
		}
		fmt.Fprintf(a.stdout, "Removed %d records before %s\n", n, cutoff)
	}

	dates, err := store.Dates()
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}
	if len(dates) == 0 {
		fmt.Fprintln(a.stdout, "No stored records.")
		return nil
	}

	for _, date := range dates {
		stored, err := store.Load(date)
		if err != nil || stored == nil {
			fmt.Fprintf(a.stdout, "%s  (unreadable)\n", date)
			continue
		}
		fmt.Fprintf(a.stdout, "%s  %s  [%s]\n", date, formatTimes(stored.Record.Times()), stored.Tier)
	}
	return nil
}
