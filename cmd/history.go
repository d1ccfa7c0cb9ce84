package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photoorganizer/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past organize runs",
	Long: `Display recorded organize runs, newest first, with their counters.

Example:
  photoorganizer history         # Last 10 runs
  photoorganizer history -n 0    # All runs`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Limit number of runs to display (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStorage(cfg.Paths.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	runs, err := store.GetRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to get runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		s := r.Summary
		rows = append(rows, []string{
			r.ID,
			humanize.Time(r.StartedAt),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			shortenPath(r.InputDir, 40),
			strconv.Itoa(s.Scanned),
			strconv.Itoa(s.Kept),
			strconv.Itoa(s.ExactDuplicates),
			strconv.Itoa(s.VisualDuplicates),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Failed),
		})
	}

	caption := "database " + store.Path()
	if n, err := store.DigestCount(); err == nil {
		caption += ", " + countCaption("cached digests", n)
	} else {
		logger.Warn("failed to count cached digests", "error", err)
	}
	fmt.Println(renderTable(historyColumns, rows, caption))
	fmt.Println("Run 'photoorganizer list --run <id>' to see a run's review groups")
	return nil
}
