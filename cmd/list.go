package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photoorganizer/internal/models"
	"photoorganizer/internal/storage"
)

var (
	listRunID   string
	listJSON    bool
	listVerbose bool
	listSummary bool
	listLimit   int
	listOffset  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List review groups of a run",
	Long: `Display the duplicate groups recorded by an organize run.

Each group shows:
- Whether it was an exact (byte-identical) or perceptual (visual) match
- The kept copy in the library marked with ✓
- The copies placed in the duplicates folder marked with ✗

Example:
  photoorganizer list              # Show first 10 groups of the latest run
  photoorganizer list -n 0         # Show all groups
  photoorganizer list -s           # Summary view (compact)
  photoorganizer list --offset 10  # Groups 11-20
  photoorganizer list --json       # Machine-readable review groups`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listRunID, "run", "", "Run ID to show (default latest)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "Show full paths and sizes")
	listCmd.Flags().BoolVarP(&listSummary, "summary", "s", false, "Show summary only (group counts and sizes)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "Limit number of groups to display (0 = all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip first N groups (for pagination)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStorage(cfg.Paths.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	var run *models.RunRecord
	if listRunID != "" {
		run, err = store.GetRun(listRunID)
	} else {
		run, err = store.LatestRun()
	}
	if errors.Is(err, storage.ErrRunNotFound) {
		if listRunID != "" {
			return fmt.Errorf("run %s not found", listRunID)
		}
		fmt.Println("No runs recorded yet.")
		fmt.Println("Run 'photoorganizer organize' first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	groups, err := store.GetReviewGroups(run.ID)
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	fmt.Printf("Run %s (%s)\n", run.ID, humanize.Time(run.StartedAt))

	if len(groups) == 0 {
		fmt.Println("No duplicate groups in this run.")
		return nil
	}

	// Calculate totals
	totalDuplicates := 0
	var totalSize int64
	for _, g := range groups {
		totalDuplicates += len(g.Dupes)
		totalSize += sumSizes(g.Dupes)
	}

	fmt.Printf("Found %d duplicate groups (%d duplicates, %s in duplicates folder)\n\n",
		len(groups), totalDuplicates, humanize.Bytes(uint64(totalSize)))

	// Apply pagination
	totalGroups := len(groups)
	startIdx := min(listOffset, len(groups))
	groups = groups[startIdx:]

	if listLimit > 0 && listLimit < len(groups) {
		groups = groups[:listLimit]
	}

	// Display groups
	if len(groups) == 0 {
		fmt.Printf("No groups in range (offset %d exceeds total %d)\n", listOffset, totalGroups)
	} else if listSummary {
		printSummaryTable(groups, startIdx)
	} else {
		for i, g := range groups {
			printGroup(g, startIdx+i+1, listVerbose)
		}
	}

	// Show pagination info
	endIdx := startIdx + len(groups)
	if len(groups) > 0 {
		fmt.Printf("Showing groups %d-%d of %d\n", startIdx+1, endIdx, totalGroups)
		if endIdx < totalGroups {
			limitArg := ""
			if listLimit > 0 {
				limitArg = fmt.Sprintf(" -n %d", listLimit)
			}
			fmt.Printf("Next page: photoorganizer list%s --offset %d\n", limitArg, endIdx)
		}
	}

	return nil
}

func printSummaryTable(groups []models.ReviewGroup, offset int) {
	rows := make([][]string, 0, len(groups))
	for i, g := range groups {
		rows = append(rows, []string{
			"#" + strconv.Itoa(offset+i+1),
			string(g.Kind),
			strconv.Itoa(len(g.Dupes)),
			humanize.Bytes(uint64(sumSizes(g.Dupes))),
			shortenPath(g.Keep, 50),
		})
	}
	fmt.Println(renderTable(groupColumns, rows, ""))
	fmt.Println()
}

func printGroup(g models.ReviewGroup, n int, verbose bool) {
	fmt.Printf("Group #%d (%s, %d duplicates)\n", n, g.Kind, len(g.Dupes))
	fmt.Println(strings.Repeat("-", 60))

	printEntry("✓", g.Keep, verbose)
	if verbose {
		fmt.Printf("      Source: %s\n", g.KeepSrc)
	}
	for _, d := range g.Dupes {
		printEntry("✗", d, verbose)
	}
	fmt.Println()
}

func printEntry(marker, path string, verbose bool) {
	size := "missing"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	if verbose {
		fmt.Printf("  %s %s  (%s)\n", marker, path, size)
		return
	}
	fmt.Printf("  %s %-50s  %8s\n", marker, shortenPath(path, 50), size)
}

func sumSizes(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}

func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	// Try to show filename and as much of the path as possible
	dir, file := filepath.Split(path)
	if len(file) >= maxLen-3 {
		return "..." + file[len(file)-(maxLen-3):]
	}

	remaining := maxLen - len(file) - 4 // 4 for ".../"
	if remaining > 0 && len(dir) > remaining {
		dir = dir[len(dir)-remaining:]
	}
	return "..." + dir + file
}
