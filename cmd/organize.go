package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"photoorganizer/internal/config"
	"photoorganizer/internal/models"
	"photoorganizer/internal/organizer"
	"photoorganizer/internal/storage"
)

var (
	organizeInput      string
	organizeOutput     string
	organizeDuplicates string
	organizeNoCache    bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Deduplicate and copy photos into the library",
	Long: `Scan the input folder recursively and organize its photos.

The run will:
1. Find all jpg/jpeg/png files (output and duplicates folders are skipped)
2. Group byte-identical files by MD5 and verify them byte by byte
3. Copy the earliest capture of each group to output/YYYY/MM/ with a
   structured name, and the other copies to the duplicates folder
4. Fingerprint the kept photos and demote visually identical ones
5. Record the run and its review groups in the database

Running it again over the same folders copies nothing new.

Example:
  photoorganizer organize -i ./inbox -o ./library -d ./duplicates
  photoorganizer organize --workers 4 --no-cache`,
	Args: cobra.NoArgs,
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().StringVarP(&organizeInput, "input", "i", "", "Folder to scan (overrides paths.input_dir)")
	organizeCmd.Flags().StringVarP(&organizeOutput, "output", "o", "", "Library root (overrides paths.output_dir)")
	organizeCmd.Flags().StringVarP(&organizeDuplicates, "duplicates", "d", "", "Duplicates folder (overrides paths.duplicate_dir)")
	organizeCmd.Flags().BoolVar(&organizeNoCache, "no-cache", false, "Recompute every digest instead of using the cache")
	rootCmd.AddCommand(organizeCmd)
}

func applyDirFlags(c *config.Config) error {
	overrides := []struct {
		flag   string
		target *string
	}{
		{organizeInput, &c.Paths.InputDir},
		{organizeOutput, &c.Paths.OutputDir},
		{organizeDuplicates, &c.Paths.DuplicateDir},
	}
	for _, o := range overrides {
		if o.flag == "" {
			continue
		}
		expanded, err := config.ExpandPath(o.flag)
		if err != nil {
			return err
		}
		*o.target = expanded
	}
	return c.ValidatePipelineDirs()
}

func runOrganize(cmd *cobra.Command, args []string) error {
	if err := applyDirFlags(cfg); err != nil {
		return err
	}

	info, err := os.Stat(cfg.Paths.InputDir)
	if err != nil {
		return fmt.Errorf("input folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", cfg.Paths.InputDir)
	}

	if err := os.MkdirAll(cfg.Paths.DuplicateDir, 0755); err != nil {
		return fmt.Errorf("failed to create duplicates folder: %w", err)
	}

	store, err := storage.NewStorage(cfg.Paths.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another organize run is using this database")
	}
	defer lock.Unlock()

	fmt.Printf("Input:      %s\n", cfg.Paths.InputDir)
	fmt.Printf("Output:     %s\n", cfg.Paths.OutputDir)
	fmt.Printf("Duplicates: %s\n", cfg.Paths.DuplicateDir)
	fmt.Printf("Workers:    %d\n\n", cfg.Organize.Workers)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress, clearProgress := progressLine()

	o := organizer.NewOrganizer(
		organizer.WithWorkers(cfg.Organize.Workers),
		organizer.WithTimeout(cfg.DecodeTimeout()),
		organizer.WithLogger(logger),
		organizer.WithStore(store),
		organizer.WithDigestCache(cfg.Organize.DigestCache && !organizeNoCache),
		organizer.WithProgress(progress),
	)

	res, err := o.Organize(ctx, organizer.Dirs{
		Input:      cfg.Paths.InputDir,
		Output:     cfg.Paths.OutputDir,
		Duplicates: cfg.Paths.DuplicateDir,
	})
	clearProgress()

	if res != nil {
		printRunSummary(res.Summary, len(res.Groups))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Interrupted; files placed so far are kept. Re-run to continue.")
		}
		return err
	}

	if len(res.Groups) > 0 {
		fmt.Println()
		fmt.Println("Run 'photoorganizer list' to review duplicate groups")
	}
	return nil
}

// progressLine returns a progress sink that redraws one terminal line,
// or a no-op when stdout is not a terminal.
func progressLine() (organizer.ProgressFunc, func()) {
	if !isTerminal(os.Stdout) {
		return nil, func() {}
	}

	lastLine := ""
	fn := func(percent int) {
		const width = 30
		filled := percent * width / 100
		lastLine = fmt.Sprintf("Progress: [%s%s] %3d%%",
			strings.Repeat("#", filled), strings.Repeat(" ", width-filled), percent)
		fmt.Print("\r" + lastLine)
	}
	done := func() {
		if lastLine != "" {
			fmt.Print("\r" + strings.Repeat(" ", len(lastLine)) + "\r")
		}
	}
	return fn, done
}

func printRunSummary(s models.Summary, groups int) {
	rows := [][]string{
		{"Scanned", strconv.Itoa(s.Scanned)},
		{"Kept (new)", strconv.Itoa(s.Kept)},
		{"Exact duplicates", strconv.Itoa(s.ExactDuplicates)},
		{"Visual duplicates", strconv.Itoa(s.VisualDuplicates)},
		{"Already in place", strconv.Itoa(s.Skipped)},
		{"Failed", strconv.Itoa(s.Failed)},
	}
	fmt.Println(renderTable(summaryColumns, rows, countCaption("review groups", groups)))
	fmt.Println(s.String())
}
