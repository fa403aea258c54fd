package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/timelane/timelane/internal/config"
	"github.com/timelane/timelane/internal/events"
	"github.com/timelane/timelane/internal/index"
	"github.com/timelane/timelane/internal/store"
)

func newIndexCmd() *cobra.Command {
	var (
		root    string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan the files root into the catalog and exit",
		Long: `Run a single scan without starting the server. Useful for warming
the catalog before first browse, or from cron.

Examples:
  timelane index --root ~/Pictures
  timelane index --root /srv/files --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if root != "" {
					c.FilesRoot = root
				}
				if dataDir != "" {
					c.DataDir = dataDir
				}
			})
			if err != nil {
				return err
			}
			return runIndex(cfg)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "directory tree to index")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "catalog and thumbnail directory")

	return cmd
}

func runIndex(cfg *config.Config) error {
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer st.Close()

	idx, err := index.New(cfg, st, events.NewBus(), slog.Default())
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}

	start := time.Now()
	if err := idx.ScanAll(context.Background()); err != nil {
		return fmt.Errorf("scan %s: %w", cfg.FilesRoot, err)
	}

	total, err := st.Count()
	if err != nil {
		return fmt.Errorf("count catalog: %w", err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"root":        cfg.FilesRoot,
			"total":       total,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}

	fmt.Printf("Indexed %s in %s\n", fitToTerm(cfg.FilesRoot), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Catalog holds %d files\n", total)
	return nil
}

// fitToTerm shortens a path so the summary line stays on one row.
func fitToTerm(path string) string {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 20 {
		return path
	}
	max := width - 20
	if len(path) <= max {
		return path
	}
	return "..." + path[len(path)-max+3:]
}
