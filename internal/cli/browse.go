package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/timelane/timelane/internal/api"
	"github.com/timelane/timelane/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	var (
		server string
		theme  string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the timeline UI against a running server",
		Long: `Connect to a timelane server and browse its catalog interactively:
seek through files on a temporal bar, group them by day, and
preview text and image entries inline.

Examples:
  timelane browse
  timelane browse --server http://files.local:8448 --theme light`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("browse needs an interactive terminal")
			}

			cfg, err := loadConfig(nil)
			if err != nil {
				return err
			}
			if theme == "" {
				theme = cfg.Theme
			}
			if server == "" {
				server = "http://" + cfg.Addr()
			}

			client := api.New(server)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := client.Health(ctx); err != nil {
				return fmt.Errorf("server %s unreachable (is `timelane serve` running?): %w", server, err)
			}

			return tui.Run(client, theme, cfg.PageSize)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server base URL (default from config host/port)")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: dark|light")

	return cmd
}
