package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/timelane/timelane/internal/config"
	"github.com/timelane/timelane/internal/events"
	"github.com/timelane/timelane/internal/index"
	"github.com/timelane/timelane/internal/serve"
	"github.com/timelane/timelane/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		host    string
		port    int
		root    string
		dataDir string
		upload  bool
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Index a folder and serve the catalog over HTTP",
		Long: `Start the timelane server: scan the files root into the catalog,
watch it for changes, and expose the REST API plus a websocket
event stream for browsers and the timelane browse UI.

API Endpoints:
  GET  /api/files            List files with filters and pagination
  GET  /api/files/:id        Get one file's metadata
  GET  /api/timeline         Files grouped by day
  GET  /api/config           Client-relevant server settings
  POST /api/upload           Upload files (when enabled)
  GET  /api/events           Websocket change feed
  GET  /files/:id/preview    Raw file content
  GET  /files/:id/thumb      Thumbnail (images)
  GET  /health               Health check

Examples:
  timelane serve --root ~/Pictures
  timelane serve --root /srv/files --host 0.0.0.0 --port 9000
  timelane serve --root ~/inbox --upload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if root != "" {
					c.FilesRoot = root
				}
				if dataDir != "" {
					c.DataDir = dataDir
				}
				if host != "" {
					c.Host = host
				}
				if port != 0 {
					c.Port = port
				}
				if upload {
					c.EnableUpload = true
				}
				if noWatch {
					c.Watch = false
				}
			})
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "directory tree to index and serve")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "catalog and thumbnail directory")
	cmd.Flags().StringVar(&host, "host", "", "HTTP bind host (default 127.0.0.1)")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default 8448)")
	cmd.Flags().BoolVar(&upload, "upload", false, "accept uploads into the files root")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable filesystem watching")

	return cmd
}

func runServe(cfg *config.Config) error {
	log := slog.Default()

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer st.Close()

	bus := events.NewBus()

	idx, err := index.New(cfg, st, bus, log)
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived shutdown signal")
		cancel()
	}()

	if err := idx.Start(ctx); err != nil {
		return fmt.Errorf("start indexer: %w", err)
	}
	defer idx.Stop()

	srv := serve.New(cfg, st, bus, idx, log)

	log.Info("server starting",
		"addr", cfg.Addr(),
		"root", cfg.FilesRoot,
		"watch", cfg.Watch,
		"upload", cfg.EnableUpload,
	)
	fmt.Printf("Serving %s on http://%s\n", cfg.FilesRoot, cfg.Addr())
	fmt.Println("Press Ctrl+C to stop")

	return srv.Start(ctx)
}
