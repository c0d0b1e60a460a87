package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brocode/spot/internal/config"
	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/idgen"
	"github.com/brocode/spot/internal/kv"
	"github.com/brocode/spot/internal/notify"
	"github.com/brocode/spot/internal/payments"
	"github.com/brocode/spot/internal/roster"
	"github.com/brocode/spot/internal/ui"
)

var (
	jsonOutput  bool
	profilePath string
)

var rootCmd = &cobra.Command{
	Use:   "spot",
	Short: "Local-first coordination for the next spot: notifications and payments",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
	},
}

// cliEnv bundles everything a short-lived command needs: the local stores
// over the shared database file, the sync channel, and the profile.
type cliEnv struct {
	cfg           *config.Config
	backing       kv.Store
	publisher     events.Publisher
	notifications *notify.Store
	payments      *payments.Store
	profile       *roster.Profile
	logger        *slog.Logger
}

// openEnv opens the local database and stores the way the daemon does, with
// a per-process origin so the daemon can skip the events it sees echoed back.
func openEnv(ctx context.Context) (*cliEnv, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	path := profilePath
	if path == "" {
		path = cfg.Profile
	}
	if path == "" {
		path, err = roster.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	profile, err := roster.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", path, err)
	}

	backing, err := kv.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			// Offline is a supported mode, not an error.
			logger.Warn("sync channel unavailable, working offline", "nats_url", cfg.NATSURL, "error", err)
			publisher = &events.NoopPublisher{}
		} else {
			publisher = pub
		}
	} else {
		publisher = &events.NoopPublisher{}
	}

	origin, err := idgen.GenerateWithPrefix("cli-")
	if err != nil {
		backing.Close()
		publisher.Close()
		return nil, err
	}

	env := &cliEnv{
		cfg:           cfg,
		backing:       backing,
		publisher:     publisher,
		notifications: notify.Open(ctx, backing, publisher, origin, logger),
		payments:      payments.Open(ctx, backing, publisher, origin, logger),
		profile:       profile,
		logger:        logger,
	}
	return env, nil
}

// close flushes pending publishes and releases the database.
func (e *cliEnv) close() {
	if p, ok := e.publisher.(*events.NATSPublisher); ok {
		_ = p.Flush()
	}
	_ = e.publisher.Close()
	_ = e.backing.Close()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "path to the profile TOML (default ~/.config/spot/config.toml)")

	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
