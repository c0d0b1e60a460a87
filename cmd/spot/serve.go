package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/brocode/spot/internal/backup"
	"github.com/brocode/spot/internal/config"
	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/idgen"
	"github.com/brocode/spot/internal/kv"
	"github.com/brocode/spot/internal/model"
	"github.com/brocode/spot/internal/notify"
	"github.com/brocode/spot/internal/payments"
	"github.com/brocode/spot/internal/roster"
	"github.com/brocode/spot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local daemon: HTTP view surface, SSE stream, and sync merge loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		path := profilePath
		if path == "" {
			path = cfg.Profile
		}
		if path == "" {
			path, err = roster.DefaultPath()
			if err != nil {
				return err
			}
		}
		profile, err := roster.Load(path)
		if err != nil {
			return err
		}

		backing, err := kv.NewSQLite(cfg.DBPath)
		if err != nil {
			return err
		}
		defer backing.Close()

		origin, err := idgen.GenerateWithPrefix("daemon-")
		if err != nil {
			return err
		}

		// The SSE hub is one leg of the publisher fan-out, so every local
		// mutation reaches connected streams without extra plumbing.
		hub := server.NewHub()
		var publisher events.Publisher = hub
		if cfg.NATSURL != "" {
			natsPub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			defer natsPub.Close()
			publisher = events.Multi{natsPub, hub}
			logger.Info("sync channel enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("sync channel disabled (SPOT_NATS_URL not set)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		notifications := notify.Open(ctx, backing, publisher, origin, logger)
		pays := payments.Open(ctx, backing, publisher, origin, logger)
		for _, m := range profile.Members() {
			if err := pays.EnsureMember(ctx, m.ID); err != nil {
				return err
			}
		}

		srv := server.NewServer(notifications, pays, profile, hub)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Merge loop: apply inbound mutations from the sync channel and
		// re-broadcast applied ones to SSE so local views stay reactive.
		if cfg.NATSURL != "" {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL,
				nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
					logger.Warn("nats disconnected", "err", err)
				}),
				nats.ReconnectHandler(func(_ *nats.Conn) {
					logger.Info("nats reconnected")
				}),
			)
			if err != nil {
				return err
			}
			defer sub.Close()

			ch, cancel, err := sub.Subscribe(events.TopicAll)
			if err != nil {
				return err
			}
			defer cancel()

			go mergeLoop(ctx, ch, origin, notifications, pays, hub, logger)
		}

		// Backup scheduler.
		if cfg.BackupInterval > 0 {
			var dests []backup.Destination
			if cfg.BackupS3Bucket != "" {
				s3Dest, err := backup.NewS3Destination(ctx, cfg.BackupS3Bucket, cfg.BackupS3Key, cfg.BackupS3Region, cfg.BackupS3Endpoint)
				if err != nil {
					return err
				}
				dests = append(dests, s3Dest)
			}
			if cfg.BackupGitRepo != "" {
				dests = append(dests, backup.NewGitDestination(cfg.BackupGitRepo, cfg.BackupGitFile, cfg.BackupGitBranch))
			}
			if len(dests) > 0 {
				sched := backup.NewScheduler(backing, dests, cfg.BackupInterval, logger)
				sched.Start()
				defer sched.Stop()
				logger.Info("backup scheduler started", "interval", cfg.BackupInterval, "destinations", len(dests))
			}
		}

		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown error", "err", err)
		}
		return nil
	},
}

// mergeLoop consumes raw mutation payloads from the sync channel, skips the
// daemon's own echoes, and routes the rest to the matching store.
func mergeLoop(ctx context.Context, ch <-chan []byte, origin string, notifications *notify.Store, pays *payments.Store, hub *server.Hub, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			var m model.Mutation
			if err := json.Unmarshal(data, &m); err != nil {
				logger.Warn("malformed mutation on sync channel", "err", err)
				continue
			}
			if m.Origin == origin {
				continue
			}

			var (
				applied bool
				err     error
			)
			switch m.EntityKind {
			case model.KindNotification:
				applied, err = notifications.ApplyRemote(ctx, m)
			case model.KindPayment:
				applied, err = pays.ApplyRemote(ctx, m)
			default:
				logger.Warn("unknown entity kind on sync channel", "kind", m.EntityKind)
				continue
			}
			if err != nil {
				logger.Warn("remote mutation rejected", "kind", m.EntityKind, "entity_id", m.EntityID, "err", err)
				continue
			}
			if applied {
				// Stores never republish remote applies; SSE consumers
				// still need to hear about them.
				_ = hub.Publish(ctx, events.Topic(m.EntityKind, m.Transition), m)
			}
		}
	}
}
