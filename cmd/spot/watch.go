package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/brocode/spot/internal/config"
	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/model"
	"github.com/brocode/spot/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail mutations from the sync channel as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("SPOT_NATS_URL is not set, nothing to watch")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(events.TopicAll)
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printMutation(data)
			}
		}
	},
}

func printMutation(data []byte) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}
	var m model.Mutation
	if err := json.Unmarshal(data, &m); err != nil {
		fmt.Printf("%s %s\n", ui.RenderMuted("???"), string(data))
		return
	}
	fmt.Printf("%s %s %s rev=%d\n",
		ui.RenderAccent(m.EntityKind+"."+m.Transition),
		m.EntityID,
		ui.RenderMuted("origin="+m.Origin),
		m.Revision,
	)
}
