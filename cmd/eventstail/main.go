package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"mood-journal-be/internal/config"
	"mood-journal-be/pkg/events"
	pktNats "mood-journal-be/pkg/nats"
)

// eventstail follows the durable event log and prints every event. Useful
// for watching SESSION_* and USER_LOGIN activity while developing.
func main() {
	cfg := config.Load()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe("events.>", "eventstail", func(ctx context.Context, event events.Event) error {
		payload, _ := json.MarshalIndent(event.Payload(), "", "  ")
		color.Cyan("[%s] %s", event.Timestamp().Format("15:04:05"), event.EventType())
		color.White("%s", string(payload))
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	color.Green("Tailing events.> on %s (Ctrl+C to stop)", cfg.App.NatsURL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
