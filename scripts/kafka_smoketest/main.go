package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	infra_eventbus "github.com/amirasaad/fxconvert/infra/eventbus"
	"github.com/amirasaad/fxconvert/pkg/domain/events"
	"github.com/google/uuid"
)

// RunSmokeTest starts two Kafka event buses in separate consumer groups and
// checks that a RatesRefreshed event emitted by one reaches both, as two
// server instances sharing a rate table would.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	prefix := strings.TrimSpace(os.Getenv("TOPIC_PREFIX"))
	if prefix == "" {
		prefix = "fxconvert.smoketest"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	origin := uuid.New()
	var mu sync.Mutex
	received := map[string]bool{}
	done := make(chan struct{})

	var buses []*infra_eventbus.KafkaEventBus
	for _, name := range []string{"a", "b"} {
		bus, err := infra_eventbus.NewWithKafka([]string{brokers}, logger, &infra_eventbus.KafkaEventBusConfig{
			GroupID:     "fxconvert-smoketest-" + name + "-" + uuid.NewString(),
			TopicPrefix: prefix,
		})
		if err != nil {
			logger.Error("bus init failed", "instance", name, "error", err)
			return err
		}
		defer func() { _ = bus.Close() }()

		instance := name
		bus.Register(events.EventTypeRatesRefreshed, func(_ context.Context, e events.Event) error {
			rr, ok := e.(*events.RatesRefreshed)
			if !ok || rr.Origin != origin {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if !received[instance] {
				received[instance] = true
				logger.Info("consumed", "instance", instance, "event_id", rr.ID)
				if len(received) == 2 {
					close(done)
				}
			}
			return nil
		})
		buses = append(buses, bus)
	}

	// Readers start at the log end once their group is joined, so keep
	// emitting until both instances have seen an event.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		evt := events.NewRatesRefreshed(origin, "USD", 1, time.Now())
		if err := buses[0].Emit(ctx, evt); err != nil {
			logger.Error("emit failed", "error", err)
			return err
		}
		logger.Info("produced", "event_id", evt.ID)

		select {
		case <-done:
			logger.Info("kafka smoke test passed")
			return nil
		case <-ctx.Done():
			mu.Lock()
			logger.Error("timed out waiting for events", "received", len(received))
			mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
