// Package rates holds event handlers for the rate table.
package rates

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/fxconvert/pkg/domain/events"
	"github.com/amirasaad/fxconvert/pkg/eventbus"
	"github.com/amirasaad/fxconvert/pkg/repository"
	"github.com/google/uuid"
)

// HandleRefreshed handles RatesRefreshed events published by other instances.
// It re-reads the shared table so local observers see the new rates. Events
// emitted by self are skipped since the local store already notified.
func HandleRefreshed(
	notifier repository.Notifier,
	self uuid.UUID,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	return func(
		ctx context.Context,
		e events.Event,
	) error {
		log := logger.With(
			"handler", "rates.HandleRefreshed",
			"event_type", e.Type(),
		)

		rr, ok := e.(*events.RatesRefreshed)
		if !ok {
			err := fmt.Errorf("unexpected event type: %s", e.Type())
			log.Error("unexpected event type", "error", err)
			return err
		}
		log = log.With("event_id", rr.ID, "origin", rr.Origin, "count", rr.Count)

		if rr.Origin == self {
			log.Debug("Skipping own refresh event")
			return nil
		}

		if err := notifier.Notify(ctx); err != nil {
			log.Error("failed to notify rate observers", "error", err)
			return fmt.Errorf("failed to notify rate observers: %w", err)
		}
		log.Info("Rate observers notified of remote refresh", "fetched_at", rr.FetchedAt)
		return nil
	}
}
