// Package app wires the application services and registers the event
// handlers they depend on.
package app

import (
	"github.com/amirasaad/fxconvert/pkg/domain/events"
	"github.com/amirasaad/fxconvert/pkg/handler/rates"
	"github.com/amirasaad/fxconvert/pkg/repository"
)

// setupEventBus registers all event handlers with the configured event Bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}

	// Only stores that can re-broadcast benefit from remote refreshes.
	notifier, ok := a.Deps.RateStore.(repository.Notifier)
	if !ok {
		a.Deps.Logger.Warn("Rate store cannot notify; remote refreshes will not reach sessions")
		return
	}
	bus.Register(
		events.EventTypeRatesRefreshed,
		rates.HandleRefreshed(notifier, a.Deps.Origin, a.Deps.Logger),
	)
}
