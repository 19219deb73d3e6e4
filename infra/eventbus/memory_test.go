package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestMemoryEventBus_EmitDispatchesByType(t *testing.T) {
	bus := NewWithMemory(quietLogger())

	var got []events.Event
	bus.Register(events.EventTypeRatesRefreshed, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})
	bus.Register(events.EventTypeRatesRefreshed, func(context.Context, events.Event) error {
		return errors.New("second handler fails")
	})

	evt := events.NewRatesRefreshed(uuid.New(), "USD", 3, time.Now())
	require.NoError(t, bus.Emit(context.Background(), evt), "handler errors are not returned")

	require.Len(t, got, 1)
	assert.Same(t, evt, got[0])
	assert.Equal(t, []events.Event{evt}, bus.Published())
}

func TestMemoryEventBus_NoHandlers(t *testing.T) {
	bus := NewWithMemory(nil)
	evt := events.NewRatesRefreshed(uuid.New(), "USD", 0, time.Now())
	assert.NoError(t, bus.Emit(context.Background(), evt))
	assert.Len(t, bus.Published(), 1)
	assert.NoError(t, bus.Close())
}

func TestEnvelope_RoundTrip(t *testing.T) {
	evt := events.NewRatesRefreshed(uuid.New(), "EUR", 170, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))

	raw, err := encodeEnvelope(evt)
	require.NoError(t, err)

	decoded, err := decodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, evt, decoded)
}

func TestEnvelope_Invalid(t *testing.T) {
	_, err := decodeEnvelope([]byte(`not json`))
	assert.Error(t, err)

	_, err = decodeEnvelope([]byte(`{"type":"Unknown.Event","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = decodeEnvelope([]byte(`{"type":"Rates.Refreshed","payload":"nope"}`))
	assert.Error(t, err)
}
