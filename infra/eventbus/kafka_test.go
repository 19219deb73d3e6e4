package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/pkg/domain/events"
	"github.com/amirasaad/fxconvert/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092", "c:9092"},
		parseBrokers([]string{" a:9092, b:9092", "", "c:9092 "}))
	assert.Empty(t, parseBrokers(nil))
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "fx.rates.refreshed", topicNameFor("fx", events.EventTypeRatesRefreshed))
	assert.Equal(t, "fxconvert.events.rates.refreshed", topicNameFor(" ", events.EventTypeRatesRefreshed))
	assert.Equal(t, "fx.dlq.rates.refreshed", dlqTopicNameFor("fx", events.EventTypeRatesRefreshed))
}

func TestNewWithKafka_Errors(t *testing.T) {
	_, err := NewWithKafka(nil, quietLogger(), nil)
	assert.ErrorContains(t, err, "brokers are required")

	_, err = NewWithKafka([]string{"127.0.0.1:1"}, quietLogger(), &KafkaEventBusConfig{DialTimeout: 200 * time.Millisecond})
	assert.ErrorContains(t, err, "connection failed")
}

func TestKafkaEventBus_ProcessMessage(t *testing.T) {
	var calls atomic.Int32
	bus := &KafkaEventBus{
		handlers: map[events.EventType][]eventbus.HandlerFunc{
			events.EventTypeRatesRefreshed: {
				func(_ context.Context, e events.Event) error {
					calls.Add(1)
					_, ok := e.(*events.RatesRefreshed)
					assert.True(t, ok)
					return nil
				},
			},
		},
		logger: quietLogger(),
		config: DefaultKafkaEventBusConfig(),
	}

	raw, err := encodeEnvelope(events.NewRatesRefreshed(uuid.New(), "USD", 1, time.Now()))
	require.NoError(t, err)

	require.NoError(t, bus.processKafkaMessage(context.Background(), kafka.Message{Value: raw}))
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, bus.processKafkaMessage(context.Background(), kafka.Message{Value: []byte("garbage")}),
		"undecodable messages are dropped")
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecuteHandlers(t *testing.T) {
	evt := events.NewRatesRefreshed(uuid.New(), "USD", 1, time.Now())
	ok := func(context.Context, events.Event) error { return nil }
	fail := func(context.Context, events.Event) error { return errors.New("fail") }

	assert.True(t, executeHandlers(context.Background(), quietLogger(), events.EventTypeRatesRefreshed, evt,
		[]eventbus.HandlerFunc{ok, ok}, "1"))
	assert.False(t, executeHandlers(context.Background(), quietLogger(), events.EventTypeRatesRefreshed, evt,
		[]eventbus.HandlerFunc{ok, fail}, "2"))
}

func TestIsTopicAlreadyExists(t *testing.T) {
	assert.True(t, isTopicAlreadyExists(kafka.TopicAlreadyExists))
	assert.True(t, isTopicAlreadyExists(errors.New("Topic with this name already exists")))
	assert.False(t, isTopicAlreadyExists(nil))
	assert.False(t, isTopicAlreadyExists(errors.New("nope")))
}

func TestKafkaEventBus_CloseNil(t *testing.T) {
	var bus *KafkaEventBus
	assert.NoError(t, bus.Close())
}
