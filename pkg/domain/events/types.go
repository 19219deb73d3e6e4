package events

// Event is implemented by everything that travels on the event bus.
type Event interface {
	Type() string
}

// EventTypes maps event type names to factories used when decoding envelopes.
var EventTypes = map[string]func() Event{
	string(EventTypeRatesRefreshed): func() Event { return &RatesRefreshed{} },
}
