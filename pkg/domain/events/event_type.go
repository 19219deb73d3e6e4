package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	// EventTypeRatesRefreshed is emitted after the local rate store was replaced
	// with a fresh remote fetch.
	EventTypeRatesRefreshed EventType = "Rates.Refreshed"
)
