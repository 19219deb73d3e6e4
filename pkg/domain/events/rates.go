package events

import (
	"time"

	"github.com/google/uuid"
)

// RatesRefreshed announces that the local rate store holds a new rate set.
type RatesRefreshed struct {
	ID        uuid.UUID `json:"id"`
	Origin    uuid.UUID `json:"origin"`
	Base      string    `json:"base"`
	Count     int       `json:"count"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewRatesRefreshed creates a RatesRefreshed event emitted by origin.
func NewRatesRefreshed(origin uuid.UUID, base string, count int, fetchedAt time.Time) *RatesRefreshed {
	return &RatesRefreshed{
		ID:        uuid.New(),
		Origin:    origin,
		Base:      base,
		Count:     count,
		FetchedAt: fetchedAt,
	}
}

func (e *RatesRefreshed) Type() string { return string(EventTypeRatesRefreshed) }
