package site

import (
	"fmt"
	"time"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// TravelStatus is where a resident gang stands between working and leaving
type TravelStatus string

const (
	// TravelStatusWorking indicates the gang produces and counts toward total pull
	TravelStatusWorking TravelStatus = "WORKING"

	// TravelStatusPreparing indicates the gang stopped working and waits for its travel time
	TravelStatusPreparing TravelStatus = "PREPARING_TO_MOVE"

	// TravelStatusReady indicates the travel time elapsed and the gang may leave
	TravelStatusReady TravelStatus = "READY_TO_MOVE"
)

// TravelState follows a resident gang through WORKING → PREPARING_TO_MOVE → READY_TO_MOVE.
//
// Invariants:
// - a destination is set exactly when the gang is not working
// - readiness is derived from the injected clock, never stored
//
// It is a value type so a site can snapshot it for rollback.
type TravelState struct {
	destination shared.Address
	preparedAt  time.Time
	readyAt     time.Time
}

// Status derives the travel status at now
func (t TravelState) Status(now time.Time) TravelStatus {
	switch {
	case t.destination.IsZero():
		return TravelStatusWorking
	case now.Before(t.readyAt):
		return TravelStatusPreparing
	default:
		return TravelStatusReady
	}
}

// Prepare transitions from WORKING to PREPARING_TO_MOVE toward destination
func (t TravelState) Prepare(destination shared.Address, now time.Time, travelTime time.Duration) (TravelState, error) {
	if !t.IsWorking() {
		return t, fmt.Errorf("cannot prepare to move while already travelling to %s", t.destination)
	}
	if destination.IsZero() {
		return t, fmt.Errorf("destination must not be empty")
	}
	return TravelState{
		destination: destination,
		preparedAt:  now,
		readyAt:     now.Add(travelTime),
	}, nil
}

// IsWorking returns true if the gang has not started preparing to move
func (t TravelState) IsWorking() bool {
	return t.destination.IsZero()
}

// IsPreparing returns true from the moment the gang prepares until it leaves.
// A ready gang is still preparing.
func (t TravelState) IsPreparing() bool {
	return !t.destination.IsZero()
}

// IsReady returns true once the travel time has elapsed
func (t TravelState) IsReady(now time.Time) bool {
	return t.Status(now) == TravelStatusReady
}

// Destination returns the prepared destination (zero while working)
func (t TravelState) Destination() shared.Address {
	return t.destination
}

// PreparedAt returns when the gang started preparing (zero while working)
func (t TravelState) PreparedAt() time.Time {
	return t.preparedAt
}

// ReadyAt returns when the gang may leave (zero while working)
func (t TravelState) ReadyAt() time.Time {
	return t.readyAt
}

// Remaining returns how long until the gang may leave, 0 when ready or working
func (t TravelState) Remaining(now time.Time) time.Duration {
	if t.IsWorking() || !now.Before(t.readyAt) {
		return 0
	}
	return t.readyAt.Sub(now)
}
