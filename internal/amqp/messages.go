package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind identifies what happened to which entity.
type EventKind string

const (
	ReservationCreated EventKind = "reservation.created"
	ReservationUpdated EventKind = "reservation.updated"
	ReservationDeleted EventKind = "reservation.deleted"
	PaymentRecorded    EventKind = "payment.recorded"
)

// StudioEvent is a lightweight notification carrying only the entity id; the
// consumer loads the current entity from the database. Version orders events
// for the same entity.
type StudioEvent struct {
	ID        uuid.UUID `json:"id"`
	Kind      EventKind `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStudioEvent stamps a new event with a random id and the current time.
func NewStudioEvent(kind EventKind, entityID int64) StudioEvent {
	now := time.Now().UTC()
	return StudioEvent{
		ID:        uuid.New(),
		Kind:      kind,
		EntityID:  entityID,
		Version:   now.UnixMilli(),
		Timestamp: now,
	}
}

// ToJSON converts the event to JSON bytes
func (e StudioEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// StudioEventFromJSON decodes an event and checks its required fields.
func StudioEventFromJSON(data []byte) (StudioEvent, error) {
	var e StudioEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return StudioEvent{}, err
	}
	if e.Kind == "" || e.EntityID <= 0 {
		return StudioEvent{}, fmt.Errorf("incomplete event (kind=%q, entity_id=%d)", e.Kind, e.EntityID)
	}
	return e, nil
}
