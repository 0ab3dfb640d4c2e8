// Package bus is the in-process event channel between the reservation
// transaction engine and its fire-and-forget side effects. Events are
// published strictly after the owning transaction committed; handler
// failures are logged and dropped so they can never affect the HTTP
// response or roll anything back.
package bus

import (
	"context"
	"log"
	"sync"
	"time"

	"campus-reserve-api/internal/models"

	"github.com/google/uuid"
)

// Kind identifies a reservation lifecycle event.
type Kind string

const (
	ReservationCreated  Kind = "reservation.created"
	ReservationApproved Kind = "reservation.approved"
	ReservationRejected Kind = "reservation.rejected"
	ReservationDeleted  Kind = "reservation.deleted"
)

// EventItem is one equipment entry of the reservation snapshot carried by
// an event.
type EventItem struct {
	EquipmentID   int64
	EquipmentName string
	Category      models.EquipmentCategory
	Quantity      int
}

// Event is the envelope delivered to handlers.
type Event struct {
	ID            string
	Kind          Kind
	OccurredAt    time.Time
	ReservationID int64
	StudentID     int64
	ManagerID     int64 // acting manager, zero when not applicable
	Status        models.ReservationStatus
	DateStart     time.Time
	DateEnd       time.Time
	Items         []EventItem
}

// NewEvent builds an envelope with a fresh id and timestamp.
func NewEvent(kind Kind) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler consumes one event. A returned error is logged, never retried
// and never propagated to the publisher.
type Handler func(ctx context.Context, ev Event) error

// Bus fans events out to subscribed handlers on background goroutines.
type Bus struct {
	mu             sync.RWMutex
	handlers       map[Kind][]Handler
	wg             sync.WaitGroup
	handlerTimeout time.Duration
}

// New creates an empty bus. Handlers get 15 seconds per event before
// their context is cancelled.
func New() *Bus {
	return &Bus{
		handlers:       make(map[Kind][]Handler),
		handlerTimeout: 15 * time.Second,
	}
}

// Subscribe registers a handler for one event kind. Not safe to call
// concurrently with Publish; subscriptions happen during server wiring.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish delivers the event to every subscribed handler on its own
// goroutine and returns immediately. Partial delivery is acceptable: one
// failing handler does not stop the others.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	hs := b.handlers[ev.Kind]
	b.mu.RUnlock()

	for _, h := range hs {
		h := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("event handler panic for %s (%s): %v", ev.Kind, ev.ID, r)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), b.handlerTimeout)
			defer cancel()
			if err := h(ctx, ev); err != nil {
				log.Printf("event handler failed for %s (%s): %v", ev.Kind, ev.ID, err)
			}
		}()
	}
}

// Wait blocks until all in-flight handlers finished or ctx expires.
// Used on shutdown and by tests.
func (b *Bus) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
