package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFansOutToAllHandlers(t *testing.T) {
	b := New()

	var mu sync.Mutex
	var got []string
	record := func(name string) Handler {
		return func(ctx context.Context, ev Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name)
			return nil
		}
	}

	b.Subscribe(ReservationCreated, record("dispatcher"))
	b.Subscribe(ReservationCreated, record("mailer"))
	b.Subscribe(ReservationApproved, record("other"))

	ev := NewEvent(ReservationCreated)
	ev.ReservationID = 12
	b.Publish(ev)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.Wait(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"dispatcher", "mailer"}, got)
}

func TestPublishSwallowsHandlerFailures(t *testing.T) {
	b := New()

	delivered := make(chan struct{}, 1)
	b.Subscribe(ReservationApproved, func(ctx context.Context, ev Event) error {
		return errors.New("smtp down")
	})
	b.Subscribe(ReservationApproved, func(ctx context.Context, ev Event) error {
		delivered <- struct{}{}
		return nil
	})

	// Publish must not block or propagate the failing handler.
	b.Publish(NewEvent(ReservationApproved))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.Wait(ctx))

	select {
	case <-delivered:
	default:
		t.Fatal("second handler was not delivered")
	}
}

func TestPublishRecoversPanics(t *testing.T) {
	b := New()
	b.Subscribe(ReservationDeleted, func(ctx context.Context, ev Event) error {
		panic("boom")
	})

	b.Publish(NewEvent(ReservationDeleted))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.Wait(ctx))
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := New()
	b.Publish(NewEvent(ReservationCreated))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, b.Wait(ctx))
}

func TestNewEventEnvelope(t *testing.T) {
	ev := NewEvent(ReservationCreated)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, ReservationCreated, ev.Kind)
	assert.WithinDuration(t, time.Now().UTC(), ev.OccurredAt, time.Minute)
}
