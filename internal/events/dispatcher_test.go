package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	event := Event{Type: EventTicketCreated, TicketID: "tk-1"}
	if err := d.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 || got[0].TicketID != "tk-1" {
		t.Fatalf("delivered = %+v", got)
	}

	if err := d.Publish(context.Background(), Event{Type: EventTicketDeleted}); err != nil {
		t.Fatalf("Publish other type: %v", err)
	}
	if len(got) != 1 {
		t.Fatal("handler received event of another type")
	}
}

func TestDispatcherCancelStopsDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	count := 0
	cancel := d.Subscribe(EventTicketStatusChanged, func(_ context.Context, _ Event) error {
		count++
		return nil
	})

	_ = d.Publish(context.Background(), Event{Type: EventTicketStatusChanged})
	cancel()
	cancel() // repeated cancel is a no-op
	_ = d.Publish(context.Background(), Event{Type: EventTicketStatusChanged})

	if count != 1 {
		t.Fatalf("handler invoked %d times, want 1", count)
	}
}

func TestDispatcherHandlerErrorsDoNotBlockOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	d.Subscribe(EventTicketCreated, func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})
	reached := false
	d.Subscribe(EventTicketCreated, func(_ context.Context, _ Event) error {
		reached = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !reached {
		t.Fatal("second handler not reached after first errored")
	}
}
