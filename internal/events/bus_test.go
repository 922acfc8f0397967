package events_test

import (
	"testing"
	"time"

	"github.com/micro-nova/nowplaying/internal/events"
	"github.com/micro-nova/nowplaying/internal/models"
)

func viewWithTitle(title string) models.View {
	v := models.View{Snapshot: models.DefaultSnapshot()}
	v.Snapshot.Title = title
	return v
}

func TestBusSubscribePublish(t *testing.T) {
	bus := events.NewBus()

	ch := bus.Subscribe("test1")
	bus.Publish(viewWithTitle("Roygbiv"))

	select {
	case got := <-ch:
		if got.Snapshot.Title != "Roygbiv" {
			t.Errorf("got title %q, want %q", got.Snapshot.Title, "Roygbiv")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe("test-unsub")

	bus.Unsubscribe("test-unsub")

	// Channel should be closed
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for channel close")
	}

	// Unsubscribing twice is harmless.
	bus.Unsubscribe("test-unsub")
}

func TestBusDropsEventsWhenFull(t *testing.T) {
	bus := events.NewBus()
	ch := bus.Subscribe("slow-reader")

	// Publish many events without reading; should not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			bus.Publish(viewWithTitle("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Publish blocked for too long (should drop events)")
	}

	if got := len(ch); got != 8 {
		t.Errorf("buffered %d views, want 8", got)
	}
	if got := bus.Dropped(); got != 12 {
		t.Errorf("Dropped() = %d, want 12", got)
	}
	bus.Unsubscribe("slow-reader")
}

func TestBusResubscribeClosesOld(t *testing.T) {
	bus := events.NewBus()
	old := bus.Subscribe("dup")
	_ = bus.Subscribe("dup")

	if _, ok := <-old; ok {
		t.Error("old channel should be closed when the id is reused")
	}
	if n := bus.SubscriberCount(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}

func TestBusSubscriberCount(t *testing.T) {
	bus := events.NewBus()
	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	bus.Subscribe("s1")
	bus.Subscribe("s2")
	if n := bus.SubscriberCount(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
	bus.Unsubscribe("s1")
	if n := bus.SubscriberCount(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}
