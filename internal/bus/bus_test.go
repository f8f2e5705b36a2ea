package bus

import (
	"testing"
	"time"
)

func TestMapReadyDelivered(t *testing.T) {
	b := New()
	ch := b.SubscribeMapReady()

	b.PublishMapReady()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Expected mapReady event")
	}
}

func TestMapReadyFiresOnce(t *testing.T) {
	b := New()
	ch := b.SubscribeMapReady()

	b.PublishMapReady()
	b.PublishMapReady()

	<-ch
	select {
	case <-ch:
		t.Error("Expected mapReady to fire exactly once")
	default:
	}
}

func TestLateMapReadySubscriber(t *testing.T) {
	b := New()
	b.PublishMapReady()

	// Assinante atrasado não pode ficar pendurado.
	ch := b.SubscribeMapReady()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Expected late subscriber to see mapReady immediately")
	}
}

func TestRouteDetailsFanout(t *testing.T) {
	b := New()
	a := b.SubscribeRouteDetails()
	c := b.SubscribeRouteDetails()

	ev := RouteDetails{Distance: "5.23 km", Duration: "16 min", State: SheetMedium}
	b.PublishRouteDetails(ev)

	for _, ch := range []<-chan RouteDetails{a, c} {
		select {
		case got := <-ch:
			if got != ev {
				t.Errorf("Expected %+v, got %+v", ev, got)
			}
		case <-time.After(time.Second):
			t.Fatal("Expected routeDetails event")
		}
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New()
	b.SubscribeRouteDetails() // ninguém lê

	done := make(chan bool)
	go func() {
		for i := 0; i < 100; i++ {
			b.PublishRouteDetails(RouteDetails{})
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
