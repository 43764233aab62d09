package broadcast

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestBus(t *testing.T) {
	Convey("Given a bus with two subscribers", t, func() {
		bus := NewBus()
		first := &recorder{}
		second := &recorder{}
		firstID := bus.Subscribe(first.handle)
		bus.Subscribe(second.handle)
		So(bus.SubscriberCount(), ShouldEqual, 2)

		Convey("Publish reaches every subscriber synchronously", func() {
			bus.Publish(Event{Origin: "a", TrackID: "t1"})
			So(first.count(), ShouldEqual, 1)
			So(second.count(), ShouldEqual, 1)

			first.mu.Lock()
			So(first.events[0].TrackID, ShouldEqual, "t1")
			So(first.events[0].Origin, ShouldEqual, "a")
			first.mu.Unlock()
		})

		Convey("Unsubscribed handlers stop receiving", func() {
			bus.Unsubscribe(firstID)
			bus.Publish(Event{Origin: "a", TrackID: "t2"})
			So(first.count(), ShouldEqual, 0)
			So(second.count(), ShouldEqual, 1)
			So(bus.SubscriberCount(), ShouldEqual, 1)
		})

		Convey("Unsubscribing twice is harmless", func() {
			bus.Unsubscribe(firstID)
			bus.Unsubscribe(firstID)
			So(bus.SubscriberCount(), ShouldEqual, 1)
		})
	})

	Convey("Given an empty bus", t, func() {
		bus := NewBus()

		Convey("Publishing is a safe no-op", func() {
			bus.Publish(Event{Origin: "a", TrackID: "t1"})
			So(bus.SubscriberCount(), ShouldEqual, 0)
		})
	})

	Convey("Given the process-wide default bus", t, func() {
		Convey("It is a stable singleton", func() {
			So(Default(), ShouldEqual, Default())
		})
	})
}
