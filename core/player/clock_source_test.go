package player

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// clockRecorder captures events from a WallClockSource.
type clockRecorder struct {
	mu     sync.Mutex
	times  []float64
	ended  chan struct{}
	paused chan struct{}
}

func newClockRecorder() *clockRecorder {
	return &clockRecorder{
		ended:  make(chan struct{}),
		paused: make(chan struct{}, 1),
	}
}

func (r *clockRecorder) events() Events {
	return Events{
		OnTimeUpdate: func(sec float64) {
			r.mu.Lock()
			r.times = append(r.times, sec)
			r.mu.Unlock()
		},
		OnEnded: func() { close(r.ended) },
		OnPause: func() {
			select {
			case r.paused <- struct{}{}:
			default:
			}
		},
	}
}

func (r *clockRecorder) timeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.times)
}

func TestWallClockSource(t *testing.T) {
	Convey("Given a wall-clock source with a 10ms tick", t, func() {
		src := NewWallClockSource(10 * time.Millisecond)
		rec := newClockRecorder()
		src.SetEvents(rec.events())

		Convey("Play without a locator is denied", func() {
			So(src.Play(context.Background()), ShouldNotBeNil)
		})

		Convey("The playhead advances and ends at the duration", func() {
			src.Load("https://cdn.example/t1.mp3", 0.05)
			So(src.Play(context.Background()), ShouldBeNil)

			select {
			case <-rec.ended:
			case <-time.After(2 * time.Second):
				t.Fatal("source never reported the end of the track")
			}

			So(src.Position(), ShouldEqual, 0.05)
			So(rec.timeCount(), ShouldBeGreaterThan, 0)
		})

		Convey("Pause stops the clock and reports it", func() {
			src.Load("https://cdn.example/t1.mp3", 600)
			So(src.Play(context.Background()), ShouldBeNil)
			time.Sleep(35 * time.Millisecond)
			src.Pause()

			select {
			case <-rec.paused:
			case <-time.After(time.Second):
				t.Fatal("source never reported the pause")
			}

			pos := src.Position()
			So(pos, ShouldBeGreaterThan, 0)
			time.Sleep(50 * time.Millisecond)
			So(src.Position(), ShouldEqual, pos)
		})

		Convey("Release clears the locator and playhead", func() {
			src.Load("https://cdn.example/t1.mp3", 600)
			So(src.Play(context.Background()), ShouldBeNil)
			src.Release()
			So(src.Position(), ShouldEqual, 0)
			So(src.Play(context.Background()), ShouldNotBeNil)
		})

		Convey("A reload discards ticks from the superseded run loop", func() {
			src.Load("https://cdn.example/t1.mp3", 600)
			So(src.Play(context.Background()), ShouldBeNil)
			time.Sleep(25 * time.Millisecond)
			src.Load("https://cdn.example/t2.mp3", 600)

			// a tick already in flight for the old loop must not move
			// the freshly reset playhead
			time.Sleep(50 * time.Millisecond)
			So(src.Position(), ShouldEqual, 0)

			So(src.Play(context.Background()), ShouldBeNil)
			time.Sleep(50 * time.Millisecond)
			src.Pause()
			So(src.Position(), ShouldBeGreaterThan, 0)
		})

		Convey("Seek clamps into the known duration", func() {
			src.Load("https://cdn.example/t1.mp3", 120)
			src.Seek(-4)
			So(src.Position(), ShouldEqual, 0)
			src.Seek(900)
			So(src.Position(), ShouldEqual, 120)
		})
	})
}
