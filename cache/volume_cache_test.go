package cache

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVolumeKey(t *testing.T) {
	Convey("Given a player identifier", t, func() {
		So(VolumeKey("global"), ShouldEqual, "player:volume:global")
		So(VolumeKey("widget-7"), ShouldEqual, "player:volume:widget-7")
	})
}

func TestParseVolume(t *testing.T) {
	Convey("Given persisted volume strings", t, func() {
		Convey("Canonical in-range decimals parse", func() {
			v, ok := parseVolume("0.42")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 0.42)

			v, ok = parseVolume("0")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 0)

			v, ok = parseVolume("1")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1)
		})

		Convey("Garbage reports absent instead of crashing", func() {
			_, ok := parseVolume("abc")
			So(ok, ShouldBeFalse)

			_, ok = parseVolume("")
			So(ok, ShouldBeFalse)
		})

		Convey("Out-of-range and non-finite values report absent", func() {
			_, ok := parseVolume("1.5")
			So(ok, ShouldBeFalse)

			_, ok = parseVolume("-0.1")
			So(ok, ShouldBeFalse)

			_, ok = parseVolume("NaN")
			So(ok, ShouldBeFalse)
		})
	})
}
