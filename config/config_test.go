package config

import (
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		for _, key := range []string{"PLAYER_FADE_ENABLED", "PLAYER_FADE_MS", "PLAYER_DEFAULT_VOLUME", "PLAYER_VOLUME_KEY"} {
			os.Unsetenv(key)
		}
		cfg := Load()

		Convey("The player section has usable defaults", func() {
			So(cfg.PlayerFadeEnabled, ShouldBeTrue)
			So(cfg.PlayerFadeDuration, ShouldEqual, time.Second)
			So(cfg.PlayerDefaultVolume, ShouldEqual, 0.7)
			So(cfg.PlayerPersistVolume, ShouldBeTrue)
			So(cfg.PlayerVolumeKey, ShouldEqual, "global")
		})
	})
}

func TestLoadFromEnvironment(t *testing.T) {
	Convey("Given player settings in the environment", t, func() {
		os.Setenv("PLAYER_FADE_ENABLED", "false")
		os.Setenv("PLAYER_FADE_MS", "250")
		os.Setenv("PLAYER_DEFAULT_VOLUME", "0.35")
		os.Setenv("PLAYER_VOLUME_KEY", "kiosk")
		defer func() {
			os.Unsetenv("PLAYER_FADE_ENABLED")
			os.Unsetenv("PLAYER_FADE_MS")
			os.Unsetenv("PLAYER_DEFAULT_VOLUME")
			os.Unsetenv("PLAYER_VOLUME_KEY")
		}()

		cfg := Load()

		Convey("They override the defaults", func() {
			So(cfg.PlayerFadeEnabled, ShouldBeFalse)
			So(cfg.PlayerFadeDuration, ShouldEqual, 250*time.Millisecond)
			So(cfg.PlayerDefaultVolume, ShouldEqual, 0.35)
			So(cfg.PlayerVolumeKey, ShouldEqual, "kiosk")
		})
	})

	Convey("Given malformed numeric settings", t, func() {
		os.Setenv("PLAYER_FADE_MS", "soon")
		os.Setenv("PLAYER_DEFAULT_VOLUME", "loud")
		defer func() {
			os.Unsetenv("PLAYER_FADE_MS")
			os.Unsetenv("PLAYER_DEFAULT_VOLUME")
		}()

		cfg := Load()

		Convey("The defaults win", func() {
			So(cfg.PlayerFadeDuration, ShouldEqual, time.Second)
			So(cfg.PlayerDefaultVolume, ShouldEqual, 0.7)
		})
	})
}
