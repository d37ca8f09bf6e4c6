package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/SuperSonnix71/Xnake/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New()

		Convey("Then game constants should match the client contract", func() {
			So(cfg.Grid, ShouldEqual, 30)
			So(cfg.InitialSpeedMS, ShouldEqual, 150)
			So(cfg.SpeedIncreaseMS, ShouldEqual, 3)
			So(cfg.MinSpeedMS, ShouldEqual, 50)
		})

		Convey("Then pipeline bounds should match the published defaults", func() {
			So(cfg.MaxScore, ShouldEqual, 10000)
			So(cfg.MaxTotalFrames, ShouldEqual, 10000)
			So(cfg.MaxMoveBytes, ShouldEqual, 50000)
			So(cfg.MaxHeartbeatBytes, ShouldEqual, 10000)
			So(cfg.RateLimitEvents, ShouldEqual, 10)
			So(cfg.RateLimitWindowSec, ShouldEqual, 60)
			So(cfg.SessionTTLMin, ShouldEqual, 30)
			So(cfg.SessionSweepMin, ShouldEqual, 5)
		})

		Convey("Then ML and training defaults should hold", func() {
			So(cfg.MLThresholdHigh, ShouldEqual, 0.7)
			So(cfg.MLThresholdLow, ShouldEqual, 0.3)
			So(cfg.MLMinScore, ShouldEqual, 50)
			So(cfg.MinTrainingSamples, ShouldEqual, 100)
			So(cfg.TrainingEpochs, ShouldEqual, 50)
			So(cfg.TrainingBatchSize, ShouldEqual, 32)
			So(cfg.TrainingDebounceMin, ShouldEqual, 5)
			So(cfg.SchedulerPeriodMin, ShouldEqual, 30)
			So(cfg.SchedulerCooldownMin, ShouldEqual, 120)
			So(cfg.EdgeCaseThreshold, ShouldEqual, 10)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		_ = os.Setenv("XNAKE_ADDR", ":7070")
		_ = os.Setenv("XNAKE_PAUSE_GAP_MS", "15000")
		_ = os.Setenv("XNAKE_LOG_LEVEL", "debug")
		defer func() {
			_ = os.Unsetenv("XNAKE_ADDR")
			_ = os.Unsetenv("XNAKE_PAUSE_GAP_MS")
			_ = os.Unsetenv("XNAKE_LOG_LEVEL")
		}()

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then env values should win over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.PauseGapMS, ShouldEqual, 15000)
				So(cfg.LogLevel, ShouldEqual, "debug")
				// untouched defaults survive
				So(cfg.Grid, ShouldEqual, 30)
			})
		})
	})

	Convey("Given an invalid override", t, func() {
		_ = os.Setenv("XNAKE_GRID", "2")
		defer func() { _ = os.Unsetenv("XNAKE_GRID") }()

		Convey("When loading", func() {
			_, err := config.Load(context.Background())

			Convey("Then validation should fail with the invalid-config kind", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "invalid config")
			})
		})
	})
}
