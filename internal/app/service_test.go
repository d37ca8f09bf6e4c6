package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SuperSonnix71/Xnake/internal/app"
	"github.com/SuperSonnix71/Xnake/internal/config"
	"github.com/SuperSonnix71/Xnake/internal/domain/game"
	"github.com/SuperSonnix71/Xnake/internal/gametest"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.New()
	cfg.DataDir = dir
	cfg.DBPath = filepath.Join(dir, "test.db")
	cfg.WorkerCount = 2
	cfg.EventQueueSize = 100
	return cfg
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService(t *testing.T) {
	Convey("Given a service built from a temp-dir config", t, func() {
		ctx := context.Background()
		svc := app.New(testConfig(t))

		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the wired components are reachable", func() {
			So(svc.Pipeline(), ShouldNotBeNil)
			So(svc.Sessions(), ShouldNotBeNil)
			So(svc.Trainer(), ShouldNotBeNil)
			So(svc.Models(), ShouldNotBeNil)
			So(svc.Codec(), ShouldNotBeNil)
		})

		Convey("And a second Start is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})

		Convey("When a full game flows through start, submit, and stats", func() {
			sub := gametest.Play("fp-1", 321, 3, game.DefaultRules())
			svc.Sessions().Start("fp-1", sub.Seed)

			res, err := svc.Pipeline().Submit(ctx, sub)

			Convey("Then it is accepted and the sample reaches the journal", func() {
				So(err, ShouldBeNil)
				So(res.Accepted, ShouldBeTrue)
				So(res.Best.Rank, ShouldEqual, 1)
				So(waitFor(func() bool { return svc.Samples().Count() == 1 }), ShouldBeTrue)
			})

			Convey("And the stats reflect the traffic", func() {
				So(err, ShouldBeNil)
				So(waitFor(func() bool { return svc.Samples().Count() == 1 }), ShouldBeTrue)

				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["trainingSamples"], ShouldEqual, 1)
				So(stats["players"], ShouldEqual, 1)
				So(stats["trainerState"], ShouldEqual, "idle")
			})
		})

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then a second stop is harmless", func() {
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})
}

func TestServiceRestoresActiveModel(t *testing.T) {
	Convey("Given a service whose trainer activated a model", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)

		svc := app.New(cfg)
		So(svc.Start(ctx), ShouldBeNil)

		// The journal is empty, so the run trains purely on synthetic data.
		So(svc.Trainer().Request("bootstrap"), ShouldBeTrue)
		So(waitFor(func() bool {
			v, err := svc.Models().ActiveVersion()
			return err == nil && v != ""
		}), ShouldBeTrue)
		svc.Stop()

		Convey("When a fresh service starts over the same data dir", func() {
			svc2 := app.New(cfg)
			So(svc2.Start(ctx), ShouldBeNil)
			defer svc2.Stop()

			Convey("Then the active model is republished at boot", func() {
				stats := svc2.GetStats()
				So(stats["started"], ShouldBeTrue)

				version, err := svc2.Models().ActiveVersion()
				So(err, ShouldBeNil)
				So(version, ShouldNotBeEmpty)
			})
		})
	})
}
