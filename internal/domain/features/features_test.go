package features_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SuperSonnix71/Xnake/internal/domain/features"
	"github.com/SuperSonnix71/Xnake/internal/domain/game"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/gametest"
)

func TestExtract(t *testing.T) {
	Convey("Given the feature extractor", t, func() {
		Convey("When the submission is completely empty", func() {
			v := features.Extract(&types.Submission{})

			Convey("Then every feature is zero", func() {
				So(v, ShouldResemble, types.FeatureVector{})
			})
		})

		Convey("When moves arrive at a steady cadence", func() {
			sub := &types.Submission{
				Score:       40,
				FoodEaten:   4,
				DurationSec: 10,
				Moves: []types.Move{
					{Direction: types.Up, Frame: 1, TimeMS: 0},
					{Direction: types.Right, Frame: 3, TimeMS: 300},
					{Direction: types.Down, Frame: 5, TimeMS: 600},
					{Direction: types.Left, Frame: 7, TimeMS: 900},
				},
			}
			v := features.Extract(sub)

			Convey("Then timing features reflect the cadence", func() {
				So(v[0], ShouldAlmostEqual, 300) // avg time between moves
				So(v[1], ShouldAlmostEqual, 0)   // zero variance
				So(v[2], ShouldAlmostEqual, 1)   // moves per food
				So(v[5], ShouldAlmostEqual, 4)   // score rate
				So(v[9], ShouldAlmostEqual, 0)   // no bursts under 100ms
			})

			Convey("And uniform directions maximize the entropy", func() {
				So(v[3], ShouldAlmostEqual, 2)
			})
		})

		Convey("When every move fires within a burst window", func() {
			sub := &types.Submission{
				FoodEaten: 1,
				Moves: []types.Move{
					{Direction: types.Up, Frame: 1, TimeMS: 0},
					{Direction: types.Right, Frame: 2, TimeMS: 40},
					{Direction: types.Up, Frame: 3, TimeMS: 80},
				},
			}
			v := features.Extract(sub)

			Convey("Then the burst rate saturates", func() {
				So(v[9], ShouldAlmostEqual, 1)
			})
		})

		Convey("When heartbeats tick steadily at one second", func() {
			sub := &types.Submission{
				FoodEaten: 1,
				Heartbeats: []types.Heartbeat{
					{TimeMS: 1000, PerfMS: 1000, Frame: 7, SpeedMS: 150},
					{TimeMS: 2000, PerfMS: 2000, Frame: 14, SpeedMS: 150},
					{TimeMS: 3000, PerfMS: 3000, Frame: 21, SpeedMS: 150},
				},
			}
			v := features.Extract(sub)

			Convey("Then consistency is perfect and drift is zero", func() {
				So(v[4], ShouldAlmostEqual, 1)
				So(v[7], ShouldAlmostEqual, 0) // no pause gaps
				So(v[10], ShouldAlmostEqual, 0)
				So(v[11], ShouldAlmostEqual, 150)
			})
		})

		Convey("When heartbeats carry pauses and speed-ups", func() {
			sub := &types.Submission{
				FoodEaten: 1,
				Heartbeats: []types.Heartbeat{
					{TimeMS: 1000, PerfMS: 1200, Frame: 7, SpeedMS: 150},
					{TimeMS: 4500, PerfMS: 4700, Frame: 14, SpeedMS: 144},
					{TimeMS: 5500, PerfMS: 5700, Frame: 21, SpeedMS: 141},
				},
			}
			v := features.Extract(sub)

			Convey("Then the gap and progression features register", func() {
				So(v[7], ShouldAlmostEqual, 1) // one gap over two seconds
				So(v[8], ShouldAlmostEqual, 9) // total speed decrease in ms
				So(v[10], ShouldAlmostEqual, 200)
			})
		})

		Convey("When a real game is extracted", func() {
			sub := gametest.Play("p1", 4242, 3, game.DefaultRules())
			v := features.Extract(sub)

			Convey("Then no feature is NaN and the basics are sane", func() {
				for i, x := range v {
					So(x, ShouldEqual, x) // NaN never equals itself
					_ = i
				}
				So(v[0], ShouldBeGreaterThan, 0)
				So(v[5], ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given per-feature stats", t, func() {
		var means, stds [types.FeatureCount]float64
		for i := range means {
			means[i] = 10
			stds[i] = 2
		}

		Convey("When a vector is z-scored", func() {
			var v types.FeatureVector
			for i := range v {
				v[i] = 14
			}
			out := features.Normalize(v, means, stds)

			Convey("Then each feature is centered and scaled", func() {
				for _, x := range out {
					So(x, ShouldAlmostEqual, 2)
				}
			})
		})

		Convey("When a feature has zero spread", func() {
			stds[3] = 0
			var v types.FeatureVector
			v[3] = 99
			out := features.Normalize(v, means, stds)

			Convey("Then that feature zeroes instead of dividing", func() {
				So(out[3], ShouldEqual, 0)
			})
		})
	})
}

func TestStats(t *testing.T) {
	Convey("Given a set of feature vectors", t, func() {
		samples := []types.FeatureVector{
			{2, 0}, {4, 0}, {6, 0},
		}

		Convey("When stats are computed", func() {
			means, stds := features.Stats(samples)

			Convey("Then mean and population std come back per feature", func() {
				So(means[0], ShouldAlmostEqual, 4)
				So(stds[0], ShouldAlmostEqual, 1.632993, 1e-5)
				So(means[1], ShouldAlmostEqual, 0)
				So(stds[1], ShouldAlmostEqual, 0)
			})
		})

		Convey("When the sample set is empty", func() {
			means, stds := features.Stats(nil)

			Convey("Then everything is zero", func() {
				So(means[0], ShouldEqual, 0)
				So(stds[0], ShouldEqual, 0)
			})
		})
	})
}

func TestSeries(t *testing.T) {
	Convey("Given the time-series builder", t, func() {
		Convey("When the move log is short", func() {
			s := features.Series([]types.Move{
				{Direction: types.Up, Frame: 1, TimeMS: 0},
				{Direction: types.Right, Frame: 4, TimeMS: 450},
			})

			Convey("Then rows are scaled and the tail is right-padded", func() {
				So(s, ShouldHaveLength, features.SeriesLen)
				So(s[0], ShouldResemble, []float64{0, 0, 1.0 / 1000})
				So(s[1], ShouldResemble, []float64{1.0 / 3, 450.0 / 1000, 4.0 / 1000})
				So(s[2], ShouldResemble, []float64{0, 0, 0})
				So(s[features.SeriesLen-1], ShouldResemble, []float64{0, 0, 0})
			})
		})

		Convey("When the move log is long", func() {
			moves := make([]types.Move, 200)
			for i := range moves {
				moves[i] = types.Move{Direction: types.Down, Frame: i + 1, TimeMS: int64(i) * 100}
			}
			s := features.Series(moves)

			Convey("Then only the first steps survive", func() {
				So(s, ShouldHaveLength, features.SeriesLen)
				So(s[0], ShouldResemble, []float64{2.0 / 3, 0, 1.0 / 1000})
				So(s[1], ShouldResemble, []float64{2.0 / 3, 100.0 / 1000, 2.0 / 1000})
				So(s[features.SeriesLen-1], ShouldResemble, []float64{2.0 / 3, 100.0 / 1000, 50.0 / 1000})
			})
		})

		Convey("When a single move exists", func() {
			s := features.Series([]types.Move{{Direction: types.Left, Frame: 9, TimeMS: 1200}})

			Convey("Then its row has no time delta", func() {
				So(s[0], ShouldResemble, []float64{1, 0, 9.0 / 1000})
				So(s[1], ShouldResemble, []float64{0, 0, 0})
			})
		})

		Convey("When there are no moves", func() {
			s := features.Series(nil)

			Convey("Then the tensor is all zeros", func() {
				So(s, ShouldHaveLength, features.SeriesLen)
				So(s[10], ShouldResemble, []float64{0, 0, 0})
			})
		})
	})
}
