package predict_test

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/model"
	"github.com/SuperSonnix71/Xnake/internal/ml/predict"
)

func testBundle(version string) *model.Bundle {
	b := &model.Bundle{Version: version, Net: model.NewNetwork(42)}
	for i := range b.Stds {
		b.Stds[i] = 1
	}
	return b
}

func TestEngine(t *testing.T) {
	Convey("Given a fresh inference engine", t, func() {
		e := predict.NewEngine()

		Convey("When no model is active", func() {
			p := e.Predict(types.FeatureVector{1, 2, 3})

			Convey("Then the neutral probability comes back", func() {
				So(p, ShouldEqual, predict.NeutralProbability)
				So(e.Active(), ShouldBeNil)
			})
		})

		Convey("When a bundle is published", func() {
			b := testBundle("v1")
			e.Publish(b)

			Convey("Then predictions run through it", func() {
				p := e.Predict(types.FeatureVector{1, -1, 0.5})
				So(p, ShouldBeGreaterThan, 0)
				So(p, ShouldBeLessThan, 1)
				So(e.Active().Version, ShouldEqual, "v1")
			})

			Convey("And a newer bundle replaces it atomically", func() {
				e.Publish(testBundle("v2"))
				So(e.Active().Version, ShouldEqual, "v2")
			})
		})

		Convey("When many goroutines predict while a publish races", func() {
			e.Publish(testBundle("v1"))
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					p := e.Predict(types.FeatureVector{0.1, 0.2})
					if p <= 0 || p >= 1 {
						t.Error("probability out of range")
					}
				}()
			}
			e.Publish(testBundle("v2"))
			wg.Wait()

			Convey("Then every prediction completed against a whole bundle", func() {
				So(e.Active().Version, ShouldEqual, "v2")
			})
		})
	})
}
