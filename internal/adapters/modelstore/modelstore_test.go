package modelstore_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SuperSonnix71/Xnake/internal/adapters/modelstore"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/model"
)

func bundle(version string, f1 float64, at time.Time) *model.Bundle {
	b := &model.Bundle{
		Version:   version,
		Net:       model.NewNetwork(42),
		Metrics:   types.ModelMetrics{F1: f1, Accuracy: 0.9},
		TrainedAt: at,
	}
	for i := range b.Stds {
		b.Stds[i] = 1
	}
	return b
}

func TestStore(t *testing.T) {
	Convey("Given a model store in a temp dir", t, func() {
		s, err := modelstore.New(t.TempDir())
		So(err, ShouldBeNil)
		now := time.Now().UTC().Truncate(time.Second)

		Convey("When no model was ever saved", func() {
			b, err := s.LoadActive()

			Convey("Then LoadActive reports no model without error", func() {
				So(err, ShouldBeNil)
				So(b, ShouldBeNil)
			})

			Convey("And List is empty", func() {
				infos, err := s.List()
				So(err, ShouldBeNil)
				So(infos, ShouldBeEmpty)
			})
		})

		Convey("When a bundle is saved and activated", func() {
			So(s.Save(bundle("v1", 0.8, now)), ShouldBeNil)
			So(s.Activate("v1"), ShouldBeNil)

			Convey("Then LoadActive returns it intact", func() {
				b, err := s.LoadActive()
				So(err, ShouldBeNil)
				So(b, ShouldNotBeNil)
				So(b.Version, ShouldEqual, "v1")
				So(b.Metrics.F1, ShouldEqual, 0.8)
				So(b.Net.W1, ShouldNotBeEmpty)
			})

			Convey("And a newer activation supersedes it", func() {
				So(s.Save(bundle("v2", 0.85, now.Add(time.Minute))), ShouldBeNil)
				So(s.Activate("v2"), ShouldBeNil)

				b, err := s.LoadActive()
				So(err, ShouldBeNil)
				So(b.Version, ShouldEqual, "v2")

				infos, err := s.List()
				So(err, ShouldBeNil)
				So(infos, ShouldHaveLength, 2)
				So(infos[0].Version, ShouldEqual, "v2") // newest first
				So(infos[0].Active, ShouldBeTrue)
				So(infos[1].Active, ShouldBeFalse)
			})
		})

		Convey("When activating a version that was never saved", func() {
			err := s.Activate("ghost")

			Convey("Then it fails with the sentinel", func() {
				So(err, ShouldWrap, modelstore.ErrVersionNotFound)
			})
		})

		Convey("When saving a bundle without a version", func() {
			err := s.Save(&model.Bundle{Net: model.NewNetwork(1)})

			Convey("Then the save is rejected", func() {
				So(err, ShouldEqual, modelstore.ErrMissingVersion)
			})
		})

		Convey("When loading an unknown version", func() {
			_, err := s.Load("ghost")

			Convey("Then it fails with the sentinel", func() {
				So(err, ShouldWrap, modelstore.ErrVersionNotFound)
			})
		})
	})
}
