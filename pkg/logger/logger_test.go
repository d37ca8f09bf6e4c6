package logger_test

import (
	"context"
	"testing"

	"github.com/SuperSonnix71/Xnake/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		err := logger.Init()
		So(err, ShouldBeNil)

		Convey("When getting the global logger", func() {
			l := logger.Get()

			Convey("Then it should not be nil and should log without panicking", func() {
				So(l, ShouldNotBeNil)
				So(func() {
					l.Info(context.Background(), "hello", logger.String("k", "v"))
					l.Debug(context.Background(), "dbg", logger.Int("n", 1))
					l.Warn(context.Background(), "warn", logger.Float64("f", 1.5))
					l.Error(context.Background(), "err", logger.Bool("b", true))
				}, ShouldNotPanic)
			})
		})

		Convey("When creating a named logger", func() {
			l := logger.Named("replay")

			Convey("Then it should log under the group without panicking", func() {
				So(l, ShouldNotBeNil)
				So(func() { l.Info(context.Background(), "named") }, ShouldNotPanic)
			})
		})

		Convey("When setting the level from a string", func() {
			Convey("Then known levels should parse", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("info"), ShouldBeNil)
				So(logger.SetLevelString("warning"), ShouldBeNil)
				So(logger.SetLevelString("ERROR"), ShouldBeNil)
				So(logger.SetLevelString(""), ShouldBeNil)
			})

			Convey("And unknown levels should be rejected", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}
