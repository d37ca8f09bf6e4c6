package journal_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SuperSonnix71/Xnake/internal/adapters/journal"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

func TestEdgeCaseLog(t *testing.T) {
	Convey("Given an edge-case journal in a temp dir", t, func() {
		path := filepath.Join(t.TempDir(), "journal", journal.EdgeCaseFile)
		log, err := journal.NewEdgeCaseLog(path)
		So(err, ShouldBeNil)
		defer log.Close()

		ec := func(id string) types.EdgeCase {
			return types.EdgeCase{
				ID:            id,
				PlayerID:      "alice",
				Score:         500,
				RuleVerdict:   "legit",
				MLProbability: 0.8,
				EdgeType:      types.EdgeRulesNegativeMLPositive,
				ShouldFlag:    true,
				Timestamp:     time.Now().UTC(),
			}
		}

		Convey("When edge cases are appended", func() {
			So(log.Append(ec("a")), ShouldBeNil)
			So(log.Append(ec("b")), ShouldBeNil)
			So(log.Append(ec("c")), ShouldBeNil)

			Convey("Then the count tracks the appends", func() {
				So(log.Count(), ShouldEqual, 3)
			})

			Convey("And Recent returns newest first with a limit", func() {
				got, err := log.Recent(2)
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, "c")
				So(got[1].ID, ShouldEqual, "b")
			})

			Convey("And reopening recovers the count from disk", func() {
				So(log.Close(), ShouldBeNil)
				reopened, err := journal.NewEdgeCaseLog(path)
				So(err, ShouldBeNil)
				defer reopened.Close()
				So(reopened.Count(), ShouldEqual, 3)
			})
		})

		Convey("When the journal contains a corrupt line", func() {
			So(log.Append(ec("a")), ShouldBeNil)
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
			So(err, ShouldBeNil)
			_, err = f.WriteString("{not json\n")
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)
			So(log.Append(ec("b")), ShouldBeNil)

			Convey("Then reads skip it and keep the rest", func() {
				got, err := log.Recent(0)
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, "b")
			})
		})

		Convey("When nothing was ever written", func() {
			got, err := log.Recent(10)

			Convey("Then reads return empty without error", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
				So(log.Count(), ShouldEqual, 0)
			})
		})
	})
}

func TestSampleLog(t *testing.T) {
	Convey("Given a sample journal", t, func() {
		path := filepath.Join(t.TempDir(), journal.SampleFile)
		log, err := journal.NewSampleLog(path)
		So(err, ShouldBeNil)
		defer log.Close()

		Convey("When labeled samples are appended", func() {
			So(log.Append(types.TrainingSample{PlayerID: "a", Cheat: true, Kind: types.CheatSpeedHack}), ShouldBeNil)
			So(log.Append(types.TrainingSample{PlayerID: "b", Cheat: false}), ShouldBeNil)

			Convey("Then All returns them in write order", func() {
				all, err := log.All()
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 2)
				So(all[0].PlayerID, ShouldEqual, "a")
				So(all[0].Cheat, ShouldBeTrue)
				So(all[1].Cheat, ShouldBeFalse)
				So(log.Count(), ShouldEqual, 2)
			})
		})

		Convey("When a sample carries features and a series", func() {
			s := types.TrainingSample{PlayerID: "a", Cheat: true}
			s.Features[0] = 123.5
			s.Series = [][]float64{{1, 2, 3}}
			So(log.Append(s), ShouldBeNil)

			Convey("Then the tensors survive the round trip", func() {
				all, err := log.All()
				So(err, ShouldBeNil)
				So(all[0].Features[0], ShouldEqual, 123.5)
				So(all[0].Series, ShouldResemble, [][]float64{{1, 2, 3}})
			})
		})
	})
}

func TestEventLog(t *testing.T) {
	Convey("Given a training-event journal", t, func() {
		path := filepath.Join(t.TempDir(), journal.EventFile)
		log, err := journal.NewEventLog(path)
		So(err, ShouldBeNil)
		defer log.Close()

		Convey("When runs are recorded", func() {
			So(log.Append(types.TrainingEvent{Version: "v1", Activated: true}), ShouldBeNil)
			So(log.Append(types.TrainingEvent{Version: "v2", Activated: false, Reason: "f1 regressed"}), ShouldBeNil)

			Convey("Then Recent returns newest first", func() {
				got, err := log.Recent(10)
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].Version, ShouldEqual, "v2")
				So(got[0].Reason, ShouldEqual, "f1 regressed")
				So(got[1].Activated, ShouldBeTrue)
			})
		})
	})
}
