package codec_test

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SuperSonnix71/Xnake/internal/domain/codec"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

func TestDecodeMoves(t *testing.T) {
	Convey("Given a codec with default caps", t, func() {
		c := codec.New()

		Convey("When a canonical three-field log is decoded", func() {
			moves, err := c.DecodeMoves("1,10,1500;2,25,3750;0,40,6000")

			Convey("Then every move parses in order", func() {
				So(err, ShouldBeNil)
				So(moves, ShouldResemble, []types.Move{
					{Direction: types.Right, Frame: 10, TimeMS: 1500},
					{Direction: types.Down, Frame: 25, TimeMS: 3750},
					{Direction: types.Up, Frame: 40, TimeMS: 6000},
				})
			})
		})

		Convey("When the legacy two-field form is decoded", func() {
			moves, err := c.DecodeMoves("3,900;1,1800")

			Convey("Then frames default to zero", func() {
				So(err, ShouldBeNil)
				So(moves, ShouldResemble, []types.Move{
					{Direction: types.Left, Frame: 0, TimeMS: 900},
					{Direction: types.Right, Frame: 0, TimeMS: 1800},
				})
			})
		})

		Convey("When entries are malformed", func() {
			moves, err := c.DecodeMoves("1,10,1500;;x,2,3;9,4,5;2,-1,100;0,7,-5;2,50,7000")

			Convey("Then bad entries drop silently and good ones survive", func() {
				So(err, ShouldBeNil)
				So(moves, ShouldResemble, []types.Move{
					{Direction: types.Right, Frame: 10, TimeMS: 1500},
					{Direction: types.Down, Frame: 50, TimeMS: 7000},
				})
			})
		})

		Convey("When the empty string is decoded", func() {
			moves, err := c.DecodeMoves("")

			Convey("Then no moves and no error come back", func() {
				So(err, ShouldBeNil)
				So(moves, ShouldBeNil)
			})
		})

		Convey("When the payload exceeds the cap", func() {
			small := codec.New(codec.WithMaxMoveBytes(10))
			_, err := small.DecodeMoves("1,10,1500;2,25,3750")

			Convey("Then the decode is rejected outright", func() {
				So(err, ShouldEqual, codec.ErrPayloadTooLarge)
			})
		})
	})
}

func TestDecodeHeartbeats(t *testing.T) {
	Convey("Given a codec with default caps", t, func() {
		c := codec.New()

		Convey("When a four-field log is decoded", func() {
			beats, err := c.DecodeHeartbeats("1000,1001,7,150;2000,2003,14,150")

			Convey("Then heartbeats parse without scores", func() {
				So(err, ShouldBeNil)
				So(beats, ShouldHaveLength, 2)
				So(beats[0], ShouldResemble, types.Heartbeat{TimeMS: 1000, PerfMS: 1001, Frame: 7, SpeedMS: 150})
				So(beats[1].HasScore, ShouldBeFalse)
			})
		})

		Convey("When the five-field form carries a score", func() {
			beats, err := c.DecodeHeartbeats("1000,1000,7,150,30")

			Convey("Then the score flag is set", func() {
				So(err, ShouldBeNil)
				So(beats, ShouldHaveLength, 1)
				So(beats[0].Score, ShouldEqual, 30)
				So(beats[0].HasScore, ShouldBeTrue)
			})
		})

		Convey("When entries are malformed", func() {
			beats, err := c.DecodeHeartbeats("1000,1000,7;x,1,2,3;1000,1000,7,150")

			Convey("Then only the valid tuple survives", func() {
				So(err, ShouldBeNil)
				So(beats, ShouldHaveLength, 1)
			})
		})

		Convey("When the payload exceeds the cap", func() {
			small := codec.New(codec.WithMaxHeartbeatBytes(5))
			_, err := small.DecodeHeartbeats("1000,1000,7,150")

			Convey("Then the decode is rejected", func() {
				So(err, ShouldEqual, codec.ErrPayloadTooLarge)
			})
		})
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("Given decoded moves and heartbeats", t, func() {
		c := codec.New()
		moves := []types.Move{
			{Direction: types.Up, Frame: 3, TimeMS: 450},
			{Direction: types.Right, Frame: 12, TimeMS: 1800},
		}
		beats := []types.Heartbeat{
			{TimeMS: 1000, PerfMS: 1002, Frame: 7, SpeedMS: 150},
			{TimeMS: 2000, PerfMS: 2001, Frame: 14, SpeedMS: 147, Score: 10, HasScore: true},
		}

		Convey("When encoded and decoded again", func() {
			gotMoves, errM := c.DecodeMoves(codec.EncodeMoves(moves))
			gotBeats, errB := c.DecodeHeartbeats(codec.EncodeHeartbeats(beats))

			Convey("Then the values survive unchanged", func() {
				So(errM, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(gotMoves, ShouldResemble, moves)
				So(gotBeats, ShouldResemble, beats)
			})
		})

		Convey("When the encoded form is inspected", func() {
			s := codec.EncodeMoves(moves)

			Convey("Then it is the compact semicolon-joined triple form", func() {
				So(s, ShouldEqual, "0,3,450;1,12,1800")
				So(strings.Count(s, ";"), ShouldEqual, 1)
			})
		})
	})
}
