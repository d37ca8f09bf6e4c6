// Package codec parses and serializes the compact move and heartbeat logs
// submitted by the client.
//
// Moves travel as "d,f,t" triples joined by ";"; a legacy two-field "d,t"
// form is accepted with frame 0. Heartbeats travel as "t,p,f,s[,score]"
// tuples joined by ";". Entries that fail numeric parse are dropped
// silently; oversized payloads are rejected outright.
package codec

import (
	"strconv"
	"strings"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// Default payload caps in bytes.
const (
	DefaultMaxMoveBytes      = 50_000
	DefaultMaxHeartbeatBytes = 10_000
)

// Codec decodes and encodes the wire form with configured payload caps.
type Codec struct {
	maxMoveBytes      int
	maxHeartbeatBytes int
}

// Option applies a configuration option to the Codec.
type Option func(*Codec)

// WithMaxMoveBytes caps the encoded move log size.
func WithMaxMoveBytes(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxMoveBytes = n
		}
	}
}

// WithMaxHeartbeatBytes caps the encoded heartbeat log size.
func WithMaxHeartbeatBytes(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxHeartbeatBytes = n
		}
	}
}

// New creates a Codec with default caps.
func New(opts ...Option) *Codec {
	c := &Codec{
		maxMoveBytes:      DefaultMaxMoveBytes,
		maxHeartbeatBytes: DefaultMaxHeartbeatBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DecodeMoves parses a move log. Unparseable entries are dropped.
func (c *Codec) DecodeMoves(s string) ([]types.Move, error) {
	if len(s) > c.maxMoveBytes {
		return nil, ErrPayloadTooLarge
	}
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ";")
	moves := make([]types.Move, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")

		var m types.Move
		var ok bool
		switch len(fields) {
		case 3:
			m, ok = parseMove(fields[0], fields[1], fields[2])
		case 2:
			// Legacy form d,t carries no frame stamp.
			m, ok = parseMove(fields[0], "0", fields[1])
		default:
			continue
		}
		if ok {
			moves = append(moves, m)
		}
	}
	return moves, nil
}

func parseMove(d, f, t string) (types.Move, bool) {
	dir, err := strconv.Atoi(strings.TrimSpace(d))
	if err != nil || !types.Direction(dir).IsValid() {
		return types.Move{}, false
	}
	frame, err := strconv.Atoi(strings.TrimSpace(f))
	if err != nil || frame < 0 {
		return types.Move{}, false
	}
	timeMS, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	if err != nil || timeMS < 0 {
		return types.Move{}, false
	}
	return types.Move{Direction: types.Direction(dir), Frame: frame, TimeMS: timeMS}, true
}

// DecodeHeartbeats parses a heartbeat log. Unparseable entries are dropped.
func (c *Codec) DecodeHeartbeats(s string) ([]types.Heartbeat, error) {
	if len(s) > c.maxHeartbeatBytes {
		return nil, ErrPayloadTooLarge
	}
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ";")
	beats := make([]types.Heartbeat, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 4 && len(fields) != 5 {
			continue
		}

		timeMS, err1 := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		perfMS, err2 := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		frame, err3 := strconv.Atoi(strings.TrimSpace(fields[2]))
		speed, err4 := strconv.Atoi(strings.TrimSpace(fields[3]))
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		hb := types.Heartbeat{TimeMS: timeMS, PerfMS: perfMS, Frame: frame, SpeedMS: speed}
		if len(fields) == 5 {
			score, err := strconv.Atoi(strings.TrimSpace(fields[4]))
			if err != nil {
				continue
			}
			hb.Score = score
			hb.HasScore = true
		}
		beats = append(beats, hb)
	}
	return beats, nil
}

// EncodeMoves renders the canonical three-field form.
func EncodeMoves(moves []types.Move) string {
	var b strings.Builder
	for i, m := range moves {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Itoa(int(m.Direction)))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(m.Frame))
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(m.TimeMS, 10))
	}
	return b.String()
}

// EncodeHeartbeats renders the canonical tuple form; the optional score
// field is emitted only when present.
func EncodeHeartbeats(beats []types.Heartbeat) string {
	var b strings.Builder
	for i, hb := range beats {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatInt(hb.TimeMS, 10))
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(hb.PerfMS, 10))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(hb.Frame))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(hb.SpeedMS))
		if hb.HasScore {
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(hb.Score))
		}
	}
	return b.String()
}
