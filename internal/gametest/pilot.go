// Package gametest generates replay-valid submissions by driving the real
// simulator with a pilot that follows a fixed Hamiltonian cycle over the
// grid. Because every cell is on the cycle the pilot never dies and reaches
// any food count, and because the moves come from the same state machine the
// replay engine runs, the resulting submissions verify by construction.
package gametest

import (
	"sort"

	"github.com/SuperSonnix71/Xnake/internal/domain/game"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

const heartbeatPeriodMS = 1000

// Play drives a full game from seed until targetFood foods are eaten, then
// steers into the nearest wall so the game ends the way a real one does. The
// returned submission replays cleanly under the same rules.
func Play(playerID string, seed uint32, targetFood int, rules game.Rules) *types.Submission {
	sim := game.NewSimulator(seed, rules)

	var (
		moves      []types.Move
		beats      []types.Heartbeat
		nextBeatMS = int64(heartbeatPeriodMS)
	)

	step := func(want types.Direction) {
		frame := sim.Frame() + 1
		var turn *types.Direction
		if want != sim.Direction() {
			d := want
			turn = &d
		}
		alive := sim.Step(turn)
		if turn != nil {
			moves = append(moves, types.Move{Direction: *turn, Frame: frame, TimeMS: sim.ClockMS()})
		}
		for sim.ClockMS() >= nextBeatMS {
			beats = append(beats, types.Heartbeat{
				TimeMS:   sim.ClockMS(),
				PerfMS:   sim.ClockMS(),
				Frame:    sim.Frame(),
				SpeedMS:  sim.SpeedMS(),
				Score:    sim.Score(),
				HasScore: true,
			})
			nextBeatMS += heartbeatPeriodMS
		}
		_ = alive
	}

	// Cruise the cycle until enough food is eaten, leaving headroom for the
	// terminal wall run.
	for sim.Alive() && sim.FoodEaten() < targetFood && sim.Frame() < rules.MaxFrames-2*rules.Grid {
		step(cycleDir(sim.Head(), rules.Grid))
	}

	// Game over: run straight into the nearest reachable wall.
	if sim.Alive() {
		dir := wallDir(sim.Head(), sim.Direction(), rules.Grid)
		for sim.Alive() {
			step(dir)
		}
	}

	return &types.Submission{
		PlayerID:    playerID,
		Fingerprint: playerID + "-fp",
		Score:       sim.Score(),
		SpeedLevel:  sim.FoodEaten() + 1, // level starts at 1, rises per food
		FoodEaten:   sim.FoodEaten(),
		DurationSec: int(sim.ClockMS() / 1000),
		Seed:        seed,
		TotalFrames: sim.Frame(),
		Moves:       moves,
		Heartbeats:  beats,
	}
}

// cycleDir returns the next heading on a Hamiltonian cycle of the grid:
// column 0 runs down, the bottom row feeds into a serpentine over columns
// 1..grid-1 moving upward, and row 0 runs left back to the origin. The
// initial three-cell snake on the center row lies on the cycle already.
func cycleDir(p game.Point, grid int) types.Direction {
	if p.X == 0 {
		if p.Y < grid-1 {
			return types.Down
		}
		return types.Right
	}
	if p.Y == 0 {
		return types.Left
	}
	if p.Y%2 == 1 { // odd rows run right
		if p.X < grid-1 {
			return types.Right
		}
		return types.Up
	}
	if p.X > 1 { // even rows run left
		return types.Left
	}
	return types.Up
}

// wallDir picks the closest wall the snake can legally turn toward.
func wallDir(p game.Point, cur types.Direction, grid int) types.Direction {
	cands := []struct {
		d    types.Direction
		dist int
	}{
		{types.Left, p.X},
		{types.Right, grid - 1 - p.X},
		{types.Up, p.Y},
		{types.Down, grid - 1 - p.Y},
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	for _, c := range cands {
		if c.d != cur.Inverse() {
			return c.d
		}
	}
	return cur
}
