package game

import (
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// Rules bundles the game constants shared with the client.
type Rules struct {
	Grid            int
	InitialSpeedMS  int
	SpeedIncreaseMS int
	MinSpeedMS      int
	MaxFrames       int
	MaxFood         int
}

// DefaultRules returns the production constants.
func DefaultRules() Rules {
	return Rules{
		Grid:            30,
		InitialSpeedMS:  150,
		SpeedIncreaseMS: 3,
		MinSpeedMS:      50,
		MaxFrames:       10_000,
		MaxFood:         1000,
	}
}

// Death causes reported by the simulator.
const (
	DeathWall      = "wall"
	DeathSelf      = "self"
	DeathFoodBound = "food_bound"
)

// Simulator advances the game one frame at a time. It is the single state
// machine behind replay verification, the test pilot, and the synthetic
// generators, so all of them agree by construction.
type Simulator struct {
	rules Rules
	seed  uint32

	snake []Point // head first
	dir   types.Direction
	food  Point

	score     int
	foodEaten int
	speed     int
	clockMS   int64
	frame     int

	alive      bool
	deathCause string
}

// NewSimulator builds the initial state: a three-cell snake ending at the
// center column, heading right, with the first food spawned from the seed.
func NewSimulator(seed uint32, rules Rules) *Simulator {
	center := rules.Grid / 2
	s := &Simulator{
		rules: rules,
		seed:  seed,
		snake: []Point{
			{X: center, Y: center},
			{X: center - 1, Y: center},
			{X: center - 2, Y: center},
		},
		dir:   types.Right,
		speed: rules.InitialSpeedMS,
		alive: true,
	}
	s.food = SpawnFood(seed, 0, rules.Grid, s.isOccupied)
	return s
}

func (s *Simulator) isOccupied(p Point) bool {
	for _, c := range s.snake {
		if c == p {
			return true
		}
	}
	return false
}

// Step advances one frame. turn, when non-nil, is the direction change taking
// effect this frame; it is ignored if it reverses the current heading.
// Returns false once the snake is dead.
func (s *Simulator) Step(turn *types.Direction) bool {
	if !s.alive {
		return false
	}

	s.frame++
	s.clockMS += int64(s.speed)

	if turn != nil && turn.IsValid() && *turn != s.dir.Inverse() {
		s.dir = *turn
	}

	dx, dy := s.dir.Delta()
	head := Point{X: s.snake[0].X + dx, Y: s.snake[0].Y + dy}

	if head.X < 0 || head.X >= s.rules.Grid || head.Y < 0 || head.Y >= s.rules.Grid {
		s.alive = false
		s.deathCause = DeathWall
		return false
	}
	if s.isOccupied(head) {
		s.alive = false
		s.deathCause = DeathSelf
		return false
	}

	s.snake = append([]Point{head}, s.snake...)

	if head == s.food {
		s.score += 10
		s.foodEaten++
		if s.foodEaten > s.rules.MaxFood {
			s.alive = false
			s.deathCause = DeathFoodBound
			return false
		}
		s.food = SpawnFood(s.seed, s.foodEaten, s.rules.Grid, s.isOccupied)
		s.speed -= s.rules.SpeedIncreaseMS
		if s.speed < s.rules.MinSpeedMS {
			s.speed = s.rules.MinSpeedMS
		}
	} else {
		s.snake = s.snake[:len(s.snake)-1]
	}

	return true
}

// Accessors. Snake returns a copy; the rest are plain values.

func (s *Simulator) Head() Point              { return s.snake[0] }
func (s *Simulator) Food() Point              { return s.food }
func (s *Simulator) Direction() types.Direction { return s.dir }
func (s *Simulator) Score() int               { return s.score }
func (s *Simulator) FoodEaten() int           { return s.foodEaten }
func (s *Simulator) Frame() int               { return s.frame }
func (s *Simulator) ClockMS() int64           { return s.clockMS }
func (s *Simulator) SpeedMS() int             { return s.speed }
func (s *Simulator) Alive() bool              { return s.alive }
func (s *Simulator) DeathCause() string       { return s.deathCause }

func (s *Simulator) Snake() []Point {
	out := make([]Point, len(s.snake))
	copy(out, s.snake)
	return out
}
