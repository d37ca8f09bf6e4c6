// Command simulate drives a running server with real games. Each simulated
// player requests a seed, plays the game with the deterministic pilot, and
// submits the result; a configurable fraction tampers with the score so the
// rejection path gets traffic too.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SuperSonnix71/Xnake/internal/domain/codec"
	"github.com/SuperSonnix71/Xnake/internal/domain/game"
	"github.com/SuperSonnix71/Xnake/internal/gametest"
)

// Default configuration constants.
const (
	defaultGames    = 100
	defaultWorkers  = 8
	defaultCheatPct = 10
	defaultTimeout  = 10 * time.Second
	defaultRunLimit = 10 * time.Minute
)

type startResponse struct {
	Success bool   `json:"success"`
	Seed    uint32 `json:"seed"`
}

type scoreRequest struct {
	Fingerprint  string `json:"fingerprint"`
	Score        int    `json:"score"`
	SpeedLevel   int    `json:"speedLevel"`
	FoodEaten    int    `json:"foodEaten"`
	GameDuration int    `json:"gameDuration"`
	Seed         uint32 `json:"seed"`
	TotalFrames  int    `json:"totalFrames"`
	Moves        string `json:"moves"`
	Heartbeats   string `json:"heartbeats"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8090", "Base URL of the service")
		games    = flag.Int("games", defaultGames, "Number of games to play")
		workers  = flag.Int("workers", defaultWorkers, "Number of concurrent players")
		cheatPct = flag.Int("cheat", defaultCheatPct, "Percentage of games submitted with a tampered score")
		maxFood  = flag.Int("food", 5, "Maximum food per game")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	client := &http.Client{Timeout: *timeout}
	rules := game.DefaultRules()

	var accepted, rejected, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for i := 0; i < *games; i++ {
		i := i
		g.Go(func() error {
			fp := fmt.Sprintf("sim-%d-%08x", i, rand.Uint32())
			cheat := rand.Intn(100) < *cheatPct

			ok, err := playOnce(ctx, client, *baseURL, fp, rules, 1+rand.Intn(*maxFood), cheat)
			switch {
			case err != nil:
				failed.Add(1)
				fmt.Fprintf(os.Stderr, "game %s: %v\n", fp, err)
			case ok:
				accepted.Add(1)
			default:
				rejected.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("games=%d accepted=%d rejected=%d failed=%d\n",
		*games, accepted.Load(), rejected.Load(), failed.Load())

	if err := printLeaderboard(ctx, client, *baseURL); err != nil {
		fmt.Fprintf(os.Stderr, "leaderboard fetch failed: %v\n", err)
	}
}

// playOnce runs one start/play/submit round. Returns whether the score was
// accepted.
func playOnce(ctx context.Context, client *http.Client, baseURL, fp string, rules game.Rules, targetFood int, cheat bool) (bool, error) {
	var start startResponse
	if err := post(ctx, client, baseURL+"/api/game/start", map[string]string{"fingerprint": fp}, &start); err != nil {
		return false, fmt.Errorf("game start: %w", err)
	}
	if !start.Success {
		return false, fmt.Errorf("game start refused for %s", fp)
	}

	sub := gametest.Play(fp, start.Seed, targetFood, rules)
	req := scoreRequest{
		Fingerprint:  fp,
		Score:        sub.Score,
		SpeedLevel:   sub.SpeedLevel,
		FoodEaten:    sub.FoodEaten,
		GameDuration: sub.DurationSec,
		Seed:         sub.Seed,
		TotalFrames:  sub.TotalFrames,
		Moves:        codec.EncodeMoves(sub.Moves),
		Heartbeats:   codec.EncodeHeartbeats(sub.Heartbeats),
	}
	if cheat {
		// Consistent score/food inflation so only the replay can catch it.
		req.Score += 50
		req.FoodEaten += 5
	}

	err := post(ctx, client, baseURL+"/api/score", req, &struct{}{})
	if err == nil {
		return true, nil
	}
	var status *statusError
	if errors.As(err, &status) && status.code == http.StatusForbidden {
		return false, nil
	}
	return false, err
}

func printLeaderboard(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/halloffame?limit=10", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Printf("halloffame: %s\n", bytes.TrimSpace(body))
	return nil
}

// statusError carries a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.code, e.body)
}

func post(ctx context.Context, client *http.Client, url string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(body))}
	}
	return json.Unmarshal(body, out)
}
