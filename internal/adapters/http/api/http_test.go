package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SuperSonnix71/Xnake/internal/adapters/http/api"
	"github.com/SuperSonnix71/Xnake/internal/adapters/modelstore"
	"github.com/SuperSonnix71/Xnake/internal/adapters/repository"
	"github.com/SuperSonnix71/Xnake/internal/domain/codec"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/train"
	"github.com/SuperSonnix71/Xnake/internal/pipeline"
)

// Mock implementations for testing.
type mockSessions struct {
	started []types.Session
}

func (m *mockSessions) Start(playerID string, seed uint32) types.Session {
	s := types.Session{PlayerID: playerID, Seed: seed}
	m.started = append(m.started, s)
	return s
}

type mockSubmitter struct {
	result pipeline.Result
	err    error
	last   *types.Submission
}

func (m *mockSubmitter) Submit(_ context.Context, sub *types.Submission) (pipeline.Result, error) {
	m.last = sub
	return m.result, m.err
}

type mockBoards struct {
	entries []types.LeaderboardEntry
	records []types.CheatRecord
	err     error
	lastN   int
}

func (m *mockBoards) TopN(_ context.Context, n int) ([]types.LeaderboardEntry, error) {
	m.lastN = n
	return m.entries, m.err
}

func (m *mockBoards) Cheaters(_ context.Context, n int) ([]types.CheatRecord, error) {
	m.lastN = n
	return m.records, m.err
}

type mockTrainer struct {
	state    train.State
	accepted bool
	reasons  []string
}

func (m *mockTrainer) State() train.State { return m.state }

func (m *mockTrainer) Request(reason string) bool {
	m.reasons = append(m.reasons, reason)
	return m.accepted
}

type mockSamples struct{ n int }

func (m *mockSamples) Count() int { return m.n }

type mockCatalog struct {
	infos   []modelstore.Info
	active  string
	listErr error
}

func (m *mockCatalog) List() ([]modelstore.Info, error) { return m.infos, m.listErr }
func (m *mockCatalog) ActiveVersion() (string, error)   { return m.active, nil }

type mockEvents struct{ events []types.TrainingEvent }

func (m *mockEvents) Recent(limit int) ([]types.TrainingEvent, error) {
	if limit < len(m.events) {
		return m.events[:limit], nil
	}
	return m.events, nil
}

type mockEdges struct{ cases []types.EdgeCase }

func (m *mockEdges) Recent(limit int) ([]types.EdgeCase, error) {
	if limit < len(m.cases) {
		return m.cases[:limit], nil
	}
	return m.cases, nil
}

func TestHandleStart(t *testing.T) {
	Convey("Given a game-start handler with a fixed seed source", t, func() {
		sessions := &mockSessions{}
		h := api.NewStartHandler(sessions, api.WithSeedSource(func() uint32 { return 4242 }))

		Convey("When a client starts a game", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/game/start", strings.NewReader(`{"fingerprint":"fp-1"}`))
			h.HandleStart(rec, req)

			Convey("Then the issued seed comes back and a session exists", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Success bool   `json:"success"`
					Seed    uint32 `json:"seed"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Success, ShouldBeTrue)
				So(resp.Seed, ShouldEqual, 4242)
				So(sessions.started, ShouldHaveLength, 1)
				So(sessions.started[0].PlayerID, ShouldEqual, "fp-1")
			})
		})

		Convey("When the fingerprint is missing", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/game/start", strings.NewReader(`{}`))
			h.HandleStart(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(sessions.started, ShouldBeEmpty)
		})

		Convey("When the method is GET", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/game/start", nil)
			h.HandleStart(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleScore(t *testing.T) {
	Convey("Given a score handler", t, func() {
		body := `{
			"fingerprint": "fp-1",
			"score": 30,
			"speedLevel": 3,
			"foodEaten": 3,
			"gameDuration": 12,
			"seed": 777,
			"totalFrames": 80,
			"moves": "1,5,750;0,12,1800",
			"heartbeats": "1000,1000,6,150;2000,2001,13,147"
		}`
		post := func(h *api.ScoreHandler, payload string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(payload))
			h.HandleScore(rec, req)
			return rec
		}

		Convey("When the pipeline accepts the submission", func() {
			sub := &mockSubmitter{result: pipeline.Result{
				Accepted: true,
				Verdict:  types.LegitVerdict(),
				Best:     repository.BestResult{BestScore: 30, Rank: 2, IsNewBest: true},
			}}
			h := api.NewScoreHandler(sub, codec.New())
			rec := post(h, body)

			Convey("Then the response carries the leaderboard position", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Success   bool `json:"success"`
					BestScore int  `json:"bestScore"`
					Rank      int  `json:"rank"`
					IsNewBest bool `json:"isNewBest"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Success, ShouldBeTrue)
				So(resp.BestScore, ShouldEqual, 30)
				So(resp.Rank, ShouldEqual, 2)
				So(resp.IsNewBest, ShouldBeTrue)
			})

			Convey("And the wire strings were decoded into the submission", func() {
				So(sub.last.Moves, ShouldHaveLength, 2)
				So(sub.last.Heartbeats, ShouldHaveLength, 2)
				So(sub.last.PlayerID, ShouldEqual, "fp-1")
				So(sub.last.Seed, ShouldEqual, 777)
			})
		})

		Convey("When the pipeline rejects the submission as a cheat", func() {
			sub := &mockSubmitter{result: pipeline.Result{
				Verdict: types.CheatVerdict(types.CheatReplayFail, "Score mismatch: replay calculated 0, client sent 30"),
			}}
			h := api.NewScoreHandler(sub, codec.New())
			rec := post(h, body)

			Convey("Then the verdict maps to 403", func() {
				So(rec.Code, ShouldEqual, http.StatusForbidden)
				var resp struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "replay_fail")
				So(resp.Message, ShouldContainSubstring, "Score mismatch")
			})
		})

		Convey("When the pipeline reports errors", func() {
			cases := map[error]int{
				pipeline.ErrValidation:  http.StatusBadRequest,
				pipeline.ErrRateLimited: http.StatusTooManyRequests,
				errors.New("db down"):   http.StatusInternalServerError,
			}
			for err, want := range cases {
				h := api.NewScoreHandler(&mockSubmitter{err: err}, codec.New())
				So(post(h, body).Code, ShouldEqual, want)
			}
		})

		Convey("When the payload is not JSON", func() {
			h := api.NewScoreHandler(&mockSubmitter{}, codec.New())
			So(post(h, "not json").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the move string exceeds the codec cap", func() {
			h := api.NewScoreHandler(&mockSubmitter{}, codec.New(codec.WithMaxMoveBytes(8)))
			So(post(h, body).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleBoards(t *testing.T) {
	Convey("Given hall-of-fame and hall-of-shame handlers", t, func() {
		boards := &mockBoards{
			entries: []types.LeaderboardEntry{{Rank: 1, PlayerID: "fp-1", BestScore: 120}},
			records: []types.CheatRecord{{PlayerID: "fp-9", Kind: types.CheatSpeedHack}},
		}
		fame := api.NewLeaderboardHandler(boards, 100)
		shame := api.NewShameHandler(boards, 100)

		Convey("When the hall of fame is fetched without a limit", func() {
			rec := httptest.NewRecorder()
			fame.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/halloffame", nil))

			Convey("Then the default page size applies", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(boards.lastN, ShouldEqual, 10)
				var entries []types.LeaderboardEntry
				So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].PlayerID, ShouldEqual, "fp-1")
			})
		})

		Convey("When an oversized limit is requested", func() {
			rec := httptest.NewRecorder()
			shame.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/hallofshame?limit=9999", nil))

			Convey("Then it clamps to the configured maximum", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(boards.lastN, ShouldEqual, 100)
			})
		})

		Convey("When the limit is not a positive integer", func() {
			rec := httptest.NewRecorder()
			fame.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/halloffame?limit=zero", nil))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the store fails", func() {
			boards.err = errors.New("disk gone")
			rec := httptest.NewRecorder()
			shame.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/hallofshame", nil))
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestHandleML(t *testing.T) {
	Convey("Given the ML endpoints", t, func() {
		trainer := &mockTrainer{state: train.StateIdle, accepted: true}
		h := api.NewMLHandler(
			trainer,
			&mockSamples{n: 250},
			&mockCatalog{
				active: "20260801-120000-abcd1234",
				infos: []modelstore.Info{
					{Version: "20260801-120000-abcd1234", Active: true},
					{Version: "20260715-090000-00ff00ff"},
				},
			},
			&mockEvents{events: []types.TrainingEvent{{Version: "20260801-120000-abcd1234", Activated: true}}},
			&mockEdges{cases: []types.EdgeCase{{ID: "e1", EdgeType: types.EdgeRulesNegativeMLPositive}}},
		)

		Convey("When status is fetched", func() {
			rec := httptest.NewRecorder()
			h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/ml/status", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			var resp struct {
				State           string `json:"state"`
				TrainingSamples int    `json:"trainingSamples"`
				ActiveVersion   string `json:"activeVersion"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.State, ShouldEqual, "idle")
			So(resp.TrainingSamples, ShouldEqual, 250)
			So(resp.ActiveVersion, ShouldEqual, "20260801-120000-abcd1234")
		})

		Convey("When versions are listed", func() {
			rec := httptest.NewRecorder()
			h.HandleVersions(rec, httptest.NewRequest(http.MethodGet, "/api/ml/versions", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			var infos []modelstore.Info
			So(json.Unmarshal(rec.Body.Bytes(), &infos), ShouldBeNil)
			So(infos, ShouldHaveLength, 2)
			So(infos[0].Active, ShouldBeTrue)
		})

		Convey("When training logs and edge cases are fetched", func() {
			rec := httptest.NewRecorder()
			h.HandleTrainingLogs(rec, httptest.NewRequest(http.MethodGet, "/api/ml/training-logs", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)

			rec = httptest.NewRecorder()
			h.HandleEdgeCases(rec, httptest.NewRequest(http.MethodGet, "/api/ml/edge-cases?limit=1", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			var cases []types.EdgeCase
			So(json.Unmarshal(rec.Body.Bytes(), &cases), ShouldBeNil)
			So(cases, ShouldHaveLength, 1)
		})

		Convey("When a manual training run is requested", func() {
			rec := httptest.NewRecorder()
			h.HandleTrain(rec, httptest.NewRequest(http.MethodPost, "/api/ml/train", nil))

			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(trainer.reasons, ShouldResemble, []string{"manual request"})
			var resp struct {
				Started bool `json:"started"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Started, ShouldBeTrue)
		})

		Convey("When train is requested with GET", func() {
			rec := httptest.NewRecorder()
			h.HandleTrain(rec, httptest.NewRequest(http.MethodGet, "/api/ml/train", nil))
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRegister(t *testing.T) {
	Convey("Given a fully registered server", t, func() {
		boards := &mockBoards{}
		srv := api.NewServer(
			api.NewStartHandler(&mockSessions{}),
			api.NewScoreHandler(&mockSubmitter{result: pipeline.Result{Accepted: true, Verdict: types.LegitVerdict()}}, codec.New()),
			api.NewLeaderboardHandler(boards, 100),
			api.NewShameHandler(boards, 100),
			api.NewMLHandler(&mockTrainer{}, &mockSamples{}, &mockCatalog{}, &mockEvents{}, &mockEdges{}),
			statsFunc(func() map[string]interface{} { return map[string]interface{}{"queue_len": 0} }),
		)
		mux := http.NewServeMux()
		srv.Register(mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		Convey("Then every route answers", func() {
			for _, path := range []string{"/healthz", "/stats", "/api/halloffame", "/api/hallofshame", "/api/ml/status", "/api/ml/versions"} {
				resp, err := http.Get(ts.URL + path)
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Body.Close(), ShouldBeNil)
			}
		})
	})
}

type statsFunc func() map[string]interface{}

func (f statsFunc) GetStats() map[string]interface{} { return f() }
