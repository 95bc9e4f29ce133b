package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lianues/LeiNaoArena/internal/adapters/http/api"
	app "github.com/Lianues/LeiNaoArena/internal/app"
	"github.com/Lianues/LeiNaoArena/internal/domain/assign"
	"github.com/Lianues/LeiNaoArena/internal/domain/model"
	"github.com/Lianues/LeiNaoArena/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// newTestServer wires the full engine behind an httptest server so the
// handlers see exactly what production sees.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc := app.New(
		app.WithPool([]string{"m1", "m2", "m3"}),
		app.WithAssigner(assign.New(assign.WithSeed(42))),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, 100).Register(context.Background(), mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func postBattle(t *testing.T, ts *httptest.Server, message, sessionID string) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"message": message, "session_id": sessionID})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+"/battle", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post battle: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, payload
}

func decodeResult(t *testing.T, payload []byte) model.EngineResult {
	t.Helper()
	var res model.EngineResult
	if err := json.Unmarshal(payload, &res); err != nil {
		t.Fatalf("decode result %q: %v", payload, err)
	}
	return res
}

func TestBattle_Passthrough(t *testing.T) {
	ts := newTestServer(t)

	resp, payload := postBattle(t, ts, "just chatting", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, payload)
	}
	res := decodeResult(t, payload)
	if res.Message != "just chatting" {
		t.Errorf("message = %q", res.Message)
	}
	if res.Speaker != "" || res.Confirmation != nil {
		t.Errorf("passthrough must not resolve a speaker: %+v", res)
	}
}

func TestBattle_FullFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, payload := postBattle(t, ts, "$sA100 open with a haiku", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, body %s", resp.StatusCode, payload)
	}
	start := decodeResult(t, payload)
	if start.SessionID != "100" || start.SpeakerLabel != "Assistant A" || start.Speaker == "" {
		t.Fatalf("unexpected start result: %+v", start)
	}

	resp, payload = postBattle(t, ts, "$B", "100")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("battle status = %d, body %s", resp.StatusCode, payload)
	}
	turnB := decodeResult(t, payload)
	if turnB.Speaker == "" || turnB.Speaker == start.Speaker {
		t.Fatalf("side B must be a distinct model: %+v", turnB)
	}

	resp, payload = postBattle(t, ts, "$wB", "100")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("outcome status = %d, body %s", resp.StatusCode, payload)
	}
	res := decodeResult(t, payload)
	if res.Confirmation == nil {
		t.Fatal("outcome must carry a confirmation")
	}
	if res.Confirmation.NewRatingB != 1516.0 || res.Confirmation.NewRatingA != 1484.0 {
		t.Errorf("fresh-model ratings = %v / %v, want 1516 / 1484",
			res.Confirmation.NewRatingA, res.Confirmation.NewRatingB)
	}

	// The locked session rejects anything further.
	resp, payload = postBattle(t, ts, "$A", "100")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("locked battle status = %d, body %s", resp.StatusCode, payload)
	}
	resp, payload = postBattle(t, ts, "$sB100", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("reused id status = %d, body %s", resp.StatusCode, payload)
	}
}

func TestBattle_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name      string
		message   string
		sessionID string
		status    int
		code      string
	}{
		{"unknown directive", "$winnerA", "", http.StatusBadRequest, "bad_directive"},
		{"missing session id", "$sA", "", http.StatusBadRequest, "bad_directive"},
		{"session not found", "$A", "ghost", http.StatusNotFound, "session_not_found"},
		{"no current session", "$tie", "", http.StatusNotFound, "session_not_found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, payload := postBattle(t, ts, tc.message, tc.sessionID)
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d, body %s", resp.StatusCode, tc.status, payload)
			}
			var errResp struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(payload, &errResp); err != nil {
				t.Fatalf("decode error body %q: %v", payload, err)
			}
			if errResp.Code != tc.code {
				t.Errorf("code = %q, want %q", errResp.Code, tc.code)
			}
		})
	}
}

func TestBattle_BadPayload(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/battle", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed json status = %d", resp.StatusCode)
	}

	resp, payload := postBattle(t, ts, "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty message status = %d, body %s", resp.StatusCode, payload)
	}

	getResp, err := http.Get(ts.URL + "/battle")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /battle status = %d", getResp.StatusCode)
	}
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t)

	// Resolve two sessions so the board is populated.
	for i, outcome := range []string{"$wA", "$wB"} {
		id := fmt.Sprintf("s%d", i)
		if resp, payload := postBattle(t, ts, "$sA"+id, ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("start %s: %d %s", id, resp.StatusCode, payload)
		}
		if resp, payload := postBattle(t, ts, outcome, id); resp.StatusCode != http.StatusOK {
			t.Fatalf("outcome %s: %d %s", id, resp.StatusCode, payload)
		}
	}

	resp, err := http.Get(ts.URL + "/leaderboard")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var rows []api.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("expected at least 2 rated models, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Rating > rows[i-1].Rating {
			t.Errorf("rows out of order at %d: %v > %v", i, rows[i].Rating, rows[i-1].Rating)
		}
	}

	limited, err := http.Get(ts.URL + "/leaderboard?limit=1")
	if err != nil {
		t.Fatalf("get limited: %v", err)
	}
	defer limited.Body.Close()
	rows = nil
	if err := json.NewDecoder(limited.Body).Decode(&rows); err != nil {
		t.Fatalf("decode limited rows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("limit=1 returned %d rows", len(rows))
	}

	for _, q := range []string{"limit=0", "limit=-3", "limit=abc", "limit=101"} {
		bad, err := http.Get(ts.URL + "/leaderboard?" + q)
		if err != nil {
			t.Fatalf("get %s: %v", q, err)
		}
		bad.Body.Close()
		if bad.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", q, bad.StatusCode)
		}
	}
}

func TestRank(t *testing.T) {
	ts := newTestServer(t)

	resp, payload := postBattle(t, ts, "$sAr1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d %s", resp.StatusCode, payload)
	}
	start := decodeResult(t, payload)
	if resp, payload := postBattle(t, ts, "$wA", "r1"); resp.StatusCode != http.StatusOK {
		t.Fatalf("outcome: %d %s", resp.StatusCode, payload)
	}

	got, err := http.Get(ts.URL + "/rank/" + start.Speaker)
	if err != nil {
		t.Fatalf("get rank: %v", err)
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		t.Fatalf("rank status = %d", got.StatusCode)
	}
	var row api.Row
	if err := json.NewDecoder(got.Body).Decode(&row); err != nil {
		t.Fatalf("decode row: %v", err)
	}
	if row.ModelID != start.Speaker || row.Wins != 1 {
		t.Errorf("unexpected row: %+v", row)
	}

	missing, err := http.Get(ts.URL + "/rank/never-battled")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing model status = %d", missing.StatusCode)
	}
}

func TestStatsAndHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if _, ok := stats["pool_size"]; !ok {
		t.Errorf("stats missing pool_size: %v", stats)
	}

	health, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", health.StatusCode)
	}
	body, err := io.ReadAll(health.Body)
	if err != nil {
		t.Fatalf("read healthz: %v", err)
	}
	if !strings.Contains(string(body), "arena_battle") {
		t.Errorf("healthz must expose the arena metric families")
	}
}
