package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SurgeScreener/internal/board"
	"SurgeScreener/internal/model"
)

type fakeRefresher struct {
	board *board.Board
	batch *model.Batch
	err   error
	calls []model.Interval
}

func (f *fakeRefresher) RunNow(_ context.Context, iv model.Interval) (*model.Batch, error) {
	f.calls = append(f.calls, iv)
	if f.err != nil {
		return nil, f.err
	}
	f.board.Publish(f.batch)
	return f.batch, nil
}

func result(sym string, ratio float64) *model.SurgeResult {
	return &model.SurgeResult{Symbol: sym, LTP: 100.456, TodayVolume: 5000, AvgVolume: 1999.9, SurgeRatio: ratio, PctChange: -1.234}
}

func testBatch() *model.Batch {
	return &model.Batch{
		ID:        "b-1",
		AsOf:      time.Date(2024, 3, 13, 10, 30, 0, 0, time.UTC),
		Interval:  model.Interval15Minute,
		Threshold: 2,
		Outcomes: []model.Outcome{
			{Symbol: "INFY", Sector: "IT", Result: result("INFY", 2.5)},
			{Symbol: "HDFCBANK", Sector: "Banking", Result: result("HDFCBANK", 3.2)},
			{Symbol: "TCS", Sector: "IT", Result: result("TCS", 1.1)},
			{Symbol: "GHOST", Sector: "IT", Skip: &model.Skip{Reason: "unknown symbol", Detail: "resolve instrument: unknown symbol: GHOST"}},
		},
	}
}

func newTestServer(t *testing.T, publish bool) (*Server, *fakeRefresher) {
	t.Helper()
	b, err := board.New("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if publish {
		b.Publish(testBatch())
	}
	ref := &fakeRefresher{board: b, batch: testBatch()}
	return &Server{
		Board:            b,
		Refresher:        ref,
		DefaultInterval:  model.Interval15Minute,
		DefaultThreshold: 2,
	}, ref
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	s.SetupRoutes().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := do(t, s, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetShockers(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := do(t, s, http.MethodGet, "/api/shockers")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp shockersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Evaluated != 3 || resp.Skipped != 1 {
		t.Errorf("unexpected counts: %+v", resp)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Rows))
	}
	if resp.Rows[0].Symbol != "HDFCBANK" || resp.Rows[1].Symbol != "INFY" {
		t.Errorf("rows not sorted by ratio: %s, %s", resp.Rows[0].Symbol, resp.Rows[1].Symbol)
	}
	if resp.Rows[0].Tier != model.TierStrong || resp.Rows[1].Tier != model.TierShock {
		t.Errorf("unexpected tiers: %s, %s", resp.Rows[0].Tier, resp.Rows[1].Tier)
	}
}

func TestGetShockers_Filters(t *testing.T) {
	s, _ := newTestServer(t, true)

	tests := []struct {
		query string
		want  []string
	}{
		{"?threshold=1.0", []string{"HDFCBANK", "INFY", "TCS"}},
		{"?threshold=3", []string{"HDFCBANK"}},
		{"?threshold=5", nil},
		{"?sector=it", []string{"INFY"}},
		{"?threshold=1&sector=Banking,%20IT", []string{"HDFCBANK", "INFY", "TCS"}},
		{"?sector=Energy", nil},
	}
	for _, tt := range tests {
		w := do(t, s, http.MethodGet, "/api/shockers"+tt.query)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.query, w.Code)
		}
		var resp shockersResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, r := range resp.Rows {
			got = append(got, r.Symbol)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%s: got %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestGetShockers_BadQuery(t *testing.T) {
	s, _ := newTestServer(t, true)
	for _, q := range []string{"?threshold=abc", "?threshold=0", "?threshold=-1", "?interval=2minute"} {
		w := do(t, s, http.MethodGet, "/api/shockers"+q)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestGetShockers_NoBatch(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := do(t, s, http.MethodGet, "/api/shockers?interval=5minute")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetShockersCSV(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := do(t, s, http.MethodGet, "/api/shockers.csv")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename=volume_shockers.csv" {
		t.Errorf("unexpected Content-Disposition: %q", got)
	}
	want := "Symbol,LTP,Today's Volume,7-Day Avg Volume,Surge Ratio,% Change\n" +
		"HDFCBANK,100.46,5000,1999,3.20,-1.23\n" +
		"INFY,100.46,5000,1999,2.50,-1.23\n"
	if w.Body.String() != want {
		t.Errorf("unexpected csv:\n%s", w.Body.String())
	}
}

func TestGetSkipped(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := do(t, s, http.MethodGet, "/api/skipped")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Skipped []skippedEntry `json:"skipped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0].Symbol != "GHOST" || resp.Skipped[0].Reason != "unknown symbol" {
		t.Errorf("unexpected skipped: %+v", resp.Skipped)
	}
}

func TestPostRefresh(t *testing.T) {
	s, ref := newTestServer(t, false)

	w := do(t, s, http.MethodPost, "/api/refresh?interval=15minute")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(ref.calls) != 1 || ref.calls[0] != model.Interval15Minute {
		t.Errorf("unexpected refresh calls: %v", ref.calls)
	}

	w = do(t, s, http.MethodGet, "/api/shockers")
	if w.Code != http.StatusOK {
		t.Fatalf("expected board to be populated after refresh, got %d", w.Code)
	}
}

func TestPostRefresh_Failure(t *testing.T) {
	s, ref := newTestServer(t, false)
	ref.err = errors.New("kite prepare: unauthorized")

	w := do(t, s, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestGetRuns_Noop(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := do(t, s, http.MethodGet, "/api/runs?limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"runs":[]`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/api/runs?limit=x")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}
