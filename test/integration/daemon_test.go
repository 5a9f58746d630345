//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/epimodels/seatird-core/internal/archive"
	"github.com/epimodels/seatird-core/internal/seatirdd"
)

const scenarioYAML = `
name: integration
seed: 13
days: 30
parameters:
  r0: 1.4
nodes:
  - id: 1
    name: city
    population:
      - {age: 1, risk: 0, count: 8000}
      - {age: 2, risk: 0, count: 10000}
      - {age: 3, risk: 0, count: 7000}
  - id: 2
    name: suburb
    population:
      - {age: 2, risk: 0, count: 5000}
travel:
  - {from: 1, to: 2, fraction: 0.05}
  - {from: 2, to: 1, fraction: 0.05}
initial_exposures:
  - {node: 1, age: 2, risk: 0, count: 200}
`

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// TestDaemonEndToEnd drives a full run over HTTP: create, start, poll to
// completion, then read the result and series, and check the run landed in
// the archive.
func TestDaemonEndToEnd(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	arch, err := archive.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer arch.Close()

	store := seatirdd.NewRunStore()
	exec := seatirdd.NewExecutor(store, arch, log)
	ts := httptest.NewServer(seatirdd.NewHTTPServer(store, exec, log).Handler())
	defer ts.Close()

	if code := getJSON(t, ts.URL+"/healthz", nil); code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", code)
	}

	resp := postJSON(t, ts.URL+"/v1/runs", map[string]any{
		"run_id":        "e2e",
		"scenario_yaml": scenarioYAML,
		"start":         true,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	var run seatirdd.Run
	deadline := time.Now().Add(60 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatalf("run never finished: %+v", run)
		}
		if code := getJSON(t, ts.URL+"/v1/runs/e2e", &run); code != http.StatusOK {
			t.Fatalf("get run status = %d, want 200", code)
		}
		if run.Status.Terminal() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if run.Status != seatirdd.StatusCompleted {
		t.Fatalf("run status = %q (%s), want completed", run.Status, run.Error)
	}
	if run.DaysCompleted != 30 {
		t.Errorf("days completed = %d, want 30", run.DaysCompleted)
	}

	var result seatirdd.Result
	if code := getJSON(t, ts.URL+"/v1/runs/e2e/result", &result); code != http.StatusOK {
		t.Fatalf("result status = %d, want 200", code)
	}
	// 200 seeds in 30000 people give at least a 0.66% attack rate
	if result.AttackRate < 200.0/30000 {
		t.Errorf("attack rate = %f, want >= %f", result.AttackRate, 200.0/30000)
	}

	var series struct {
		Values []float64 `json:"values"`
	}
	url := fmt.Sprintf("%s/v1/runs/e2e/series?variable=susceptible&node=1", ts.URL)
	if code := getJSON(t, url, &series); code != http.StatusOK {
		t.Fatalf("series status = %d, want 200", code)
	}
	if len(series.Values) != 31 {
		t.Fatalf("series has %d days, want 31", len(series.Values))
	}
	if series.Values[0] != 24800 {
		t.Errorf("day-0 susceptibles at node 1 = %f, want 24800", series.Values[0])
	}
	for d := 1; d < len(series.Values); d++ {
		if series.Values[d] > series.Values[d-1] {
			t.Errorf("susceptibles rose from %f to %f on day %d", series.Values[d-1], series.Values[d], d)
		}
	}

	// the archive write happens after the status flips to completed, so
	// give it a moment
	var rows []archive.RunRow
	archiveDeadline := time.Now().Add(10 * time.Second)
	for {
		rows, err = arch.ListRuns(10)
		if err != nil {
			t.Fatalf("list archived runs: %v", err)
		}
		if len(rows) > 0 || time.Now().After(archiveDeadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(rows) != 1 || rows[0].ID != "e2e" {
		t.Fatalf("archived runs = %+v, want the completed run", rows)
	}
	values, err := arch.GetSeries("e2e", "susceptible", 1)
	if err != nil {
		t.Fatalf("archived series: %v", err)
	}
	if len(values) != 31 {
		t.Errorf("archived series has %d days, want 31", len(values))
	}
}
