package seatirdd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/epimodels/seatird-core/pkg/config"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// HTTPServer is the daemon's control surface: create runs from scenario
// YAML, start and stop them, and query their state and time series.
type HTTPServer struct {
	log   *slog.Logger
	store *RunStore
	exec  *Executor
	mux   *http.ServeMux
}

// NewHTTPServer wires the handlers over the store and executor
func NewHTTPServer(store *RunStore, exec *Executor, log *slog.Logger) *HTTPServer {
	s := &HTTPServer{
		log:   log,
		store: store,
		exec:  exec,
		mux:   http.NewServeMux(),
	}
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)
	return s
}

// Handler returns the root handler for an http.Server
func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRuns(w, r)
	case http.MethodPost:
		s.handleCreateRun(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type createRunRequest struct {
	RunID        string `json:"run_id,omitempty"`
	ScenarioYAML string `json:"scenario_yaml"`
	Start        bool   `json:"start,omitempty"`
}

func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.ScenarioYAML) == "" {
		writeError(w, http.StatusBadRequest, "scenario_yaml is required")
		return
	}

	scn, err := config.ParseScenarioYAMLString(req.ScenarioYAML)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scenario: "+err.Error())
		return
	}

	rec, err := s.store.Create(req.RunID, scn, req.ScenarioYAML)
	if err != nil {
		if errors.Is(err, ErrRunExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	run := rec.Snapshot()
	s.log.Info("run created", "run_id", run.ID, "name", run.Name, "days", run.Days)

	if req.Start {
		if err := s.exec.Start(context.Background(), run.ID); err != nil {
			// the record exists and carries the failure; report it
			writeJSON(w, http.StatusCreated, rec.Snapshot())
			return
		}
	}
	writeJSON(w, http.StatusCreated, rec.Snapshot())
}

func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 0)
	offset := intQuery(r, "offset", 0)
	status := Status(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, map[string]any{"runs": s.store.List(limit, offset, status)})
}

func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")

	switch {
	case strings.HasSuffix(rest, ":start"):
		s.handleStart(w, r, strings.TrimSuffix(rest, ":start"))
	case strings.HasSuffix(rest, ":stop"):
		s.handleStop(w, r, strings.TrimSuffix(rest, ":stop"))
	case strings.HasSuffix(rest, "/result"):
		s.handleResult(w, r, strings.TrimSuffix(rest, "/result"))
	case strings.HasSuffix(rest, "/series"):
		s.handleSeries(w, r, strings.TrimSuffix(rest, "/series"))
	case strings.HasSuffix(rest, "/export"):
		s.handleExport(w, r, strings.TrimSuffix(rest, "/export"))
	default:
		s.handleGetRun(w, r, rest)
	}
}

func (s *HTTPServer) handleGetRun(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rec, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec.Snapshot())
}

func (s *HTTPServer) handleStart(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.exec.Start(context.Background(), id); err != nil {
		switch {
		case errors.Is(err, ErrRunNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRunTerminal), errors.Is(err, ErrRunActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	rec, _ := s.store.Get(id)
	writeJSON(w, http.StatusOK, rec.Snapshot())
}

func (s *HTTPServer) handleStop(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.exec.Stop(id); err != nil {
		switch {
		case errors.Is(err, ErrRunNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrRunTerminal):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	rec, _ := s.store.Get(id)
	writeJSON(w, http.StatusOK, rec.Snapshot())
}

func (s *HTTPServer) handleResult(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rec, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var result *Result
	rec.With(func() {
		if rec.Result != nil {
			res := *rec.Result
			result = &res
		}
	})
	if result == nil {
		writeError(w, http.StatusConflict, "run has no result yet")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type seriesResponse struct {
	RunID    string    `json:"run_id"`
	Variable string    `json:"variable"`
	Node     int       `json:"node"`
	Values   []float64 `json:"values"`
}

func (s *HTTPServer) handleSeries(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rec, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	variable := r.URL.Query().Get("variable")
	if variable == "" {
		writeError(w, http.StatusBadRequest, "variable is required")
		return
	}
	node := intQuery(r, "node", strat.All)
	age := intQuery(r, "age", strat.All)
	risk := intQuery(r, "risk", strat.All)
	vaccinated := intQuery(r, "vaccinated", strat.All)

	var resp *seriesResponse
	var seriesErr error
	rec.With(func() {
		sim := rec.Sim
		if sim == nil {
			seriesErr = errors.New("run has not started")
			return
		}
		known := false
		for _, name := range sim.VariableNames() {
			if name == variable {
				known = true
				break
			}
		}
		if !known {
			seriesErr = errors.New("unknown variable " + strconv.Quote(variable))
			return
		}

		values := make([]float64, sim.NumTimes())
		for d := range values {
			if node == strat.All {
				for _, nodeID := range sim.NodeIDs() {
					values[d] += sim.Value(variable, d, nodeID, age, risk, vaccinated)
				}
			} else {
				values[d] = sim.Value(variable, d, node, age, risk, vaccinated)
			}
		}
		resp = &seriesResponse{RunID: id, Variable: variable, Node: node, Values: values}
	})
	if seriesErr != nil {
		writeError(w, http.StatusBadRequest, seriesErr.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rec, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var payload map[string]any
	rec.With(func() {
		payload = map[string]any{
			"run":           rec.Run,
			"scenario_yaml": rec.ScenarioYAML,
		}
		if rec.Result != nil {
			payload["result"] = *rec.Result
		}
		if rec.Sim != nil {
			sim := rec.Sim
			series := make(map[string][][]float64, len(sim.VariableNames()))
			for _, name := range sim.VariableNames() {
				byDay := make([][]float64, sim.NumTimes())
				for d := range byDay {
					row := make([]float64, 0, len(sim.NodeIDs()))
					for _, nodeID := range sim.NodeIDs() {
						row = append(row, sim.Value(name, d, nodeID))
					}
					byDay[d] = row
				}
				series[name] = byDay
			}
			payload["nodes"] = sim.NodeIDs()
			payload["series"] = series
		}
	})
	writeJSON(w, http.StatusOK, payload)
}

func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
