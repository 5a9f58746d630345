package seatirdd

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/epimodels/seatird-core/internal/seatird"
	"github.com/epimodels/seatird-core/pkg/config"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunExists   = errors.New("run already exists")
	ErrRunTerminal = errors.New("run already finished")
)

// Status is the lifecycle state of a run
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is a final one
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Run is the client-visible state of one simulation run
type Run struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	Status          Status `json:"status"`
	CreatedAtUnixMs int64  `json:"created_at_unix_ms"`
	StartedAtUnixMs int64  `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64  `json:"ended_at_unix_ms,omitempty"`
	Seed            uint64 `json:"seed"`
	Days            int    `json:"days"`
	DaysCompleted   int    `json:"days_completed"`
	Error           string `json:"error,omitempty"`
}

// Result summarizes a completed run across all nodes
type Result struct {
	AttackRate      float64 `json:"attack_rate"`
	PeakDay         int     `json:"peak_day"`
	PeakInfectious  float64 `json:"peak_infectious"`
	TotalDeceased   float64 `json:"total_deceased"`
	TotalRecovered  float64 `json:"total_recovered"`
	TotalTreated    float64 `json:"total_treated"`
	TotalVaccinated float64 `json:"total_vaccinated"`
}

// RunRecord is the store's full state for one run. The mutex guards every
// field; the executor holds it while stepping a day and the HTTP handlers
// hold it while reading the simulation, so queries see whole days only.
type RunRecord struct {
	mu sync.Mutex

	Run          Run
	ScenarioYAML string
	Scenario     *config.Scenario
	Sim          *seatird.Simulation
	Result       *Result
}

// Snapshot returns a copy of the client-visible run state
func (r *RunRecord) Snapshot() Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Run
}

// With runs fn while holding the record lock
func (r *RunRecord) With(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// RunStore is an in-memory registry of runs
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

// NewRunStore creates an empty run store
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*RunRecord)}
}

// Create registers a new pending run. An empty id is assigned a fresh UUID.
func (s *RunStore) Create(id string, scn *config.Scenario, scenarioYAML string) (*RunRecord, error) {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; ok {
		return nil, ErrRunExists
	}

	rec := &RunRecord{
		Run: Run{
			ID:              id,
			Name:            scn.Name,
			Status:          StatusPending,
			CreatedAtUnixMs: nowUnixMs(),
			Seed:            scn.Seed,
			Days:            scn.Days,
		},
		ScenarioYAML: scenarioYAML,
		Scenario:     scn,
	}
	s.runs[id] = rec
	return rec, nil
}

// Get returns the record for the run id
func (s *RunStore) Get(id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return rec, nil
}

// List returns run snapshots ordered by creation time, newest first,
// optionally filtered by status. A non-positive limit means no limit.
func (s *RunStore) List(limit, offset int, status Status) []Run {
	s.mu.RLock()
	all := make([]Run, 0, len(s.runs))
	for _, rec := range s.runs {
		run := rec.Snapshot()
		if status != "" && run.Status != status {
			continue
		}
		all = append(all, run)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAtUnixMs != all[j].CreatedAtUnixMs {
			return all[i].CreatedAtUnixMs > all[j].CreatedAtUnixMs
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []Run{}
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

func nowUnixMs() int64 {
	return time.Now().UnixMilli()
}
