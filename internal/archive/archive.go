// Package archive persists completed runs to a SQLite database: run
// metadata plus the per-day per-node aggregate of every simulation
// variable. The daemon works without an archive; wiring one in is a
// deployment choice.
package archive

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/epimodels/seatird-core/internal/seatird"
	"github.com/epimodels/seatird-core/internal/seatirdd"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL DEFAULT '',
	seed                  INTEGER NOT NULL,
	days                  INTEGER NOT NULL,
	created_at_unix_ms    INTEGER NOT NULL,
	completed_at_unix_ms  INTEGER NOT NULL,
	attack_rate           REAL NOT NULL,
	peak_day              INTEGER NOT NULL,
	peak_infectious       REAL NOT NULL,
	total_deceased        REAL NOT NULL,
	scenario_yaml         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS series (
	run_id    TEXT NOT NULL,
	day       INTEGER NOT NULL,
	node_id   INTEGER NOT NULL,
	variable  TEXT NOT NULL,
	value     REAL NOT NULL,
	PRIMARY KEY (run_id, day, node_id, variable)
);
`

// Archive is a SQLite-backed store of completed runs
type Archive struct {
	db *sqlx.DB
}

var _ seatirdd.Archiver = (*Archive)(nil)

// Open opens or creates the archive database at path
func Open(path string) (*Archive, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveRun writes the run's metadata and full aggregate series in one
// transaction.
func (a *Archive) SaveRun(run seatirdd.Run, result seatirdd.Result, scenarioYAML string, sim *seatird.Simulation) error {
	tx, err := a.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, name, seed, days, created_at_unix_ms, completed_at_unix_ms,
		 attack_rate, peak_day, peak_infectious, total_deceased, scenario_yaml)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, int64(run.Seed), run.Days, run.CreatedAtUnixMs, run.EndedAtUnixMs,
		result.AttackRate, result.PeakDay, result.PeakInfectious, result.TotalDeceased, scenarioYAML)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO series (run_id, day, node_id, variable, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare series insert: %w", err)
	}
	defer stmt.Close()

	for _, variable := range sim.VariableNames() {
		for d := 0; d < sim.NumTimes(); d++ {
			for _, nodeID := range sim.NodeIDs() {
				if _, err := stmt.Exec(run.ID, d, nodeID, variable, sim.Value(variable, d, nodeID)); err != nil {
					return fmt.Errorf("insert series point: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// RunRow is one archived run's metadata
type RunRow struct {
	ID                string  `db:"id" json:"id"`
	Name              string  `db:"name" json:"name,omitempty"`
	Seed              int64   `db:"seed" json:"seed"`
	Days              int     `db:"days" json:"days"`
	CreatedAtUnixMs   int64   `db:"created_at_unix_ms" json:"created_at_unix_ms"`
	CompletedAtUnixMs int64   `db:"completed_at_unix_ms" json:"completed_at_unix_ms"`
	AttackRate        float64 `db:"attack_rate" json:"attack_rate"`
	PeakDay           int     `db:"peak_day" json:"peak_day"`
	PeakInfectious    float64 `db:"peak_infectious" json:"peak_infectious"`
	TotalDeceased     float64 `db:"total_deceased" json:"total_deceased"`
	ScenarioYAML      string  `db:"scenario_yaml" json:"scenario_yaml"`
}

// ListRuns returns archived runs, newest first. A non-positive limit means
// no limit.
func (a *Archive) ListRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}
	var rows []RunRow
	err := a.db.Select(&rows,
		`SELECT * FROM runs ORDER BY created_at_unix_ms DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return rows, nil
}

// GetRun returns one archived run's metadata
func (a *Archive) GetRun(runID string) (*RunRow, error) {
	var row RunRow
	if err := a.db.Get(&row, `SELECT * FROM runs WHERE id = ?`, runID); err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &row, nil
}

// GetSeries returns the per-day values of one variable at one node,
// ordered by day.
func (a *Archive) GetSeries(runID, variable string, nodeID int) ([]float64, error) {
	var values []float64
	err := a.db.Select(&values,
		`SELECT value FROM series WHERE run_id = ? AND variable = ? AND node_id = ? ORDER BY day`,
		runID, variable, nodeID)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return values, nil
}
