// Package sqlite provides SQLite-based persistence for MMSS metrics
// snapshots and task records. Uses WAL mode for concurrent reads and
// crash-safe writes. The engine treats this gateway as best-effort: it
// must keep working when no data exists or persistence is disabled.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/google/uuid"

	"github.com/mmss-network/mmss/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping verifies the underlying connection is alive.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS metrics_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			payload    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created ON metrics_snapshots(created_at)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			operator      TEXT NOT NULL,
			target_module TEXT NOT NULL DEFAULT '',
			state         TEXT NOT NULL,
			error         TEXT,
			created_at    INTEGER NOT NULL,
			updated_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_state ON tasks(state)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Metrics Snapshots ──────────────────────────────────────────────────────

// SaveMetrics appends a snapshot row.
func (d *DB) SaveMetrics(m domain.GeometricMetrics) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", domain.ErrSerialization, err)
	}

	_, err = d.db.Exec(
		`INSERT INTO metrics_snapshots (created_at, payload) VALUES (?, ?)`,
		time.Now().Unix(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("%w: insert snapshot: %v", domain.ErrStorageAccess, err)
	}
	return nil
}

// LoadLatestMetrics returns the most recent snapshot, or (nil, nil) when
// nothing has been persisted yet.
func (d *DB) LoadLatestMetrics() (*domain.GeometricMetrics, error) {
	var payload string
	err := d.db.QueryRow(
		`SELECT payload FROM metrics_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %v", domain.ErrStorageAccess, err)
	}

	var m domain.GeometricMetrics
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", domain.ErrSerialization, err)
	}
	return &m, nil
}

// SnapshotRecord is one persisted snapshot row.
type SnapshotRecord struct {
	ID        int64
	CreatedAt time.Time
	Metrics   domain.GeometricMetrics
}

// ListSnapshots returns up to limit snapshots, newest first. limit <= 0
// means no limit.
func (d *DB) ListSnapshots(limit int) ([]SnapshotRecord, error) {
	query := `SELECT id, created_at, payload FROM metrics_snapshots ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list snapshots: %v", domain.ErrStorageAccess, err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		var createdAt int64
		var payload string
		if err := rows.Scan(&rec.ID, &createdAt, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &rec.Metrics); err != nil {
			return nil, fmt.Errorf("%w: decode snapshot %d: %v", domain.ErrSerialization, rec.ID, err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ─── Task Records ───────────────────────────────────────────────────────────

// TaskRecord is one persisted task row.
type TaskRecord struct {
	ID           uuid.UUID
	Name         string
	Operator     domain.GeometricOperator
	TargetModule string
	State        domain.TaskState
	Error        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SaveTask inserts or updates a task row with its latest status.
func (d *DB) SaveTask(id uuid.UUID, cmd domain.GeometricTaskCommand, status domain.TaskStatus) error {
	now := time.Now().Unix()
	_, err := d.db.Exec(
		`INSERT INTO tasks (id, name, operator, target_module, state, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			state=excluded.state,
			error=excluded.error,
			updated_at=excluded.updated_at`,
		id.String(), cmd.TaskName, string(cmd.GeometricOperator), cmd.TargetModule,
		string(status.State), status.Error, now, now,
	)
	if err != nil {
		return fmt.Errorf("%w: save task: %v", domain.ErrStorageAccess, err)
	}
	return nil
}

// ListTasks returns all persisted task rows, oldest first.
func (d *DB) ListTasks() ([]TaskRecord, error) {
	rows, err := d.db.Query(
		`SELECT id, name, operator, target_module, state, COALESCE(error, ''), created_at, updated_at
		 FROM tasks ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %v", domain.ErrStorageAccess, err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		var rawID string
		var created, updated int64
		var operator, state string
		if err := rows.Scan(&rawID, &rec.Name, &operator, &rec.TargetModule,
			&state, &rec.Error, &created, &updated); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: task id %q: %v", domain.ErrSerialization, rawID, err)
		}
		rec.ID = id
		rec.Operator = domain.GeometricOperator(operator)
		rec.State = domain.TaskState(state)
		rec.CreatedAt = time.Unix(created, 0)
		rec.UpdatedAt = time.Unix(updated, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ─── Disabled Store ─────────────────────────────────────────────────────────

// Disabled is the persistence gateway used when storage is turned off.
// Loads report no data; writes report domain.ErrPersistenceUnsupported.
// Callers are expected to tolerate both.
type Disabled struct{}

// LoadLatestMetrics always reports no data.
func (Disabled) LoadLatestMetrics() (*domain.GeometricMetrics, error) { return nil, nil }

// SaveMetrics always reports persistence as unsupported.
func (Disabled) SaveMetrics(domain.GeometricMetrics) error {
	return domain.ErrPersistenceUnsupported
}

// SaveTask always reports persistence as unsupported.
func (Disabled) SaveTask(uuid.UUID, domain.GeometricTaskCommand, domain.TaskStatus) error {
	return domain.ErrPersistenceUnsupported
}
