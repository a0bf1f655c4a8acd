package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"SurgeScreener/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the API can read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			as_of       INTEGER NOT NULL,
			interval    TEXT NOT NULL,
			threshold   REAL,
			symbols     INTEGER,
			evaluated   INTEGER,
			skipped     INTEGER,
			shockers    INTEGER,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON scan_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS scan_shockers (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			symbol       TEXT NOT NULL,
			sector       TEXT,
			ltp          REAL,
			today_volume INTEGER,
			avg_volume   REAL,
			surge_ratio  REAL,
			pct_change   REAL,
			tier         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shockers_run ON scan_shockers(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shockers_symbol ON scan_shockers(symbol)`,

		`CREATE TABLE IF NOT EXISTS scan_skips (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL,
			symbol  TEXT NOT NULL,
			reason  TEXT,
			detail  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skips_run ON scan_skips(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordBatch stores the run summary, its shockers and its skipped symbols in one transaction.
func (r *SQLiteRecorder) RecordBatch(batch *model.Batch, shockers []model.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	evaluated := batch.Evaluated()
	if _, err := tx.Exec(`INSERT INTO scan_runs
		(id, timestamp, as_of, interval, threshold, symbols, evaluated, skipped, shockers, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		batch.ID, time.Now().Unix(), batch.AsOf.Unix(), string(batch.Interval), batch.Threshold,
		len(batch.Outcomes), evaluated, len(batch.Outcomes)-evaluated, len(shockers),
		batch.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, row := range shockers {
		if _, err := tx.Exec(`INSERT INTO scan_shockers
			(run_id, symbol, sector, ltp, today_volume, avg_volume, surge_ratio, pct_change, tier)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			batch.ID, row.Symbol, row.Sector, row.LTP, row.TodayVolume, row.AvgVolume,
			row.SurgeRatio, row.PctChange, string(row.Tier),
		); err != nil {
			return fmt.Errorf("insert shocker %s: %w", row.Symbol, err)
		}
	}

	for _, o := range batch.Skipped() {
		if _, err := tx.Exec(`INSERT INTO scan_skips (run_id, symbol, reason, detail) VALUES (?,?,?,?)`,
			batch.ID, o.Symbol, o.Skip.Reason, o.Skip.Detail,
		); err != nil {
			return fmt.Errorf("insert skip %s: %w", o.Symbol, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, as_of, interval, threshold, symbols, evaluated, skipped, shockers, duration_ms
		FROM scan_runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var ts, asOf, durMs int64
		if err := rows.Scan(&s.ID, &ts, &asOf, &s.Interval, &s.Threshold,
			&s.Symbols, &s.Evaluated, &s.Skipped, &s.Shockers, &durMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Timestamp = time.Unix(ts, 0)
		s.AsOf = time.Unix(asOf, 0)
		s.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
