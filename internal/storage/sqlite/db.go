// Package sqlite is the durable store behind the learning loop: the
// feedback log, materialized training examples, detection history, and
// the pattern/model performance rollups.
package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_key       TEXT NOT NULL UNIQUE,
		summary          TEXT NOT NULL,
		description      TEXT DEFAULT '',
		detection_reason TEXT DEFAULT '',
		label            TEXT NOT NULL CHECK(label IN ('true_positive', 'false_positive', 'false_negative')),
		confidence       REAL DEFAULT 0,
		created_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed        INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_processed ON feedback(processed);
	CREATE INDEX IF NOT EXISTS idx_feedback_label ON feedback(label);

	CREATE TABLE IF NOT EXISTS training_data (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_key       TEXT NOT NULL UNIQUE,
		summary          TEXT NOT NULL,
		description      TEXT DEFAULT '',
		is_pixel_related INTEGER NOT NULL,
		features         TEXT DEFAULT '',
		created_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS detections (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_key  TEXT NOT NULL,
		summary     TEXT DEFAULT '',
		verdict     INTEGER NOT NULL,
		reason      TEXT DEFAULT '',
		confidence  REAL NOT NULL,
		method      TEXT DEFAULT '',
		category    TEXT DEFAULT '',
		detected_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_detections_ticket ON detections(ticket_key);
	CREATE INDEX IF NOT EXISTS idx_detections_date ON detections(detected_at);

	CREATE TABLE IF NOT EXISTS pattern_performance (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		pattern_type    TEXT NOT NULL,
		pattern_value   TEXT NOT NULL,
		true_positives  INTEGER NOT NULL DEFAULT 0,
		false_positives INTEGER NOT NULL DEFAULT 0,
		false_negatives INTEGER NOT NULL DEFAULT 0,
		last_updated    DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(pattern_type, pattern_value)
	);

	CREATE TABLE IF NOT EXISTS model_performance (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		model_version    TEXT NOT NULL,
		training_samples INTEGER NOT NULL,
		precision        REAL NOT NULL,
		recall           REAL NOT NULL,
		f1_score         REAL NOT NULL,
		trained_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_model_perf_date ON model_performance(trained_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return db, nil
}
