package sqlite

import (
	"database/sql"

	"pixelwatch/internal/domain"
)

// UpsertFeedback records a human judgement. Idempotent per ticket key:
// a re-review overwrites the prior row and clears the processed flag so
// the new judgement is materialized again (latest write wins).
func UpsertFeedback(db *sql.DB, rec domain.FeedbackRecord) error {
	_, err := db.Exec(
		`INSERT INTO feedback (ticket_key, summary, description, detection_reason, label, confidence)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ticket_key) DO UPDATE SET
			summary = excluded.summary,
			description = excluded.description,
			detection_reason = excluded.detection_reason,
			label = excluded.label,
			confidence = excluded.confidence,
			created_at = CURRENT_TIMESTAMP,
			processed = 0`,
		rec.TicketKey, rec.Summary, rec.Description, rec.DetectionReason, string(rec.Label), rec.Confidence,
	)
	return err
}

func UnprocessedFeedback(db *sql.DB) ([]domain.FeedbackRecord, error) {
	rows, err := db.Query(
		`SELECT id, ticket_key, summary, description, detection_reason, label, confidence
		 FROM feedback WHERE processed = 0 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FeedbackRecord
	for rows.Next() {
		var rec domain.FeedbackRecord
		var label string
		if err := rows.Scan(
			&rec.ID, &rec.TicketKey, &rec.Summary, &rec.Description,
			&rec.DetectionReason, &label, &rec.Confidence,
		); err != nil {
			return nil, err
		}
		rec.Label = domain.FeedbackLabel(label)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MaterializeFeedback turns one feedback row into its training example
// and marks the row processed, in a single transaction. A crash leaves
// either both effects or neither, never a half-processed row.
func MaterializeFeedback(db *sql.DB, feedbackID int64, ex domain.TrainingExample, featuresJSON string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO training_data (ticket_key, summary, description, is_pixel_related, features)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(ticket_key) DO UPDATE SET
			summary = excluded.summary,
			description = excluded.description,
			is_pixel_related = excluded.is_pixel_related,
			features = excluded.features,
			created_at = CURRENT_TIMESTAMP`,
		ex.TicketKey, ex.Summary, ex.Description, ex.IsPixelRelated, featuresJSON,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE feedback SET processed = 1 WHERE id = ?`, feedbackID); err != nil {
		return err
	}

	return tx.Commit()
}

func TrainingExamples(db *sql.DB) ([]domain.TrainingExample, error) {
	rows, err := db.Query(
		`SELECT ticket_key, summary, description, is_pixel_related FROM training_data ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TrainingExample
	for rows.Next() {
		var ex domain.TrainingExample
		if err := rows.Scan(&ex.TicketKey, &ex.Summary, &ex.Description, &ex.IsPixelRelated); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func CountTrainingExamples(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM training_data`).Scan(&count)
	return count, err
}

// FeedbackByLabel returns the recorded feedback carrying the given label,
// newest first. Used by the pattern analyzer over false positives and
// false negatives.
func FeedbackByLabel(db *sql.DB, label domain.FeedbackLabel) ([]domain.FeedbackRecord, error) {
	rows, err := db.Query(
		`SELECT id, ticket_key, summary, description, detection_reason, label, confidence, processed
		 FROM feedback WHERE label = ? ORDER BY created_at DESC, id DESC`,
		string(label),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FeedbackRecord
	for rows.Next() {
		var rec domain.FeedbackRecord
		var lbl string
		if err := rows.Scan(
			&rec.ID, &rec.TicketKey, &rec.Summary, &rec.Description,
			&rec.DetectionReason, &lbl, &rec.Confidence, &rec.Processed,
		); err != nil {
			return nil, err
		}
		rec.Label = domain.FeedbackLabel(lbl)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FeedbackCounts returns the tallies of each feedback label.
func FeedbackCounts(db *sql.DB) (tp, fp, fn int, err error) {
	err = db.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN label = 'true_positive' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN label = 'false_positive' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN label = 'false_negative' THEN 1 ELSE 0 END), 0)
		 FROM feedback`,
	).Scan(&tp, &fp, &fn)
	return tp, fp, fn, err
}
