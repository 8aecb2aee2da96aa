package sqlite

import (
	"database/sql"

	"pixelwatch/internal/domain"
)

func InsertDetection(db *sql.DB, d domain.Detection) error {
	_, err := db.Exec(
		`INSERT INTO detections (ticket_key, summary, verdict, reason, confidence, method, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.TicketKey, d.Summary, d.Verdict, d.Reason, d.Confidence, d.Method, d.Category,
	)
	return err
}

// DetectionExists reports whether the ticket has already been through a
// detection pass. Used to alert on each ticket at most once across polls.
func DetectionExists(db *sql.DB, ticketKey string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM detections WHERE ticket_key = ?`, ticketKey).Scan(&count)
	return count > 0, err
}

func RecentDetections(db *sql.DB, limit int) ([]domain.Detection, error) {
	rows, err := db.Query(
		`SELECT id, ticket_key, summary, verdict, reason, confidence, method, category, detected_at
		 FROM detections ORDER BY detected_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Detection
	for rows.Next() {
		var d domain.Detection
		if err := rows.Scan(
			&d.ID, &d.TicketKey, &d.Summary, &d.Verdict, &d.Reason,
			&d.Confidence, &d.Method, &d.Category, &d.DetectedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type CategoryCount struct {
	Category string
	Count    int
}

// CategoryBreakdown counts positive detections per sub-label.
func CategoryBreakdown(db *sql.DB) ([]CategoryCount, error) {
	rows, err := db.Query(
		`SELECT category, COUNT(*) as cnt FROM detections
		 WHERE verdict = 1 AND category <> ''
		 GROUP BY category ORDER BY cnt DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
