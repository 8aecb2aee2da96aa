package sqlite

import (
	"database/sql"

	"pixelwatch/internal/domain"
)

// InsertModelPerformance appends one row of training history. The table
// is append-only; rows are never mutated.
func InsertModelPerformance(db *sql.DB, rec domain.PerformanceRecord) error {
	_, err := db.Exec(
		`INSERT INTO model_performance (model_version, training_samples, precision, recall, f1_score)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ModelVersion, rec.TrainingSamples, rec.Precision, rec.Recall, rec.F1,
	)
	return err
}

// LatestModelPerformance returns the newest training run, if any.
func LatestModelPerformance(db *sql.DB) (domain.PerformanceRecord, bool, error) {
	var rec domain.PerformanceRecord
	err := db.QueryRow(
		`SELECT model_version, training_samples, precision, recall, f1_score, trained_at
		 FROM model_performance ORDER BY trained_at DESC, id DESC LIMIT 1`,
	).Scan(&rec.ModelVersion, &rec.TrainingSamples, &rec.Precision, &rec.Recall, &rec.F1, &rec.TrainedAt)
	if err == sql.ErrNoRows {
		return domain.PerformanceRecord{}, false, nil
	}
	if err != nil {
		return domain.PerformanceRecord{}, false, err
	}
	return rec, true, nil
}

func ModelPerformanceHistory(db *sql.DB, limit int) ([]domain.PerformanceRecord, error) {
	rows, err := db.Query(
		`SELECT model_version, training_samples, precision, recall, f1_score, trained_at
		 FROM model_performance ORDER BY trained_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PerformanceRecord
	for rows.Next() {
		var rec domain.PerformanceRecord
		if err := rows.Scan(&rec.ModelVersion, &rec.TrainingSamples, &rec.Precision, &rec.Recall, &rec.F1, &rec.TrainedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BumpPatternCounter updates the per-reason feedback rollup. patternType
// groups reasons by rule family ("high", "pixel_context", ...), value is
// the full reason code.
func BumpPatternCounter(db *sql.DB, patternType, patternValue string, label domain.FeedbackLabel) error {
	var column string
	switch label {
	case domain.TruePositive:
		column = "true_positives"
	case domain.FalsePositive:
		column = "false_positives"
	case domain.FalseNegative:
		column = "false_negatives"
	default:
		return nil
	}

	_, err := db.Exec(
		`INSERT INTO pattern_performance (pattern_type, pattern_value, `+column+`, last_updated)
		 VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		 ON CONFLICT(pattern_type, pattern_value) DO UPDATE SET
			`+column+` = `+column+` + 1,
			last_updated = CURRENT_TIMESTAMP`,
		patternType, patternValue,
	)
	return err
}

// ReasonStats returns the feedback track record per detection reason,
// with derived precision and recall.
func ReasonStats(db *sql.DB) ([]domain.ReasonStat, error) {
	rows, err := db.Query(
		`SELECT pattern_value, true_positives, false_positives, false_negatives
		 FROM pattern_performance ORDER BY true_positives + false_positives + false_negatives DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReasonStat
	for rows.Next() {
		var s domain.ReasonStat
		if err := rows.Scan(&s.Reason, &s.TruePositives, &s.FalsePositives, &s.FalseNegatives); err != nil {
			return nil, err
		}
		if s.TruePositives+s.FalsePositives > 0 {
			s.Precision = float64(s.TruePositives) / float64(s.TruePositives+s.FalsePositives)
		}
		if s.TruePositives+s.FalseNegatives > 0 {
			s.Recall = float64(s.TruePositives) / float64(s.TruePositives+s.FalseNegatives)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
