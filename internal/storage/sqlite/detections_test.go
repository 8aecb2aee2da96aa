package sqlite

import (
	"testing"

	"pixelwatch/internal/domain"
)

func TestDetectionDedup(t *testing.T) {
	db := newTestDB(t)

	exists, err := DetectionExists(db, "PIX-1")
	if err != nil {
		t.Fatalf("DetectionExists failed: %v", err)
	}
	if exists {
		t.Fatal("unseen ticket reported as existing")
	}

	if err := InsertDetection(db, domain.Detection{
		TicketKey:  "PIX-1",
		Summary:    "Pixel not firing",
		Verdict:    true,
		Reason:     "high:pixel not firing",
		Confidence: 0.95,
		Method:     "rule_only",
		Category:   "troubleshooting",
	}); err != nil {
		t.Fatalf("InsertDetection failed: %v", err)
	}

	exists, err = DetectionExists(db, "PIX-1")
	if err != nil {
		t.Fatalf("DetectionExists after insert failed: %v", err)
	}
	if !exists {
		t.Fatal("inserted ticket not reported as existing")
	}
}

func TestRecentDetectionsOrderAndLimit(t *testing.T) {
	db := newTestDB(t)

	for i, key := range []string{"PIX-1", "PIX-2", "PIX-3"} {
		if err := InsertDetection(db, domain.Detection{
			TicketKey:  key,
			Verdict:    i%2 == 0,
			Confidence: 0.8,
		}); err != nil {
			t.Fatalf("InsertDetection %s failed: %v", key, err)
		}
	}

	recent, err := RecentDetections(db, 2)
	if err != nil {
		t.Fatalf("RecentDetections failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent rows = %d, want 2", len(recent))
	}
	if recent[0].TicketKey != "PIX-3" || recent[1].TicketKey != "PIX-2" {
		t.Fatalf("recent order wrong: %q then %q", recent[0].TicketKey, recent[1].TicketKey)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	db := newTestDB(t)

	detections := []domain.Detection{
		{TicketKey: "PIX-1", Verdict: true, Category: "implementation"},
		{TicketKey: "PIX-2", Verdict: true, Category: "implementation"},
		{TicketKey: "PIX-3", Verdict: true, Category: "validation"},
		{TicketKey: "PIX-4", Verdict: false, Category: ""},
	}
	for _, d := range detections {
		if err := InsertDetection(db, d); err != nil {
			t.Fatalf("InsertDetection %s failed: %v", d.TicketKey, err)
		}
	}

	breakdown, err := CategoryBreakdown(db)
	if err != nil {
		t.Fatalf("CategoryBreakdown failed: %v", err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("breakdown groups = %d, want 2", len(breakdown))
	}
	if breakdown[0].Category != "implementation" || breakdown[0].Count != 2 {
		t.Fatalf("top group = %+v, want implementation x2", breakdown[0])
	}
	if breakdown[1].Category != "validation" || breakdown[1].Count != 1 {
		t.Fatalf("second group = %+v, want validation x1", breakdown[1])
	}
}
