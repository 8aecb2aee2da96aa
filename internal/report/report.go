// Package report renders the status surfaces: a markdown summary for
// sharing and an HTML dashboard written alongside it.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pixelwatch/internal/domain"
	"pixelwatch/internal/storage/sqlite"
)

// Data is everything the status surfaces show, collected in one place so
// markdown and HTML render from the same snapshot.
type Data struct {
	GeneratedAt time.Time
	Metrics     domain.Metrics
	Categories  []sqlite.CategoryCount
	Reasons     []domain.ReasonStat
	Recent      []domain.Detection
	Patterns    domain.PatternReport
}

// RenderMarkdown builds the shareable status summary.
func RenderMarkdown(d Data) string {
	var b strings.Builder

	b.WriteString("# Pixel Ticket Detection Status\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", d.GeneratedAt.Format("2006-01-02 15:04"))

	b.WriteString("## Feedback\n\n")
	fb := d.Metrics.Feedback
	fmt.Fprintf(&b, "- Total feedback: %d (TP %d / FP %d / FN %d)\n",
		d.Metrics.TotalFeedback, fb.TruePositives, fb.FalsePositives, fb.FalseNegatives)
	fmt.Fprintf(&b, "- Precision: %.2f | Recall: %.2f | F1: %.2f\n\n", fb.Precision, fb.Recall, fb.F1)

	b.WriteString("## Model\n\n")
	if d.Metrics.ModelTrained {
		m := d.Metrics.Model
		fmt.Fprintf(&b, "- Version: %s (%d samples)\n", m.ModelVersion, m.TrainingSamples)
		fmt.Fprintf(&b, "- Held-out precision: %.2f | recall: %.2f | F1: %.2f\n\n", m.Precision, m.Recall, m.F1)
	} else {
		b.WriteString("- Not trained yet; detection runs on rules alone.\n\n")
	}

	if len(d.Categories) > 0 {
		b.WriteString("## Detections by category\n\n")
		for _, c := range d.Categories {
			fmt.Fprintf(&b, "- %s: %d\n", c.Category, c.Count)
		}
		b.WriteString("\n")
	}

	if len(d.Reasons) > 0 {
		b.WriteString("## Rule performance\n\n")
		b.WriteString("| Reason | TP | FP | FN | Precision | Recall |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, r := range d.Reasons {
			fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %.2f | %.2f |\n",
				r.Reason, r.TruePositives, r.FalsePositives, r.FalseNegatives, r.Precision, r.Recall)
		}
		b.WriteString("\n")
	}

	if d.Patterns.FalsePositiveCount > 0 || d.Patterns.FalseNegativeCount > 0 {
		b.WriteString("## Pattern suggestions\n\n")
		if len(d.Patterns.SuggestedExclusions) > 0 {
			fmt.Fprintf(&b, "- Exclusion candidates (from %d false positives): %s\n",
				d.Patterns.FalsePositiveCount, strings.Join(d.Patterns.SuggestedExclusions, ", "))
		}
		if len(d.Patterns.SuggestedKeywords) > 0 {
			fmt.Fprintf(&b, "- Keyword candidates (from %d false negatives): %s\n",
				d.Patterns.FalseNegativeCount, strings.Join(d.Patterns.SuggestedKeywords, ", "))
		}
		b.WriteString("\n")
	}

	if len(d.Recent) > 0 {
		b.WriteString("## Recent detections\n\n")
		for _, det := range d.Recent {
			verdict := "no"
			if det.Verdict {
				verdict = "yes"
			}
			fmt.Fprintf(&b, "- %s: %s (pixel=%s reason=`%s` conf=%.2f)\n",
				det.TicketKey, det.Summary, verdict, det.Reason, det.Confidence)
		}
	}

	return b.String()
}

// WriteStatusFiles writes the markdown report and HTML dashboard into
// outputDir and returns their paths.
func WriteStatusFiles(d Data, outputDir string) (string, string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", "", fmt.Errorf("creating report directory: %w", err)
	}

	stamp := d.GeneratedAt.Format("2006-01-02")
	mdPath := filepath.Join(outputDir, fmt.Sprintf("status-%s.md", stamp))
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(d)), 0644); err != nil {
		return "", "", fmt.Errorf("writing markdown report: %w", err)
	}

	htmlPath := filepath.Join(outputDir, "dashboard.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return mdPath, "", fmt.Errorf("writing dashboard: %w", err)
	}
	defer f.Close()
	if err := dashboardTmpl.Execute(f, d); err != nil {
		return mdPath, "", fmt.Errorf("rendering dashboard: %w", err)
	}

	return mdPath, htmlPath, nil
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"f2":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Pixel Ticket Detection</title>
<style>
body { font-family: -apple-system, Segoe UI, sans-serif; margin: 24px; color: #1f1f1f; }
h1 { font-size: 20px; }
h2 { font-size: 15px; margin-top: 28px; }
table { border-collapse: collapse; font-size: 13px; }
th, td { border: 1px solid #ddd; padding: 4px 10px; text-align: left; }
th { background: #f5f5f5; }
.muted { color: #777; font-size: 12px; }
.yes { color: #0a7a2f; font-weight: 600; }
.no { color: #a33; }
</style>
</head>
<body>
<h1>Pixel Ticket Detection</h1>
<p class="muted">Generated {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>

<h2>Feedback</h2>
<table>
<tr><th>Total</th><th>TP</th><th>FP</th><th>FN</th><th>Precision</th><th>Recall</th><th>F1</th></tr>
<tr>
<td>{{.Metrics.TotalFeedback}}</td>
<td>{{.Metrics.Feedback.TruePositives}}</td>
<td>{{.Metrics.Feedback.FalsePositives}}</td>
<td>{{.Metrics.Feedback.FalseNegatives}}</td>
<td>{{pct .Metrics.Feedback.Precision}}</td>
<td>{{pct .Metrics.Feedback.Recall}}</td>
<td>{{f2 .Metrics.Feedback.F1}}</td>
</tr>
</table>

<h2>Model</h2>
{{if .Metrics.ModelTrained}}
<table>
<tr><th>Version</th><th>Samples</th><th>Precision</th><th>Recall</th><th>F1</th></tr>
<tr>
<td>{{.Metrics.Model.ModelVersion}}</td>
<td>{{.Metrics.Model.TrainingSamples}}</td>
<td>{{pct .Metrics.Model.Precision}}</td>
<td>{{pct .Metrics.Model.Recall}}</td>
<td>{{f2 .Metrics.Model.F1}}</td>
</tr>
</table>
{{else}}
<p class="muted">Not trained yet; detection runs on rules alone.</p>
{{end}}

{{if .Categories}}
<h2>Detections by category</h2>
<table>
<tr><th>Category</th><th>Count</th></tr>
{{range .Categories}}<tr><td>{{.Category}}</td><td>{{.Count}}</td></tr>
{{end}}
</table>
{{end}}

{{if .Reasons}}
<h2>Rule performance</h2>
<table>
<tr><th>Reason</th><th>TP</th><th>FP</th><th>FN</th><th>Precision</th><th>Recall</th></tr>
{{range .Reasons}}<tr><td>{{.Reason}}</td><td>{{.TruePositives}}</td><td>{{.FalsePositives}}</td><td>{{.FalseNegatives}}</td><td>{{pct .Precision}}</td><td>{{pct .Recall}}</td></tr>
{{end}}
</table>
{{end}}

{{if .Recent}}
<h2>Recent detections</h2>
<table>
<tr><th>Ticket</th><th>Summary</th><th>Pixel</th><th>Reason</th><th>Confidence</th><th>When</th></tr>
{{range .Recent}}<tr>
<td>{{.TicketKey}}</td>
<td>{{.Summary}}</td>
<td>{{if .Verdict}}<span class="yes">yes</span>{{else}}<span class="no">no</span>{{end}}</td>
<td>{{.Reason}}</td>
<td>{{f2 .Confidence}}</td>
<td>{{.DetectedAt.Format "Jan 2 15:04"}}</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))
