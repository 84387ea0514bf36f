package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"time"

	"verax/internal/inquiry"
	"verax/internal/veracity/models"
)

//go:embed template.html
var inquiryTemplate string

var htmlTemplate = template.Must(template.New("inquiry").Parse(inquiryTemplate))

// DefaultHTMLPath is where the inquiry report lands unless overridden.
const DefaultHTMLPath = "verax-report.html"

// HTML writes inquiry results as a standalone HTML page.
type HTML struct {
	path string
}

// NewHTML creates an HTML reporter writing to path, or DefaultHTMLPath when
// path is empty.
func NewHTML(path string) *HTML {
	if path == "" {
		path = DefaultHTMLPath
	}
	return &HTML{path: path}
}

// Path returns where the report is written.
func (h *HTML) Path() string {
	return h.path
}

type htmlReport struct {
	GeneratedAt            string
	Coverage               string
	Total                  int
	WithProvenance         int
	WithReproducibility    int
	ProvenancePercent      string
	ReproducibilityPercent string
	Rows                   []htmlRow
}

type htmlRow struct {
	Purl                    string
	Status                  string
	Class                   string
	ProvenanceEvidence      string
	ReproducibilityEvidence string
}

// Inquiry renders the results and writes the report file.
func (h *HTML) Inquiry(results inquiry.Results) error {
	view := htmlReport{
		GeneratedAt:            time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		Coverage:               string(results.Coverage),
		Total:                  results.TotalInquired,
		WithProvenance:         results.WithProvenance,
		WithReproducibility:    results.WithReproducibility,
		ProvenancePercent:      fmt.Sprintf("%.1f", results.PresenceOfProvenance),
		ReproducibilityPercent: fmt.Sprintf("%.1f", results.PresenceOfReproducibility),
	}
	for _, outcome := range results.Outcomes {
		view.Rows = append(view.Rows, newHTMLRow(outcome))
	}

	out, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := htmlTemplate.Execute(out, view); err != nil {
		out.Close()
		return fmt.Errorf("render report: %w", err)
	}
	return out.Close()
}

func newHTMLRow(outcome models.Outcome) htmlRow {
	row := htmlRow{Purl: outcome.Package.Purl()}
	if outcome.Failed() {
		row.Status = "analysis failed"
		row.Class = "failed"
		return row
	}

	level := outcome.Checks.Level()
	row.Status = level.String()
	switch level.Rank() {
	case 2:
		row.Class = "full"
	case 1:
		row.Class = "partial"
	default:
		row.Class = "none"
	}
	row.ProvenanceEvidence = outcome.Checks.ProvenanceEvidence
	row.ReproducibilityEvidence = outcome.Checks.ReproducibilityEvidence
	return row
}
