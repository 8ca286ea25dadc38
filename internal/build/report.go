package build

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReportFile is the name of the build report written to the destination.
const ReportFile = "report.json"

// Report summarises a build.
type Report struct {
	Env        string           `json:"env"`
	StartedAt  time.Time        `json:"started_at"`
	DurationMS float64          `json:"duration_ms"`
	Status     BuildStatus      `json:"status"`
	Templates  []TemplateReport `json:"templates"`
}

// TemplateReport describes one rendered template.
type TemplateReport struct {
	Source            string  `json:"source"`
	Output            string  `json:"output,omitempty"`
	SourceFingerprint string  `json:"source_fingerprint,omitempty"`
	OutputFingerprint string  `json:"output_fingerprint,omitempty"`
	Bytes             int     `json:"bytes"`
	DurationMS        float64 `json:"duration_ms"`
	Warning           string  `json:"warning,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// WriteReport writes r as indented JSON to dir/report.json.
func WriteReport(dir string, r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return WriteOutput(dir, ReportFile, string(data)+"\n")
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
