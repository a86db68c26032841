package report

import (
	"encoding/json"
	"io"
	"sync"

	"primesum/internal/driver"
	"primesum/internal/registry"
)

// JSONLines writes one JSON object per base, then one summary object.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines returns a reporter encoding to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

type recordLine struct {
	Type string `json:"type"`
	driver.Record
}

type summaryLine struct {
	Type                string          `json:"type"`
	RunID               string          `json:"run_id"`
	Policy              registry.Policy `json:"policy"`
	BasesTested         int             `json:"bases_tested"`
	BasesWithViolations int             `json:"bases_with_violations"`
	TotalViolations     int             `json:"total_violations"`
	ElapsedSeconds      float64         `json:"elapsed_seconds"`
	Completed           bool            `json:"completed"`
}

func (j *JSONLines) Report(rec driver.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(recordLine{Type: "base", Record: rec})
}

func (j *JSONLines) Summary(s driver.Summary) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(summaryLine{
		Type:                "summary",
		RunID:               s.RunID,
		Policy:              s.Policy,
		BasesTested:         s.BasesTested,
		BasesWithViolations: s.BasesWithViolations,
		TotalViolations:     s.TotalViolations,
		ElapsedSeconds:      s.Elapsed.Seconds(),
		Completed:           s.Completed,
	})
}
