package reporter

import (
	"encoding/json"
	"io"

	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
)

// JSON implements ports.Reporter with a single machine-readable document on stdout.
type JSON struct {
	stdout io.Writer
}

// NewJSON creates a JSON reporter.
func NewJSON(stdout io.Writer) *JSON {
	return &JSON{stdout: stdout}
}

type foundEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type failedEntry struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type document struct {
	Found    []foundEntry  `json:"found"`
	NotFound []string      `json:"not_found"`
	Failed   []failedEntry `json:"failed"`
}

// Render writes the report as an indented JSON object. Empty partitions are empty arrays.
func (j *JSON) Render(report *domain.Report) error {
	doc := document{
		Found:    []foundEntry{},
		NotFound: []string{},
		Failed:   []failedEntry{},
	}

	for _, o := range report.Found() {
		doc.Found = append(doc.Found, foundEntry{Name: o.Name.String(), Version: o.Version})
	}
	for _, n := range report.NotFound() {
		doc.NotFound = append(doc.NotFound, n.String())
	}
	for _, o := range report.Failed() {
		doc.Failed = append(doc.Failed, failedEntry{Name: o.Name.String(), Error: causeText(o.Cause)})
	}

	enc := json.NewEncoder(j.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

var _ ports.Reporter = (*JSON)(nil)
