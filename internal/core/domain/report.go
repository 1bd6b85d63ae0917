package domain

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

// Report collects exactly one Outcome per Batch member.
// Add is safe for concurrent use; the read accessors are meant for use after
// every lookup has completed.
type Report struct {
	batch Batch

	mu       sync.Mutex
	outcomes map[PackageName]Outcome
}

// NewReport creates an empty report for the given batch.
func NewReport(batch Batch) *Report {
	return &Report{
		batch:    batch,
		outcomes: make(map[PackageName]Outcome, batch.Len()),
	}
}

// Add records an outcome. It rejects names outside the batch and a second
// outcome for a name that already has one.
func (r *Report) Add(o Outcome) error {
	if !r.batch.Contains(o.Name) {
		return zerr.With(ErrOutcomeNotInBatch, "package", o.Name.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.outcomes[o.Name]; exists {
		return zerr.With(ErrDuplicateOutcome, "package", o.Name.String())
	}
	r.outcomes[o.Name] = o
	return nil
}

// Complete returns an error naming every batch member without an outcome.
func (r *Report) Complete() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var missing []string
	for _, name := range r.batch.Names() {
		if _, ok := r.outcomes[name]; !ok {
			missing = append(missing, name.String())
		}
	}
	if len(missing) > 0 {
		return zerr.With(ErrIncompleteReport, "missing", strings.Join(missing, ","))
	}
	return nil
}

// Len returns the number of recorded outcomes.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Get returns the outcome recorded for name.
func (r *Report) Get(name PackageName) (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[name]
	return o, ok
}

// Outcomes returns every outcome sorted by package name.
func (r *Report) Outcomes() []Outcome {
	return r.filter(func(Outcome) bool { return true })
}

// Found returns the found outcomes sorted by package name.
func (r *Report) Found() []Outcome {
	return r.filter(func(o Outcome) bool { return o.Kind == KindFound })
}

// NotFound returns the names the registry does not know, sorted.
func (r *Report) NotFound() []PackageName {
	outcomes := r.filter(func(o Outcome) bool { return o.Kind == KindNotFound })
	names := make([]PackageName, 0, len(outcomes))
	for _, o := range outcomes {
		names = append(names, o.Name)
	}
	return names
}

// Failed returns the failed outcomes sorted by package name.
func (r *Report) Failed() []Outcome {
	return r.filter(func(o Outcome) bool { return o.Kind == KindFailed })
}

// AllFound reports whether every recorded outcome is KindFound.
func (r *Report) AllFound() bool {
	return len(r.Found()) == r.Len()
}

func (r *Report) filter(keep func(Outcome) bool) []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Outcome, 0, len(r.outcomes))
	for _, o := range r.outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b Outcome) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
