// Package dispatcher runs one registry lookup per package with a bounded number in flight.
package dispatcher

import (
	"context"
	"fmt"

	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Dispatcher fans a batch out over a registry and collects every outcome.
type Dispatcher struct {
	registry ports.Registry
	tracer   ports.Tracer
	logger   ports.Logger
}

// New creates a Dispatcher.
func New(registry ports.Registry, tracer ports.Tracer, log ports.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		tracer:   tracer,
		logger:   log,
	}
}

// Limit translates a configured concurrency into an errgroup limit.
// Zero means DefaultConcurrency and Unbounded means no limit.
func Limit(concurrency int) (int, error) {
	switch {
	case concurrency == 0:
		return domain.DefaultConcurrency, nil
	case concurrency == domain.Unbounded:
		return -1, nil
	case concurrency < 0:
		return 0, zerr.With(domain.ErrInvalidConcurrency, "concurrency", concurrency)
	default:
		return concurrency, nil
	}
}

// Dispatch looks up every name in batch and returns once all lookups have finished.
// The report holds exactly one outcome per name. A failing or panicking lookup
// only affects its own outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, batch domain.Batch, concurrency int) (*domain.Report, error) {
	limit, err := Limit(concurrency)
	if err != nil {
		return nil, err
	}

	report := domain.NewReport(batch)
	if batch.IsEmpty() {
		return report, nil
	}

	ctx, span := d.tracer.Start(ctx, "dispatch")
	defer span.End()
	span.SetAttribute("batch.size", batch.Len())
	span.SetAttribute("dispatch.limit", limit)

	d.logger.Debug(fmt.Sprintf("dispatching %d lookup(s), limit %s", batch.Len(), limitText(limit)))

	// Lookups never return errors to the group, so a failure cannot cancel siblings.
	var g errgroup.Group
	g.SetLimit(limit)

	for _, name := range batch.Names() {
		g.Go(func() error {
			return report.Add(d.lookup(ctx, name))
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := report.Complete(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return report, nil
}

// lookup runs a single registry call inside its own span.
func (d *Dispatcher) lookup(ctx context.Context, name domain.PackageName) (outcome domain.Outcome) {
	ctx, span := d.tracer.Start(ctx, "lookup "+name.String())
	defer span.End()
	span.SetAttribute("package.name", name.String())

	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Failed(name, zerr.With(domain.ErrLookupPanicked, "panic", fmt.Sprint(r)))
		}

		span.SetAttribute("lookup.outcome", string(outcome.Kind))
		switch outcome.Kind {
		case domain.KindFound:
			span.SetAttribute("package.version", outcome.Version)
			d.logger.Debug(fmt.Sprintf("%s: found %s", name, outcome.Version))
		case domain.KindNotFound:
			d.logger.Debug(fmt.Sprintf("%s: not found", name))
		case domain.KindFailed:
			span.RecordError(outcome.Cause)
			d.logger.Debug(fmt.Sprintf("%s: lookup failed", name))
		}
	}()

	d.logger.Debug(fmt.Sprintf("%s: looking up", name))

	outcome = d.registry.Lookup(ctx, name)
	if outcome.Name != name {
		// The report is keyed by the requested name.
		outcome.Name = name
	}

	return outcome
}

func limitText(limit int) string {
	if limit < 0 {
		return "unbounded"
	}
	return fmt.Sprint(limit)
}
