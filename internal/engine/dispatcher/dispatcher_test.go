package dispatcher_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/getver/internal/adapters/registry"
	"go.trai.ch/getver/internal/adapters/telemetry"
	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
	"go.trai.ch/getver/internal/core/ports/mocks"
	"go.trai.ch/getver/internal/engine/dispatcher"
	"go.uber.org/mock/gomock"
	"pgregory.net/rapid"
)

// fakeRegistry answers from a fixed table and tracks how many lookups overlap.
type fakeRegistry struct {
	versions map[domain.PackageName]string
	failures map[domain.PackageName]error
	delay    time.Duration

	mu       sync.Mutex
	calls    map[domain.PackageName]int
	inFlight int
	maxSeen  int
}

func newFakeRegistry(versions map[domain.PackageName]string) *fakeRegistry {
	return &fakeRegistry{
		versions: versions,
		failures: map[domain.PackageName]error{},
		calls:    map[domain.PackageName]int{},
	}
}

func (f *fakeRegistry) Lookup(_ context.Context, name domain.PackageName) domain.Outcome {
	f.mu.Lock()
	f.calls[name]++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if err, ok := f.failures[name]; ok {
		return domain.Failed(name, err)
	}
	if v, ok := f.versions[name]; ok {
		return domain.Found(name, v)
	}
	return domain.NotFound(name)
}

func (f *fakeRegistry) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return log
}

func newDispatcher(t *testing.T, reg *fakeRegistry) *dispatcher.Dispatcher {
	t.Helper()
	ctrl := gomock.NewController(t)
	return dispatcher.New(reg, telemetry.NewNoOpTracer(), quietLogger(ctrl))
}

func TestDispatch_AllFound(t *testing.T) {
	reg := newFakeRegistry(map[domain.PackageName]string{"serde": "1.0.200", "tokio": "1.38.0"})
	d := newDispatcher(t, reg)

	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"serde", "tokio"}), 0)
	require.NoError(t, err)

	assert.Equal(t, []domain.Outcome{
		domain.Found("serde", "1.0.200"),
		domain.Found("tokio", "1.38.0"),
	}, report.Found())
	assert.Empty(t, report.NotFound())
	assert.Empty(t, report.Failed())
	assert.True(t, report.AllFound())
}

func TestDispatch_DuplicatesLookedUpOnce(t *testing.T) {
	reg := newFakeRegistry(map[domain.PackageName]string{"serde": "1.0.200"})
	d := newDispatcher(t, reg)

	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"serde", "serde", "serde"}), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Len())
	assert.Equal(t, 1, reg.totalCalls())
}

func TestDispatch_NotFound(t *testing.T) {
	reg := newFakeRegistry(nil)
	d := newDispatcher(t, reg)

	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"definitely-not-a-crate-xyz"}), 0)
	require.NoError(t, err)

	assert.Empty(t, report.Found())
	assert.Equal(t, []domain.PackageName{"definitely-not-a-crate-xyz"}, report.NotFound())
	assert.Empty(t, report.Failed())
}

func TestDispatch_Mixed(t *testing.T) {
	reg := newFakeRegistry(map[domain.PackageName]string{"serde": "1.0.200"})
	d := newDispatcher(t, reg)

	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"serde", "nonexistent-abc"}), 0)
	require.NoError(t, err)

	assert.Equal(t, []domain.Outcome{domain.Found("serde", "1.0.200")}, report.Found())
	assert.Equal(t, []domain.PackageName{"nonexistent-abc"}, report.NotFound())
}

func TestDispatch_FailureIsolated(t *testing.T) {
	reg := newFakeRegistry(map[domain.PackageName]string{"a": "1.0.0", "b": "2.0.0", "c": "3.0.0"})
	reg.failures["b"] = errors.New("connection reset")
	d := newDispatcher(t, reg)

	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"a", "b", "c"}), 0)
	require.NoError(t, err)

	assert.Equal(t, []domain.Outcome{
		domain.Found("a", "1.0.0"),
		domain.Found("c", "3.0.0"),
	}, report.Found())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, domain.PackageName("b"), report.Failed()[0].Name)
	assert.EqualError(t, report.Failed()[0].Cause, "connection reset")
	assert.Equal(t, 3, reg.totalCalls())
}

func TestDispatch_TimeoutAndNotFoundOverHTTP(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/crates/left-pad":
			select {
			case <-r.Context().Done():
			case <-release:
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	cfg := domain.DefaultConfig()
	cfg.Registry = srv.URL
	cfg.Timeout = 50 * time.Millisecond
	client, err := registry.NewClient(cfg)
	require.NoError(t, err)

	d := dispatcher.New(client, telemetry.NewNoOpTracer(), quietLogger(gomock.NewController(t)))
	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"left-pad", "zzz-nonexistent-pkg"}), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Len())
	assert.Empty(t, report.Found())
	assert.Equal(t, []domain.PackageName{"zzz-nonexistent-pkg"}, report.NotFound())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, domain.PackageName("left-pad"), report.Failed()[0].Name)
	assert.Contains(t, report.Failed()[0].Cause.Error(), domain.ErrRegistryRequestFailed.Error())
}

func TestDispatch_PanicIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := mocks.NewMockRegistry(ctrl)
	reg.EXPECT().Lookup(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, name domain.PackageName) domain.Outcome {
		if name == "boom" {
			panic("registry exploded")
		}
		return domain.Found(name, "1.0.0")
	}).Times(3)

	d := dispatcher.New(reg, telemetry.NewNoOpTracer(), quietLogger(ctrl))

	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"a", "boom", "c"}), 2)
	require.NoError(t, err)

	assert.Len(t, report.Found(), 2)
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, domain.PackageName("boom"), report.Failed()[0].Name)
	assert.Contains(t, report.Failed()[0].Cause.Error(), domain.ErrLookupPanicked.Error())
}

func TestDispatch_ReportKeyedByRequestedName(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := mocks.NewMockRegistry(ctrl)
	reg.EXPECT().Lookup(gomock.Any(), domain.PackageName("serde-json")).
		Return(domain.Found("serde_json", "1.0.0"))

	d := dispatcher.New(reg, telemetry.NewNoOpTracer(), quietLogger(ctrl))

	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"serde-json"}), 0)
	require.NoError(t, err)

	assert.Equal(t, []domain.Outcome{domain.Found("serde-json", "1.0.0")}, report.Found())
}

func TestDispatch_EmptyBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := mocks.NewMockRegistry(ctrl)
	d := dispatcher.New(reg, telemetry.NewNoOpTracer(), mocks.NewMockLogger(ctrl))

	report, err := d.Dispatch(context.Background(), domain.NewBatch(nil), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Len())
	require.NoError(t, report.Complete())
}

func TestDispatch_InvalidConcurrency(t *testing.T) {
	d := newDispatcher(t, newFakeRegistry(nil))

	_, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"serde"}), -2)

	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrInvalidConcurrency.Error())
}

func TestDispatch_RespectsConcurrencyLimit(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		names := make([]string, 20)
		for i := range names {
			names[i] = fmt.Sprintf("crate-%02d", i)
		}

		reg := newFakeRegistry(nil)
		reg.delay = 100 * time.Millisecond
		d := newDispatcher(t, reg)

		report, err := d.Dispatch(context.Background(), domain.NewBatch(names), 3)
		require.NoError(t, err)

		assert.Equal(t, 20, report.Len())
		assert.Equal(t, 3, reg.maxSeen)
	})
}

func TestDispatch_DefaultLimit(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		names := make([]string, 30)
		for i := range names {
			names[i] = fmt.Sprintf("crate-%02d", i)
		}

		reg := newFakeRegistry(nil)
		reg.delay = 100 * time.Millisecond
		d := newDispatcher(t, reg)

		_, err := d.Dispatch(context.Background(), domain.NewBatch(names), 0)
		require.NoError(t, err)

		assert.Equal(t, domain.DefaultConcurrency, reg.maxSeen)
	})
}

func TestDispatch_Unbounded(t *testing.T) {
	const n = 25

	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("crate-%02d", i)
	}

	// Every lookup blocks until all of them have started, which only
	// completes if nothing caps the fan-out.
	var started atomic.Int32
	allStarted := make(chan struct{})

	ctrl := gomock.NewController(t)
	reg := mocks.NewMockRegistry(ctrl)
	reg.EXPECT().Lookup(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, name domain.PackageName) domain.Outcome {
		if started.Add(1) == n {
			close(allStarted)
		}
		select {
		case <-allStarted:
			return domain.Found(name, "1.0.0")
		case <-time.After(5 * time.Second):
			return domain.Failed(name, errors.New("fan-out was capped"))
		}
	}).Times(n)

	d := dispatcher.New(reg, telemetry.NewNoOpTracer(), quietLogger(ctrl))

	report, err := d.Dispatch(context.Background(), domain.NewBatch(names), domain.Unbounded)
	require.NoError(t, err)

	assert.Len(t, report.Found(), n)
}

func TestDispatch_Idempotent(t *testing.T) {
	reg := newFakeRegistry(map[domain.PackageName]string{"serde": "1.0.200", "tokio": "1.38.0"})
	d := newDispatcher(t, reg)
	batch := domain.NewBatch([]string{"tokio", "missing", "serde"})

	first, err := d.Dispatch(context.Background(), batch, 0)
	require.NoError(t, err)
	second, err := d.Dispatch(context.Background(), batch, 1)
	require.NoError(t, err)

	assert.Equal(t, first.Outcomes(), second.Outcomes())
}

func TestDispatch_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reg := newFakeRegistry(map[domain.PackageName]string{"serde": "1.0.200"})
	reg.failures["rand"] = errors.New("timeout")

	ctrl := gomock.NewController(t)
	d := dispatcher.New(reg, telemetry.NewOTelTracer(tp.Tracer("test")), quietLogger(ctrl))

	_, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"serde", "rand", "gone"}), 0)
	require.NoError(t, err)

	spans := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		spans[s.Name()] = s
	}
	require.Len(t, spans, 4)
	require.Contains(t, spans, "dispatch")

	attrs := func(name string) map[attribute.Key]attribute.Value {
		m := map[attribute.Key]attribute.Value{}
		for _, kv := range spans[name].Attributes() {
			m[kv.Key] = kv.Value
		}
		return m
	}

	serde := attrs("lookup serde")
	assert.Equal(t, "serde", serde["package.name"].AsString())
	assert.Equal(t, "found", serde["lookup.outcome"].AsString())
	assert.Equal(t, "1.0.200", serde["package.version"].AsString())

	assert.Equal(t, "not_found", attrs("lookup gone")["lookup.outcome"].AsString())
	assert.Equal(t, "failed", attrs("lookup rand")["lookup.outcome"].AsString())
	assert.Equal(t, "timeout", spans["lookup rand"].Status().Description)

	dispatchID := spans["dispatch"].SpanContext().SpanID()
	assert.Equal(t, dispatchID, spans["lookup serde"].Parent().SpanID())
}

func TestDispatch_SpanLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	dispatchSpan := mocks.NewMockSpan(ctrl)
	lookupSpan := mocks.NewMockSpan(ctrl)
	cause := errors.New("tls handshake timeout")

	reg := newFakeRegistry(nil)
	reg.failures["rand"] = cause

	tracer.EXPECT().Start(gomock.Any(), "dispatch").
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, dispatchSpan
		})
	dispatchSpan.EXPECT().SetAttribute("batch.size", 1)
	dispatchSpan.EXPECT().SetAttribute("dispatch.limit", domain.DefaultConcurrency)
	dispatchSpan.EXPECT().End()

	tracer.EXPECT().Start(gomock.Any(), "lookup rand").
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, lookupSpan
		})
	gomock.InOrder(
		lookupSpan.EXPECT().SetAttribute("package.name", "rand"),
		lookupSpan.EXPECT().SetAttribute("lookup.outcome", "failed"),
		lookupSpan.EXPECT().RecordError(cause),
		lookupSpan.EXPECT().End(),
	)

	d := dispatcher.New(reg, tracer, quietLogger(ctrl))

	report, err := d.Dispatch(context.Background(), domain.NewBatch([]string{"rand"}), 0)
	require.NoError(t, err)
	assert.Len(t, report.Failed(), 1)
}

func TestLimit(t *testing.T) {
	tests := []struct {
		in      int
		want    int
		wantErr bool
	}{
		{in: 0, want: domain.DefaultConcurrency},
		{in: 1, want: 1},
		{in: 64, want: 64},
		{in: domain.Unbounded, want: -1},
		{in: -2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			got, err := dispatcher.Limit(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProperty_ReportComplete(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		pool := []string{"serde", "tokio", "rand", "anyhow", "clap", "gone", "broken", "x"}
		names := rapid.SliceOf(rapid.SampledFrom(pool)).Draw(r, "names")
		concurrency := rapid.SampledFrom([]int{domain.Unbounded, 0, 1, 2, 5}).Draw(r, "concurrency")

		reg := newFakeRegistry(map[domain.PackageName]string{
			"serde": "1.0.200", "tokio": "1.38.0", "rand": "0.8.5", "anyhow": "1.0.86", "clap": "4.5.4",
		})
		reg.failures["broken"] = errors.New("503")

		ctrl := gomock.NewController(r)
		d := dispatcher.New(reg, telemetry.NewNoOpTracer(), quietLogger(ctrl))

		batch := domain.NewBatch(names)
		report, err := d.Dispatch(context.Background(), batch, concurrency)
		if err != nil {
			r.Fatalf("dispatch: %v", err)
		}

		if report.Len() != batch.Len() {
			r.Fatalf("report has %d outcomes for %d names", report.Len(), batch.Len())
		}
		if reg.totalCalls() != batch.Len() {
			r.Fatalf("%d lookups for %d distinct names", reg.totalCalls(), batch.Len())
		}
		parts := len(report.Found()) + len(report.NotFound()) + len(report.Failed())
		if parts != batch.Len() {
			r.Fatalf("partitions cover %d of %d names", parts, batch.Len())
		}
		for _, name := range batch.Names() {
			if _, ok := report.Get(name); !ok {
				r.Fatalf("missing outcome for %q", name)
			}
		}
	})
}
