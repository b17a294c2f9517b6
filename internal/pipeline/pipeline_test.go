package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/observability"
	"github.com/couchcryptid/store-locator/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.BatchMessage
	err     error
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.BatchMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.GeocodeResult
	fails  int
}

func (m *mockLoader) LoadBatch(_ context.Context, results []domain.GeocodeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, results...)
	return nil
}

func (m *mockLoader) results() []domain.GeocodeResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.GeocodeResult(nil), m.loaded...)
}

// stubGeocoder matches any query containing "Le Van Sy".
type stubGeocoder struct {
	calls atomic.Int64
}

func (g *stubGeocoder) Geocode(_ context.Context, q string) (domain.GeoResolution, error) {
	g.calls.Add(1)
	if len(q) < 3 {
		return domain.GeoResolution{}, domain.InvalidInput("q must be at least 3 characters")
	}
	res := domain.GeoResolution{Query: q, Variants: []string{q}}
	if q == "236 Le Van Sy" {
		res.Provider = domain.ProviderNominatim
		res.Location = &domain.ResolvedLocation{Lat: 10.794, Lon: 106.667, Display: "236 Le Van Sy, Tan Binh"}
		res.Score = 1.15
		res.CandidatesCount = 1
	}
	return res, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func message(key, value string, committed *atomic.Int64) domain.BatchMessage {
	return domain.BatchMessage{
		Key:   []byte(key),
		Value: []byte(value),
		Topic: "geocode-requests",
		Commit: func(context.Context) error {
			committed.Add(1)
			return nil
		},
	}
}

func runUntil(t *testing.T, p *pipeline.Pipeline, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	require.Eventually(t, done, 4*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{batches: [][]domain.BatchMessage{{
		message("k1", `{"id":"req-1","query":"236 Le Van Sy"}`, &committed),
		message("k2", `{"id":"req-2","query":"nowhere at all"}`, &committed),
		message("k3", `{"query":"ab"}`, &committed),
	}}}
	ldr := &mockLoader{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	tfm := pipeline.NewTransformer(&stubGeocoder{}, clock, discardLogger())

	p := pipeline.New(ext, tfm, ldr, discardLogger(), newTestMetrics(), 50)
	runUntil(t, p, func() bool { return committed.Load() == 3 })

	got := ldr.results()
	require.Len(t, got, 3)

	want := []domain.GeocodeResult{
		{
			ID:    "req-1",
			Query: "236 Le Van Sy",
			Resolution: &domain.GeoResolution{
				Query:           "236 Le Van Sy",
				Provider:        domain.ProviderNominatim,
				Location:        &domain.ResolvedLocation{Lat: 10.794, Lon: 106.667, Display: "236 Le Van Sy, Tan Binh"},
				Score:           1.15,
				Variants:        []string{"236 Le Van Sy"},
				CandidatesCount: 1,
			},
			ProcessedAt: clock.Now(),
		},
		{
			ID:          "req-2",
			Query:       "nowhere at all",
			Resolution:  &domain.GeoResolution{Query: "nowhere at all", Variants: []string{"nowhere at all"}},
			ProcessedAt: clock.Now(),
		},
		{
			ID:          "k3",
			Query:       "ab",
			Error:       "invalid input: q must be at least 3 characters",
			ProcessedAt: clock.Now(),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"matched", "unmatched", "invalid"}, []string{got[0].Outcome(), got[1].Outcome(), got[2].Outcome()})
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no messages, will block
	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewTransformer(&stubGeocoder{}, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.results())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_UndecodableMessageSkipped(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{batches: [][]domain.BatchMessage{{
		message("bad", `{not json`, &committed),
		message("good", `"236 Le Van Sy"`, &committed),
	}}}
	ldr := &mockLoader{}
	geo := &stubGeocoder{}
	p := pipeline.New(ext, pipeline.NewTransformer(geo, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 50)

	runUntil(t, p, func() bool { return committed.Load() == 2 })

	got := ldr.results()
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].ID)
	assert.Equal(t, "matched", got[0].Outcome())
	assert.Equal(t, int64(1), geo.calls.Load())
}

func TestPipeline_Run_CommitsOnlyAfterLoad(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{batches: [][]domain.BatchMessage{
		{message("k1", `{"query":"236 Le Van Sy"}`, &committed)},
	}}
	ldr := &mockLoader{fails: 1}
	p := pipeline.New(ext, pipeline.NewTransformer(&stubGeocoder{}, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Empty(t, ldr.results())
	assert.Zero(t, committed.Load(), "failed publish must not commit")
}

func TestPipeline_Run_GeneratesMissingIDs(t *testing.T) {
	var committed atomic.Int64
	ext := &mockExtractor{batches: [][]domain.BatchMessage{{
		{Value: []byte(`{"query":"236 Le Van Sy"}`), Commit: func(context.Context) error { committed.Add(1); return nil }},
	}}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewTransformer(&stubGeocoder{}, nil, discardLogger()), ldr, discardLogger(), newTestMetrics(), 50)

	runUntil(t, p, func() bool { return committed.Load() == 1 })

	got := ldr.results()
	require.Len(t, got, 1)
	_, err := uuid.Parse(got[0].ID)
	assert.NoError(t, err, "generated id %q", got[0].ID)
}

func TestPipeline_ExtractErrorNotReady(t *testing.T) {
	ext := &mockExtractor{err: errors.New("dial tcp: connection refused")}
	p := pipeline.New(ext, pipeline.NewTransformer(&stubGeocoder{}, nil, discardLogger()), &mockLoader{}, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	err := p.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestGeocodeTransformer_PropagatesCancellation(t *testing.T) {
	tfm := pipeline.NewTransformer(cancelledGeocoder{}, nil, discardLogger())
	_, err := tfm.Transform(context.Background(), domain.BatchMessage{Value: []byte(`"12 Ly Tu Trong"`)})
	require.ErrorIs(t, err, context.Canceled)
}

type cancelledGeocoder struct{}

func (cancelledGeocoder) Geocode(context.Context, string) (domain.GeoResolution, error) {
	return domain.GeoResolution{}, context.Canceled
}

func TestGeocodeTransformer_ResultFields(t *testing.T) {
	tfm := pipeline.NewTransformer(&stubGeocoder{}, nil, discardLogger())
	got, err := tfm.Transform(context.Background(), domain.BatchMessage{Key: []byte("k"), Value: []byte(`236 Le Van Sy`)})
	require.NoError(t, err)

	want := domain.GeocodeResult{ID: "k", Query: "236 Le Van Sy"}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(domain.GeocodeResult{}, "Resolution", "ProcessedAt")); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got.ProcessedAt.IsZero())
}
