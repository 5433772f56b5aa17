package refresher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/donaldgifford/etsy-v3/internal/metrics"
	"github.com/donaldgifford/etsy-v3/internal/notify"
	"github.com/donaldgifford/etsy-v3/internal/store"
	storeMocks "github.com/donaldgifford/etsy-v3/internal/store/mocks"
	"github.com/donaldgifford/etsy-v3/pkg/etsy"
	etsyMocks "github.com/donaldgifford/etsy-v3/pkg/etsy/mocks"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func record(profile, refresh string, expiry time.Time) store.Record {
	return store.Record{
		Profile: profile,
		Token: etsy.Token{
			AccessToken:  "12345678.old-" + profile,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			Expiry:       expiry,
		},
	}
}

// expectGet serves rec when the refresher re-reads it before refreshing.
func expectGet(ms *storeMocks.MockTokenStore, rec store.Record) {
	ms.EXPECT().Get(mock.Anything, rec.Profile).Return(&rec, nil).Once()
}

func newTestRefresher(
	t *testing.T,
	ms *storeMocks.MockTokenStore,
	mr *etsyMocks.MockRefresher,
	opts ...Option,
) *Refresher {
	t.Helper()
	opts = append([]Option{
		WithBuffer(10 * time.Minute),
		WithNowFunc(func() time.Time { return fixedNow }),
		WithLogger(quietLogger()),
	}, opts...)
	r, err := New(ms, mr, opts...)
	require.NoError(t, err)
	return r
}

func TestRunOnce_RefreshesOnlyExpiringTokens(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockTokenStore(t)
	mr := etsyMocks.NewMockRefresher(t)

	expired := record("expired", "r-expired", fixedNow.Add(-time.Minute))
	soon := record("soon", "r-soon", fixedNow.Add(5*time.Minute))

	ms.EXPECT().
		List(mock.Anything, mock.MatchedBy(func(q *store.TokenQuery) bool {
			return q.OrderBy == "expiry" && q.ExpiringBefore == nil
		})).
		Return([]store.Record{
			expired,
			soon,
			record("fresh", "r-fresh", fixedNow.Add(time.Hour)),
			record("forever", "r-forever", time.Time{}),
		}, nil).
		Once()
	expectGet(ms, expired)
	expectGet(ms, soon)

	for _, p := range []string{"expired", "soon"} {
		mr.EXPECT().
			RefreshToken(mock.Anything, "r-"+p).
			Return(&etsy.Token{
				AccessToken:  "12345678.new-" + p,
				RefreshToken: "r-" + p + "-2",
				Expiry:       fixedNow.Add(time.Hour),
			}, nil).
			Once()
		ms.EXPECT().
			Save(mock.Anything, mock.MatchedBy(func(r *store.Record) bool {
				return r.Profile == p && r.Token.AccessToken == "12345678.new-"+p
			})).
			Return(nil).
			Once()
	}

	r := newTestRefresher(t, ms, mr)
	sum, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Checked: 4, Refreshed: 2}, sum)
}

func TestRunOnce_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockTokenStore(t)
	mr := etsyMocks.NewMockRefresher(t)

	rec := record("p", "r-keep", fixedNow)
	ms.EXPECT().List(mock.Anything, mock.Anything).
		Return([]store.Record{rec}, nil).Once()
	expectGet(ms, rec)
	mr.EXPECT().RefreshToken(mock.Anything, "r-keep").
		Return(&etsy.Token{AccessToken: "12345678.new"}, nil).Once()

	var saved *store.Record
	ms.EXPECT().Save(mock.Anything, mock.Anything).
		Run(func(_ context.Context, r *store.Record) { saved = r }).
		Return(nil).Once()

	r := newTestRefresher(t, ms, mr)
	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Equal(t, "r-keep", saved.Token.RefreshToken)
}

func TestRunOnce_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockTokenStore(t)
	mr := etsyMocks.NewMockRefresher(t)

	authErr := &etsy.AuthenticationError{StatusCode: 400, Code: "invalid_grant"}
	saveErr := errors.New("disk full")

	listed := []store.Record{
		record("a-revoked", "r-a", fixedNow),
		record("b-nosave", "r-b", fixedNow),
		record("c-norefresh", "", fixedNow),
		record("d-ok", "r-d", fixedNow),
	}
	ms.EXPECT().List(mock.Anything, mock.Anything).Return(listed, nil).Once()
	for _, rec := range []store.Record{listed[0], listed[1], listed[3]} {
		expectGet(ms, rec)
	}

	mr.EXPECT().RefreshToken(mock.Anything, "r-a").Return(nil, authErr).Once()
	mr.EXPECT().RefreshToken(mock.Anything, "r-b").
		Return(&etsy.Token{AccessToken: "12345678.b"}, nil).Once()
	mr.EXPECT().RefreshToken(mock.Anything, "r-d").
		Return(&etsy.Token{AccessToken: "12345678.d"}, nil).Once()

	ms.EXPECT().Save(mock.Anything, mock.MatchedBy(func(r *store.Record) bool {
		return r.Profile == "b-nosave"
	})).Return(saveErr).Once()
	ms.EXPECT().Save(mock.Anything, mock.MatchedBy(func(r *store.Record) bool {
		return r.Profile == "d-ok"
	})).Return(nil).Once()

	r := newTestRefresher(t, ms, mr)
	sum, err := r.RunOnce(context.Background())

	require.Error(t, err)
	assert.Equal(t, Summary{Checked: 4, Refreshed: 1, Skipped: 1, Failed: 2}, sum)

	var gotAuth *etsy.AuthenticationError
	require.ErrorAs(t, err, &gotAuth)
	assert.Equal(t, "invalid_grant", gotAuth.Code)
	require.ErrorIs(t, err, saveErr)
	assert.Contains(t, err.Error(), `profile "a-revoked"`)
}

type recordingNotifier struct {
	got [][]notify.RefreshFailure
	err error
}

func (n *recordingNotifier) NotifyRefreshFailures(_ context.Context, f []notify.RefreshFailure) error {
	n.got = append(n.got, f)
	return n.err
}

func TestRunOnce_NotifiesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		notifyErr error
	}{
		{name: "delivered"},
		{name: "delivery error does not fail the sweep", notifyErr: errors.New("webhook down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := storeMocks.NewMockTokenStore(t)
			mr := etsyMocks.NewMockRefresher(t)

			listed := []store.Record{
				record("revoked", "r-a", fixedNow),
				record("flaky", "r-b", fixedNow),
			}
			ms.EXPECT().List(mock.Anything, mock.Anything).Return(listed, nil).Once()
			expectGet(ms, listed[0])
			expectGet(ms, listed[1])
			mr.EXPECT().RefreshToken(mock.Anything, "r-a").
				Return(nil, &etsy.AuthenticationError{StatusCode: 400, Code: "invalid_grant"}).Once()
			mr.EXPECT().RefreshToken(mock.Anything, "r-b").
				Return(nil, errors.New("connection reset")).Once()

			n := &recordingNotifier{err: tt.notifyErr}
			r := newTestRefresher(t, ms, mr, WithNotifier(n))

			sum, err := r.RunOnce(context.Background())
			require.Error(t, err)
			assert.NotContains(t, err.Error(), "webhook down")
			assert.Equal(t, 2, sum.Failed)

			require.Len(t, n.got, 1)
			require.Len(t, n.got[0], 2)
			assert.Equal(t, "revoked", n.got[0][0].Profile)
			assert.Equal(t, "12345678", n.got[0][0].UserID)
			assert.True(t, n.got[0][0].Reauth)
			assert.Equal(t, "flaky", n.got[0][1].Profile)
			assert.False(t, n.got[0][1].Reauth)
			assert.Contains(t, n.got[0][1].Error, "connection reset")
		})
	}
}

func TestRunOnce_NoNotificationWithoutFailures(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockTokenStore(t)
	mr := etsyMocks.NewMockRefresher(t)
	ms.EXPECT().List(mock.Anything, mock.Anything).
		Return([]store.Record{record("fresh", "r", fixedNow.Add(time.Hour))}, nil).Once()

	n := &recordingNotifier{}
	r := newTestRefresher(t, ms, mr, WithNotifier(n))

	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, n.got)
}

func TestRunOnce_ListError(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockTokenStore(t)
	mr := etsyMocks.NewMockRefresher(t)

	ms.EXPECT().List(mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()

	r := newTestRefresher(t, ms, mr)
	_, err := r.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing stored tokens")
}

func TestRunOnce_RecordsDuration(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	ms := storeMocks.NewMockTokenStore(t)
	mr := etsyMocks.NewMockRefresher(t)
	ms.EXPECT().List(mock.Anything, mock.Anything).Return(nil, nil).Once()

	r := newTestRefresher(t, ms, mr, WithMeterProvider(mp))
	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "etsy.refresher.run.duration", m.Name)
	assert.Equal(t, "s", m.Unit)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	// The injected clock is months away from the wall clock.
	assert.Less(t, hist.DataPoints[0].Sum, 60.0)
}

func TestRunOnce_UpdatesGauges(t *testing.T) {
	ms := storeMocks.NewMockTokenStore(t)
	mr := etsyMocks.NewMockRefresher(t)

	expiry := fixedNow.Add(2 * time.Hour)
	ms.EXPECT().List(mock.Anything, mock.Anything).
		Return([]store.Record{
			record("gauge-a", "r", expiry),
			record("gauge-b", "r", expiry),
		}, nil).Once()

	r := newTestRefresher(t, ms, mr)
	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 2, ptestutil.ToFloat64(metrics.StoredTokens), 0)
	assert.InDelta(t, float64(expiry.Unix()),
		ptestutil.ToFloat64(metrics.TokenExpirySeconds.WithLabelValues("gauge-a")), 0)
}

func TestRefreshProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(*storeMocks.MockTokenStore, *etsyMocks.MockRefresher)
		wantErr error
	}{
		{
			name: "refreshes regardless of expiry",
			setup: func(ms *storeMocks.MockTokenStore, mr *etsyMocks.MockRefresher) {
				rec := record("p", "r-p", fixedNow.Add(24*time.Hour))
				ms.EXPECT().Get(mock.Anything, "p").Return(&rec, nil).Once()
				mr.EXPECT().RefreshToken(mock.Anything, "r-p").
					Return(&etsy.Token{AccessToken: "12345678.new", RefreshToken: "r-p2"}, nil).Once()
				ms.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "unknown profile",
			setup: func(ms *storeMocks.MockTokenStore, _ *etsyMocks.MockRefresher) {
				ms.EXPECT().Get(mock.Anything, "p").Return(nil, store.ErrNotFound).Once()
			},
			wantErr: store.ErrNotFound,
		},
		{
			name: "no refresh token",
			setup: func(ms *storeMocks.MockTokenStore, _ *etsyMocks.MockRefresher) {
				rec := record("p", "", fixedNow)
				ms.EXPECT().Get(mock.Anything, "p").Return(&rec, nil).Once()
			},
			wantErr: etsy.ErrMissingRefreshToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := storeMocks.NewMockTokenStore(t)
			mr := etsyMocks.NewMockRefresher(t)
			tt.setup(ms, mr)

			r := newTestRefresher(t, ms, mr)
			rec, err := r.RefreshProfile(context.Background(), "p")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "12345678.new", rec.Token.AccessToken)
			assert.Equal(t, "r-p2", rec.Token.RefreshToken)
		})
	}
}

func TestRunOnce_WithFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := store.NewFileStore(t.TempDir() + "/tokens.json")
	due := record("due", "r-due", fixedNow.Add(time.Minute))
	require.NoError(t, fs.Save(ctx, &due))

	mr := etsyMocks.NewMockRefresher(t)
	mr.EXPECT().RefreshToken(mock.Anything, "r-due").
		Return(&etsy.Token{AccessToken: "12345678.renewed", Expiry: fixedNow.Add(time.Hour)}, nil).Once()

	r, err := New(fs, mr,
		WithNowFunc(func() time.Time { return fixedNow }),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	sum, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Refreshed)

	got, err := fs.Get(ctx, "due")
	require.NoError(t, err)
	assert.Equal(t, "12345678.renewed", got.Token.AccessToken)
	assert.Equal(t, "r-due", got.Token.RefreshToken)
}

// singleUseRefresher accepts each refresh token once and rotates it, the way
// Etsy does.
type singleUseRefresher struct {
	mu     sync.Mutex
	valid  map[string]bool
	issued int
}

func newSingleUseRefresher(initial string) *singleUseRefresher {
	return &singleUseRefresher{valid: map[string]bool{initial: true}}
}

func (f *singleUseRefresher) RefreshToken(_ context.Context, refresh string) (*etsy.Token, error) {
	time.Sleep(20 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.valid[refresh] {
		return nil, &etsy.AuthenticationError{StatusCode: 400, Code: "invalid_grant"}
	}
	delete(f.valid, refresh)
	f.issued++
	next := fmt.Sprintf("r-%d", f.issued)
	f.valid[next] = true
	return &etsy.Token{
		AccessToken:  fmt.Sprintf("12345678.a-%d", f.issued),
		RefreshToken: next,
		Expiry:       fixedNow.Add(time.Hour),
	}, nil
}

func (f *singleUseRefresher) accepts(refresh string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid[refresh]
}

func TestRefresher_ConcurrentSweepAndRefreshProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := store.NewFileStore(t.TempDir() + "/tokens.json")
	due := record("p", "r-0", fixedNow.Add(time.Minute))
	require.NoError(t, fs.Save(ctx, &due))

	fake := newSingleUseRefresher("r-0")
	r, err := New(fs, fake,
		WithNowFunc(func() time.Time { return fixedNow }),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		sum      Summary
		sweepErr error
		apiErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sum, sweepErr = r.RunOnce(ctx)
	}()
	go func() {
		defer wg.Done()
		_, apiErr = r.RefreshProfile(ctx, "p")
	}()
	wg.Wait()

	require.NoError(t, sweepErr)
	require.NoError(t, apiErr)
	assert.Zero(t, sum.Failed)

	got, err := fs.Get(ctx, "p")
	require.NoError(t, err)
	assert.True(t, fake.accepts(got.Token.RefreshToken),
		"stored refresh token %q should be the latest one issued", got.Token.RefreshToken)
}

func TestRefresher_ConcurrentRefreshProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := store.NewFileStore(t.TempDir() + "/tokens.json")
	rec := record("p", "r-0", fixedNow.Add(time.Hour))
	require.NoError(t, fs.Save(ctx, &rec))

	fake := newSingleUseRefresher("r-0")
	r, err := New(fs, fake, WithLogger(quietLogger()))
	require.NoError(t, err)

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = r.RefreshProfile(ctx, "p")
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}

	got, err := fs.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("r-%d", callers), got.Token.RefreshToken)
	assert.True(t, fake.accepts(got.Token.RefreshToken))
}

func TestRunOnce_SkipsProfileRefreshedSinceListing(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockTokenStore(t)
	mr := etsyMocks.NewMockRefresher(t)

	stale := record("p", "r-old", fixedNow)
	ms.EXPECT().List(mock.Anything, mock.Anything).Return([]store.Record{stale}, nil).Once()
	expectGet(ms, record("p", "r-new", fixedNow.Add(time.Hour)))

	r := newTestRefresher(t, ms, mr)
	sum, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 1}, sum)
}
