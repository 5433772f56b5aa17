// Package refresher keeps stored Etsy tokens alive by trading their refresh
// tokens for new access tokens before they expire.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/donaldgifford/etsy-v3/internal/metrics"
	"github.com/donaldgifford/etsy-v3/internal/notify"
	"github.com/donaldgifford/etsy-v3/internal/store"
	"github.com/donaldgifford/etsy-v3/pkg/etsy"
)

const (
	instrumentation = "github.com/donaldgifford/etsy-v3/internal/refresher"

	defaultBuffer = 20 * time.Minute
	sweepLimit    = 1000

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)

// Summary reports what a sweep did.
type Summary struct {
	Checked   int
	Refreshed int
	Skipped   int
	Failed    int
}

// Refresher refreshes stored tokens through an etsy.Refresher and writes the
// results back to the store.
type Refresher struct {
	store   store.TokenStore
	tokens  etsy.Refresher
	buffer  time.Duration
	nowFunc func() time.Time
	log     *slog.Logger
	notify  notify.Notifier

	meter    metric.MeterProvider
	duration metric.Float64Histogram

	// One refresh per profile at a time. Etsy refresh tokens are single use.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithBuffer sets how long before expiry a token is refreshed.
func WithBuffer(d time.Duration) Option {
	return func(r *Refresher) {
		r.buffer = d
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(r *Refresher) {
		r.nowFunc = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Refresher) {
		r.log = l
	}
}

// WithNotifier sends an alert after each sweep that had failures.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Refresher) {
		r.notify = n
	}
}

// WithMeterProvider records run durations through mp instead of the global
// provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *Refresher) {
		r.meter = mp
	}
}

// New creates a Refresher.
func New(s store.TokenStore, tokens etsy.Refresher, opts ...Option) (*Refresher, error) {
	r := &Refresher{
		store:   s,
		tokens:  tokens,
		buffer:  defaultBuffer,
		nowFunc: time.Now,
		log:     slog.New(slog.DiscardHandler),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.meter == nil {
		r.meter = otel.GetMeterProvider()
	}

	h, err := r.meter.Meter(instrumentation).Float64Histogram(
		"etsy.refresher.run.duration",
		metric.WithDescription("Duration of a refresh sweep over stored tokens."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run duration histogram: %w", err)
	}
	r.duration = h

	return r, nil
}

// RunOnce refreshes every stored token that expires within the buffer.
// Per-profile failures are counted and joined into the returned error; the
// sweep carries on past them.
func (r *Refresher) RunOnce(ctx context.Context) (Summary, error) {
	began := time.Now()
	now := r.nowFunc()
	var sum Summary

	defer func() {
		r.duration.Record(ctx, time.Since(began).Seconds(),
			metric.WithAttributes(attribute.Bool("failed", sum.Failed > 0)),
		)
	}()

	records, err := r.store.List(ctx, &store.TokenQuery{Limit: sweepLimit, OrderBy: "expiry"})
	if err != nil {
		return sum, fmt.Errorf("listing stored tokens: %w", err)
	}
	metrics.StoredTokens.Set(float64(len(records)))

	var (
		errs     []error
		failures []notify.RefreshFailure
	)
	for i := range records {
		rec := &records[i]
		sum.Checked++

		if !rec.ExpiresWithin(now, r.buffer) {
			r.observeExpiry(rec)
			continue
		}

		refreshed, err := r.refreshIfDue(ctx, rec, now)
		switch {
		case errors.Is(err, etsy.ErrMissingRefreshToken):
			sum.Skipped++
			metrics.TokenRefreshesTotal.WithLabelValues(outcomeSkipped).Inc()
			r.log.Warn("token expiring without refresh token", "profile", rec.Profile)
		case err != nil:
			sum.Failed++
			errs = append(errs, err)
			failures = append(failures, failureOf(rec, err))
		case refreshed:
			sum.Refreshed++
		}
	}

	if len(failures) > 0 && r.notify != nil {
		if err := r.notify.NotifyRefreshFailures(ctx, failures); err != nil {
			r.log.Warn("sending refresh failure notification", "error", err)
		}
	}

	r.log.Info("refresh sweep complete",
		"checked", sum.Checked,
		"refreshed", sum.Refreshed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)

	return sum, errors.Join(errs...)
}

// RefreshProfile refreshes one profile now regardless of its expiry.
func (r *Refresher) RefreshProfile(ctx context.Context, profile string) (*store.Record, error) {
	unlock := r.lock(profile)
	defer unlock()

	rec, err := r.store.Get(ctx, profile)
	if err != nil {
		return nil, err
	}
	if rec.Token.RefreshToken == "" {
		return nil, fmt.Errorf("profile %q: %w", profile, etsy.ErrMissingRefreshToken)
	}
	return r.refresh(ctx, rec)
}

// refreshIfDue re-reads the listed profile under its lock and refreshes it
// only if the stored token is still due. It returns false without error when
// another caller refreshed the profile first or it was deleted.
func (r *Refresher) refreshIfDue(ctx context.Context, listed *store.Record, now time.Time) (bool, error) {
	if listed.Token.RefreshToken == "" {
		return false, etsy.ErrMissingRefreshToken
	}

	unlock := r.lock(listed.Profile)
	defer unlock()

	rec, err := r.store.Get(ctx, listed.Profile)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading profile %q: %w", listed.Profile, err)
	}
	if !rec.ExpiresWithin(now, r.buffer) {
		r.observeExpiry(rec)
		return false, nil
	}
	if rec.Token.RefreshToken == "" {
		return false, etsy.ErrMissingRefreshToken
	}

	if _, err := r.refresh(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Refresher) lock(profile string) func() {
	r.mu.Lock()
	l, ok := r.locks[profile]
	if !ok {
		l = &sync.Mutex{}
		r.locks[profile] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (r *Refresher) refresh(ctx context.Context, rec *store.Record) (*store.Record, error) {
	next, err := r.tokens.RefreshToken(ctx, rec.Token.RefreshToken)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(outcomeFailure).Inc()
		r.log.Error("refreshing token failed", "profile", rec.Profile, "error", err)
		return nil, fmt.Errorf("refreshing profile %q: %w", rec.Profile, err)
	}
	if next.RefreshToken == "" {
		next.RefreshToken = rec.Token.RefreshToken
	}

	updated := &store.Record{Profile: rec.Profile, Token: *next}
	if err := r.store.Save(ctx, updated); err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(outcomeFailure).Inc()
		r.log.Error("saving refreshed token failed", "profile", rec.Profile, "error", err)
		return nil, fmt.Errorf("saving profile %q: %w", rec.Profile, err)
	}

	metrics.TokenRefreshesTotal.WithLabelValues(outcomeSuccess).Inc()
	r.observeExpiry(updated)
	r.log.Info("token refreshed", "profile", rec.Profile, "token", next)

	return updated, nil
}

func (*Refresher) observeExpiry(rec *store.Record) {
	if rec.Token.Expiry.IsZero() {
		return
	}
	metrics.TokenExpirySeconds.WithLabelValues(rec.Profile).Set(float64(rec.Token.Expiry.Unix()))
}

// failureOf describes a failed refresh. invalid_grant means the refresh token
// was revoked or has expired and the profile must log in again.
func failureOf(rec *store.Record, err error) notify.RefreshFailure {
	var authErr *etsy.AuthenticationError
	return notify.RefreshFailure{
		Profile: rec.Profile,
		UserID:  rec.Token.UserID(),
		Expiry:  rec.Token.Expiry,
		Error:   err.Error(),
		Reauth:  errors.As(err, &authErr) && authErr.Code == "invalid_grant",
	}
}
