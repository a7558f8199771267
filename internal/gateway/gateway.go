//go:generate mockgen -destination=mocks/mock_stores.go -package=mocks github.com/agbru/fibserve/internal/gateway HistoryStore,ResultCache

// Package gateway implements the request gateway: it validates incoming
// Fibonacci indices, records them durably, seeds the result cache with a
// pending placeholder, and notifies the compute workers.
package gateway

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/fibserve/internal/cache"
	apperrors "github.com/agbru/fibserve/internal/errors"
	"github.com/agbru/fibserve/internal/history"
	"github.com/agbru/fibserve/internal/logging"
)

// HistoryStore is the history contract the gateway depends on. Declared
// locally (and aliased to the history package's interface) so mocks can be
// generated against the gateway's own dependency surface.
type HistoryStore = history.Store

// ResultCache is the cache contract the gateway depends on.
type ResultCache = cache.Store

// Gateway accepts index submissions and exposes read access over the two
// stores. It holds no mutable in-process state: all state lives in the
// injected stores, so concurrent submissions need no gateway-side locking.
type Gateway struct {
	history  HistoryStore
	cache    ResultCache
	maxIndex uint64
	topic    string
	logger   logging.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures a Gateway during construction.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l logging.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithTopic overrides the pub/sub topic used for notifications.
func WithTopic(topic string) Option {
	return func(g *Gateway) { g.topic = topic }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a Gateway over the given stores. maxIndex is the inclusive
// upper bound on accepted indices.
//
// Parameters:
//   - historyStore: The durable request log.
//   - resultCache: The result cache and notification channel.
//   - maxIndex: The inclusive cap on accepted indices.
//   - opts: Optional configuration.
//
// Returns:
//   - *Gateway: The configured gateway.
func New(historyStore HistoryStore, resultCache ResultCache, maxIndex uint64, opts ...Option) *Gateway {
	g := &Gateway{
		history:  historyStore,
		cache:    resultCache,
		maxIndex: maxIndex,
		topic:    cache.DefaultTopic,
		logger:   logging.Nop{},
		tracer:   otel.Tracer("github.com/agbru/fibserve/internal/gateway"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit validates and accepts a request for fib(index).
//
// On acceptance the side effects are applied in a fixed order: history
// append, then pending placeholder write, then notification publish. The
// placeholder write must happen before the publish, otherwise a fast worker
// could store its result only to have a late placeholder overwrite it.
//
// Re-requesting an index is idempotent with respect to the cache: an already
// computed value is never reset to pending (the placeholder uses SetIfAbsent).
// Each accepted request still appends its own history record, duplicates
// included.
//
// Parameters:
//   - ctx: The request context.
//   - index: The requested Fibonacci index. Negative values are rejected.
//
// Returns:
//   - error: nil on acceptance; a ValidationError for out-of-range input; a
//     StoreError when a backing store is unavailable.
func (g *Gateway) Submit(ctx context.Context, index int64) error {
	ctx, span := g.tracer.Start(ctx, "gateway.Submit",
		trace.WithAttributes(attribute.Int64("fib.index", index)))
	defer span.End()

	if err := g.validate(index); err != nil {
		span.SetStatus(codes.Error, "invalid index")
		return err
	}
	n := uint64(index)

	if err := g.history.Append(ctx, history.IndexRecord{Number: n}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history append failed")
		return apperrors.NewStoreError("history", err)
	}

	key := cache.Key(n)
	seeded, err := g.cache.SetIfAbsent(ctx, key, cache.Pending(g.now()))
	if err != nil {
		// The history record remains: evidence the request was accepted, and
		// never a claim that a value exists.
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache seed failed")
		return apperrors.NewStoreError("cache", err)
	}

	if err := g.cache.Publish(ctx, g.topic, cache.Notification{Index: n}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return apperrors.NewStoreError("cache", err)
	}

	g.logger.Info("submission accepted",
		logging.Uint64("index", n),
		logging.Field{Key: "seeded", Value: seeded})
	return nil
}

// validate checks the index against the accepted range.
func (g *Gateway) validate(index int64) error {
	if index < 0 {
		return apperrors.NewValidationError("index", "must be non-negative, got %d", index)
	}
	if uint64(index) > g.maxIndex {
		return apperrors.NewValidationError("index", "must not exceed %d, got %d", g.maxIndex, index)
	}
	return nil
}

// MaxIndex returns the inclusive cap on accepted indices.
func (g *Gateway) MaxIndex() uint64 { return g.maxIndex }

// ListHistory returns every accepted index in submission order.
//
// Returns:
//   - []history.IndexRecord: The ordered records.
//   - error: A StoreError when the history store is unavailable.
func (g *Gateway) ListHistory(ctx context.Context) ([]history.IndexRecord, error) {
	records, err := g.history.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("history", err)
	}
	return records, nil
}

// ListResults returns the current cache contents keyed by stringified index.
//
// Returns:
//   - map[string]cache.Entry: Pending and computed entries.
//   - error: A StoreError when the cache is unavailable.
func (g *Gateway) ListResults(ctx context.Context) (map[string]cache.Entry, error) {
	entries, err := g.cache.All(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("cache", err)
	}
	return entries, nil
}
