package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/bayesnet/internal/bayes"
	"github.com/gyaneshwarpardhi/bayesnet/internal/config"
	"github.com/gyaneshwarpardhi/bayesnet/internal/inference"
	"github.com/gyaneshwarpardhi/bayesnet/internal/metrics"
	"github.com/gyaneshwarpardhi/bayesnet/internal/query"
)

var (
	ErrQueueFull    = errors.New("query queue full")
	ErrTimeout      = errors.New("query timed out")
	ErrInvalidQuery = errors.New("invalid query")
)

// Recorder persists processed queries.
type Recorder interface {
	Record(ctx context.Context, q *query.Query, res *query.Result) error
}

// active pairs a network with its sampler so both are swapped together.
type active struct {
	net     *bayes.Network
	sampler *inference.Sampler
}

// Engine answers queries against the active network.
type Engine struct {
	current  atomic.Pointer[active]
	pool     *workerPool[*queryWork]
	conf     *config.EngineConf
	recorder Recorder
}

type queryWork struct {
	ctx     context.Context
	q       *query.Query
	resultC chan queryOutcome
}

type queryOutcome struct {
	res *query.Result
	err error
}

// New creates an Engine using conf and starts the query pool.
// rec may be nil, in which case nothing is recorded.
func New(ctx context.Context, net *bayes.Network, conf config.EngineConf, rec Recorder) *Engine {
	e := &Engine{
		conf:     &conf,
		recorder: rec,
	}
	e.SwapNetwork(net)

	e.pool = newWorkerPool(ctx, conf.QueryWorkers, conf.QueueDepth, func(_ context.Context, w *queryWork) {
		if err := w.ctx.Err(); err != nil {
			w.resultC <- queryOutcome{err: fmt.Errorf("%w: expired while queued", ErrTimeout)}
			return
		}
		res, err := e.Evaluate(w.ctx, w.q)
		w.resultC <- queryOutcome{res: res, err: err}
	})
	return e
}

// SwapNetwork atomically replaces the active network (used on hot-reload).
// Queries already running finish against the network they started with.
func (e *Engine) SwapNetwork(net *bayes.Network) {
	e.current.Store(&active{net: net, sampler: inference.NewSampler(net)})
	metrics.NetworkNodes.Set(float64(net.Len()))
	metrics.NetworkSwaps.Inc()
}

// Network returns the active network.
func (e *Engine) Network() *bayes.Network {
	return e.current.Load().net
}

// Infer queues q, waits for it and returns the result.
// Returns ErrQueueFull if the queue is full and ErrTimeout if the query
// does not finish within the configured timeout.
func (e *Engine) Infer(ctx context.Context, q *query.Query) (*query.Result, error) {
	timeout := time.Duration(e.conf.QueryTimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	w := &queryWork{ctx: ctx, q: q, resultC: make(chan queryOutcome, 1)}
	if !e.pool.Submit(w) {
		metrics.QueriesDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}
	metrics.QueriesEnqueued.Inc()

	select {
	case out := <-w.resultC:
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}

// Evaluate runs q on the calling goroutine.
//
// Evidence values are parsed with bayes.ParseState and are not checked against
// the node's domain: a value no trace can produce simply yields an empty
// distribution. Unknown node names fail with an error wrapping bayes.ErrNodeNotFound.
func (e *Engine) Evaluate(ctx context.Context, q *query.Query) (*query.Result, error) {
	start := time.Now()
	cur := e.current.Load()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	algName := q.Algorithm
	if algName == "" {
		algName = e.conf.DefaultAlgorithm
	}
	alg, err := inference.ParseAlgorithm(algName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	samples := q.Samples
	if samples == 0 {
		samples = e.conf.DefaultSamples
	}
	if samples < 0 || (e.conf.MaxSamples > 0 && samples > e.conf.MaxSamples) {
		return nil, fmt.Errorf("%w: samples must be in [1, %d], got %d", ErrInvalidQuery, e.conf.MaxSamples, samples)
	}
	if len(q.Targets) == 0 {
		return nil, fmt.Errorf("%w: at least one target is required", ErrInvalidQuery)
	}

	ev, err := resolveEvidence(cur.net, q.Evidence)
	if err != nil {
		return nil, err
	}
	targets := make([]bayes.NodeID, len(q.Targets))
	for i, name := range q.Targets {
		id, ok := cur.net.IDFromName(name)
		if !ok {
			return nil, fmt.Errorf("target: %w: %q", bayes.ErrNodeNotFound, name)
		}
		targets[i] = id
	}

	opts := inference.Options{
		Samples:     samples,
		MaxAttempts: e.conf.MaxAttemptFactor * samples,
		Workers:     e.conf.SamplerWorkers,
		Seed:        q.Seed,
	}

	out := &query.Result{
		QueryID:   q.ID,
		Algorithm: string(alg),
		Samples:   samples,
		Results:   make([]query.TargetResult, 0, len(targets)),
	}
	for i, id := range targets {
		res, err := cur.sampler.Infer(ctx, alg, ev, id, opts)
		if err != nil {
			metrics.QueriesProcessed.WithLabelValues(string(alg), "error").Inc()
			slog.Warn("query failed", "query_id", q.ID, "target", q.Targets[i], "err", err)
			return nil, fmt.Errorf("target %s: %w", q.Targets[i], err)
		}
		metrics.SamplesAccepted.WithLabelValues(string(alg)).Add(float64(res.Accepted))
		metrics.SamplesRejected.WithLabelValues(string(alg)).Add(float64(res.Rejected))
		if res.Empty() {
			metrics.EmptyDistributions.WithLabelValues(q.Targets[i]).Inc()
			slog.Debug("no information obtainable for target",
				"query_id", q.ID, "target", q.Targets[i], "attempts", res.Attempts)
		}
		out.Results = append(out.Results, toTargetResult(q.Targets[i], res))
	}

	out.DurationMs = time.Since(start).Milliseconds()
	metrics.QueriesProcessed.WithLabelValues(string(alg), "success").Inc()
	metrics.QueryDuration.Observe(float64(out.DurationMs))

	if e.recorder != nil {
		if err := e.recorder.Record(context.WithoutCancel(ctx), q, out); err != nil {
			slog.Warn("failed to record diagnosis", "query_id", q.ID, "err", err)
		}
	}
	return out, nil
}

func resolveEvidence(net *bayes.Network, raw map[string]string) (inference.Evidence, error) {
	ev := make(inference.Evidence, len(raw))
	for name, value := range raw {
		id, ok := net.IDFromName(name)
		if !ok {
			return nil, fmt.Errorf("evidence: %w: %q", bayes.ErrNodeNotFound, name)
		}
		ev[id] = bayes.ParseState(value)
	}
	return ev, nil
}

func toTargetResult(name string, res *inference.Result) query.TargetResult {
	return query.TargetResult{
		Target:       name,
		Distribution: res.Distribution.Labels(),
		Empty:        res.Empty(),
		Partial:      res.Partial,
		Accepted:     res.Accepted,
		Rejected:     res.Rejected,
		TotalWeight:  res.TotalWeight,
	}
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the query pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
