// Package pipeline implements the reactive query pipeline: a raw stream of
// typed search terms in, a stream of search-state snapshots out.
//
// The pipeline applies, in order: deduplication of consecutive equal terms,
// a debounce window, and switch-latest dispatch — each debounced term starts
// a new provider call and cancels the previous one, so the output never
// regresses to a superseded term's outcome regardless of relative provider
// latency. Provider failures are contained per attempt and surface only as
// HasError snapshots; the output stream itself never fails.
//
// All temporal logic runs on a single dispatcher goroutine (Run). Provider
// calls run on short-lived worker goroutines and report back to the
// dispatcher; a generation counter identifies the live search, and results
// tagged with a stale generation are discarded.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/runger/typeahead/internal/provider"
	"github.com/runger/typeahead/internal/snapshot"
)

const (
	// DefaultDebounce is the quiet period a term must survive before it
	// triggers a provider call.
	DefaultDebounce = 250 * time.Millisecond

	// DefaultLimit is the default max hits requested per search.
	DefaultLimit = 20

	// eventBuffer bounds the raw input channel. Keystrokes beyond the
	// buffer block the producer briefly; the dispatcher drains fast since
	// dedupe and timer restarts are cheap.
	eventBuffer = 64
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.debounce = d
		}
	}
}

// WithLimit overrides the per-search hit limit.
func WithLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pipeline transforms a stream of raw search terms into a stream of
// snapshots. Create one with New, start it with Run, feed terms via Push,
// and consume Snapshots.
type Pipeline struct {
	provider provider.Provider
	debounce time.Duration
	limit    int
	logger   *slog.Logger

	events chan string
	out    chan snapshot.Snapshot

	mu   sync.Mutex
	last snapshot.Snapshot
}

// searchDone is the worker goroutine's report back to the dispatcher.
type searchDone struct {
	gen  uint64
	hits []snapshot.Hit
	err  error
}

// New creates a pipeline over the given provider. The pipeline is inert
// until Run is called, but Last already returns the seed snapshot so a
// subscriber can render synchronously before any emission.
func New(p provider.Provider, opts ...Option) *Pipeline {
	pl := &Pipeline{
		provider: p,
		debounce: DefaultDebounce,
		limit:    DefaultLimit,
		logger:   slog.Default(),
		events:   make(chan string, eventBuffer),
		out:      make(chan snapshot.Snapshot, 1),
		last:     snapshot.Initial(),
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// Push feeds one raw text event into the pipeline. Safe to call from any
// goroutine. Values may repeat and arrive at any rate; dedupe and debounce
// happen inside the dispatcher.
func (p *Pipeline) Push(term string) {
	p.events <- term
}

// Events exposes the input stream directly for callers that already have
// a channel-based producer. Closing it is equivalent to Close.
func (p *Pipeline) Events() chan<- string {
	return p.events
}

// Close completes the input stream. The dispatcher finishes its current
// work and closes the output stream.
func (p *Pipeline) Close() {
	close(p.events)
}

// Snapshots returns the output stream. The first value is the seed
// snapshot; the channel closes when the input closes or Run's context is
// cancelled.
func (p *Pipeline) Snapshots() <-chan snapshot.Snapshot {
	return p.out
}

// Last returns the most recently emitted snapshot, or the seed if nothing
// has been emitted yet. Safe to call from any goroutine.
func (p *Pipeline) Last() snapshot.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Run drives the pipeline until ctx is cancelled or the input stream is
// closed. It is the single dispatcher: every stage (dedupe, debounce,
// switch-latest, emission) runs here, so no stage state needs locking.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.out)

	p.emit(ctx, snapshot.Initial())

	var (
		lastSeen string // most recent raw event, for dedupe
		seen     bool
		pending  string // term waiting out the debounce window

		timer  *time.Timer
		timerC <-chan time.Time

		gen          uint64 // generation id of the live search
		cancelSearch context.CancelFunc
	)
	// Capacity 1 so a worker whose result lost the race can still hand it
	// off and exit; the dispatcher discards it by generation.
	results := make(chan searchDone, 1)

	defer func() {
		if cancelSearch != nil {
			cancelSearch()
		}
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case term, ok := <-p.events:
			if !ok {
				return
			}
			if seen && term == lastSeen {
				continue // consecutive duplicate, no state change
			}
			lastSeen, seen = term, true
			pending = term
			if timer == nil {
				timer = time.NewTimer(p.debounce)
			} else {
				if !timer.Stop() && timerC != nil {
					<-timer.C // fired but unread; drain before Reset
				}
				timer.Reset(p.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			gen++
			if cancelSearch != nil {
				cancelSearch()
				cancelSearch = nil
			}
			if pending == "" {
				// Cleared input: no provider call, straight to the
				// no-term result.
				p.emit(ctx, snapshot.WithResult(snapshot.NoTerm()))
				continue
			}
			p.emit(ctx, snapshot.Loading())
			sctx, cancel := context.WithCancel(ctx)
			cancelSearch = cancel
			go p.runSearch(sctx, gen, pending, results)

		case done := <-results:
			if done.gen != gen {
				continue // superseded search; outcome must never surface
			}
			if cancelSearch != nil {
				cancelSearch()
				cancelSearch = nil
			}
			if done.err != nil {
				p.logger.Warn("search failed", "gen", done.gen, "error", done.err)
				p.emit(ctx, snapshot.Failed())
				continue
			}
			p.emit(ctx, snapshot.WithResult(snapshot.FromHits(done.hits)))
		}
	}
}

// runSearch executes one provider call on a worker goroutine and reports
// the outcome tagged with its generation. If the search was superseded and
// the dispatcher has moved on, the send is abandoned via ctx.
func (p *Pipeline) runSearch(ctx context.Context, gen uint64, term string, results chan<- searchDone) {
	resp, err := p.provider.Search(ctx, provider.Request{
		RequestID: gen,
		Query:     term,
		Limit:     p.limit,
	})
	select {
	case results <- searchDone{gen: gen, hits: resp.Hits, err: err}:
	case <-ctx.Done():
	}
}

// emit records the snapshot as Last and pushes it downstream.
func (p *Pipeline) emit(ctx context.Context, s snapshot.Snapshot) {
	p.mu.Lock()
	p.last = s
	p.mu.Unlock()

	select {
	case p.out <- s:
	case <-ctx.Done():
	}
}
