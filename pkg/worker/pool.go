// Package worker provides an asynchronous worker pool that persists completed
// chat exchanges to the configured storage.Driver and publishes them to the
// configured eventstream.Publisher.
//
// The pool keeps both side effects off the request path: a slow database or
// broker never delays a reply, and a failure there never touches a session's
// history.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/eventstream"
	"github.com/papercomputeco/wikiart/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Exchange chat.Exchange
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the optional transcript store.
	Driver storage.Driver

	// Publisher is the optional event stream.
	Publisher eventstream.Publisher

	// Provider names the generation provider in published events.
	Provider string

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes exchange side effects asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards closed so Enqueue never sends on a closed queue
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil && c.Publisher == nil {
		return nil, errors.New("worker pool needs a storage driver or an event publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Observe enqueues a completed exchange. It satisfies chat.Observer.
func (p *Pool) Observe(_ context.Context, ex chat.Exchange) {
	p.Enqueue(Job{Exchange: ex})
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("job not queued, pool closed", "session", job.Exchange.SessionID)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "session", job.Exchange.SessionID, "seq", job.Exchange.Question.Seq)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "session", job.Exchange.SessionID)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob stores the exchange and publishes its event. Either side effect
// failing is logged and does not stop the other.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	ex := job.Exchange

	if p.config.Driver != nil {
		if err := p.config.Driver.Append(ctx, toEntry(ex)); err != nil {
			p.logger.Error("storing exchange failed", "session", ex.SessionID, "error", err)
		} else {
			p.logger.Debug("exchange stored", "session", ex.SessionID, "seq", ex.Question.Seq)
		}
	}

	if p.config.Publisher != nil {
		event := eventstream.NewExchangeEvent(
			eventstream.EventSource{Service: "wikiart", Provider: p.config.Provider, Model: ex.Model},
			toEventBody(ex),
		)
		if err := p.config.Publisher.PublishExchange(ctx, event); err != nil {
			p.logger.Error("publishing exchange failed", "session", ex.SessionID, "error", err)
		}
	}
}

func toEntry(ex chat.Exchange) *storage.Entry {
	sources := make([]storage.Source, 0, len(ex.Sources))
	for _, r := range ex.Sources {
		sources = append(sources, storage.Source{ID: r.Artwork.ID, Label: r.Artwork.Label(), Score: r.Score})
	}

	return &storage.Entry{
		SessionID:  ex.SessionID,
		Seq:        ex.Question.Seq,
		Question:   ex.Question.Text,
		Answer:     ex.Answer.Text,
		Model:      ex.Model,
		Sources:    sources,
		Attempts:   ex.Attempts,
		DurationMs: ex.Duration.Milliseconds(),
		CreatedAt:  askedAt(ex),
	}
}

func toEventBody(ex chat.Exchange) eventstream.ExchangeBody {
	refs := make([]eventstream.ArtworkRef, 0, len(ex.Sources))
	for _, r := range ex.Sources {
		refs = append(refs, eventstream.ArtworkRef{ID: r.Artwork.ID, Label: r.Artwork.Label(), Score: r.Score, Rank: r.Rank})
	}

	return eventstream.ExchangeBody{
		SessionID:   ex.SessionID,
		QuestionSeq: ex.Question.Seq,
		Question:    ex.Question.Text,
		Answer:      ex.Answer.Text,
		Sources:     refs,
		Attempts:    ex.Attempts,
		DurationMs:  ex.Duration.Milliseconds(),
		AskedAt:     askedAt(ex),
	}
}

func askedAt(ex chat.Exchange) time.Time {
	if ex.Question.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return ex.Question.CreatedAt
}

var _ chat.Observer = (*Pool)(nil)
