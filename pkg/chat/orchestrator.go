// Package chat runs retrieval-augmented conversations: it keeps each
// session's bounded history, assembles prompts from retrieved artworks and
// drives the generation service with per-attempt timeouts and bounded
// retries.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/metrics"
	"github.com/papercomputeco/wikiart/pkg/search"
)

// Searcher is the retrieval dependency, satisfied by *search.Retriever.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]search.Result, error)
}

// Exchange is one completed question and answer.
type Exchange struct {
	SessionID string
	Question  llm.Turn
	Answer    llm.Turn
	Sources   []search.Result

	// Model is empty when the reply did not come from the model.
	Model    string
	Attempts int
	Duration time.Duration
}

// Observer is told about every completed exchange. Observe runs on the
// request path and must not block.
type Observer interface {
	Observe(ctx context.Context, ex Exchange)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ex Exchange)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ex Exchange) { f(ctx, ex) }

// Config wires an Orchestrator.
type Config struct {
	Searcher  Searcher
	Generator llm.Generator

	// Model and Temperature are passed on every generation request.
	Model       string
	Temperature *float64

	// TopK is the number of artworks retrieved per question.
	TopK int

	// Timeout bounds each generation attempt.
	Timeout time.Duration

	// Retries is the number of extra attempts after the first.
	Retries int

	// RetryDelay is the base for exponential backoff between attempts.
	RetryDelay time.Duration

	Observers []Observer
	Logger    *slog.Logger
}

// Orchestrator answers user questions. It is safe for concurrent use across
// sessions.
type Orchestrator struct {
	cfg Config
	log *slog.Logger
}

// NewOrchestrator validates cfg and fills defaults.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Searcher == nil {
		return nil, errors.New("chat: searcher is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("chat: generator is required")
	}
	if cfg.TopK < 1 {
		return nil, fmt.Errorf("chat: %w", search.ErrInvalidTopK)
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("chat: timeout must be positive")
	}
	cfg.Retries = max(cfg.Retries, 0)

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{cfg: cfg, log: log}, nil
}

// Respond returns the assistant's reply to text. On any failure the
// session's history is left exactly as it was.
func (o *Orchestrator) Respond(ctx context.Context, s *Session, text string) (string, error) {
	ex, err := o.Exchange(ctx, s, text)
	if err != nil {
		return "", err
	}
	return ex.Answer.Text, nil
}

// Exchange is Respond with the retrieved sources and attempt details.
func (o *Orchestrator) Exchange(ctx context.Context, s *Session, text string) (*Exchange, error) {
	question := strings.TrimSpace(text)
	if question == "" {
		metrics.ChatExchangesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}

	if !s.acquire() {
		metrics.ChatExchangesTotal.WithLabelValues("busy").Inc()
		return nil, ErrSessionBusy
	}
	defer s.release()

	start := time.Now()
	log := o.log.With("session", s.ID)

	results, err := o.cfg.Searcher.Search(ctx, question, o.cfg.TopK)
	if err != nil {
		metrics.ChatExchangesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("retrieving artworks: %w", err)
	}

	ex := &Exchange{
		SessionID: s.ID,
		Question:  llm.Turn{Role: llm.RoleUser, Text: question},
		Sources:   results,
	}

	if len(results) == 0 {
		log.Info("no artworks matched", "question", question)
		ex.Answer = llm.Turn{Role: llm.RoleAssistant, Text: NoMatchesReply}
		o.commit(ctx, s, ex, start, "no_matches")
		return ex, nil
	}

	prompt := BuildPrompt(results, s.History(), question)

	resp, attempts, err := o.generate(ctx, log, prompt)
	ex.Attempts = attempts
	if err != nil {
		metrics.ChatExchangesTotal.WithLabelValues("failed").Inc()
		log.Error("generation failed", "attempts", attempts, "error", err)
		return nil, err
	}

	ex.Model = resp.Model
	ex.Answer = llm.Turn{Role: llm.RoleAssistant, Text: strings.TrimSpace(resp.Text)}
	o.commit(ctx, s, ex, start, "answered")
	return ex, nil
}

func (o *Orchestrator) commit(ctx context.Context, s *Session, ex *Exchange, start time.Time, outcome string) {
	s.history.Append(ex.Question, ex.Answer)

	turns := s.history.Turns()
	if n := len(turns); n >= 2 {
		ex.Question, ex.Answer = turns[n-2], turns[n-1]
	}
	ex.Duration = time.Since(start)

	metrics.ChatExchangesTotal.WithLabelValues(outcome).Inc()
	for _, obs := range o.cfg.Observers {
		obs.Observe(ctx, *ex)
	}
}

// generate runs up to 1+Retries sequential attempts, each under its own
// deadline. Only a fully successful attempt's response is returned.
func (o *Orchestrator) generate(ctx context.Context, log *slog.Logger, prompt string) (*llm.GenerateResponse, int, error) {
	req := llm.GenerateRequest{
		Model:       o.cfg.Model,
		Prompt:      prompt,
		Temperature: o.cfg.Temperature,
	}
	provider := o.cfg.Generator.Name()

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= o.cfg.Retries; attempt++ {
		if attempt > 0 {
			if !llm.IsRetryable(lastErr) {
				break
			}
			delay := Backoff(o.cfg.RetryDelay, attempt)
			log.Warn("retrying generation", "attempt", attempt+1, "delay", delay, "error", lastErr)

			select {
			case <-ctx.Done():
				return nil, attempts, fmt.Errorf("%w: %w", llm.ErrGeneration, ctx.Err())
			case <-time.After(delay):
			}
		}

		attempts++
		resp, err := o.attempt(ctx, req)
		metrics.GenerationRequestsTotal.WithLabelValues(provider, metrics.Status(err)).Inc()
		if err == nil {
			return resp, attempts, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, attempts, fmt.Errorf("%w: gave up after %d attempt(s): %w", llm.ErrGeneration, attempts, lastErr)
}

func (o *Orchestrator) attempt(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	actx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.cfg.Generator.Generate(actx, req)
	metrics.GenerationRequestDuration.WithLabelValues(o.cfg.Generator.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	// A reply that lands after the deadline is discarded.
	if actx.Err() != nil {
		return nil, llm.TransportError(o.cfg.Generator.Name(), actx.Err())
	}

	if strings.TrimSpace(resp.Text) == "" {
		return nil, &llm.ProviderError{
			Provider:  o.cfg.Generator.Name(),
			Message:   "empty reply",
			Retryable: true,
		}
	}
	return resp, nil
}
