// Package nop provides a publisher that validates and counts events without
// sending them anywhere.
package nop

import (
	"context"
	"sync/atomic"

	"github.com/papercomputeco/wikiart/pkg/eventstream"
)

// Publisher accepts valid events and drops them.
type Publisher struct {
	published atomic.Int64
	closed    atomic.Bool
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) PublishExchange(_ context.Context, event *eventstream.ExchangeEvent) error {
	if p.closed.Load() {
		return eventstream.ErrClosed
	}
	if err := eventstream.Validate(event); err != nil {
		return err
	}
	p.published.Add(1)
	return nil
}

// Published is the number of events accepted so far.
func (p *Publisher) Published() int {
	return int(p.published.Load())
}

func (p *Publisher) Close() error {
	p.closed.Store(true)
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
