package eventstream

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNilEvent is returned for a nil event.
	ErrNilEvent = errors.New("nil exchange event")

	// ErrInvalidEvent is returned for events missing a required field.
	ErrInvalidEvent = errors.New("invalid exchange event")

	// ErrClosed is returned by publishers after Close.
	ErrClosed = errors.New("publisher closed")
)

// Publisher sends completed exchanges to an event stream backend.
type Publisher interface {
	PublishExchange(ctx context.Context, event *ExchangeEvent) error
	Close() error
}

// Validate reports whether event can be published. Consumers key on the
// schema version, event id and session id, so all three are required.
func Validate(event *ExchangeEvent) error {
	switch {
	case event == nil:
		return ErrNilEvent
	case event.SchemaVersion != SchemaVersionV1:
		return fmt.Errorf("%w: unsupported schema version %d", ErrInvalidEvent, event.SchemaVersion)
	case event.EventID == "":
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	case event.Exchange.SessionID == "":
		return fmt.Errorf("%w: missing session id", ErrInvalidEvent)
	}
	return nil
}
