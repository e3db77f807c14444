package progress

import "context"

// Sink receives batched events from the Hub. Implementations must tolerate
// repeated Close calls.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events. Hub satisfies it, so workers stay
// agnostic about buffering and fan-out.
type Emitter interface {
	Emit(evt Event)
}

// NopEmitter discards everything. Useful when progress reporting is off.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(Event) {}
