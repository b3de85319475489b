package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

type Type string

const (
	OrderCreated         Type = "order_created"
	OrderStatusChanged   Type = "order_status_changed"
	OrderUpdated         Type = "order_updated"
	KitchenTicketCreated Type = "kitchen_ticket_created"
	KitchenTicketUpdated Type = "kitchen_ticket_updated"
	InvoiceCreated       Type = "invoice_created"
	InvoicePaid          Type = "invoice_paid"
	InvoiceStatusChanged Type = "invoice_status_changed"
	LowStock             Type = "low_stock"
	OutOfStock           Type = "out_of_stock"
)

type Event struct {
	Type       Type                   `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Publisher delivers events to one sink. Callers treat delivery as fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t, oldest first.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, evt := range r.Events() {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}
