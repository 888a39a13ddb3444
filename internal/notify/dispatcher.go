package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/workflow"
)

// eventBuffer bounds the queue between the audit-trail hook and delivery.
// The hook runs inside database transactions, so it must never block.
const eventBuffer = 64

// Dispatcher fans review-session events out to the configured notifiers.
// It consumes audit records via Hook and delivers asynchronously in Run.
type Dispatcher struct {
	notifiers []Notifier
	events    chan Event
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher delivering to the given notifiers.
func NewDispatcher(log zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		events:    make(chan Event, eventBuffer),
		log:       log,
	}
}

// Hook returns the audit-trail subscriber. Notable records are queued for
// delivery; if the queue is full the event is dropped and logged, never
// blocking the transaction that produced it.
func (d *Dispatcher) Hook() func(rec models.ActivityRecord) {
	return func(rec models.ActivityRecord) {
		evt, ok := eventFor(rec)
		if !ok {
			return
		}
		select {
		case d.events <- evt:
		default:
			d.log.Warn().Str("session_id", rec.SessionID).Str("kind", rec.Kind).
				Msg("notify queue full, dropping event")
		}
	}
}

// Enqueue queues an event directly, bypassing the audit hook. Used by the
// digest scheduler.
func (d *Dispatcher) Enqueue(evt Event) {
	select {
	case d.events <- evt:
	default:
		d.log.Warn().Str("title", evt.Title).Msg("notify queue full, dropping event")
	}
}

// Run delivers queued events until ctx is cancelled. Delivery failures are
// logged per notifier; one adapter failing does not stop the others.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-d.events:
			d.deliver(ctx, evt)
		}
	}
}

// Flush synchronously delivers everything queued so far. One-shot CLI
// commands call it before exiting instead of running the loop.
func (d *Dispatcher) Flush(ctx context.Context) {
	for {
		select {
		case evt := <-d.events:
			d.deliver(ctx, evt)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt Event) {
	for _, n := range d.notifiers {
		if err := n.Send(ctx, evt); err != nil {
			d.log.Error().Err(err).Str("notifier", n.Name()).
				Str("title", evt.Title).Msg("notify delivery failed")
		}
	}
}

// eventFor converts an audit record into a deliverable event. Routine
// records (creation, edits, comments) are not pushed.
func eventFor(rec models.ActivityRecord) (Event, bool) {
	switch rec.Kind {
	case models.ActivityStatusChanged:
		evt := Event{
			Title:    "Session status changed",
			Body:     rec.Description,
			Severity: SeverityInfo,
			Fields: []Field{
				{Name: "Session", Value: rec.SessionID},
				{Name: "Actor", Value: rec.Actor},
			},
		}
		if rec.OldStatus != nil && rec.NewStatus != nil {
			evt.Fields = append(evt.Fields,
				Field{Name: "From", Value: string(*rec.OldStatus)},
				Field{Name: "To", Value: string(*rec.NewStatus)},
			)
			switch {
			case *rec.NewStatus == workflow.StatusFailed:
				evt.Title = "Session failed"
				evt.Severity = SeverityError
			case *rec.NewStatus == workflow.StatusCompleted:
				evt.Title = "Session completed"
				evt.Severity = SeveritySuccess
			case *rec.OldStatus == workflow.StatusFailed:
				evt.Title = "Session recovered"
				evt.Severity = SeverityWarning
			}
		}
		return evt, true
	case models.ActivityError:
		return Event{
			Title:    "Session error",
			Body:     rec.Description,
			Severity: SeverityError,
			Fields: []Field{
				{Name: "Session", Value: rec.SessionID},
				{Name: "Actor", Value: rec.Actor},
			},
		}, true
	case models.ActivityArchived, models.ActivityUnarchived:
		return Event{
			Title:    "Session " + rec.Kind,
			Body:     rec.Description,
			Severity: SeverityInfo,
			Fields: []Field{
				{Name: "Session", Value: rec.SessionID},
				{Name: "Actor", Value: rec.Actor},
			},
		}, true
	default:
		return Event{}, false
	}
}
