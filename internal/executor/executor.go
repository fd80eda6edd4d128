package executor

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/textcal/internal/calendar"
	"github.com/teemow/textcal/internal/instrumentation"
	"github.com/teemow/textcal/internal/logging"
	"github.com/teemow/textcal/internal/plan"
)

// RemoteClient is the subset of calendar.Client the executor calls.
type RemoteClient interface {
	CreateEvent(ctx context.Context, calendarID string, patch calendar.EventPatch) (*calendar.RemoteEvent, error)
	PatchEvent(ctx context.Context, calendarID, eventID string, patch calendar.EventPatch) (*calendar.RemoteEvent, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Mirror receives every outcome after the remote call returns.
type Mirror interface {
	Sync(ctx context.Context, calendarID string, o Outcome) error
}

// Options configures an Executor.
type Options struct {
	// Workers > 1 runs operations on a bounded pool. Default is sequential.
	Workers int
	Mirror  Mirror
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Report is the full result of one Execute call.
type Report struct {
	Outcomes []Outcome  `json:"outcomes"`
	Result   PlanResult `json:"result"`
}

// Executor runs plans against one remote client.
type Executor struct {
	remote RemoteClient
	opts   Options
	logger *slog.Logger
}

// New creates an Executor.
func New(remote RemoteClient, opts Options) *Executor {
	return &Executor{
		remote: remote,
		opts:   opts,
		logger: logging.WithComponent(opts.Logger, "executor"),
	}
}

// Execute attempts every operation of p against calendarID and returns one
// outcome per operation, in plan order. It never stops early on a failed
// operation. Operations not yet started when ctx is done are reported as
// failures.
func (e *Executor) Execute(ctx context.Context, calendarID string, p plan.Plan, timeZone string) Report {
	outcomes := make([]Outcome, len(p.Operations))

	if e.opts.Workers > 1 && len(p.Operations) > 1 {
		var g errgroup.Group
		g.SetLimit(e.opts.Workers)
		for i, op := range p.Operations {
			g.Go(func() error {
				outcomes[i] = e.run(ctx, calendarID, i, op, timeZone)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, op := range p.Operations {
			outcomes[i] = e.run(ctx, calendarID, i, op, timeZone)
		}
	}

	return Report{Outcomes: outcomes, Result: Aggregate(outcomes)}
}

// run attempts one operation, mirrors it and records metrics.
func (e *Executor) run(ctx context.Context, calendarID string, index int, op plan.Operation, timeZone string) Outcome {
	var out Outcome
	if err := ctx.Err(); err != nil {
		out = failure(index, op, op.RemoteID, fmt.Sprintf("not attempted: %v", err))
	} else {
		out = e.apply(ctx, calendarID, index, op, timeZone)
	}

	e.opts.Metrics.RecordPlanOperation(ctx, calendarID, string(op.Kind), metricStatus(out))

	if out.Succeeded() {
		e.logger.Info("operation applied",
			logging.Index(index), logging.Action(string(op.Kind)), logging.RemoteID(out.RemoteID))
		e.sync(ctx, calendarID, out)
	} else {
		e.logger.Warn("operation failed",
			logging.Index(index), logging.Action(string(op.Kind)), logging.RemoteID(out.RemoteID),
			slog.String(logging.KeyError, out.Error))
	}

	return out
}

func (e *Executor) apply(ctx context.Context, calendarID string, index int, op plan.Operation, timeZone string) Outcome {
	switch op.Kind {
	case plan.KindCreate:
		if op.Create == nil {
			return failure(index, op, "", "create operation has no event")
		}
		ev, err := e.remote.CreateEvent(ctx, calendarID, createPatch(op.Create, timeZone))
		if err != nil {
			return failure(index, op, "", calendar.Message(err))
		}
		return success(index, op, ev, "")

	case plan.KindUpdate:
		if op.Update == nil || op.RemoteID == "" {
			return failure(index, op, op.RemoteID, "update operation needs remoteId and event")
		}
		ev, err := e.remote.PatchEvent(ctx, calendarID, op.RemoteID, updatePatch(op.Update, timeZone))
		if err != nil {
			return failure(index, op, op.RemoteID, calendar.Message(err))
		}
		return success(index, op, ev, op.RemoteID)

	case plan.KindDelete:
		if op.RemoteID == "" {
			return failure(index, op, "", "delete operation needs remoteId")
		}
		if err := e.remote.DeleteEvent(ctx, calendarID, op.RemoteID); err != nil {
			return failure(index, op, op.RemoteID, calendar.Message(err))
		}
		return Outcome{Index: index, Operation: op, Status: StatusSuccess, RemoteID: op.RemoteID}

	default:
		return failure(index, op, op.RemoteID, fmt.Sprintf("unsupported operation type %q", op.Kind))
	}
}

// sync hands a successful outcome to the mirror. Mirror errors never change
// the outcome.
func (e *Executor) sync(ctx context.Context, calendarID string, out Outcome) {
	if e.opts.Mirror == nil {
		return
	}
	if err := e.opts.Mirror.Sync(ctx, calendarID, out); err != nil {
		e.opts.Metrics.RecordMirrorSyncFailure(ctx, string(out.Action()))
		e.logger.Warn("local mirror sync failed",
			logging.Index(out.Index), logging.Action(string(out.Action())),
			logging.RemoteID(out.RemoteID), logging.Err(err))
	}
}

func success(index int, op plan.Operation, ev *calendar.RemoteEvent, fallbackID string) Outcome {
	out := Outcome{Index: index, Operation: op, Status: StatusSuccess, RemoteID: fallbackID, Event: ev}
	if ev != nil {
		if ev.ID != "" {
			out.RemoteID = ev.ID
		}
		out.RemoteLink = ev.HTMLLink
	}
	return out
}

func failure(index int, op plan.Operation, remoteID, msg string) Outcome {
	return Outcome{Index: index, Operation: op, Status: StatusFailure, RemoteID: remoteID, Error: msg}
}

func metricStatus(o Outcome) string {
	if o.Succeeded() {
		return instrumentation.StatusSuccess
	}
	return instrumentation.StatusError
}

func createPatch(ev *plan.EventInput, timeZone string) calendar.EventPatch {
	start := eventTime(ev.StartAt)
	end := eventTime(ev.EndAt)
	return calendar.EventPatch{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Recurrence:  ev.RecurrenceRules,
		Start:       &start,
		End:         &end,
		TimeZone:    timeZone,
	}
}

func updatePatch(ev *plan.PartialEventInput, timeZone string) calendar.EventPatch {
	patch := calendar.EventPatch{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Recurrence:  ev.RecurrenceRules,
		TimeZone:    timeZone,
	}
	if ev.StartAt != nil {
		start := eventTime(*ev.StartAt)
		patch.Start = &start
	}
	if ev.EndAt != nil {
		end := eventTime(*ev.EndAt)
		patch.End = &end
	}
	return patch
}

func eventTime(ts plan.Timestamp) calendar.EventTime {
	if ts.IsDate() {
		return calendar.EventTime{Date: ts.String()}
	}
	return calendar.EventTime{DateTime: ts.String()}
}
