// Package dispatch turns fired gestures into page turns.
//
// For each event the dispatcher looks up the gesture's binding, moves the
// pager, records the event, runs the bound plugin action (if any) and then
// notifies subscribers.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/scoreturner/internal/gesture"
	"github.com/ayusman/scoreturner/internal/log"
	"github.com/ayusman/scoreturner/internal/pager"
	"github.com/ayusman/scoreturner/internal/plugin"
	"github.com/ayusman/scoreturner/internal/store"
)

// BindingLookup finds the binding for a gesture. A nil binding means the
// gesture is unbound.
type BindingLookup interface {
	GetByGesture(k gesture.Kind) (*store.Binding, error)
}

// EventRecorder appends to the gesture history.
type EventRecorder interface {
	Record(e *store.GestureEvent) error
}

// Result describes what one gesture did.
type Result struct {
	Event       gesture.Event `json:"event"`
	Command     store.Command `json:"command"`
	Page        int           `json:"page"`
	PageCount   int           `json:"page_count"`
	Moved       bool          `json:"moved"`
	Plugin      string        `json:"plugin,omitempty"`
	Action      string        `json:"action,omitempty"`
	PluginError string        `json:"plugin_error,omitempty"`
}

// Dispatcher applies bindings to fired gestures. Safe for concurrent use;
// Handle calls are serialized so pages move in event order.
type Dispatcher struct {
	bindings BindingLookup
	events   EventRecorder
	pager    *pager.Pager
	plugins  *plugin.Manager
	executor *plugin.Executor

	handleMu sync.Mutex

	subMu  sync.RWMutex
	subs   map[int]func(Result)
	nextID int
}

// New creates a dispatcher. plugins and executor may be nil, in which case
// plugin actions are skipped.
func New(bindings BindingLookup, events EventRecorder, pg *pager.Pager, plugins *plugin.Manager, executor *plugin.Executor) *Dispatcher {
	return &Dispatcher{
		bindings: bindings,
		events:   events,
		pager:    pg,
		plugins:  plugins,
		executor: executor,
		subs:     make(map[int]func(Result)),
	}
}

// Subscribe registers fn to receive every Result. The returned function
// removes the subscription.
func (d *Dispatcher) Subscribe(fn func(Result)) (unsubscribe func()) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	id := d.nextID
	d.nextID++
	d.subs[id] = fn

	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		delete(d.subs, id)
	}
}

// Pager returns the pager the dispatcher moves.
func (d *Dispatcher) Pager() *pager.Pager {
	return d.pager
}

// Handle applies ev. A failing binding lookup aborts before anything moves.
// Failures to record the event are returned after subscribers have been
// notified; plugin failures are reported in the Result only.
func (d *Dispatcher) Handle(ctx context.Context, ev gesture.Event) (Result, error) {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()

	res := Result{Event: ev, Command: store.CommandNone}

	b, err := d.bindings.GetByGesture(ev.Kind)
	if err != nil {
		return res, fmt.Errorf("lookup binding for %s: %w", ev.Kind, err)
	}
	if b != nil && b.Enabled {
		res.Command = b.Command
	}

	switch res.Command {
	case store.CommandNext:
		res.Page, res.Moved = d.pager.Next()
	case store.CommandPrevious:
		res.Page, res.Moved = d.pager.Previous()
	default:
		res.Page = d.pager.Current()
	}
	res.PageCount = d.pager.Count()

	var errs []error
	if d.events != nil {
		err := d.events.Record(&store.GestureEvent{
			Gesture:   ev.Kind,
			Command:   res.Command,
			Page:      res.Page,
			FiredAtMs: ev.AtMs,
		})
		if err != nil {
			log.Warn("failed to record gesture event", "gesture", ev.Kind, "error", err)
			errs = append(errs, fmt.Errorf("record event: %w", err))
		}
	}

	if b != nil && b.Enabled && b.PluginName != "" {
		res.Plugin = b.PluginName
		res.Action = b.ActionName
		if err := d.runPlugin(ctx, b, res); err != nil {
			log.Warn("plugin action failed", "plugin", b.PluginName, "action", b.ActionName, "error", err)
			res.PluginError = err.Error()
		}
	}

	log.Info("gesture dispatched",
		"gesture", ev.Kind,
		"command", res.Command,
		"page", res.Page,
		"moved", res.Moved,
	)

	d.notify(res)

	return res, errors.Join(errs...)
}

func (d *Dispatcher) runPlugin(ctx context.Context, b *store.Binding, res Result) error {
	if d.plugins == nil || d.executor == nil {
		return errors.New("plugins are not available")
	}

	p, err := d.plugins.Get(b.PluginName)
	if err != nil {
		return err
	}
	if !p.Manifest.HasAction(b.ActionName) {
		return fmt.Errorf("plugin %s has no action %q", b.PluginName, b.ActionName)
	}

	resp, err := d.executor.Execute(ctx, p, &plugin.Request{
		Action:    b.ActionName,
		Gesture:   res.Event.Kind.String(),
		Command:   string(res.Command),
		Page:      res.Page,
		FiredAtMs: res.Event.AtMs,
		Config:    b.Config,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin reported failure: %s", resp.Error)
	}
	return nil
}

func (d *Dispatcher) notify(res Result) {
	d.subMu.RLock()
	subs := make([]func(Result), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.subMu.RUnlock()

	for _, fn := range subs {
		fn(res)
	}
}
