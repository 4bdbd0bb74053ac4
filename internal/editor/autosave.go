package editor

import (
	"context"
	"sync"
	"time"
)

const DefaultAutosaveDelay = 3 * time.Second

type AutosaveState int

const (
	AutosaveIdle AutosaveState = iota
	AutosavePending
)

func (s AutosaveState) String() string {
	if s == AutosavePending {
		return "pending"
	}
	return "idle"
}

type EventKind string

const (
	AutosaveArmed     EventKind = "armed"
	AutosaveSaved     EventKind = "saved"
	AutosaveSkipped   EventKind = "skipped"
	AutosaveCancelled EventKind = "cancelled"
	AutosaveFailed    EventKind = "failed"
	DocumentSaved     EventKind = "published"
)

type Event struct {
	Kind EventKind
	Err  error
}

// Observer receives autosave and save notifications. It is called from the
// timer goroutine for tick results, so implementations must not block.
type Observer interface {
	Notify(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Autosave debounces snapshots of a document. Every Schedule cancels the
// pending countdown and starts a new one, so at most one tick is pending.
// A tick saves only if the current document is valid; an invalid document is
// skipped and not retried until the next Schedule.
type Autosave struct {
	mu      sync.Mutex
	enabled bool
	stopped bool
	delay   time.Duration
	timer   Timer
	// gen invalidates ticks whose timer fired after being replaced.
	gen uint64

	source    func() (string, Document)
	store     DraftStore
	observer  Observer
	afterFunc AfterFunc
}

type AutosaveOptions struct {
	Enabled  bool
	Delay    time.Duration
	Store    DraftStore
	Observer Observer
	// AfterFunc replaces time.AfterFunc, mostly for tests.
	AfterFunc AfterFunc
}

// NewAutosave builds a scheduler. source returns the draft id and the current
// document when a tick fires.
func NewAutosave(source func() (string, Document), opts AutosaveOptions) *Autosave {
	if opts.Delay <= 0 {
		opts.Delay = DefaultAutosaveDelay
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = realAfterFunc
	}
	return &Autosave{
		enabled:   opts.Enabled,
		delay:     opts.Delay,
		source:    source,
		store:     opts.Store,
		observer:  opts.Observer,
		afterFunc: opts.AfterFunc,
	}
}

// Configure enables or disables autosave. Disabling cancels any pending tick.
// A stopped scheduler stays disabled.
func (a *Autosave) Configure(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled && !a.stopped
	cancelled := false
	if !enabled {
		cancelled = a.cancelLocked()
	}
	a.mu.Unlock()

	if cancelled {
		a.notify(Event{Kind: AutosaveCancelled})
	}
}

func (a *Autosave) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

func (a *Autosave) State() AutosaveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		return AutosavePending
	}
	return AutosaveIdle
}

// Schedule (re)starts the quiet-period countdown. It does nothing while disabled.
func (a *Autosave) Schedule() {
	a.mu.Lock()
	if !a.enabled || a.stopped || a.store == nil {
		a.mu.Unlock()
		return
	}
	a.cancelLocked()
	a.gen++
	gen := a.gen
	a.timer = a.afterFunc(a.delay, func() { a.fire(gen) })
	a.mu.Unlock()

	a.notify(Event{Kind: AutosaveArmed})
}

// Cancel drops the pending tick, if any.
func (a *Autosave) Cancel() {
	a.mu.Lock()
	cancelled := a.cancelLocked()
	a.mu.Unlock()

	if cancelled {
		a.notify(Event{Kind: AutosaveCancelled})
	}
}

// Stop cancels the pending tick and disables the scheduler for good.
func (a *Autosave) Stop() {
	a.mu.Lock()
	a.enabled = false
	a.stopped = true
	a.cancelLocked()
	a.mu.Unlock()
}

func (a *Autosave) cancelLocked() bool {
	if a.timer == nil {
		return false
	}
	a.timer.Stop()
	a.timer = nil
	a.gen++
	return true
}

func (a *Autosave) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || !a.enabled || a.stopped {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	store := a.store
	a.mu.Unlock()

	id, doc := a.source()
	if !Valid(doc) {
		a.notify(Event{Kind: AutosaveSkipped})
		return
	}

	if err := store.SaveDraft(context.Background(), id, doc); err != nil {
		editorLogger.Error().Err(err).Str("draft_id", id).Msg("Autosave failed")
		a.notify(Event{Kind: AutosaveFailed, Err: err})
		return
	}

	editorLogger.Debug().Str("draft_id", id).Str("title", doc.Title).Msg("Autosaved draft")
	a.notify(Event{Kind: AutosaveSaved})
}

func (a *Autosave) notify(e Event) {
	if a.observer != nil {
		a.observer.Notify(e)
	}
}
