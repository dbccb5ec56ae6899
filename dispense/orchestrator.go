// Package dispense runs the well-by-well fill cycle against the motion stage
// and the dispenser.
package dispense

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mastercactapus/plateloader/device"
	"github.com/mastercactapus/plateloader/machine"
	"github.com/mastercactapus/plateloader/plate"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrRunActive is returned by Start while a run is in progress.
	ErrRunActive = errors.New("dispense: run already active")

	// ErrResetRequired is returned by Start after a hardware failure unless
	// the run resumes at the failed well.
	ErrResetRequired = errors.New("dispense: reset required after hardware failure")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("dispense: orchestrator closed")
)

// Options tune the fill cycle. Zero values take the defaults.
type Options struct {
	Stage machine.StageOptions

	// SettleDelay is the wait between reaching a well and triggering.
	// Negative disables it.
	SettleDelay time.Duration

	// PollInterval is how often the dispenser is polled for a token.
	PollInterval time.Duration

	// RaiseTimeout bounds the final raise to clearance after Close.
	RaiseTimeout time.Duration

	// EventBuffer is the capacity of the Events channel.
	EventBuffer int

	// Registerer receives the run metrics when set.
	Registerer prometheus.Registerer
}

func (opt *Options) setDefaults() {
	if opt.SettleDelay == 0 {
		opt.SettleDelay = time.Second
	}
	if opt.PollInterval <= 0 {
		opt.PollInterval = 250 * time.Millisecond
	}
	if opt.RaiseTimeout <= 0 {
		opt.RaiseTimeout = 10 * time.Second
	}
	if opt.EventBuffer <= 0 {
		opt.EventBuffer = plate.Count + 1
	}
}

// Status is a snapshot of the orchestrator.
type Status struct {
	State   State      `json:"state"`
	Attempt int        `json:"attempt"`
	Running bool       `json:"running"`
	Well    plate.Well `json:"well"`
	Resume  plate.Well `json:"resume"`
	Result  RunStatus  `json:"result"`
}

// Orchestrator owns the motion and dispenser channels and runs at most one
// fill run at a time on its own goroutine.
type Orchestrator struct {
	stage  *machine.Stage
	disp   *machine.Dispenser
	layout plate.Layout
	opt    Options
	m      *metrics

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	abort  atomic.Bool

	mx      sync.Mutex
	running bool
	closed  bool
	done    chan struct{}
	state   State
	attempt int
	well    plate.Well
	resume  plate.Well
	failed  plate.Well
	result  RunStatus
	reset   bool
}

// New creates an idle Orchestrator. The channels must not be used by
// anything else while it is open.
func New(motion, dispenser device.Channel, layout plate.Layout, opt Options) *Orchestrator {
	opt.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		stage:  machine.NewStage(motion, opt.Stage),
		disp:   machine.NewDispenser(dispenser),
		layout: layout,
		opt:    opt,
		m:      newMetrics(opt.Registerer),
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, opt.EventBuffer),
		failed: -1,
	}
}

// Events delivers run outcomes in well order. It is closed by Close.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// Start begins a run at well from. Zero is a full restart.
func (o *Orchestrator) Start(from plate.Well) error {
	if err := from.Check(); err != nil {
		return err
	}
	o.mx.Lock()
	defer o.mx.Unlock()
	if o.closed {
		return ErrClosed
	}
	if o.running {
		return ErrRunActive
	}
	if o.failed >= 0 && from != o.failed {
		return fmt.Errorf("%w: %s failed", ErrResetRequired, o.failed)
	}
	o.failed = -1
	o.result = StatusNormal
	o.reset = false
	o.abort.Store(false)
	o.running = true
	o.done = make(chan struct{})
	o.well = from
	log.Printf("run: start at %s", from)
	go o.run(from, o.done)
	return nil
}

// Pause asks the active run to stop before its next well.
func (o *Orchestrator) Pause() {
	o.mx.Lock()
	defer o.mx.Unlock()
	if !o.running {
		return
	}
	o.abort.Store(true)
}

// Reset stops the active run before its next well and makes the next run
// start from the first well.
func (o *Orchestrator) Reset() {
	o.mx.Lock()
	defer o.mx.Unlock()
	o.failed = -1
	o.resume = 0
	o.result = StatusNormal
	if o.running {
		o.reset = true
		o.abort.Store(true)
	}
}

// Resume returns the well the next run should start at.
func (o *Orchestrator) Resume() plate.Well {
	o.mx.Lock()
	defer o.mx.Unlock()
	return o.resume
}

// State returns the current state and, while awaiting a token, the attempt.
func (o *Orchestrator) State() (State, int) {
	o.mx.Lock()
	defer o.mx.Unlock()
	return o.state, o.attempt
}

func (o *Orchestrator) Status() Status {
	o.mx.Lock()
	defer o.mx.Unlock()
	return Status{
		State:   o.state,
		Attempt: o.attempt,
		Running: o.running,
		Well:    o.well,
		Resume:  o.resume,
		Result:  o.result,
	}
}

// Wait blocks until the active run, if any, has ended.
func (o *Orchestrator) Wait() {
	o.mx.Lock()
	done := o.done
	o.mx.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops the active run, returning the head to clearance height, and
// closes the Events channel.
func (o *Orchestrator) Close() error {
	o.mx.Lock()
	if o.closed {
		o.mx.Unlock()
		return nil
	}
	o.closed = true
	o.mx.Unlock()

	o.cancel()
	o.Wait()
	close(o.events)
	return nil
}

func (o *Orchestrator) setState(s State, attempt int) {
	o.mx.Lock()
	o.state = s
	o.attempt = attempt
	o.mx.Unlock()
}

func (o *Orchestrator) setWell(i plate.Well) {
	o.mx.Lock()
	o.well = i
	o.mx.Unlock()
}

func (o *Orchestrator) emit(e Event) {
	e.Time = time.Now()
	select {
	case o.events <- e:
		return
	default:
	}
	select {
	case o.events <- e:
	case <-o.ctx.Done():
		log.Printf("WARN: dropped %s event for %s", e.Kind, e.Well)
	}
}

// end records how the run finished and emits its final event e. The next
// run resumes at next unless a reset is pending. A Paused event always
// carries the resume point.
func (o *Orchestrator) end(e Event, s State, next plate.Well, result RunStatus) {
	o.mx.Lock()
	o.state = s
	o.attempt = 0
	o.result = result
	o.resume = next
	if result == StatusHardwareFailure {
		o.failed = next
	}
	if o.reset {
		o.resume = 0
		o.failed = -1
		o.reset = false
		e.Reset = true
	}
	if e.Kind == Paused {
		e.Well = o.resume
	}
	o.m.run(s, result)
	log.Printf("run: %s, resume at %s (%s)", s, o.resume, result)
	o.mx.Unlock()

	o.emit(e)
}

func (o *Orchestrator) finish(done chan struct{}) {
	o.mx.Lock()
	o.running = false
	o.mx.Unlock()
	close(done)
}

// run is the worker. It is the only user of the channels while it runs.
func (o *Orchestrator) run(from plate.Well, done chan struct{}) {
	defer o.finish(done)
	ctx := o.ctx

	o.setState(Homing, 0)
	if err := o.stage.Home(ctx); err != nil {
		o.halt(ctx, from, 0, fmt.Errorf("home: %w", err))
		return
	}

	for i := from; ; i++ {
		if int(i) >= plate.Count {
			o.setState(PlateComplete, 0)
			if err := o.stage.Park(ctx); err != nil {
				log.Printf("ERROR: park: %+v", err)
			}
			o.end(Event{Kind: Complete}, PlateComplete, 0, StatusNormal)
			return
		}
		if o.abort.Load() {
			o.end(Event{Kind: Paused}, Aborted, i, StatusNormal)
			return
		}
		o.setWell(i)

		r, err := o.fillWell(ctx, i)
		if err != nil {
			o.halt(ctx, i, r.attempts, err)
			return
		}
		o.m.well(r)
		if r.failed {
			o.end(Event{Kind: Failed, Well: i, Attempts: r.attempts}, WellFailed, i, StatusHardwareFailure)
			return
		}
		o.setState(WellSucceeded, 0)
		if r.exhausted {
			log.Printf("WARN: %s: no fly after %d attempts", i, r.attempts)
		}
		o.emit(Event{Kind: Filled, Well: i, Attempts: r.attempts, Exhausted: r.exhausted})
	}
}

// halt ends the run after a device error on well i. Close surfaces as a
// pause so the run can resume at i.
func (o *Orchestrator) halt(ctx context.Context, i plate.Well, attempts int, err error) {
	if ctx.Err() != nil {
		log.Printf("run: stopped at %s", i)
		o.end(Event{Kind: Paused}, Aborted, i, StatusNormal)
		return
	}
	log.Printf("ERROR: %s: %+v", i, err)
	o.m.well(wellResult{failed: true, attempts: attempts})
	o.end(Event{Kind: Failed, Well: i, Attempts: attempts}, WellFailed, i, StatusHardwareFailure)
}

type wellResult struct {
	attempts  int
	exhausted bool
	failed    bool
}

// fillWell runs one well cycle. The head is always raised to clearance
// height before it returns.
func (o *Orchestrator) fillWell(ctx context.Context, i plate.Well) (r wellResult, err error) {
	pos, err := o.layout.WellPosition(i)
	if err != nil {
		return r, err
	}
	o.setState(MovingToWell, 0)
	err = o.stage.GoTo(ctx, pos)
	if err == nil {
		r, err = o.dispense(ctx, i)
	}
	rerr := o.raise(ctx)
	if err == nil && rerr != nil {
		err = fmt.Errorf("raise: %w", rerr)
	}
	return r, err
}

// raise lifts the head, using a fresh bounded context once ctx is done.
func (o *Orchestrator) raise(ctx context.Context) error {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), o.opt.RaiseTimeout)
		defer cancel()
	}
	return o.stage.Raise(ctx)
}

func (o *Orchestrator) dispense(ctx context.Context, i plate.Well) (r wellResult, err error) {
	if err = sleep(ctx, o.opt.SettleDelay); err != nil {
		return r, err
	}
	o.setState(Triggering, 0)
	if err = o.disp.Dispense(); err != nil {
		return r, fmt.Errorf("dispense: %w", err)
	}

	for r.attempts < MaxAttempts {
		o.setState(AwaitingToken, r.attempts)
		line, werr := o.disp.WaitToken(ctx, o.opt.PollInterval)
		if werr != nil {
			return r, fmt.Errorf("wait token: %w", werr)
		}
		tok := machine.ParseToken(line)
		act := Decide(tok, r.attempts)
		o.m.token(tok)
		if tok == machine.TokenUnknown {
			log.Printf("WARN: %s: unexpected dispenser reply %q", i, line)
		}
		log.Printf("%s attempt %d: %s, %s", i, r.attempts, tok, act)
		r.attempts++

		switch act {
		case ActionSucceed:
			return r, nil
		case ActionFail:
			r.failed = true
			return r, nil
		case ActionPurge:
			err = o.disp.Purge()
		case ActionRedispense:
			err = o.disp.Dispense()
		}
		if err != nil {
			return r, fmt.Errorf("%s: %w", act, err)
		}
	}
	r.exhausted = true
	return r, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 || ctx.Err() != nil {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
