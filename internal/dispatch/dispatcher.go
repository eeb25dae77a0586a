// Package dispatch turns user actions into validated, ordered contract writes
// with a per-action re-entrancy guard and a balance refresh after success.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/activity"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/logging"
	"github.com/Mohsinsiddi/tokendesk/internal/session"
	"github.com/Mohsinsiddi/tokendesk/internal/token"
	"github.com/google/uuid"
)

var (
	// ErrBusy is returned when the same action is still in flight.
	ErrBusy = errors.New("action already in progress")
	// ErrNoSession is returned when no account is connected.
	ErrNoSession = errors.New("no connected account")
	// ErrNoBinding is returned when no contract handle is available.
	ErrNoBinding = errors.New("contract not bound")
)

// State is the lifecycle stage of one action.
type State int

const (
	Idle State = iota
	Submitting
	Confirmed
	Refreshing
	Failed
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Confirmed:
		return "confirmed"
	case Refreshing:
		return "refreshing"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Binding is the contract capability the dispatcher writes through. Its
// reads serve the post-write balance refresh.
type Binding interface {
	token.Reader
	Send(ctx context.Context, from, method string, args ...string) (*contract.Receipt, error)
}

// Accounts exposes the current session.
type Accounts interface {
	Current() session.Session
}

// Journal records finished actions.
type Journal interface {
	Record(ctx context.Context, e activity.Entry) error
}

// Notice reports a state change of one dispatched action.
type Notice struct {
	ID       string
	Action   Action
	State    State
	Message  string
	TxHashes []string
	Err      error
}

// Notifier receives notices. It is called synchronously and must not block.
type Notifier func(Notice)

// Outcome is the result of a completed dispatch.
type Outcome struct {
	ID       string
	Action   Action
	Receipts []*contract.Receipt
	Facts    token.Facts
	// RefreshErr is set when every write was mined but the balance read
	// afterwards failed, so Facts may lag the chain.
	RefreshErr error
}

// TxHashes lists the hashes of the mined writes.
func (o Outcome) TxHashes() []string {
	out := make([]string, 0, len(o.Receipts))
	for _, r := range o.Receipts {
		if r != nil {
			out = append(out, r.Hash)
		}
	}
	return out
}

// Dispatcher executes actions against one binding.
type Dispatcher struct {
	binding  Binding
	accounts Accounts
	view     *token.View
	notify   Notifier
	journal  Journal
	log      logging.Logger
	newID    func() string

	mu     sync.Mutex
	states map[Action]State
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotifier sets the notice sink.
func WithNotifier(n Notifier) Option { return func(d *Dispatcher) { d.notify = n } }

// WithJournal records every outcome.
func WithJournal(j Journal) Option { return func(d *Dispatcher) { d.journal = j } }

// WithLogger sets the diagnostic logger.
func WithLogger(l logging.Logger) Option { return func(d *Dispatcher) { d.log = l } }

// New creates a dispatcher. binding may be nil until a provider exists; every
// dispatch then fails with ErrNoBinding.
func New(b Binding, accounts Accounts, view *token.View, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		binding:  b,
		accounts: accounts,
		view:     view,
		notify:   func(Notice) {},
		newID:    uuid.NewString,
		states:   make(map[Action]State),
	}
	for _, o := range opts {
		o(d)
	}
	d.log = logging.OrNop(d.log)
	return d
}

// State returns the current stage of a.
func (d *Dispatcher) State(a Action) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[a]
}

// Dispatch validates, submits and confirms a, then refreshes the balance.
// Multisend writes run in list order and stop at the first failure; the
// balance is still re-read when earlier writes of the batch were mined.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action, in Input) (Outcome, error) {
	out := Outcome{ID: d.newID(), Action: a}

	plan, err := PlanAction(a, in)
	if err != nil {
		d.finish(ctx, out, "", Failed, err)
		return out, err
	}

	from := d.accounts.Current().Active()
	if from == "" {
		d.finish(ctx, out, "", Failed, ErrNoSession)
		return out, ErrNoSession
	}
	if d.binding == nil {
		d.finish(ctx, out, from, Failed, ErrNoBinding)
		return out, ErrNoBinding
	}

	if !d.begin(a) {
		d.notify(Notice{ID: out.ID, Action: a, State: d.State(a), Err: ErrBusy, Message: string(a) + " is already in progress"})
		return out, ErrBusy
	}
	defer d.setState(a, Idle)

	d.emit(out, Submitting, fmt.Sprintf("submitting %s (%d write(s))", a, len(plan.Writes)), nil)

	for i, w := range plan.Writes {
		r, err := d.binding.Send(ctx, from, w.Method, w.Args...)
		if r != nil {
			out.Receipts = append(out.Receipts, r)
		}
		if err != nil {
			if len(plan.Writes) > 1 {
				err = fmt.Errorf("%s aborted at write %d of %d: %w", a, i+1, len(plan.Writes), err)
			}
			d.setState(a, Failed)
			if len(out.Receipts) > 0 {
				// earlier writes of the batch were mined
				out.Facts, _ = d.view.RefreshBalance(ctx, d.binding, from)
			}
			d.finish(ctx, out, from, Failed, err)
			return out, err
		}
		d.log.Info("write mined", "action", a, "method", w.Method, "hash", r.Hash, "index", i)
	}

	d.setState(a, Confirmed)
	d.emit(out, Confirmed, fmt.Sprintf("%s confirmed", a), nil)

	d.setState(a, Refreshing)
	d.emit(out, Refreshing, "refreshing balance", nil)
	facts, rerr := d.view.RefreshBalance(ctx, d.binding, from)
	out.Facts = facts
	if rerr != nil {
		out.RefreshErr = fmt.Errorf("balance refresh failed: %w", rerr)
	}

	d.finish(ctx, out, from, Idle, nil)
	return out, nil
}

func (d *Dispatcher) begin(a Action) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.states[a] {
	case Submitting, Confirmed, Refreshing:
		return false
	}
	d.states[a] = Submitting
	return true
}

func (d *Dispatcher) setState(a Action, s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[a] = s
}

func (d *Dispatcher) emit(out Outcome, s State, msg string, err error) {
	d.notify(Notice{ID: out.ID, Action: out.Action, State: s, Message: msg, TxHashes: out.TxHashes(), Err: err})
}

// finish reports the terminal notice and journals the outcome.
func (d *Dispatcher) finish(ctx context.Context, out Outcome, account string, s State, err error) {
	status := activity.StatusConfirmed
	msg := fmt.Sprintf("%s done", out.Action)
	if err != nil {
		status = activity.StatusFailed
		if errors.Is(err, ErrValidation) {
			status = activity.StatusInvalid
		}
		msg = fmt.Sprintf("%s failed: %v", out.Action, err)
		d.log.Warn("action failed", "action", out.Action, "id", out.ID, "error", err)
	}
	noticeErr := err
	if err == nil && out.RefreshErr != nil {
		msg = fmt.Sprintf("%s confirmed; %v", out.Action, out.RefreshErr)
		noticeErr = out.RefreshErr
		d.log.Warn("balance refresh after write failed", "action", out.Action, "id", out.ID, "error", out.RefreshErr)
	}
	d.emit(out, s, msg, noticeErr)

	if d.journal == nil {
		return
	}
	e := activity.Entry{
		ID:        out.ID,
		Action:    string(out.Action),
		Status:    status,
		Account:   account,
		TxHashes:  out.TxHashes(),
		CreatedAt: time.Now().UTC(),
	}
	switch {
	case err != nil:
		e.Error = err.Error()
	case out.RefreshErr != nil:
		e.Error = out.RefreshErr.Error()
	}
	// the journal must not fail the action it describes
	if jerr := d.journal.Record(context.WithoutCancel(ctx), e); jerr != nil {
		d.log.Warn("recording activity", "id", out.ID, "error", jerr)
	}
}
