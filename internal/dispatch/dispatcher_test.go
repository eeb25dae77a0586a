package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/activity"
	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/Mohsinsiddi/tokendesk/internal/session"
	"github.com/Mohsinsiddi/tokendesk/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	from, method string
	args         []string
}

// fakeBinding records writes; failAt makes the n-th write (1-based) fail.
// Each successful write subtracts its amount (last arg) from balance when
// debit is set. readErr fails every read.
type fakeBinding struct {
	mu      sync.Mutex
	writes  []sent
	failAt  int
	failErr error
	balance string
	debit   bool
	readErr error
	gate    chan struct{}
}

func (f *fakeBinding) Send(_ context.Context, from, method string, args ...string) (*contract.Receipt, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, sent{from, method, args})
	n := len(f.writes)
	if n == f.failAt {
		return &contract.Receipt{Hash: fmt.Sprintf("0x%d", n)}, f.failErr
	}
	if f.debit {
		bal, _ := strconv.Atoi(f.balance)
		amt, _ := strconv.Atoi(args[len(args)-1])
		f.balance = strconv.Itoa(bal - amt)
	}
	return &contract.Receipt{Hash: fmt.Sprintf("0x%d", n), Status: 1}, nil
}

func (f *fakeBinding) Call(_ context.Context, method string, _ ...string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if method != "balanceOf" {
		return nil, errors.New("unexpected read " + method)
	}
	return []string{f.balance}, nil
}

func (f *fakeBinding) sentWrites() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.writes...)
}

type fixedAccounts struct{ s session.Session }

func (a fixedAccounts) Current() session.Session { return a.s }

type memJournal struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (m *memJournal) Record(_ context.Context, e activity.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) add(x Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, x)
}

func (n *noticeLog) states() []State {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]State, len(n.notices))
	for i, x := range n.notices {
		out[i] = x.State
	}
	return out
}

func connected() fixedAccounts {
	return fixedAccounts{session.Session{Accounts: []string{alice}}}
}

func newTestDispatcher(b Binding, acc Accounts) (*Dispatcher, *token.View, *noticeLog, *memJournal) {
	view := token.NewView(nil)
	notices := &noticeLog{}
	journal := &memJournal{}
	d := New(b, acc, view, WithNotifier(notices.add), WithJournal(journal))
	return d, view, notices, journal
}

func TestDispatchTransferRefreshesBalance(t *testing.T) {
	b := &fakeBinding{balance: "90"}
	d, view, notices, journal := newTestDispatcher(b, connected())

	out, err := d.Dispatch(context.Background(), Transfer, Input{To: bob, Amount: "10"})
	require.NoError(t, err)

	assert.Equal(t, []sent{{alice, "transfer", []string{bob, "10"}}}, b.sentWrites())
	assert.Equal(t, "90", out.Facts.Balance)
	assert.Equal(t, "90", view.Snapshot().Balance)
	assert.Equal(t, []string{"0x1"}, out.TxHashes())
	assert.Equal(t, []State{Submitting, Confirmed, Refreshing, Idle}, notices.states())
	assert.Equal(t, Idle, d.State(Transfer))

	require.Len(t, journal.entries, 1)
	assert.Equal(t, activity.StatusConfirmed, journal.entries[0].Status)
	assert.Equal(t, out.ID, journal.entries[0].ID)
	assert.Equal(t, alice, journal.entries[0].Account)
}

func TestEveryActionWritesThenRefreshes(t *testing.T) {
	inputs := map[Action]Input{
		Transfer:  {To: bob, Amount: "1"},
		Mint:      {To: bob, Amount: "1"},
		Burn:      {Amount: "1"},
		Stake:     {Amount: "1"},
		Unstake:   {Amount: "1"},
		Approve:   {Spender: bob, Amount: "1"},
		Multisend: {Recipients: []string{bob}, Amounts: []string{"1"}},
		Pause:     {},
		Unpause:   {},
	}
	for _, a := range Actions {
		b := &fakeBinding{balance: "42"}
		d, view, _, _ := newTestDispatcher(b, connected())
		_, err := d.Dispatch(context.Background(), a, inputs[a])
		require.NoError(t, err, a)
		assert.Len(t, b.sentWrites(), 1, a)
		assert.Equal(t, "42", view.Snapshot().Balance, a)
	}
}

func TestMultisendWritesInOrder(t *testing.T) {
	b := &fakeBinding{balance: "0"}
	d, _, _, _ := newTestDispatcher(b, connected())

	_, err := d.Dispatch(context.Background(), Multisend, Input{
		Recipients: []string{alice, bob, alice},
		Amounts:    []string{"1", "2", "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []sent{
		{alice, "transfer", []string{alice, "1"}},
		{alice, "transfer", []string{bob, "2"}},
		{alice, "transfer", []string{alice, "3"}},
	}, b.sentWrites())
}

func TestMultisendAbortsOnFirstFailure(t *testing.T) {
	b := &fakeBinding{balance: "0", failAt: 2, failErr: contract.ErrReverted}
	d, view, notices, journal := newTestDispatcher(b, connected())

	out, err := d.Dispatch(context.Background(), Multisend, Input{
		Recipients: []string{alice, bob, alice},
		Amounts:    []string{"1", "2", "3"},
	})
	require.ErrorIs(t, err, contract.ErrReverted)
	assert.Contains(t, err.Error(), "write 2 of 3")
	assert.Len(t, b.sentWrites(), 2)
	assert.Equal(t, []string{"0x1", "0x2"}, out.TxHashes())
	assert.Equal(t, "0", view.Snapshot().Balance)
	assert.Equal(t, []State{Submitting, Failed}, notices.states())
	assert.Equal(t, Idle, d.State(Multisend))

	require.Len(t, journal.entries, 1)
	assert.Equal(t, activity.StatusFailed, journal.entries[0].Status)
	assert.Equal(t, []string{"0x1", "0x2"}, journal.entries[0].TxHashes)
}

func TestAbortedMultisendShowsBalanceAfterMinedWrites(t *testing.T) {
	b := &fakeBinding{balance: "100", debit: true, failAt: 3, failErr: contract.ErrReverted}
	d, view, _, _ := newTestDispatcher(b, connected())
	_, err := view.RefreshBalance(context.Background(), b, alice)
	require.NoError(t, err)
	require.Equal(t, "100", view.Snapshot().Balance)

	out, err := d.Dispatch(context.Background(), Multisend, Input{
		Recipients: []string{bob, bob, bob},
		Amounts:    []string{"1", "2", "3"},
	})
	require.ErrorIs(t, err, contract.ErrReverted)
	assert.Contains(t, err.Error(), "write 3 of 3")
	assert.Equal(t, "97", view.Snapshot().Balance)
	assert.Equal(t, "97", out.Facts.Balance)
}

func TestRefreshFailureAfterWriteIsReported(t *testing.T) {
	readErr := errors.New("node unavailable")
	b := &fakeBinding{balance: "50", readErr: readErr}
	d, view, notices, journal := newTestDispatcher(b, connected())

	out, err := d.Dispatch(context.Background(), Transfer, Input{To: bob, Amount: "5"})
	require.NoError(t, err)
	require.Error(t, out.RefreshErr)
	assert.ErrorIs(t, out.RefreshErr, readErr)
	assert.Equal(t, "0", view.Snapshot().Balance)

	notices.mu.Lock()
	last := notices.notices[len(notices.notices)-1]
	notices.mu.Unlock()
	assert.Equal(t, Idle, last.State)
	assert.ErrorIs(t, last.Err, readErr)
	assert.Contains(t, last.Message, "transfer confirmed; balance refresh failed")

	require.Len(t, journal.entries, 1)
	assert.Equal(t, activity.StatusConfirmed, journal.entries[0].Status)
	assert.Contains(t, journal.entries[0].Error, "balance refresh failed")
}

func TestMultisendLengthMismatchWritesNothing(t *testing.T) {
	b := &fakeBinding{}
	d, _, notices, journal := newTestDispatcher(b, connected())

	_, err := d.Dispatch(context.Background(), Multisend, Input{Recipients: []string{alice, bob}, Amounts: []string{"1"}})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, b.sentWrites())
	assert.Equal(t, []State{Failed}, notices.states())
	require.Len(t, journal.entries, 1)
	assert.Equal(t, activity.StatusInvalid, journal.entries[0].Status)
}

func TestFailedWriteKeepsDisplayedState(t *testing.T) {
	b := &fakeBinding{balance: "500", failAt: 1, failErr: contract.ErrCallFailed}
	d, view, _, _ := newTestDispatcher(b, connected())
	_, err := view.Refresh(context.Background(), &fakeBinding{balance: "500"}, alice)
	require.Error(t, err) // the fake only answers balanceOf
	require.Equal(t, "500", view.Snapshot().Balance)

	_, err = d.Dispatch(context.Background(), Burn, Input{Amount: "1"})
	require.ErrorIs(t, err, contract.ErrCallFailed)
	assert.Equal(t, "500", view.Snapshot().Balance)
}

func TestDispatchWithoutSession(t *testing.T) {
	b := &fakeBinding{}
	d, _, _, _ := newTestDispatcher(b, fixedAccounts{})
	_, err := d.Dispatch(context.Background(), Pause, Input{})
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, b.sentWrites())
}

func TestDispatchWithoutBinding(t *testing.T) {
	d := New(nil, connected(), token.NewView(nil))
	_, err := d.Dispatch(context.Background(), Pause, Input{})
	assert.ErrorIs(t, err, ErrNoBinding)
}

func TestReentrantDispatchIsBusy(t *testing.T) {
	b := &fakeBinding{balance: "1", gate: make(chan struct{})}
	d, _, _, _ := newTestDispatcher(b, connected())

	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(context.Background(), Stake, Input{Amount: "1"})
		done <- err
	}()
	require.Eventually(t, func() bool { return d.State(Stake) == Submitting }, time.Second, time.Millisecond)

	_, err := d.Dispatch(context.Background(), Stake, Input{Amount: "1"})
	assert.ErrorIs(t, err, ErrBusy)

	close(b.gate)
	require.NoError(t, <-done)
	assert.Len(t, b.sentWrites(), 1)
	assert.Equal(t, Idle, d.State(Stake))
}

func TestDifferentActionsMayOverlap(t *testing.T) {
	b := &fakeBinding{balance: "1", gate: make(chan struct{})}
	d, _, _, _ := newTestDispatcher(b, connected())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, a := range []Action{Stake, Burn} {
		wg.Add(1)
		go func(i int, a Action) {
			defer wg.Done()
			_, errs[i] = d.Dispatch(context.Background(), a, Input{Amount: "1"})
		}(i, a)
	}
	require.Eventually(t, func() bool {
		return d.State(Stake) == Submitting && d.State(Burn) == Submitting
	}, time.Second, time.Millisecond)
	close(b.gate)
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Len(t, b.sentWrites(), 2)
}
