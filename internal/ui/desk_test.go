package ui

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/tokendesk/internal/dispatch"
	"github.com/Mohsinsiddi/tokendesk/internal/session"
	"github.com/Mohsinsiddi/tokendesk/internal/token"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deskBob = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

type fakeDesk struct {
	mu         sync.Mutex
	facts      token.Facts
	sess       session.Session
	noProvider bool
	pending    bool
	connects   int
	dispatched []dispatch.Input
	actions    []dispatch.Action
	states     map[dispatch.Action]dispatch.State
	refreshErr error
}

func (f *fakeDesk) Facts() token.Facts       { return f.facts }
func (f *fakeDesk) Session() session.Session { return f.sess }
func (f *fakeDesk) HasProvider() bool        { return !f.noProvider }
func (f *fakeDesk) ConnectPending() bool     { return f.pending }

func (f *fakeDesk) Connect(context.Context) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.sess = session.Session{Accounts: []string{"0xabc"}}
	return f.sess, nil
}

func (f *fakeDesk) Dispatch(_ context.Context, a dispatch.Action, in dispatch.Input) (dispatch.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
	f.dispatched = append(f.dispatched, in)
	return dispatch.Outcome{Action: a, RefreshErr: f.refreshErr}, nil
}

func (f *fakeDesk) ActionState(a dispatch.Action) dispatch.State { return f.states[a] }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds keys to the model and runs any command synchronously.
func press(t *testing.T, m DeskModel, keys ...string) DeskModel {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = next.(DeskModel)
		if cmd != nil {
			if msg := cmd(); msg != nil {
				next, _ = m.Update(msg)
				m = next.(DeskModel)
			}
		}
	}
	return m
}

func typeText(t *testing.T, m DeskModel, s string) DeskModel {
	t.Helper()
	for _, r := range s {
		m = press(t, m, string(r))
	}
	return m
}

func connectedDesk() *fakeDesk {
	return &fakeDesk{
		facts: token.Facts{Name: "Theodores", Decimals: 18, TotalSupply: "1000", Balance: "250"},
		sess:  session.Session{Accounts: []string{"0xabc"}},
	}
}

func TestDeskViewShowsFacts(t *testing.T) {
	m := NewDeskModel(context.Background(), connectedDesk(), nil, false)
	v := m.View()
	assert.Contains(t, v, "Theodores")
	assert.Contains(t, v, "0xabc")
	assert.Contains(t, v, "250")
	assert.Contains(t, v, "1000")
	for _, it := range deskItems {
		assert.Contains(t, v, it.label)
	}
}

func TestDeskViewUnits(t *testing.T) {
	b := connectedDesk()
	b.facts.Balance = "1500000000000000000"
	m := NewDeskModel(context.Background(), b, nil, true)
	assert.Contains(t, m.View(), "1.5")
}

func TestDeskConnect(t *testing.T) {
	b := &fakeDesk{}
	m := press(t, NewDeskModel(context.Background(), b, nil, false), "c")
	assert.Equal(t, 1, b.connects)
	assert.False(t, m.connecting)
	assert.Contains(t, m.View(), "connected 0xabc")
}

func TestDeskConnectDisabledWhilePending(t *testing.T) {
	b := &fakeDesk{pending: true}
	m := press(t, NewDeskModel(context.Background(), b, nil, false), "c")
	assert.Equal(t, 0, b.connects)
	assert.Contains(t, m.View(), "already pending")
}

func TestDeskConnectKeyIgnoredWhileOwnRequestRuns(t *testing.T) {
	b := &fakeDesk{}
	m := NewDeskModel(context.Background(), b, nil, false)
	next, cmd := m.Update(key("c"))
	require.NotNil(t, cmd)
	m = next.(DeskModel)
	assert.True(t, m.connecting)

	next, cmd = m.Update(key("c"))
	assert.Nil(t, cmd)
	assert.Contains(t, next.(DeskModel).View(), "already pending")
}

func TestDeskNoProvider(t *testing.T) {
	b := &fakeDesk{noProvider: true}
	m := press(t, NewDeskModel(context.Background(), b, nil, false), "c")
	assert.Equal(t, 0, b.connects)
	assert.Contains(t, m.View(), "no wallet provider")
}

func TestDeskActionNeedsSession(t *testing.T) {
	b := connectedDesk()
	b.sess = session.Session{}
	m := press(t, NewDeskModel(context.Background(), b, nil, false), "t")
	assert.Nil(t, m.form)
	assert.Contains(t, m.View(), "connect a wallet first")
}

func TestDeskTransferForm(t *testing.T) {
	b := connectedDesk()
	m := press(t, NewDeskModel(context.Background(), b, nil, false), "t")
	require.NotNil(t, m.form)
	assert.Equal(t, dispatch.Transfer, m.form.action)

	m = typeText(t, m, deskBob)
	m = press(t, m, "enter")
	m = typeText(t, m, "100")
	m = press(t, m, "enter")

	assert.Nil(t, m.form)
	require.Len(t, b.dispatched, 1)
	assert.Equal(t, dispatch.Transfer, b.actions[0])
	assert.Equal(t, dispatch.Input{To: deskBob, Amount: "100"}, b.dispatched[0])
}

func TestDeskFormEscCancels(t *testing.T) {
	b := connectedDesk()
	m := press(t, NewDeskModel(context.Background(), b, nil, false), "b")
	m = typeText(t, m, "5")
	m = press(t, m, "esc")
	assert.Nil(t, m.form)
	assert.Empty(t, b.dispatched)
}

func TestDeskFormBackspace(t *testing.T) {
	m := press(t, NewDeskModel(context.Background(), connectedDesk(), nil, false), "s")
	m = typeText(t, m, "12")
	m = press(t, m, "backspace")
	assert.Equal(t, "1", m.form.values[0])
}

func TestDeskPauseDispatchesImmediately(t *testing.T) {
	b := connectedDesk()
	press(t, NewDeskModel(context.Background(), b, nil, false), "p")
	require.Equal(t, []dispatch.Action{dispatch.Pause}, b.actions)
}

func TestDeskWarnsWhenBalanceRefreshFails(t *testing.T) {
	b := connectedDesk()
	b.refreshErr = errors.New("balance refresh failed: node unavailable")
	m := press(t, NewDeskModel(context.Background(), b, nil, false), "p")
	assert.Contains(t, m.View(), "pause done")
	assert.Contains(t, m.View(), "balance refresh failed: node unavailable")
}

func TestDeskBusyActionNotReopened(t *testing.T) {
	b := connectedDesk()
	b.states = map[dispatch.Action]dispatch.State{dispatch.Stake: dispatch.Submitting}
	m := press(t, NewDeskModel(context.Background(), b, nil, false), "s")
	assert.Nil(t, m.form)
	assert.Contains(t, m.View(), "stake is submitting")
}

func TestDeskUnitsFormScalesAmount(t *testing.T) {
	b := connectedDesk()
	m := press(t, NewDeskModel(context.Background(), b, nil, true), "u")
	m = typeText(t, m, "1.5")
	press(t, m, "enter")
	require.Len(t, b.dispatched, 1)
	assert.Equal(t, "1500000000000000000", b.dispatched[0].Amount)
}

func TestDeskNoticesFromChannel(t *testing.T) {
	ch := make(chan dispatch.Notice, 1)
	m := NewDeskModel(context.Background(), connectedDesk(), ch, false)
	ch <- dispatch.Notice{Action: dispatch.Burn, State: dispatch.Confirmed, Message: "burn confirmed"}

	msg := m.Init()()
	next, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.Contains(t, next.(DeskModel).View(), "burn confirmed")
}

func TestDeskNoticeLogIsBounded(t *testing.T) {
	m := NewDeskModel(context.Background(), connectedDesk(), nil, false)
	for i := 0; i < maxNotices+3; i++ {
		m.push("line")
	}
	assert.Len(t, m.log, maxNotices)
}

func TestBuildInputMultisend(t *testing.T) {
	in, err := buildInput(dispatch.Multisend, []string{"0xa, 0xb", "1,2"}, false, 18)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb"}, in.Recipients)
	assert.Equal(t, []string{"1", "2"}, in.Amounts)

	in, err = buildInput(dispatch.Multisend, []string{"0xa", "0.5"}, true, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"50"}, in.Amounts)

	_, err = buildInput(dispatch.Burn, []string{"0.001"}, true, 2)
	assert.ErrorIs(t, err, token.ErrInvalidAmount)
}

func TestDeskQuit(t *testing.T) {
	m := NewDeskModel(context.Background(), connectedDesk(), nil, false)
	next, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.True(t, next.(DeskModel).quitting)
	assert.Equal(t, "", next.(DeskModel).View())
}
