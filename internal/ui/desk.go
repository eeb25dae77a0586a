package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/tokendesk/internal/dispatch"
	"github.com/Mohsinsiddi/tokendesk/internal/session"
	"github.com/Mohsinsiddi/tokendesk/internal/token"
	tea "github.com/charmbracelet/bubbletea"
)

// DeskBackend is what the desk screen drives.
type DeskBackend interface {
	Facts() token.Facts
	Session() session.Session
	HasProvider() bool
	ConnectPending() bool
	Connect(ctx context.Context) (session.Session, error)
	Dispatch(ctx context.Context, a dispatch.Action, in dispatch.Input) (dispatch.Outcome, error)
	ActionState(a dispatch.Action) dispatch.State
}

type deskItem struct {
	key    string
	label  string
	action dispatch.Action // empty for connect
}

var deskItems = []deskItem{
	{"c", "connect", ""},
	{"t", "transfer", dispatch.Transfer},
	{"m", "mint", dispatch.Mint},
	{"b", "burn", dispatch.Burn},
	{"s", "stake", dispatch.Stake},
	{"u", "unstake", dispatch.Unstake},
	{"a", "approve", dispatch.Approve},
	{"x", "multisend", dispatch.Multisend},
	{"p", "pause", dispatch.Pause},
	{"r", "unpause", dispatch.Unpause},
}

const maxNotices = 6

type deskForm struct {
	action dispatch.Action
	labels []string
	values []string
	focus  int
}

func formLabels(a dispatch.Action) []string {
	switch a {
	case dispatch.Transfer, dispatch.Mint:
		return []string{"to", "amount"}
	case dispatch.Burn, dispatch.Stake, dispatch.Unstake:
		return []string{"amount"}
	case dispatch.Approve:
		return []string{"spender", "amount"}
	case dispatch.Multisend:
		return []string{"recipients (comma separated)", "amounts (comma separated)"}
	}
	return nil
}

// Messages.
type (
	connectDoneMsg struct {
		sess session.Session
		err  error
	}
	actionDoneMsg struct {
		action dispatch.Action
		out    dispatch.Outcome
		err    error
	}
	noticeMsg dispatch.Notice
)

// DeskModel is the interactive token desk: facts at the top, the connect
// key and nine actions below, notices at the bottom.
type DeskModel struct {
	ctx     context.Context
	backend DeskBackend
	notices <-chan dispatch.Notice
	units   bool

	cursor     int
	form       *deskForm
	log        []string
	connecting bool
	quitting   bool
}

// NewDeskModel builds the desk. notices may be nil. When units is true
// amounts are typed and shown in human units.
func NewDeskModel(ctx context.Context, backend DeskBackend, notices <-chan dispatch.Notice, units bool) DeskModel {
	return DeskModel{ctx: ctx, backend: backend, notices: notices, units: units}
}

// RunDesk runs the desk full-screen until the user quits.
func RunDesk(ctx context.Context, backend DeskBackend, notices <-chan dispatch.Notice, units bool) error {
	p := tea.NewProgram(NewDeskModel(ctx, backend, notices, units), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("desk: %w", err)
	}
	return nil
}

func (m DeskModel) Init() tea.Cmd {
	return m.listen()
}

func (m DeskModel) listen() tea.Cmd {
	if m.notices == nil {
		return nil
	}
	ch := m.notices
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func (m DeskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.updateBrowse(msg)

	case connectDoneMsg:
		m.connecting = false
		if msg.err != nil {
			m.push(Err("connect: " + msg.err.Error()))
		} else {
			m.push(Success("connected " + msg.sess.Active()))
		}

	case actionDoneMsg:
		// with a notice channel the dispatcher already reported the outcome
		if m.notices == nil {
			if msg.err != nil {
				m.push(Err(fmt.Sprintf("%s failed: %v", msg.action, msg.err)))
			} else {
				m.push(Success(fmt.Sprintf("%s done %s", msg.action, strings.Join(msg.out.TxHashes(), " "))))
				if msg.out.RefreshErr != nil {
					m.push(Warn(msg.out.RefreshErr.Error()))
				}
			}
		}

	case noticeMsg:
		m.pushNotice(dispatch.Notice(msg))
		return m, m.listen()
	}
	return m, nil
}

func (m DeskModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(deskItems)-1 {
			m.cursor++
		}
		return m, nil
	case "enter", " ":
		return m.activate(deskItems[m.cursor])
	}
	for i, it := range deskItems {
		if msg.String() == it.key {
			m.cursor = i
			return m.activate(it)
		}
	}
	return m, nil
}

func (m DeskModel) activate(it deskItem) (tea.Model, tea.Cmd) {
	if !m.backend.HasProvider() {
		m.push(Err("no wallet provider detected"))
		return m, nil
	}
	if it.action == "" {
		if m.connecting || m.backend.ConnectPending() {
			m.push(Warn("a connection request is already pending"))
			return m, nil
		}
		m.connecting = true
		m.push(Info("requesting account access…"))
		backend, ctx := m.backend, m.ctx
		return m, func() tea.Msg {
			s, err := backend.Connect(ctx)
			return connectDoneMsg{sess: s, err: err}
		}
	}

	if m.backend.Session().Empty() {
		m.push(Warn("connect a wallet first"))
		return m, nil
	}
	if st := m.backend.ActionState(it.action); st != dispatch.Idle && st != dispatch.Failed {
		m.push(Warn(fmt.Sprintf("%s is %s", it.action, st)))
		return m, nil
	}

	labels := formLabels(it.action)
	if len(labels) == 0 {
		return m, m.dispatch(it.action, dispatch.Input{})
	}
	m.form = &deskForm{action: it.action, labels: labels, values: make([]string, len(labels))}
	return m, nil
}

func (m DeskModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := *m.form
	f.values = append([]string(nil), f.values...)

	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.form = nil
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		f.focus = (f.focus + 1) % len(f.labels)
	case tea.KeyShiftTab, tea.KeyUp:
		f.focus = (f.focus + len(f.labels) - 1) % len(f.labels)
	case tea.KeyBackspace:
		if v := []rune(f.values[f.focus]); len(v) > 0 {
			f.values[f.focus] = string(v[:len(v)-1])
		}
	case tea.KeySpace:
		f.values[f.focus] += " "
	case tea.KeyRunes:
		f.values[f.focus] += string(msg.Runes)
	case tea.KeyEnter:
		if f.focus < len(f.labels)-1 {
			f.focus++
			break
		}
		in, err := buildInput(f.action, f.values, m.units, m.backend.Facts().Decimals)
		if err != nil {
			m.form = &f
			m.push(Err(err.Error()))
			return m, nil
		}
		m.form = nil
		return m, m.dispatch(f.action, in)
	}
	m.form = &f
	return m, nil
}

func (m DeskModel) dispatch(a dispatch.Action, in dispatch.Input) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		out, err := backend.Dispatch(ctx, a, in)
		return actionDoneMsg{action: a, out: out, err: err}
	}
}

// buildInput maps form values onto a dispatch input, scaling amounts by
// 10^decimals when units is set.
func buildInput(a dispatch.Action, values []string, units bool, decimals uint8) (dispatch.Input, error) {
	amount := func(s string) (string, error) {
		s = strings.TrimSpace(s)
		if !units {
			return s, nil
		}
		return token.ToBaseUnits(s, decimals)
	}

	var in dispatch.Input
	var err error
	switch a {
	case dispatch.Transfer, dispatch.Mint:
		in.To = strings.TrimSpace(values[0])
		in.Amount, err = amount(values[1])
	case dispatch.Burn, dispatch.Stake, dispatch.Unstake:
		in.Amount, err = amount(values[0])
	case dispatch.Approve:
		in.Spender = strings.TrimSpace(values[0])
		in.Amount, err = amount(values[1])
	case dispatch.Multisend:
		in.Recipients = splitList(values[0])
		for _, s := range splitList(values[1]) {
			v, aerr := amount(s)
			if aerr != nil {
				return in, aerr
			}
			in.Amounts = append(in.Amounts, v)
		}
	}
	return in, err
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (m *DeskModel) push(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxNotices {
		m.log = m.log[len(m.log)-maxNotices:]
	}
}

func (m *DeskModel) pushNotice(n dispatch.Notice) {
	switch {
	case n.Err != nil:
		m.push(Err(n.Message))
	case n.State == dispatch.Confirmed:
		m.push(Success(n.Message))
	default:
		m.push(Info(n.Message))
	}
}

func (m DeskModel) amount(base string, decimals uint8) string {
	if m.units {
		return token.FormatUnits(base, decimals)
	}
	return base
}

func (m DeskModel) View() string {
	if m.quitting {
		return ""
	}
	var sb strings.Builder

	f := m.backend.Facts()
	name := f.Name
	if name == "" {
		name = "Token"
	}
	sb.WriteString(StyleTitle.Render("  "+name) + "\n")

	account := StyleMeta.Render("not connected")
	if s := m.backend.Session(); !s.Empty() {
		account = Addr(s.Active())
	}
	if m.connecting || m.backend.ConnectPending() {
		account = StyleWarning.Render("awaiting wallet approval…")
	}
	sb.WriteString(fmt.Sprintf("  %-14s %s\n", Meta("Account"), account))
	sb.WriteString(fmt.Sprintf("  %-14s %s\n", Meta("Balance"), Val(m.amount(f.Balance, f.Decimals))))
	sb.WriteString(fmt.Sprintf("  %-14s %s\n", Meta("Total supply"), Val(m.amount(f.TotalSupply, f.Decimals))))
	sb.WriteString(fmt.Sprintf("  %-14s %s\n\n", Meta("Decimals"), Val(fmt.Sprint(f.Decimals))))

	sb.WriteString(StyleHeader.Render("  Actions") + "\n")
	for i, it := range deskItems {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}
		status := ""
		if it.action != "" {
			if st := m.backend.ActionState(it.action); st != dispatch.Idle {
				status = "  " + StyleWarning.Render(st.String())
			}
		} else if m.connecting || m.backend.ConnectPending() {
			status = "  " + StyleMeta.Render("(disabled while pending)")
		}
		line := fmt.Sprintf("%s[%s] %s", prefix, it.key, it.label)
		if i == m.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + status + "\n")
	}
	sb.WriteString("\n")

	if m.form != nil {
		sb.WriteString(StyleHeader.Render("  "+string(m.form.action)) + "\n")
		for i, label := range m.form.labels {
			cursor := " "
			if i == m.form.focus {
				cursor = "▸"
			}
			sb.WriteString(fmt.Sprintf("  %s %-30s %s\n", cursor, Meta(label), Val(m.form.values[i])))
		}
		sb.WriteString(Meta("  [ Tab ] next field   [ Enter ] submit   [ Esc ] cancel") + "\n\n")
	}

	for _, line := range m.log {
		sb.WriteString("  " + line + "\n")
	}
	sb.WriteString("\n" + Meta("  [ ↑↓ / jk ] move   [ Enter ] run   [ key ] shortcut   [ q ] quit") + "\n")
	return sb.String()
}
