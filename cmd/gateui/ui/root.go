package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateHost state = iota
	stateDecision
	stateReason
	stateCountdown
	stateDone
)

type errMsg struct{ err error }

type checkedMsg struct{ res CheckResult }

type bypassMsg struct{ st BypassStatus }

type reasonMsg struct {
	st       BypassStatus
	accepted bool
}

type redirectMsg struct{ url string }

type pollMsg struct{}

type idleMsg struct{}

// pollInterval is how often the countdown view refreshes from the agent.
const pollInterval = time.Second

var blockText = map[string]string{
	"vacation":        "Vacation mode is on. Everything gated stays closed.",
	"weekend":         "Weekends are blocked.",
	"outside_hours":   "Outside the allowed hours.",
	"already_visited": "You already used today's visit.",
}

type RootModel struct {
	client  *Client
	state   state
	host    textinput.Model
	reason  textinput.Model
	spinner spinner.Model

	check    CheckResult
	bypass   BypassStatus
	notice   string
	err      error
	Quitting bool
}

func NewRootModel(c *Client) RootModel {
	host := textinput.New()
	host.Placeholder = "twitter.com"
	host.Prompt = "Site: "
	host.Focus()

	reason := textinput.New()
	reason.Placeholder = "Why do you need this site right now?"
	reason.Prompt = "Reason: "
	reason.CharLimit = 280
	reason.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return RootModel{client: c, state: stateHost, host: host, reason: reason, spinner: sp}
}

func (m RootModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m RootModel) call(f func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return f(context.Background())
	}
}

func (m RootModel) checkCmd(host string) tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		res, err := m.client.Check(ctx, host)
		if err != nil {
			return errMsg{err}
		}
		return checkedMsg{res}
	})
}

func (m RootModel) startBypassCmd() tea.Cmd {
	host := m.check.Hostname
	return m.call(func(ctx context.Context) tea.Msg {
		st, err := m.client.StartBypass(ctx, host)
		if err != nil {
			return errMsg{err}
		}
		return bypassMsg{st}
	})
}

func (m RootModel) reenterCmd() tea.Cmd {
	id := m.bypass.ID
	return m.call(func(ctx context.Context) tea.Msg {
		st, err := m.client.Reenter(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return bypassMsg{st}
	})
}

func (m RootModel) submitCmd(text string) tea.Cmd {
	id := m.bypass.ID
	return m.call(func(ctx context.Context) tea.Msg {
		st, ok, err := m.client.SubmitReason(ctx, id, text)
		if err != nil {
			return errMsg{err}
		}
		return reasonMsg{st: st, accepted: ok}
	})
}

func (m RootModel) statusCmd() tea.Cmd {
	id := m.bypass.ID
	return m.call(func(ctx context.Context) tea.Msg {
		st, err := m.client.Status(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return bypassMsg{st}
	})
}

func (m RootModel) leaveCmd() tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		url, err := m.client.Redirect(ctx)
		if err != nil {
			return errMsg{err}
		}
		return redirectMsg{url}
	})
}

func (m RootModel) sessionCmd(op func(ctx context.Context, id string) error) tea.Cmd {
	id := m.bypass.ID
	return m.call(func(ctx context.Context) tea.Msg {
		if err := op(ctx, id); err != nil {
			return errMsg{err}
		}
		return idleMsg{}
	})
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			if m.bypass.ID != "" && m.state != stateDone {
				return m, tea.Sequence(m.sessionCmd(m.client.Close), tea.Quit)
			}
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case errMsg:
		m.err = msg.err
		return m, nil

	case checkedMsg:
		m.err = nil
		m.check = msg.res
		m.state = stateDecision
		return m, nil

	case bypassMsg:
		return m.onBypass(msg.st)

	case reasonMsg:
		m.bypass = msg.st
		if !msg.accepted {
			m.notice = "That reason is too short or looks like filler. Write a real one."
			return m, nil
		}
		m.notice = ""
		m.state = stateCountdown
		return m, tea.Batch(m.spinner.Tick, pollCmd())

	case pollMsg:
		if m.state != stateCountdown {
			return m, nil
		}
		return m, m.statusCmd()

	case redirectMsg:
		m.state = stateDone
		m.notice = "Leaving for " + msg.url
		return m, nil

	case idleMsg:
		return m, nil

	case spinner.TickMsg:
		if m.state != stateCountdown {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m.updateInputs(msg)
}

func (m RootModel) onBypass(st BypassStatus) (tea.Model, tea.Cmd) {
	m.err = nil
	m.bypass = st
	switch st.State {
	case "reason_entry":
		m.state = stateReason
		m.reason.SetValue("")
		m.reason.Focus()
		return m, textinput.Blink
	case "countdown":
		return m, pollCmd()
	case "committed":
		m.state = stateDone
		m.notice = fmt.Sprintf("%s unlocked for this session.", st.Platform)
	case "aborted":
		m.state = stateDone
		m.notice = "Bypass aborted. Nothing was recorded."
	}
	return m, nil
}

func (m RootModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateHost:
		if msg.Type == tea.KeyEnter {
			host := strings.TrimSpace(m.host.Value())
			if host == "" {
				return m, nil
			}
			return m, m.checkCmd(host)
		}
	case stateDecision:
		switch msg.String() {
		case "b":
			if m.check.Decision.Allowed {
				return m, nil
			}
			if m.bypass.ID != "" {
				return m, m.reenterCmd()
			}
			return m, m.startBypassCmd()
		case "l":
			if !m.check.Decision.Allowed {
				return m, m.leaveCmd()
			}
		case "n":
			if m.bypass.ID != "" {
				closeCmd := m.sessionCmd(m.client.Close)
				return m.reset(), tea.Batch(closeCmd, textinput.Blink)
			}
			return m.reset(), textinput.Blink
		case "q":
			m.Quitting = true
			if m.bypass.ID != "" {
				return m, tea.Sequence(m.sessionCmd(m.client.Close), tea.Quit)
			}
			return m, tea.Quit
		}
		return m, nil
	case stateReason:
		switch msg.Type {
		case tea.KeyEnter:
			return m, m.submitCmd(m.reason.Value())
		case tea.KeyEsc:
			m.state = stateDecision
			m.reason.Blur()
			return m, m.sessionCmd(m.client.Cancel)
		}
	case stateCountdown:
		if msg.String() == "a" {
			return m, tea.Sequence(m.sessionCmd(m.client.Abort), m.statusCmd())
		}
		return m, nil
	case stateDone:
		switch msg.String() {
		case "n":
			return m.reset(), textinput.Blink
		case "q", "enter":
			m.Quitting = true
			return m, tea.Quit
		}
		return m, nil
	}
	return m.updateInputs(msg)
}

func (m RootModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case stateHost:
		m.host, cmd = m.host.Update(msg)
	case stateReason:
		m.reason, cmd = m.reason.Update(msg)
	}
	return m, cmd
}

func (m RootModel) reset() RootModel {
	m.state = stateHost
	m.check = CheckResult{}
	m.bypass = BypassStatus{}
	m.notice = ""
	m.err = nil
	m.host.SetValue("")
	m.host.Focus()
	return m
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Focus Guard"))
	b.WriteString("\n\n")

	switch m.state {
	case stateHost:
		b.WriteString(m.host.View())
		b.WriteString("\n\n" + hintStyle.Render("enter: check  ctrl+c: quit"))
	case stateDecision:
		b.WriteString(m.decisionView())
	case stateReason:
		fmt.Fprintf(&b, "%s is blocked. Explain why you need it.\n\n", m.bypass.Platform)
		b.WriteString(m.reason.View())
		b.WriteString("\n\n" + hintStyle.Render("enter: submit  esc: cancel"))
	case stateCountdown:
		fmt.Fprintf(&b, "%s Opening %s in %ds\n\n", m.spinner.View(), m.bypass.Platform, m.bypass.Remaining)
		fmt.Fprintf(&b, "Reason: %q\n\n", m.bypass.Reason)
		b.WriteString(hintStyle.Render("a: abort  (the wait cannot be skipped)"))
	case stateDone:
		b.WriteString(m.notice)
		b.WriteString("\n\n" + hintStyle.Render("n: another site  q: quit"))
	}
	if m.notice != "" && m.state == stateReason {
		b.WriteString("\n" + denyStyle.Render(m.notice))
	}
	if m.err != nil {
		b.WriteString("\n\n" + errorMessageStyle(m.err.Error()))
	}
	return docStyle.Render(b.String())
}

func (m RootModel) decisionView() string {
	c := m.check
	if !c.Gated {
		return allowStyle.Render(c.Hostname+" is not gated.") + "\n\n" + hintStyle.Render("n: another site  q: quit")
	}
	if c.Decision.Allowed {
		how := map[string]string{
			"category_disabled": "gating is off for this category",
			"session_consent":   "already unlocked this session",
			"first_visit":       "first visit today",
		}[c.Decision.Path]
		return allowStyle.Render(fmt.Sprintf("%s allowed", c.Platform)) + " (" + how + ")\n\n" +
			hintStyle.Render("n: another site  q: quit")
	}
	text := blockText[c.Decision.BlockType]
	return denyStyle.Render(fmt.Sprintf("%s blocked", c.Platform)) + "\n" + text + "\n\n" +
		hintStyle.Render("l: leave  b: bypass with a reason  n: another site  q: quit")
}
