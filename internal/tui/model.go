// Package tui renders the interactive client: the login and registration
// forms, the six-slot OTP entry, and the authenticated dashboard, all driven
// by the shared auth flow controller and session store.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/luminary-app/luminary/internal/authflow"
	"github.com/luminary-app/luminary/internal/log"
	"github.com/luminary-app/luminary/internal/session"
)

// ViewType represents the current view being displayed
type ViewType int

// View type constants
const (
	// ViewLogin is the credential entry form
	ViewLogin ViewType = iota
	// ViewRegister is the account creation form
	ViewRegister
	// ViewOTP is the six-digit verification entry
	ViewOTP
	// ViewDashboard is the authenticated landing view
	ViewDashboard
)

// Model represents the TUI application state
type Model struct {
	ctx    context.Context
	flow   *authflow.Controller
	store  *session.Store
	logger *log.Logger

	// UI state
	currentView ViewType
	width       int
	height      int
	ready       bool
	quitting    bool
	busy        bool // a network call is outstanding; submit controls are disabled

	// Form state (login: email, password; register: name, email, password)
	inputs     []textinput.Model
	focusIndex int

	// OTP state
	otp         *authflow.OTPInput
	countdown   *authflow.Countdown
	trustDevice bool
	tickGen     int // invalidates countdown ticks from an abandoned OTP round

	statusMsg string
	errMsg    string

	styles Styles
}

// NewModel creates a new TUI model opening on the given view.
func NewModel(ctx context.Context, flow *authflow.Controller, store *session.Store, logger *log.Logger, initial ViewType) Model {
	m := Model{
		ctx:         ctx,
		flow:        flow,
		store:       store,
		logger:      logger,
		currentView: initial,
		styles:      DefaultStyles(),
	}

	switch initial {
	case ViewRegister:
		m.inputs = registerInputs()
	case ViewOTP:
		m.beginOTPRound()
	default:
		if initial == ViewLogin {
			m.inputs = loginInputs()
		}
	}

	return m
}

func loginInputs() []textinput.Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 128
	password.Width = 40

	return []textinput.Model{email, password}
}

func registerInputs() []textinput.Model {
	name := textinput.New()
	name.Placeholder = "name"
	name.CharLimit = 100
	name.Width = 40
	name.Focus()

	inputs := loginInputs()
	inputs[0].Blur()
	return append([]textinput.Model{name}, inputs...)
}

// beginOTPRound resets the digit slots and restarts the expiry countdown.
// Bumping the generation orphans any tick still in flight from the previous
// round.
func (m *Model) beginOTPRound() {
	m.otp = authflow.NewOTPInput()
	m.countdown = authflow.NewCountdown()
	m.trustDevice = false
	m.tickGen++
}

// Init initializes the TUI model (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		if msg.outcome == authflow.LoginOTPSent {
			m.currentView = ViewOTP
			m.errMsg = ""
			m.statusMsg = "We emailed you a 6-digit code."
			m.beginOTPRound()
			return m, m.tickCmd()
		}
		return m.enterDashboard()

	case registerResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.currentView = ViewLogin
		m.inputs = loginInputs()
		m.focusIndex = 0
		m.errMsg = ""
		m.statusMsg = "Account created. Sign in to continue."
		return m, nil

	case verifyResultMsg:
		m.busy = false
		if msg.err != nil {
			// The failed code is cleared in full; the user re-enters all six
			// digits rather than hunting for the wrong one.
			m.errMsg = msg.err.Error()
			m.otp.Clear()
			return m, nil
		}
		return m.enterDashboard()

	case resendResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		// The old code is dead; digits entered against it are too.
		m.otp.Clear()
		m.errMsg = ""
		m.statusMsg = "A new code is on its way."
		return m, nil

	case sessionExpiredMsg:
		return m.returnToLogin("Your session has expired. Please sign in again.")

	case countdownTickMsg:
		if msg.gen != m.tickGen || m.currentView != ViewOTP {
			return m, nil
		}
		return m, m.tickCmd()
	}

	// Anything else (cursor blink and friends) goes to the focused input.
	if len(m.inputs) > 0 && (m.currentView == ViewLogin || m.currentView == ViewRegister) {
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.currentView {
	case ViewLogin:
		return m.renderLogin()
	case ViewRegister:
		return m.renderRegister()
	case ViewOTP:
		return m.renderOTP()
	case ViewDashboard:
		return m.renderDashboard()
	default:
		return "Unknown view"
	}
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.currentView {
	case ViewLogin:
		return m.handleLoginKeys(msg)
	case ViewRegister:
		return m.handleRegisterKeys(msg)
	case ViewOTP:
		return m.handleOTPKeys(msg)
	case ViewDashboard:
		return m.handleDashboardKeys(msg)
	}

	return m, nil
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.busy {
			return m, nil
		}
		email := m.inputs[0].Value()
		password := m.inputs[1].Value()
		if email == "" || password == "" {
			m.errMsg = "Email and password are required."
			return m, nil
		}
		m.busy = true
		m.errMsg = ""
		m.statusMsg = ""
		return m, m.submitLoginCmd(email, password)

	case "tab", "down":
		return m.cycleFocus(1)
	case "shift+tab", "up":
		return m.cycleFocus(-1)

	case "ctrl+r":
		m.currentView = ViewRegister
		m.inputs = registerInputs()
		m.focusIndex = 0
		m.errMsg = ""
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

func (m Model) handleRegisterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.busy {
			return m, nil
		}
		name := m.inputs[0].Value()
		email := m.inputs[1].Value()
		password := m.inputs[2].Value()
		if name == "" || email == "" || password == "" {
			m.errMsg = "All fields are required."
			return m, nil
		}
		if len(password) < 6 {
			m.errMsg = "Password must be at least 6 characters."
			return m, nil
		}
		m.busy = true
		m.errMsg = ""
		return m, m.registerCmd(name, email, password)

	case "tab", "down":
		return m.cycleFocus(1)
	case "shift+tab", "up":
		return m.cycleFocus(-1)

	case "esc", "ctrl+r":
		m.currentView = ViewLogin
		m.inputs = loginInputs()
		m.focusIndex = 0
		m.errMsg = ""
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

func (m Model) handleOTPKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.flow.Abandon()
		return m.returnToLogin("")

	case "backspace":
		if !m.busy {
			m.otp.Backspace()
		}
		return m, nil

	case "ctrl+t":
		m.trustDevice = !m.trustDevice
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		// A multi-rune key event is a paste.
		if len(msg.Runes) > 1 {
			if m.otp.Paste(string(msg.Runes)) {
				return m.submitOTP()
			}
			return m, nil
		}

		r := msg.Runes[0]
		if r == 'r' {
			m.errMsg = ""
			m.busy = true
			return m, m.resendCmd()
		}
		if m.otp.Type(r) {
			return m.submitOTP()
		}
	}

	return m, nil
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "l":
		m.store.Logout()
		return m.returnToLogin("Signed out.")
	}
	return m, nil
}

func (m Model) submitOTP() (tea.Model, tea.Cmd) {
	m.busy = true
	m.errMsg = ""
	return m, m.verifyCmd(m.otp.Code(), m.trustDevice)
}

func (m Model) enterDashboard() (tea.Model, tea.Cmd) {
	m.currentView = ViewDashboard
	m.errMsg = ""
	m.statusMsg = ""
	return m, nil
}

func (m Model) returnToLogin(status string) (tea.Model, tea.Cmd) {
	m.currentView = ViewLogin
	m.inputs = loginInputs()
	m.focusIndex = 0
	m.busy = false
	m.errMsg = ""
	m.statusMsg = status
	m.tickGen++
	return m, nil
}

func (m Model) cycleFocus(delta int) (tea.Model, tea.Cmd) {
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = (m.focusIndex + delta + len(m.inputs)) % len(m.inputs)
	return m, m.inputs[m.focusIndex].Focus()
}

func (m Model) updateFocusedInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

// Custom messages for auth flow events

// loginResultMsg carries the outcome of a credential submission
type loginResultMsg struct {
	outcome authflow.LoginOutcome
	err     error
}

// registerResultMsg carries the outcome of an account creation
type registerResultMsg struct {
	err error
}

// verifyResultMsg carries the outcome of an OTP verification
type verifyResultMsg struct {
	err error
}

// resendResultMsg carries the outcome of a resend request
type resendResultMsg struct {
	err error
}

// sessionExpiredMsg signals that the session was invalidated out-of-band
// (a 401 tripped the global handler, or an explicit logout elsewhere)
type sessionExpiredMsg struct{}

// SessionExpired builds the message the program feeds in when the session
// store reports an involuntary logout.
func SessionExpired() tea.Msg {
	return sessionExpiredMsg{}
}

// countdownTickMsg drives the OTP expiry display once per second
type countdownTickMsg struct {
	gen int
}

// Commands

func (m Model) submitLoginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.flow.SubmitLogin(m.ctx, email, password)
		return loginResultMsg{outcome: outcome, err: err}
	}
}

func (m Model) registerCmd(name, email, password string) tea.Cmd {
	return func() tea.Msg {
		return registerResultMsg{err: m.flow.Register(m.ctx, name, email, password)}
	}
}

func (m Model) verifyCmd(code string, trustDevice bool) tea.Cmd {
	return func() tea.Msg {
		return verifyResultMsg{err: m.flow.VerifyOTP(m.ctx, code, trustDevice)}
	}
}

func (m Model) resendCmd() tea.Cmd {
	countdown := m.countdown
	return func() tea.Msg {
		return resendResultMsg{err: m.flow.Resend(m.ctx, countdown)}
	}
}

func (m Model) tickCmd() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{gen: gen}
	})
}
