package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luminary-app/luminary/internal/authflow"
)

// renderLogin renders the credential entry form
func (m Model) renderLogin() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Luminary"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Sign in to your account"))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Label.Render("Email"))
	b.WriteString("\n")
	b.WriteString(m.inputs[0].View())
	b.WriteString("\n\n")

	b.WriteString(m.styles.Label.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.inputs[1].View())
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusLine())

	if m.busy {
		b.WriteString(m.styles.Muted.Render("Signing in..."))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpLine([][2]string{
		{"enter", "sign in"},
		{"tab", "next field"},
		{"ctrl+r", "create account"},
		{"ctrl+c", "quit"},
	}))

	return m.styles.Border.Render(b.String())
}

// renderRegister renders the account creation form
func (m Model) renderRegister() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Luminary"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Create an account"))
	b.WriteString("\n\n")

	for i, label := range []string{"Name", "Email", "Password"} {
		b.WriteString(m.styles.Label.Render(label))
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderStatusLine())

	if m.busy {
		b.WriteString(m.styles.Muted.Render("Creating account..."))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpLine([][2]string{
		{"enter", "create"},
		{"tab", "next field"},
		{"esc", "back to sign in"},
	}))

	return m.styles.Border.Render(b.String())
}

// renderOTP renders the six-slot verification entry
func (m Model) renderOTP() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Check your email"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Enter the 6-digit code sent to " + m.store.PendingEmail()))
	b.WriteString("\n\n")

	b.WriteString(m.renderSlots())
	b.WriteString("\n\n")

	if m.countdown.Expired() {
		b.WriteString(m.styles.Error.Render("Code expired."))
		b.WriteString(m.styles.Muted.Render(" Press r to request a new one."))
	} else {
		remainingStyle := m.styles.Label
		if m.countdown.Remaining() < 60*time.Second {
			remainingStyle = m.styles.Error
		}
		b.WriteString(m.styles.Muted.Render("Code expires in "))
		b.WriteString(remainingStyle.Render(m.countdown.Format()))
	}
	b.WriteString("\n\n")

	trust := "[ ]"
	if m.trustDevice {
		trust = "[x]"
	}
	b.WriteString(m.styles.Muted.Render(trust + " trust this device for 7 days (ctrl+t)"))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusLine())

	if m.busy {
		b.WriteString(m.styles.Muted.Render("Verifying..."))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpLine([][2]string{
		{"0-9", "enter code"},
		{"r", "resend"},
		{"esc", "back"},
	}))

	return m.styles.Border.Render(b.String())
}

// renderSlots renders the six digit boxes with the focused one highlighted
func (m Model) renderSlots() string {
	slots := make([]string, 0, authflow.OTPLength)
	for i := 0; i < authflow.OTPLength; i++ {
		digit, ok := m.otp.Digit(i)
		if !ok {
			digit = " "
		}

		style := m.styles.Slot
		if i == m.otp.Focus() && !m.busy {
			style = m.styles.SlotFocus
		}
		slots = append(slots, style.Render(digit))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, slots...)
}

// renderDashboard renders the authenticated landing view
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Luminary"))
	b.WriteString("\n")

	user := m.store.User()
	if user != nil {
		b.WriteString(m.styles.Success.Render("Signed in"))
		b.WriteString(m.styles.Muted.Render(" as "))
		b.WriteString(m.styles.Label.Render(user.Name))
		b.WriteString(m.styles.Muted.Render(" <" + user.Email + ">"))
		if user.Role != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.Muted.Render("Role: " + user.Role))
		}
	} else {
		b.WriteString(m.styles.Success.Render("Signed in"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusLine())

	b.WriteString(m.renderHelpLine([][2]string{
		{"l", "sign out"},
		{"q", "quit"},
	}))

	return m.styles.Border.Render(b.String())
}

// renderStatusLine renders the transient error or status message, if any
func (m Model) renderStatusLine() string {
	if m.errMsg != "" {
		return m.styles.Error.Render(m.errMsg) + "\n\n"
	}
	if m.statusMsg != "" {
		return m.styles.Success.Render(m.statusMsg) + "\n\n"
	}
	return ""
}

// renderHelpLine renders the key bindings footer
func (m Model) renderHelpLine(bindings [][2]string) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		parts = append(parts, m.styles.Key.Render(kb[0])+" "+m.styles.KeyDesc.Render(kb[1]))
	}
	return m.styles.Help.Render(strings.Join(parts, "  •  "))
}
