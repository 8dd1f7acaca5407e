package authflow

import "strings"

// OTPLength is the fixed number of digits in a verification code.
const OTPLength = 6

// OTPInput models the fixed-length digit-slot entry for a verification
// code, independent of any UI. Typing a digit advances focus, backspace on
// an empty slot retreats, and a full paste fills every slot at once. Only
// digits are accepted; anything else leaves the input untouched.
//
// Type and Paste report when the code became complete through that action,
// which is the signal to submit for verification exactly once.
type OTPInput struct {
	slots [OTPLength]rune
	focus int
}

// NewOTPInput creates an empty input focused on the first slot.
func NewOTPInput() *OTPInput {
	return &OTPInput{}
}

// Type enters one character into the focused slot. Non-digits are rejected
// without mutating state. Filling the final slot completes the code and
// returns true.
func (o *OTPInput) Type(r rune) bool {
	if r < '0' || r > '9' {
		return false
	}

	o.slots[o.focus] = r

	if o.focus < OTPLength-1 {
		o.focus++
		return false
	}

	return o.Complete()
}

// Backspace clears the focused slot, or retreats to the previous slot when
// the focused one is already empty.
func (o *OTPInput) Backspace() {
	if o.slots[o.focus] != 0 {
		o.slots[o.focus] = 0
		return
	}
	if o.focus > 0 {
		o.focus--
	}
}

// Paste fills all slots from a pasted string. Non-digit characters are
// stripped first; the result must be exactly the required length, otherwise
// nothing changes. A successful paste completes the code and returns true.
func (o *OTPInput) Paste(s string) bool {
	var digits []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
		if len(digits) == OTPLength {
			break
		}
	}

	if len(digits) != OTPLength {
		return false
	}

	copy(o.slots[:], digits)
	o.focus = OTPLength - 1
	return true
}

// Code returns the entered digits in slot order.
func (o *OTPInput) Code() string {
	var b strings.Builder
	for _, r := range o.slots {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Complete reports whether every slot holds a digit.
func (o *OTPInput) Complete() bool {
	for _, r := range o.slots {
		if r == 0 {
			return false
		}
	}
	return true
}

// Clear empties every slot and refocuses the first one, forcing re-entry
// after a failed verification.
func (o *OTPInput) Clear() {
	o.slots = [OTPLength]rune{}
	o.focus = 0
}

// Focus returns the index of the focused slot.
func (o *OTPInput) Focus() int {
	return o.focus
}

// Digit returns the digit at slot i and whether the slot is filled.
func (o *OTPInput) Digit(i int) (string, bool) {
	if i < 0 || i >= OTPLength || o.slots[i] == 0 {
		return "", false
	}
	return string(o.slots[i]), true
}
