package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeCapacityExceeded, "%s pool full (%d)", "block", 2000)

	if err.Code != ErrCodeCapacityExceeded {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeCapacityExceeded)
	}
	if want := "CAPACITY_EXCEEDED: block pool full (2000)"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeNetwork, cause, "subscribe %s", "blocks")

	if want := "NETWORK_ERROR: subscribe blocks: connection reset"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIsAndGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"coded", New(ErrCodeInvalidGeometry, "nan"), ErrCodeInvalidGeometry},
		{"outer code wins", Wrap(ErrCodeNetwork, New(ErrCodeInvalidItem, "inner"), "outer"), ErrCodeNetwork},
		{"fmt wrapped", fmtWrap(New(ErrCodeNotFound, "gone")), ErrCodeNotFound},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeUnavailable) {
				t.Error("Is(UNAVAILABLE) should not match")
			}
		})
	}
}

func fmtWrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "layout: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeNotFound, "no block 0xabc")); got != "no block 0xabc" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestIsSoft(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"capacity", New(ErrCodeCapacityExceeded, "full"), true},
		{"geometry", New(ErrCodeInvalidGeometry, "nan"), true},
		{"missing relative", New(ErrCodeMissingRelative, "orphan"), true},
		{"duplicate", New(ErrCodeDuplicateInstance, "dup"), true},
		{"wrapped soft", Wrap(ErrCodeMissingRelative, errors.New("x"), "y"), true},
		{"network", New(ErrCodeNetwork, "down"), false},
		{"plain", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSoft(tt.err); got != tt.want {
				t.Errorf("IsSoft() = %v, want %v", got, tt.want)
			}
		})
	}
}
