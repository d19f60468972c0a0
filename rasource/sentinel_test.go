package rasource

import (
	"errors"
	"io"
	"testing"
)

func TestSentinelErrors_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrNotFound", ErrNotFound, "not found as file or resource"},
		{"ErrClosed", ErrClosed, "source closed"},
		{"ErrInvalidOffset", ErrInvalidOffset, "invalid offset"},
		{"ErrInvalidName", ErrInvalidName, "invalid resource name"},
		{"ErrUnsupportedScheme", ErrUnsupportedScheme, "unsupported url scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("%s.Error() = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"with name", &Error{Op: "open", Name: "/tmp/a.pdf", Err: ErrNotFound}, "rasource: open /tmp/a.pdf: not found as file or resource"},
		{"without name", &Error{Op: "read", Err: io.ErrUnexpectedEOF}, "rasource: read: unexpected EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, tt.err.Err) {
				t.Error("errors.Is does not reach the cause")
			}
		})
	}
}

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrClosed, ErrInvalidOffset, ErrInvalidName, ErrUnsupportedScheme}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if (i == j) != errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = %v", a, b, i != j)
			}
		}
	}
}
