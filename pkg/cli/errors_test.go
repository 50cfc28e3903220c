package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "with field",
			err:  &ConfigError{Field: "store.backend", Message: "must be one of memory, sqlite, redis"},
			want: "config error in store.backend: must be one of memory, sqlite, redis",
		},
		{
			name: "without field",
			err:  &ConfigError{Message: "failed to load config"},
			want: "config error: failed to load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("sweep", underlyingErr)

	expected := "command sweep failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("2 sources failed")
	err := NewExitError(ExitPartial, cause)

	if err.Error() != "2 sources failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected ExitError to unwrap to its cause")
	}
	if got := (&ExitError{Code: 4}).Error(); got != "exit status 4" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "config error", err: NewConfigError("", "bad"), want: ExitUsage},
		{name: "exit error", err: NewExitError(ExitPartial, errors.New("partial")), want: ExitPartial},
		{
			name: "wrapped exit error",
			err:  fmt.Errorf("run: %w", NewExitError(ExitPartial, nil)),
			want: ExitPartial,
		},
		{
			name: "command error wrapping config error",
			err:  NewCommandError("run", NewConfigError("store", "bad")),
			want: ExitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
