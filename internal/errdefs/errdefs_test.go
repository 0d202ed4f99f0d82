package errdefs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitOK},
		{"precondition", New(KindPrecondition, "not root"), ExitPrecondition},
		{"cancelled", New(KindCancelled, "aborted"), ExitCancelled},
		{"validation", New(KindValidation, "password mismatch"), ExitValidation},
		{"disk", New(KindDisk, "wipefs failed"), ExitDisk},
		{"bootstrap", New(KindBootstrap, "pacstrap failed"), ExitBootstrap},
		{"configure", New(KindConfigure, "chroot failed"), ExitConfigure},
		{"unclassified", errors.New("plain"), ExitUnknown},
		{"wrapped in plain error", fmt.Errorf("outer: %w", New(KindDisk, "inner")), ExitDisk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	err := Wrap(errors.New("boom"), KindBootstrap, "bootstrap failed")
	assert.Equal(t, KindBootstrap, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestIsMatchesByKind(t *testing.T) {
	err := Wrapf(errors.New("boom"), KindDisk, "formatting %s", "/dev/sda1")
	assert.True(t, errors.Is(err, New(KindDisk, "")))
	assert.False(t, errors.Is(err, New(KindBootstrap, "")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("device busy")
	err := Wrap(cause, KindDisk, "unmount failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DISK")
	assert.Contains(t, err.Error(), "device busy")
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, KindDisk, "ignored") != nil {
		t.Error("Wrap(nil, ...) should return nil")
	}
	if Wrapf(nil, KindDisk, "ignored %d", 1) != nil {
		t.Error("Wrapf(nil, ...) should return nil")
	}
}
