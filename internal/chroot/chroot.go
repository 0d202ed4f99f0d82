package chroot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"strata/internal/config"
	"strata/internal/errdefs"
	"strata/internal/logging"
	"strata/internal/run"
	"strata/internal/structures"
)

// Locations inside the target root. Both are transient: the payload holds
// credentials and must never remain on the installed system, for any
// outcome of the transition.
const (
	payloadPath = "/root/.strata-apply.yaml"
	binaryPath  = "/strata"
)

// Transition materializes the configuration payload and the installer
// binary inside the target root, executes the apply step in a changed-root
// context and removes both artifacts regardless of outcome.
type Transition struct {
	runner run.Runner
	root   string
	logger zerolog.Logger

	// ExeSource is the binary copied into the target; overridable in tests.
	ExeSource string
}

// NewTransition returns a transition bound to the given target root.
func NewTransition(runner run.Runner, root string) *Transition {
	return &Transition{
		runner:    runner,
		root:      root,
		logger:    logging.GetLogger("chroot"),
		ExeSource: "/proc/self/exe",
	}
}

// Run executes the target configuration. Any failure inside the changed
// root is fatal to the whole installation.
func (t *Transition) Run(ctx context.Context, cfg *structures.InstallConfig) error {
	payload := structures.NewPayload(cfg)

	hostPayload := filepath.Join(t.root, payloadPath)
	hostBinary := filepath.Join(t.root, binaryPath)

	if err := config.SaveConfig(hostPayload, &payload, 0600); err != nil {
		return errdefs.Wrap(err, errdefs.KindConfigure, "error materializing configuration payload")
	}
	defer t.remove(hostPayload)

	if err := copyFile(t.ExeSource, hostBinary, 0755); err != nil {
		return errdefs.Wrap(err, errdefs.KindConfigure, "error copying installer into target")
	}
	defer t.remove(hostBinary)

	t.logger.Info().Str("root", t.root).Msg("Entering target configuration")
	err := t.runner.Run(ctx, "arch-chroot", t.root, binaryPath, "apply", "--payload", payloadPath)
	if err != nil {
		return errdefs.Wrap(err, errdefs.KindConfigure, "target configuration failed")
	}
	return nil
}

func (t *Transition) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove transient file from target")
	}
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("error copying to %s: %w", dst, err)
	}
	return nil
}
