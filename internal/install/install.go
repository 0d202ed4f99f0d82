package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"strata/internal/errdefs"
	"strata/internal/logging"
	"strata/internal/run"
)

// basePackages is the fixed minimal set bootstrapped into every target:
// kernel, firmware, init tooling, network manager, bootloader, sudo.
var basePackages = []string{
	"base",
	"linux",
	"linux-firmware",
	"networkmanager",
	"grub",
	"efibootmgr",
	"sudo",
}

// Base bootstraps the package set into the target root and appends the
// generated filesystem table. A bootstrap failure is fatal and the target
// is left as-is for manual diagnosis.
func Base(ctx context.Context, runner run.Runner, root string) error {
	logger := logging.GetLogger("install")
	logger.Info().Str("root", root).Strs("packages", basePackages).Msg("Bootstrapping base system")

	args := append([]string{"-K", root}, basePackages...)
	if err := runner.Run(ctx, "pacstrap", args...); err != nil {
		return errdefs.Wrap(err, errdefs.KindBootstrap, "base system bootstrap failed")
	}

	if err := writeFstab(ctx, runner, root); err != nil {
		return errdefs.Wrap(err, errdefs.KindBootstrap, "error generating filesystem table")
	}

	logger.Info().Msg("Base system installed")
	return nil
}

func writeFstab(ctx context.Context, runner run.Runner, root string) error {
	out, err := runner.Output(ctx, "genfstab", "-U", root)
	if err != nil {
		return err
	}

	fstabPath := filepath.Join(root, "etc", "fstab")
	file, err := os.OpenFile(fstabPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", fstabPath, err)
	}
	defer file.Close()

	if _, err := file.Write(out); err != nil {
		return fmt.Errorf("error writing %s: %w", fstabPath, err)
	}
	return nil
}
