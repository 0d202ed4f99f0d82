package precheck

import (
	"os"

	"github.com/mattn/go-isatty"

	"strata/internal/errdefs"
	"strata/internal/run"
)

// efivarsPath is how a UEFI boot is recognized. The bootloader step
// unconditionally installs for EFI, so legacy boot is rejected outright
// instead of being routed around.
const efivarsPath = "/sys/firmware/efi/efivars"

// requiredTools is every external command the pipeline may invoke.
// Checked before any prompt so a missing tool never surfaces mid-install.
var requiredTools = []string{
	"lsblk",
	"wipefs",
	"parted",
	"partprobe",
	"mkfs.fat",
	"mkfs.ext4",
	"mount",
	"umount",
	"fuser",
	"cfdisk",
	"pacstrap",
	"genfstab",
	"arch-chroot",
	"loadkeys",
	"localectl",
}

// Root verifies the process runs with superuser privileges.
func Root() error {
	if os.Geteuid() != 0 {
		return errdefs.New(errdefs.KindPrecondition, "the installer must be run as root")
	}
	return nil
}

// UEFI verifies the machine booted in UEFI mode.
func UEFI() error {
	return uefiAt(efivarsPath)
}

func uefiAt(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errdefs.New(errdefs.KindPrecondition,
			"system not booted in UEFI mode; legacy boot is not supported")
	}
	return nil
}

// Terminal verifies stdin is an interactive terminal, the prompt
// capability every collection step depends on.
func Terminal() error {
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return errdefs.New(errdefs.KindPrecondition, "standard input is not a terminal")
	}
	return nil
}

// Tools verifies that every required external command is in PATH.
func Tools(runner run.Runner) error {
	for _, tool := range requiredTools {
		if _, err := runner.LookPath(tool); err != nil {
			return errdefs.Newf(errdefs.KindPrecondition, "required tool not found: %s", tool)
		}
	}
	return nil
}
