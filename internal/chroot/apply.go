package chroot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"strata/internal/logging"
	"strata/internal/run"
	"strata/internal/structures"
)

// roleSpec maps a desktop/role selection to its package set and the
// display manager service to enable.
type roleSpec struct {
	packages       []string
	displayManager string
}

var roleSpecs = map[structures.Role]roleSpec{
	structures.RoleGnome:  {packages: []string{"gnome", "gdm"}, displayManager: "gdm"},
	structures.RolePlasma: {packages: []string{"plasma", "sddm"}, displayManager: "sddm"},
	structures.RoleXfce:   {packages: []string{"xfce4", "xfce4-goodies", "lightdm", "lightdm-gtk-greeter"}, displayManager: "lightdm"},
}

// Applier runs the ordered target configuration steps. It executes inside
// the changed-root context, so every path is relative to the target's own
// filesystem root. fsRoot exists for tests; it is "/" in production.
type Applier struct {
	runner run.Runner
	fsRoot string
	logger zerolog.Logger
}

// NewApplier returns an applier operating on the process's filesystem root.
func NewApplier(runner run.Runner) *Applier {
	return &Applier{runner: runner, fsRoot: "/", logger: logging.GetLogger("apply")}
}

// Apply performs every configuration step in order. Steps are not
// individually retried; the first failure aborts and propagates.
func (a *Applier) Apply(ctx context.Context, p *structures.Payload) error {
	steps := []struct {
		name string
		fn   func(context.Context, *structures.Payload) error
	}{
		{"locale", a.locale},
		{"timezone", a.timezone},
		{"keymap", a.keymap},
		{"network", a.network},
		{"user", a.user},
		{"passwords", a.passwords},
		{"role", a.role},
		{"bootloader", a.bootloader},
	}
	for _, step := range steps {
		a.logger.Info().Str("step", step.name).Msg("Configuring target")
		if err := step.fn(ctx, p); err != nil {
			return fmt.Errorf("step %s: %w", step.name, err)
		}
	}
	return nil
}

func (a *Applier) path(elem ...string) string {
	return filepath.Join(append([]string{a.fsRoot}, elem...)...)
}

// locale enables the locale in locale.gen, regenerates locale data and
// writes locale.conf.
func (a *Applier) locale(ctx context.Context, p *structures.Payload) error {
	localeGen := a.path("etc", "locale.gen")
	entry := p.Locale + " UTF-8"

	data, err := os.ReadFile(localeGen)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	lines := strings.Split(string(data), "\n")
	enabled := false
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, "# ")
		if trimmed == entry || strings.HasPrefix(trimmed, p.Locale+" ") {
			lines[i] = entry
			enabled = true
			break
		}
	}
	if !enabled {
		lines = append(lines, entry)
	}
	if err := os.WriteFile(localeGen, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return err
	}

	if err := a.runner.Run(ctx, "locale-gen"); err != nil {
		return err
	}
	return os.WriteFile(a.path("etc", "locale.conf"), []byte("LANG="+p.Locale+"\n"), 0644)
}

func (a *Applier) timezone(ctx context.Context, p *structures.Payload) error {
	localtime := a.path("etc", "localtime")
	if _, err := os.Lstat(localtime); err == nil {
		if err := os.Remove(localtime); err != nil {
			return err
		}
	}
	if err := os.Symlink(filepath.Join("/usr/share/zoneinfo", p.Timezone), localtime); err != nil {
		return err
	}
	return a.runner.Run(ctx, "hwclock", "--systohc")
}

func (a *Applier) keymap(_ context.Context, p *structures.Payload) error {
	return os.WriteFile(a.path("etc", "vconsole.conf"), []byte("KEYMAP="+p.Keymap+"\n"), 0644)
}

func (a *Applier) network(ctx context.Context, _ *structures.Payload) error {
	return a.runner.Run(ctx, "systemctl", "enable", "NetworkManager")
}

// user creates the account in the administrative group and grants the
// group sudo access. The password is set separately, on stdin.
func (a *Applier) user(ctx context.Context, p *structures.Payload) error {
	if err := a.runner.Run(ctx, "useradd", "-m", "-G", "wheel", p.Username); err != nil {
		return err
	}
	sudoersDir := a.path("etc", "sudoers.d")
	if err := os.MkdirAll(sudoersDir, 0750); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(sudoersDir, "wheel"),
		[]byte("%wheel ALL=(ALL:ALL) ALL\n"), 0440)
}

// passwords feeds chpasswd on stdin so credentials never appear in an
// argument vector or a shell line.
func (a *Applier) passwords(ctx context.Context, p *structures.Payload) error {
	input := fmt.Sprintf("%s:%s\n%s:%s\n", p.Username, p.Password, "root", p.Password)
	return a.runner.RunInput(ctx, input, "chpasswd")
}

func (a *Applier) role(ctx context.Context, p *structures.Payload) error {
	spec, ok := roleSpecs[p.Role]
	if !ok {
		// RoleNone and anything unrecognized: nothing to install.
		return nil
	}
	args := append([]string{"-S", "--noconfirm"}, spec.packages...)
	if err := a.runner.Run(ctx, "pacman", args...); err != nil {
		return err
	}
	return a.runner.Run(ctx, "systemctl", "enable", spec.displayManager)
}

func (a *Applier) bootloader(ctx context.Context, _ *structures.Payload) error {
	err := a.runner.Run(ctx, "grub-install",
		"--target=x86_64-efi", "--efi-directory=/boot", "--bootloader-id=strata")
	if err != nil {
		return err
	}
	return a.runner.Run(ctx, "grub-mkconfig", "-o", "/boot/grub/grub.cfg")
}
