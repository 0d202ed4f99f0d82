package chroot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/run"
	"strata/internal/structures"
)

func testApplier(t *testing.T, runner *run.FakeRunner) *Applier {
	t.Helper()
	a := NewApplier(runner)
	a.fsRoot = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(a.fsRoot, "etc"), 0755))
	return a
}

func testPayload() *structures.Payload {
	return &structures.Payload{
		Locale:   "en_US.UTF-8",
		Keymap:   "us",
		Timezone: "Europe/Berlin",
		Username: "alice",
		Password: "hunter2",
		Role:     structures.RoleNone,
		Device:   "/dev/sda",
	}
}

func TestApplyWritesConfigurationFiles(t *testing.T) {
	runner := &run.FakeRunner{}
	a := testApplier(t, runner)

	require.NoError(t, a.Apply(context.Background(), testPayload()))

	localeConf, err := os.ReadFile(filepath.Join(a.fsRoot, "etc", "locale.conf"))
	require.NoError(t, err)
	assert.Equal(t, "LANG=en_US.UTF-8\n", string(localeConf))

	vconsole, err := os.ReadFile(filepath.Join(a.fsRoot, "etc", "vconsole.conf"))
	require.NoError(t, err)
	assert.Equal(t, "KEYMAP=us\n", string(vconsole))

	localeGen, err := os.ReadFile(filepath.Join(a.fsRoot, "etc", "locale.gen"))
	require.NoError(t, err)
	assert.Contains(t, string(localeGen), "en_US.UTF-8 UTF-8")

	target, err := os.Readlink(filepath.Join(a.fsRoot, "etc", "localtime"))
	require.NoError(t, err)
	assert.Equal(t, "/usr/share/zoneinfo/Europe/Berlin", target)

	sudoers, err := os.ReadFile(filepath.Join(a.fsRoot, "etc", "sudoers.d", "wheel"))
	require.NoError(t, err)
	assert.Equal(t, "%wheel ALL=(ALL:ALL) ALL\n", string(sudoers))
}

func TestApplyLocaleUncommentsExistingEntry(t *testing.T) {
	runner := &run.FakeRunner{}
	a := testApplier(t, runner)
	require.NoError(t, os.WriteFile(filepath.Join(a.fsRoot, "etc", "locale.gen"),
		[]byte("#de_DE.UTF-8 UTF-8\n#en_US.UTF-8 UTF-8\n"), 0644))

	require.NoError(t, a.locale(context.Background(), testPayload()))

	data, err := os.ReadFile(filepath.Join(a.fsRoot, "etc", "locale.gen"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\nen_US.UTF-8 UTF-8")
	assert.Contains(t, string(data), "#de_DE.UTF-8 UTF-8", "other locales stay commented")
}

func TestApplyCommandOrder(t *testing.T) {
	runner := &run.FakeRunner{}
	a := testApplier(t, runner)

	require.NoError(t, a.Apply(context.Background(), testPayload()))

	assert.Equal(t, []string{
		"locale-gen",
		"hwclock --systohc",
		"systemctl enable NetworkManager",
		"useradd -m -G wheel alice",
		"chpasswd",
		"grub-install --target=x86_64-efi --efi-directory=/boot --bootloader-id=strata",
		"grub-mkconfig -o /boot/grub/grub.cfg",
	}, runner.Commands)
}

func TestApplyPasswordsOnStdin(t *testing.T) {
	runner := &run.FakeRunner{}
	a := testApplier(t, runner)

	require.NoError(t, a.Apply(context.Background(), testPayload()))

	require.Len(t, runner.Inputs, 1)
	assert.Equal(t, "alice:hunter2\nroot:hunter2\n", runner.Inputs[0])
	for _, line := range runner.Commands {
		assert.NotContains(t, line, "hunter2", "credentials never enter an argument vector")
	}
}

func TestApplyRoleInstallsDesktop(t *testing.T) {
	runner := &run.FakeRunner{}
	a := testApplier(t, runner)

	p := testPayload()
	p.Role = structures.RoleGnome
	require.NoError(t, a.Apply(context.Background(), p))

	assert.True(t, runner.Ran("pacman -S --noconfirm gnome gdm"))
	assert.True(t, runner.Ran("systemctl enable gdm"))
}

func TestApplyRoleNoneSkipsPackages(t *testing.T) {
	runner := &run.FakeRunner{}
	a := testApplier(t, runner)

	require.NoError(t, a.Apply(context.Background(), testPayload()))
	assert.False(t, runner.Ran("pacman"))
}

func TestApplyStepFailureAborts(t *testing.T) {
	runner := &run.FakeRunner{
		Fail: map[string]error{"useradd": errors.New("exit status 9")},
	}
	a := testApplier(t, runner)

	err := a.Apply(context.Background(), testPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step user")
	assert.False(t, runner.Ran("chpasswd"), "later steps never run after a failure")
	assert.False(t, runner.Ran("grub-install"))
}
