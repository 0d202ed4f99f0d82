package structures

import "fmt"

// Mode selects the disk preparation strategy.
type Mode string

const (
	ModeUnset     Mode = ""
	ModeErase     Mode = "erase"
	ModeAlongside Mode = "alongside"
	ModeManual    Mode = "manual"
)

// Role is the desktop/role selection for the target system.
type Role string

const (
	RoleNone   Role = "none"
	RoleGnome  Role = "gnome"
	RolePlasma Role = "plasma"
	RoleXfce   Role = "xfce"
)

// Roles returns all selectable roles in menu order.
func Roles() []Role {
	return []Role{RoleNone, RoleGnome, RolePlasma, RoleXfce}
}

// InstallConfig is the single configuration record threaded through the
// pipeline. It is populated field by field by the collector and becomes
// read-only once partitioning starts. The password lives only in memory
// and in the target's user database; it is never written to disk in the
// live environment.
type InstallConfig struct {
	Locale   string
	Keymap   string
	Timezone string
	Username string
	Password string
	Role     Role
	Device   string
	Mode     Mode
}

// Validate checks that the record is complete enough to start destructive
// stages. No stage may proceed with an unset device or mode.
func (c *InstallConfig) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("target device not selected")
	}
	switch c.Mode {
	case ModeErase, ModeAlongside, ModeManual:
	default:
		return fmt.Errorf("install mode not selected")
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("user account not configured")
	}
	if c.Locale == "" || c.Keymap == "" || c.Timezone == "" {
		return fmt.Errorf("localization not configured")
	}
	return nil
}
