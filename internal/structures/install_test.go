package structures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func complete() InstallConfig {
	return InstallConfig{
		Locale:   "en_US.UTF-8",
		Keymap:   "us",
		Timezone: "UTC",
		Username: "alice",
		Password: "hunter2",
		Role:     RoleNone,
		Device:   "/dev/sda",
		Mode:     ModeErase,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*InstallConfig)
		wantErr string
	}{
		{"complete", func(c *InstallConfig) {}, ""},
		{"missing device", func(c *InstallConfig) { c.Device = "" }, "device"},
		{"missing mode", func(c *InstallConfig) { c.Mode = ModeUnset }, "mode"},
		{"bogus mode", func(c *InstallConfig) { c.Mode = Mode("wipe-everything") }, "mode"},
		{"missing username", func(c *InstallConfig) { c.Username = "" }, "user"},
		{"missing password", func(c *InstallConfig) { c.Password = "" }, "user"},
		{"missing locale", func(c *InstallConfig) { c.Locale = "" }, "localization"},
		{"missing timezone", func(c *InstallConfig) { c.Timezone = "" }, "localization"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := complete()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestRolesIncludesNone(t *testing.T) {
	roles := Roles()
	assert.Contains(t, roles, RoleNone)
	assert.Equal(t, RoleNone, roles[0], "none is the first menu entry")
}
