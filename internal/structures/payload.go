package structures

// Payload carries the finalized configuration record across the changed-root
// boundary as a typed YAML document. Values reach the target only through
// this serialization and through command argument vectors, never through
// shell text interpolation.
type Payload struct {
	Locale   string `yaml:"locale"`
	Keymap   string `yaml:"keymap"`
	Timezone string `yaml:"timezone"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     Role   `yaml:"role"`
	Device   string `yaml:"device"`
}

// NewPayload extracts the fields the target configuration step needs from
// the configuration record.
func NewPayload(c *InstallConfig) Payload {
	return Payload{
		Locale:   c.Locale,
		Keymap:   c.Keymap,
		Timezone: c.Timezone,
		Username: c.Username,
		Password: c.Password,
		Role:     c.Role,
		Device:   c.Device,
	}
}
