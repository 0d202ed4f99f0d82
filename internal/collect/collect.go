package collect

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"strata/internal/disk"
	"strata/internal/errdefs"
	"strata/internal/logging"
	"strata/internal/prompt"
	"strata/internal/retry"
	"strata/internal/run"
	"strata/internal/structures"
)

// passwordAttempts is the confirmation retry budget. The third consecutive
// mismatch aborts the whole run: an unconfirmed credential must never
// silently proceed.
const passwordAttempts = 3

const (
	defaultLocale   = "en_US.UTF-8"
	defaultKeymap   = "us"
	defaultTimezone = "UTC"
)

// usernamePattern is the useradd-safe name syntax.
var usernamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// Mode menu labels.
const (
	labelErase     = "Erase disk and install (guided)"
	labelAlongside = "Install alongside the existing system"
	labelManual    = "Manual partitioning"
)

// Collector populates the configuration record one prompt at a time. Each
// step is independent; a cancelled prompt surfaces as prompt.ErrCancelled
// and ends the run.
type Collector struct {
	prompter prompt.Prompter
	runner   run.Runner
	logger   zerolog.Logger

	// GuessTimezone is the best-effort geolocation lookup; overridable in
	// tests. Failure only costs the editable default.
	GuessTimezone func(ctx context.Context) (string, error)
}

// New returns a collector using the network timezone guesser.
func New(prompter prompt.Prompter, runner run.Runner) *Collector {
	return &Collector{
		prompter:      prompter,
		runner:        runner,
		logger:        logging.GetLogger("collect"),
		GuessTimezone: timezoneFromIP,
	}
}

// Locale asks for the target locale, with options discovered from the live
// environment.
func (c *Collector) Locale(ctx context.Context, cfg *structures.InstallConfig) error {
	options := c.discover(ctx, defaultLocale, "localectl", "list-locales")
	value, err := c.prompter.Select("Localization", "Select system locale", options)
	if err != nil {
		return err
	}
	cfg.Locale = value
	return nil
}

// Keymap asks for the console keymap and applies it to the live session.
// The live application is a convenience: its failure is a warning, never
// an abort.
func (c *Collector) Keymap(ctx context.Context, cfg *structures.InstallConfig) error {
	options := c.discover(ctx, defaultKeymap, "localectl", "list-keymaps")
	value, err := c.prompter.Select("Localization", "Select console keymap", options)
	if err != nil {
		return err
	}
	cfg.Keymap = value

	if err := c.runner.Run(ctx, "loadkeys", value); err != nil {
		c.logger.Warn().Err(err).Str("keymap", value).Msg("Failed to apply keymap to live session")
	}
	return nil
}

// Timezone asks for the timezone, seeding the prompt with a best-effort
// geolocation guess. The guess is always editable, never auto-accepted.
func (c *Collector) Timezone(ctx context.Context, cfg *structures.InstallConfig) error {
	guess := defaultTimezone
	if tz, err := c.GuessTimezone(ctx); err == nil && tz != "" {
		guess = tz
	} else if err != nil {
		c.logger.Warn().Err(err).Msg("Timezone lookup failed, using default")
	}

	value, err := c.prompter.Text("Localization", "Timezone", guess)
	if err != nil {
		return err
	}
	cfg.Timezone = value
	return nil
}

// User collects the username and the confirmed password. Three consecutive
// confirmation mismatches exhaust the budget and fail the run with the
// password field still unset.
func (c *Collector) User(ctx context.Context, cfg *structures.InstallConfig) error {
	username, err := retry.Do(passwordAttempts, func(attempt int) (string, error) {
		value, err := c.prompter.Text("User account", "Username", "")
		if err != nil {
			return "", err
		}
		if !usernamePattern.MatchString(value) {
			c.logger.Warn().Str("username", value).Msg("Invalid username")
			return "", retry.ErrRejected
		}
		return value, nil
	})
	if err != nil {
		return classifyRetry(err, "no valid username entered")
	}

	password, err := retry.Do(passwordAttempts, func(attempt int) (string, error) {
		first, err := c.prompter.Secret("User account", fmt.Sprintf("Password for %s", username))
		if err != nil {
			return "", err
		}
		if !validPassword(first) {
			c.logger.Warn().Int("attempt", attempt).Msg("Password is empty or contains control characters")
			return "", retry.ErrRejected
		}
		second, err := c.prompter.Secret("User account", "Confirm password")
		if err != nil {
			return "", err
		}
		if first != second {
			c.logger.Warn().Int("attempt", attempt).Msg("Passwords do not match")
			return "", retry.ErrRejected
		}
		return first, nil
	})
	if err != nil {
		return classifyRetry(err, "password confirmation failed")
	}

	cfg.Username = username
	cfg.Password = password
	return nil
}

// Role asks for the desktop/role selection.
func (c *Collector) Role(ctx context.Context, cfg *structures.InstallConfig) error {
	var options []string
	for _, role := range structures.Roles() {
		options = append(options, string(role))
	}
	value, err := c.prompter.Select("Desktop", "Select desktop environment", options)
	if err != nil {
		return err
	}
	cfg.Role = structures.Role(value)
	return nil
}

// Device enumerates candidate disks and asks for the target. Returns the
// selected candidate so mode selection can use its detection flag.
func (c *Collector) Device(ctx context.Context, cfg *structures.InstallConfig) (disk.Device, error) {
	devices, err := disk.Enumerate(ctx, c.runner)
	if err != nil {
		return disk.Device{}, errdefs.Wrap(err, errdefs.KindDisk, "error enumerating devices")
	}
	if len(devices) == 0 {
		return disk.Device{}, errdefs.New(errdefs.KindDisk, "no installable block devices found")
	}

	options := make([]string, len(devices))
	for i, d := range devices {
		options[i] = d.Label()
	}
	value, err := c.prompter.Select("Target device", "Select installation disk", options)
	if err != nil {
		return disk.Device{}, err
	}
	for _, d := range devices {
		if d.Label() == value {
			cfg.Device = d.Path
			return d, nil
		}
	}
	return disk.Device{}, errdefs.Newf(errdefs.KindDisk, "selected device not found: %s", value)
}

// Mode asks for the install mode. The existing-installation flag is a
// gate: "alongside" is offered only when something is there to keep.
func (c *Collector) Mode(ctx context.Context, cfg *structures.InstallConfig, device disk.Device) error {
	options := []string{labelErase, labelManual}
	if device.HasOS {
		options = []string{labelErase, labelAlongside, labelManual}
	}

	value, err := c.prompter.Select("Install mode",
		fmt.Sprintf("How should %s be prepared?", device.Path), options)
	if err != nil {
		return err
	}
	switch value {
	case labelErase:
		cfg.Mode = structures.ModeErase
	case labelAlongside:
		cfg.Mode = structures.ModeAlongside
	case labelManual:
		cfg.Mode = structures.ModeManual
	default:
		return errdefs.Newf(errdefs.KindValidation, "unknown install mode: %s", value)
	}
	return nil
}

// discover runs a list command and splits its output into options,
// substituting the safe default when discovery yields nothing. The prompt
// is never presented with zero options.
func (c *Collector) discover(ctx context.Context, fallback, name string, args ...string) []string {
	out, err := c.runner.Output(ctx, name, args...)
	if err != nil {
		c.logger.Warn().Err(err).Str("command", name).Msg("Option discovery failed, using default")
		return []string{fallback}
	}
	var options []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			options = append(options, line)
		}
	}
	if len(options) == 0 {
		return []string{fallback}
	}
	return options
}

// validPassword rejects control characters: the password later crosses the
// chpasswd stdin stream one "user:password" record per line, so a newline
// in it would smuggle in extra records.
func validPassword(password string) bool {
	if password == "" {
		return false
	}
	for _, r := range password {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func classifyRetry(err error, message string) error {
	if errors.Is(err, retry.ErrExhausted) {
		return errdefs.Wrap(err, errdefs.KindValidation, message)
	}
	return err
}
