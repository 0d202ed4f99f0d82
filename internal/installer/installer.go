package installer

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"strata/internal/chroot"
	"strata/internal/collect"
	"strata/internal/disk"
	"strata/internal/errdefs"
	"strata/internal/install"
	"strata/internal/logging"
	"strata/internal/precheck"
	"strata/internal/prompt"
	"strata/internal/run"
	"strata/internal/structures"
)

// Options control a single installation run.
type Options struct {
	// TargetRoot is where the system under construction is mounted.
	TargetRoot string
	// VerifyTarget enables the mount verification gate after manual
	// partitioning handoff.
	VerifyTarget bool
}

// Service sequences the installation pipeline: preconditions, collection,
// disk preparation, base install, target configuration. It owns the single
// configuration record and issues one blocking operation at a time.
type Service struct {
	prompter prompt.Prompter
	runner   run.Runner
	opts     Options
	logger   zerolog.Logger

	// test seams
	preflight      func() error
	guessTimezone  func(ctx context.Context) (string, error)
	newPartitioner func() *disk.Partitioner
	newTransition  func() *chroot.Transition
}

// New returns a service for one installation run.
func New(prompter prompt.Prompter, runner run.Runner, opts Options) *Service {
	s := &Service{
		prompter: prompter,
		runner:   runner,
		opts:     opts,
		logger:   logging.GetLogger("installer"),
	}
	s.preflight = s.preconditions
	s.newPartitioner = func() *disk.Partitioner {
		p := disk.NewPartitioner(runner, opts.TargetRoot)
		p.VerifyTarget = opts.VerifyTarget
		return p
	}
	s.newTransition = func() *chroot.Transition {
		return chroot.NewTransition(runner, opts.TargetRoot)
	}
	return s
}

// Run executes the full pipeline. The returned error is always classified;
// callers map it to the exit code with errdefs.ExitCode.
func (s *Service) Run(ctx context.Context) error {
	if err := s.preflight(); err != nil {
		prompt.ShowError(err.Error())
		return err
	}

	cfg := &structures.InstallConfig{}
	device, err := s.collectAll(ctx, cfg)
	if err != nil {
		return classify(err)
	}

	// The record is complete from here on; no destructive stage runs
	// against a partial configuration.
	if err := cfg.Validate(); err != nil {
		return errdefs.Wrap(err, errdefs.KindValidation, "configuration incomplete")
	}
	s.logger.Info().
		Str("device", cfg.Device).
		Str("mode", string(cfg.Mode)).
		Bool("existingOS", device.HasOS).
		Msg("Configuration collected, starting installation")

	partitioner := s.newPartitioner()
	if err := partitioner.Prepare(ctx, s.prompter, cfg); err != nil {
		return classify(err)
	}

	if err := install.Base(ctx, s.runner, s.opts.TargetRoot); err != nil {
		return err
	}

	if err := s.newTransition().Run(ctx, cfg); err != nil {
		return err
	}

	s.logger.Info().Str("device", cfg.Device).Msg("Installation finished")
	prompt.ShowSuccess("The system was installed successfully. Remove the installation medium and reboot.")
	return nil
}

func (s *Service) preconditions() error {
	checks := []func() error{
		precheck.Root,
		precheck.UEFI,
		precheck.Terminal,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return precheck.Tools(s.runner)
}

func (s *Service) collectAll(ctx context.Context, cfg *structures.InstallConfig) (disk.Device, error) {
	collector := collect.New(s.prompter, s.runner)
	if s.guessTimezone != nil {
		collector.GuessTimezone = s.guessTimezone
	}

	steps := []func(context.Context, *structures.InstallConfig) error{
		collector.Locale,
		collector.Keymap,
		collector.Timezone,
		collector.User,
		collector.Role,
	}
	for _, step := range steps {
		if err := step(ctx, cfg); err != nil {
			return disk.Device{}, err
		}
	}

	device, err := collector.Device(ctx, cfg)
	if err != nil {
		return disk.Device{}, err
	}
	if err := collector.Mode(ctx, cfg, device); err != nil {
		return disk.Device{}, err
	}
	return device, nil
}

// classify maps a cancelled prompt to its own kind; everything else is
// expected to arrive already classified.
func classify(err error) error {
	if errors.Is(err, prompt.ErrCancelled) {
		return errdefs.Wrap(err, errdefs.KindCancelled, "installation cancelled")
	}
	return err
}
