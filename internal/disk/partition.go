package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"strata/internal/errdefs"
	"strata/internal/logging"
	"strata/internal/prompt"
	"strata/internal/run"
	"strata/internal/structures"
)

// State tracks the partition/format strategy. Mounted and Failed are
// terminal; there is no transition out of Failed.
type State int

const (
	StateNotStarted State = iota
	StateErasing
	StateHandoff
	StateMounted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateErasing:
		return "erasing"
	case StateHandoff:
		return "handoff"
	case StateMounted:
		return "mounted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// The guided layout: a fixed-size EFI system partition and a root
// partition spanning the remainder.
const (
	espStart = "1MiB"
	espEnd   = "513MiB"
)

// Partitioner prepares the target device and leaves the target root
// mounted. One instance per run; partition operations are never retried,
// since retrying a failed destructive operation against unknown on-disk
// state is unsafe.
type Partitioner struct {
	runner run.Runner
	root   string
	state  State
	logger zerolog.Logger

	// VerifyTarget controls the safety gate after an interactive handoff:
	// when set, the target root must be an active mount point before the
	// pipeline continues.
	VerifyTarget bool

	// Stat checks for partition device nodes; overridable in tests.
	Stat func(string) (os.FileInfo, error)
}

// NewPartitioner returns a partitioner mounting the target under root.
func NewPartitioner(runner run.Runner, root string) *Partitioner {
	return &Partitioner{
		runner:       runner,
		root:         root,
		state:        StateNotStarted,
		logger:       logging.GetLogger("disk"),
		VerifyTarget: true,
		Stat:         os.Stat,
	}
}

// State returns the current strategy state.
func (p *Partitioner) State() State {
	return p.state
}

// Prepare runs the strategy selected by the install mode. On any failure
// the state machine lands in Failed and the error carries the disk kind.
func (p *Partitioner) Prepare(ctx context.Context, prompter prompt.Prompter, cfg *structures.InstallConfig) error {
	if p.state != StateNotStarted {
		return errdefs.Newf(errdefs.KindDisk, "partitioner already ran (state %s)", p.state)
	}
	if err := cfg.Validate(); err != nil {
		p.state = StateFailed
		return errdefs.Wrap(err, errdefs.KindValidation, "configuration incomplete")
	}

	// Stale mounts from an earlier aborted attempt must never make the
	// strategy fail with "already mounted".
	if err := UnmountAll(ctx, p.runner, p.root); err != nil {
		p.state = StateFailed
		return errdefs.Wrap(err, errdefs.KindDisk, "error clearing target root")
	}

	var err error
	switch cfg.Mode {
	case structures.ModeErase:
		err = p.erase(ctx, cfg.Device)
	case structures.ModeAlongside, structures.ModeManual:
		err = p.handoff(ctx, prompter, cfg)
	default:
		err = errdefs.Newf(errdefs.KindDisk, "unknown install mode: %s", cfg.Mode)
	}
	if err != nil {
		p.state = StateFailed
		return err
	}
	p.state = StateMounted
	return nil
}

// erase destroys everything on the device and builds the guided layout.
func (p *Partitioner) erase(ctx context.Context, device string) error {
	p.state = StateErasing
	p.logger.Info().Str("device", device).Msg("Erasing device with guided layout")

	p.freeDevice(ctx, device)

	commands := [][]string{
		{"wipefs", "--all", device},
		{"parted", "-s", device, "mklabel", "gpt"},
		{"parted", "-s", device, "mkpart", "ESP", "fat32", espStart, espEnd},
		{"parted", "-s", device, "set", "1", "esp", "on"},
		{"parted", "-s", device, "mkpart", "root", "ext4", espEnd, "100%"},
		{"partprobe", device},
	}
	for _, args := range commands {
		if err := p.runner.Run(ctx, args[0], args[1:]...); err != nil {
			return errdefs.Wrapf(err, errdefs.KindDisk, "error partitioning %s", device)
		}
	}

	esp := PartitionPath(device, 1)
	root := PartitionPath(device, 2)
	for _, part := range []string{esp, root} {
		if err := p.waitForPartition(ctx, device, part); err != nil {
			return errdefs.Wrap(err, errdefs.KindDisk, "partition device did not appear")
		}
	}

	if err := p.runner.Run(ctx, "mkfs.fat", "-F32", esp); err != nil {
		return errdefs.Wrapf(err, errdefs.KindDisk, "error formatting %s", esp)
	}
	if err := p.runner.Run(ctx, "mkfs.ext4", "-F", root); err != nil {
		return errdefs.Wrapf(err, errdefs.KindDisk, "error formatting %s", root)
	}

	if err := os.MkdirAll(p.root, 0755); err != nil {
		return errdefs.Wrap(err, errdefs.KindDisk, "error creating target root")
	}
	if err := p.runner.Run(ctx, "mount", root, p.root); err != nil {
		return errdefs.Wrapf(err, errdefs.KindDisk, "error mounting %s", root)
	}
	bootDir := filepath.Join(p.root, "boot")
	if err := os.MkdirAll(bootDir, 0755); err != nil {
		return errdefs.Wrap(err, errdefs.KindDisk, "error creating boot mount point")
	}
	if err := p.runner.Run(ctx, "mount", esp, bootDir); err != nil {
		return errdefs.Wrapf(err, errdefs.KindDisk, "error mounting %s", esp)
	}

	p.logger.Info().Str("root", p.root).Msg("Target root mounted")
	return nil
}

// handoff hands the device to an interactive partitioning tool and resumes
// only on explicit operator acknowledgement.
func (p *Partitioner) handoff(ctx context.Context, prompter prompt.Prompter, cfg *structures.InstallConfig) error {
	p.state = StateHandoff

	instructions := fmt.Sprintf(
		"Shrink partitions on %s to make room, then format the new root and mount your layout under %s (EFI partition at %s) before continuing.",
		cfg.Device, p.root, filepath.Join(p.root, "boot"))
	if cfg.Mode == structures.ModeManual {
		instructions = fmt.Sprintf(
			"Partition %s, then format and mount your layout under %s (EFI partition at %s) before continuing.",
			cfg.Device, p.root, filepath.Join(p.root, "boot"))
	}
	p.logger.Info().Str("device", cfg.Device).Str("mode", string(cfg.Mode)).Msg(instructions)

	if err := p.runner.RunInteractive(ctx, "cfdisk", cfg.Device); err != nil {
		return errdefs.Wrap(err, errdefs.KindDisk, "interactive partitioning failed")
	}

	ok, err := prompter.Confirm("Partitioning", instructions+" Continue?")
	if err != nil {
		return errdefs.Wrap(err, errdefs.KindCancelled, "partitioning not acknowledged")
	}
	if !ok {
		return errdefs.New(errdefs.KindCancelled, "operator declined to continue after partitioning")
	}

	// Both handoff modes leave mounting to the operator, so both get the
	// same gate: the pipeline must never bootstrap into an unmounted
	// directory on the live medium.
	if p.VerifyTarget && !IsMounted(p.root) {
		return errdefs.Newf(errdefs.KindDisk, "target root %s is not mounted", p.root)
	}
	return nil
}

// freeDevice kills processes holding the device and flushes buffers.
// Best effort: a clean device makes both report nothing to do.
func (p *Partitioner) freeDevice(ctx context.Context, device string) {
	if err := p.runner.Run(ctx, "fuser", "-km", device); err != nil {
		p.logger.Debug().Str("device", device).Msg("No processes holding device")
	}
	_ = p.runner.Run(ctx, "sync")
}

func (p *Partitioner) waitForPartition(ctx context.Context, device, part string) error {
	for i := 0; i < 10; i++ {
		if _, err := p.Stat(part); err == nil {
			return nil
		}
		_ = p.runner.Run(ctx, "partprobe", device)
		time.Sleep(time.Second)
	}
	if _, err := p.Stat(part); err != nil {
		return fmt.Errorf("%s did not appear", part)
	}
	return nil
}

// PartitionPath returns the device node of the nth partition, handling the
// "p" infix used by nvme and mmc device names.
func PartitionPath(device string, n int) string {
	runes := []rune(device)
	if len(runes) > 0 && unicode.IsDigit(runes[len(runes)-1]) {
		return fmt.Sprintf("%sp%d", device, n)
	}
	return fmt.Sprintf("%s%d", device, n)
}
