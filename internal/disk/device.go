package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"strata/internal/run"
)

// Device is one candidate block storage device. Recomputed fresh on every
// enumeration, never cached.
type Device struct {
	Path  string
	Size  string
	HasOS bool
}

// Label is the menu line shown for the device.
func (d Device) Label() string {
	state := "empty"
	if d.HasOS {
		state = "existing system"
	}
	return fmt.Sprintf("%s (%s, %s)", d.Path, d.Size, state)
}

type lsblkReport struct {
	BlockDevices []struct {
		Name string `json:"name"`
		Size string `json:"size"`
		Type string `json:"type"`
	} `json:"blockdevices"`
}

// virtualPrefixes are device names that never qualify as installation
// targets even when lsblk reports them as disks.
var virtualPrefixes = []string{"loop", "ram", "zram", "sr", "fd", "dm-", "md"}

// Enumerate lists candidate target disks via lsblk, excluding loop and
// other virtual devices, and probes each for an existing installation.
func Enumerate(ctx context.Context, runner run.Runner) ([]Device, error) {
	out, err := runner.Output(ctx, "lsblk", "-J", "-d", "-o", "NAME,SIZE,TYPE")
	if err != nil {
		return nil, fmt.Errorf("error listing block devices: %w", err)
	}

	var report lsblkReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("error parsing lsblk output: %w", err)
	}

	var devices []Device
	for _, d := range report.BlockDevices {
		if d.Type != "disk" || isVirtual(d.Name) {
			continue
		}
		path := "/dev/" + d.Name
		devices = append(devices, Device{
			Path:  path,
			Size:  d.Size,
			HasOS: HasExistingOS(ctx, runner, path),
		})
	}
	return devices, nil
}

// HasExistingOS reports whether the device hosts an installed system.
// Uses os-prober when available, otherwise falls back to a structural
// heuristic: any existing partition entries count as an installation.
func HasExistingOS(ctx context.Context, runner run.Runner, device string) bool {
	if _, err := runner.LookPath("os-prober"); err == nil {
		out, err := runner.Output(ctx, "os-prober")
		if err == nil {
			for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
				partition := strings.SplitN(line, ":", 2)[0]
				if onDevice(partition, device) {
					return true
				}
			}
			return false
		}
		// fall through to the heuristic on probe failure
	}

	out, err := runner.Output(ctx, "lsblk", "-ln", "-o", "TYPE", device)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "part" {
			return true
		}
	}
	return false
}

// onDevice reports whether partition is the device itself or one of its
// partition nodes. A plain prefix test would let /dev/sdaa1 claim /dev/sda,
// so what follows the device name must be a partition number, with the "p"
// infix used by nvme and mmc names.
func onDevice(partition, device string) bool {
	rest, ok := strings.CutPrefix(partition, device)
	if !ok {
		return false
	}
	if rest == "" {
		return true
	}
	runes := []rune(device)
	if unicode.IsDigit(runes[len(runes)-1]) {
		if rest, ok = strings.CutPrefix(rest, "p"); !ok {
			return false
		}
	}
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isVirtual(name string) bool {
	for _, prefix := range virtualPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
