package disk

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"strata/internal/logging"
	"strata/internal/run"
)

// procMounts is overridable in tests.
var procMounts = "/proc/mounts"

// mountsUnder finds every mount point at or below path, deepest first so
// nested mounts unmount before their parents.
func mountsUnder(path string) ([]string, error) {
	data, err := os.ReadFile(procMounts)
	if err != nil {
		return nil, err
	}

	var mounts []string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		mountPoint := fields[1]
		if mountPoint == path || strings.HasPrefix(mountPoint, path+"/") {
			mounts = append(mounts, mountPoint)
		}
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i]) > len(mounts[j])
	})
	return mounts, nil
}

// IsMounted reports whether path is an active mount point.
func IsMounted(path string) bool {
	mounts, err := mountsUnder(path)
	if err != nil {
		return false
	}
	for _, m := range mounts {
		if m == path {
			return true
		}
	}
	return false
}

// UnmountAll unmounts everything at or below path. A prior aborted run may
// have left the target root mounted, so this must succeed against an
// already-clean tree and against stale nested mounts alike. Each mount
// gets three attempts with growing aggressiveness: plain, lazy, forced.
// A mount surviving all three attempts is an error: destructive work must
// not start while the kernel still holds part of the tree.
func UnmountAll(ctx context.Context, runner run.Runner, path string) error {
	logger := logging.GetLogger("disk")

	mounts, err := mountsUnder(path)
	if err != nil {
		return err
	}

	var stuck []string
	for _, mount := range mounts {
		for attempt := 0; attempt < 3; attempt++ {
			var err error
			switch attempt {
			case 0:
				err = runner.Run(ctx, "umount", mount)
			case 1:
				err = runner.Run(ctx, "umount", "-l", mount)
			default:
				err = runner.Run(ctx, "umount", "-f", mount)
			}
			if err == nil {
				break
			}
			if attempt == 2 {
				logger.Warn().Str("mount", mount).Msg("Failed to unmount after all attempts")
				stuck = append(stuck, mount)
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
	if len(stuck) > 0 {
		return fmt.Errorf("failed to unmount: %s", strings.Join(stuck, ", "))
	}
	return nil
}
