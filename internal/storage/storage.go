package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"pizzabox/internal/services"
)

// CheckMarker verifies the marker file that identifies a prepared stick.
func CheckMarker(marker string) error {
	info, err := os.Stat(marker)
	if err != nil {
		return services.Wrap(services.ErrFileSystem, "storage", "check_marker", "recording stick not present", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrFileSystem, "storage", "check_marker", fmt.Sprintf("%s is a directory", marker), nil)
	}
	return nil
}

// FreeMiB reports the space available to unprivileged writers under path.
func FreeMiB(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, services.Wrap(services.ErrFileSystem, "storage", "statfs", path, err)
	}
	return st.Bavail * uint64(st.Bsize) / (1 << 20), nil
}

// Check verifies the marker and, when minFreeMiB is positive, that dir has
// room for another session.
func Check(dir, marker string, minFreeMiB int) error {
	if err := CheckMarker(marker); err != nil {
		return err
	}
	if minFreeMiB <= 0 {
		return nil
	}
	free, err := FreeMiB(dir)
	if err != nil {
		return err
	}
	if free < uint64(minFreeMiB) {
		return services.Wrap(services.ErrFileSystem, "storage", "check_free",
			fmt.Sprintf("%d MiB free under %s, need %d", free, dir, minFreeMiB), nil)
	}
	return nil
}
