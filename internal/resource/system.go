package resource

import (
	"runtime"

	units "github.com/docker/go-units"
	"golang.org/x/sys/unix"
)

// SystemResources is a point-in-time snapshot of host capacity, used by the
// info command so users can size limits against what the host actually has.
type SystemResources struct {
	TotalRAMMB     int64
	AvailableRAMMB int64
	CPUCount       int
	DiskTotalGB    int64
	DiskFreeGB     int64
}

// CollectSystemResources reports host RAM, CPU count and disk capacity for
// the volume containing rootDir.
func CollectSystemResources(rootDir string) (SystemResources, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return SystemResources{}, err
	}

	unit := int64(info.Unit)
	if unit == 0 {
		unit = 1
	}

	res := SystemResources{
		TotalRAMMB:     int64(info.Totalram) * unit / units.MiB,
		AvailableRAMMB: int64(info.Freeram) * unit / units.MiB,
		CPUCount:       runtime.NumCPU(),
	}

	// Disk stats for the volume holding the root directory. The root may not
	// exist yet on a fresh install; fall back to the filesystem root.
	var fs unix.Statfs_t
	if err := unix.Statfs(rootDir, &fs); err != nil {
		if err := unix.Statfs("/", &fs); err != nil {
			return res, nil
		}
	}

	bsize := int64(fs.Bsize)
	res.DiskTotalGB = int64(fs.Blocks) * bsize / units.GiB
	res.DiskFreeGB = int64(fs.Bavail) * bsize / units.GiB

	return res, nil
}
