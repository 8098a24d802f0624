//go:build !linux && !windows

package benchmark

import "golang.org/x/sys/unix"

// SetMaxResources raises the open-file limit to the hard maximum on
// non-Linux Unix systems. The thread ceiling is left at the runtime default.
func SetMaxResources() error {
	rLimit := unix.Rlimit{}
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return err
	}
	rLimit.Cur = rLimit.Max
	return unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit)
}
