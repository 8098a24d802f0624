//go:build windows

package benchmark

import "runtime/debug"

// SetMaxResources widens the Go runtime thread ceiling. Windows has no
// direct equivalent of the Unix open-file limit, so that part is skipped.
func SetMaxResources() error {
	debug.SetMaxThreads(8000)
	return nil
}
