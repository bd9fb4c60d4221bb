//go:build !windows

// internal/discovery/permission_unix.go
package discovery

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// BluetoothPermission probes the configured RFCOMM device nodes. A node that
// exists but cannot be opened for reading and writing means the process was
// not granted bluetooth access. Missing nodes are not a refusal.
func BluetoothPermission(paths []string) PermissionFunc {
	return func() error {
		for _, path := range paths {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
				return fmt.Errorf("access %s: %w", path, err)
			}
		}
		return nil
	}
}
