//go:build windows

// internal/discovery/permission_windows.go
package discovery

// BluetoothPermission always grants access on Windows, where paired SPP
// devices are plain COM ports
func BluetoothPermission(paths []string) PermissionFunc {
	return func() error { return nil }
}
