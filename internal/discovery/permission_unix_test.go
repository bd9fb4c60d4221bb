//go:build !windows

package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBluetoothPermissionMissingNode(t *testing.T) {
	check := BluetoothPermission([]string{filepath.Join(t.TempDir(), "rfcomm9")})
	assert.NoError(t, check())
}

func TestBluetoothPermissionAccessibleNode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfcomm0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	assert.NoError(t, BluetoothPermission([]string{path})())
}
