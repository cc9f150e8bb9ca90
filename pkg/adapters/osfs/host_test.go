package osfs_test

import (
	"testing"

	"github.com/aretw0/sapling/pkg/adapters/osfs"
	"github.com/aretw0/sapling/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFSHost_Contract(t *testing.T) {
	host, err := osfs.NewHost(t.TempDir())
	require.NoError(t, err)
	ports.RunHostContract(t, host)
}

func TestOSFSHost_RejectsEscapingPaths(t *testing.T) {
	host, err := osfs.NewHost(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, host.Write("../escape.txt", []byte("nope")))
	assert.Error(t, host.Write("/abs.txt", []byte("nope")))
	assert.False(t, host.Exists("../escape.txt"))
}

func TestOSFSHost_WalkMissingRoot(t *testing.T) {
	host, err := osfs.NewHost(t.TempDir() + "/does-not-exist")
	require.NoError(t, err)

	calls := 0
	require.NoError(t, host.Walk(func(string) error {
		calls++
		return nil
	}))
	assert.Zero(t, calls)
}
