package ports

import (
	"sort"
	"testing"

	"github.com/aretw0/sapling/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHostContract runs a suite of tests to verify that a Host implementation
// adheres to the defined interface contract. The host must start empty.
func RunHostContract(t *testing.T, host Host) {
	t.Run("Write and Read", func(t *testing.T) {
		err := host.Write("a/b.txt", []byte("hello"))
		require.NoError(t, err, "Write should not return error")

		assert.True(t, host.Exists("a/b.txt"))

		content, err := host.Read("a/b.txt")
		require.NoError(t, err, "Read should not return error")
		assert.Equal(t, "hello", string(content))
	})

	t.Run("Read Non-Existent", func(t *testing.T) {
		_, err := host.Read("missing.txt")
		assert.ErrorIs(t, err, domain.ErrPathDoesNotExist)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, host.Write("a/b.txt", []byte("updated")))

		content, err := host.Read("a/b.txt")
		require.NoError(t, err)
		assert.Equal(t, "updated", string(content))
	})

	t.Run("Rename", func(t *testing.T) {
		require.NoError(t, host.Write("from.txt", []byte("move me")))
		require.NoError(t, host.Rename("from.txt", "to.txt"))

		assert.False(t, host.Exists("from.txt"))
		content, err := host.Read("to.txt")
		require.NoError(t, err)
		assert.Equal(t, "move me", string(content))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, host.Write("gone.txt", []byte("x")))
		require.NoError(t, host.Delete("gone.txt"))

		assert.False(t, host.Exists("gone.txt"))
		assert.ErrorIs(t, host.Delete("gone.txt"), domain.ErrPathDoesNotExist)
	})

	t.Run("Walk", func(t *testing.T) {
		require.NoError(t, host.Write("w/1.txt", []byte("1")))
		require.NoError(t, host.Write("w/2.txt", []byte("2")))

		var paths []string
		err := host.Walk(func(path string) error {
			paths = append(paths, path)
			return nil
		})
		require.NoError(t, err)

		assert.True(t, sort.StringsAreSorted(paths), "Walk should visit files in lexical order, got %v", paths)
		assert.Contains(t, paths, "w/1.txt")
		assert.Contains(t, paths, "w/2.txt")
	})
}
