package ports

import (
	"context"
	"testing"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunOutputStoreContract runs a suite of tests to verify that an OutputStore implementation
// adheres to the defined interface contract.
func RunOutputStoreContract(t *testing.T, store OutputStore) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, "system.md", []byte("You are helpful."))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, "system.md")
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "You are helpful.", string(loaded))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "user.md", []byte("first")))
		require.NoError(t, store.Save(ctx, "user.md", []byte("second")))

		loaded, err := store.Load(ctx, "user.md")
		require.NoError(t, err)
		assert.Equal(t, "second", string(loaded))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "never-saved.md")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Empty Name", func(t *testing.T) {
		err := store.Save(ctx, "", []byte("x"))
		assert.Error(t, err, "Save with empty name should fail")
	})
}
