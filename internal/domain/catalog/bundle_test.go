package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBundleComponent(t *testing.T) {
	parentID := uuid.New()
	componentID := uuid.New()

	t.Run("creates component successfully", func(t *testing.T) {
		c, err := NewBundleComponent(parentID, componentID, 2)

		require.NoError(t, err)
		assert.Equal(t, parentID, c.ParentProductID)
		assert.Equal(t, componentID, c.ComponentProductID)
		assert.Equal(t, int64(2), c.ComponentQuantity)
	})

	t.Run("rejects self reference", func(t *testing.T) {
		c, err := NewBundleComponent(parentID, parentID, 1)

		require.Error(t, err)
		assert.Nil(t, c)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewBundleComponent(parentID, componentID, 0)
		require.Error(t, err)

		_, err = NewBundleComponent(parentID, componentID, -1)
		require.Error(t, err)
	})

	t.Run("rejects nil IDs", func(t *testing.T) {
		_, err := NewBundleComponent(uuid.Nil, componentID, 1)
		require.Error(t, err)

		_, err = NewBundleComponent(parentID, uuid.Nil, 1)
		require.Error(t, err)
	})
}

func TestBundleComponent_ComponentQuantityFor(t *testing.T) {
	c, err := NewBundleComponent(uuid.New(), uuid.New(), 2)
	require.NoError(t, err)

	assert.Equal(t, int64(6), c.ComponentQuantityFor(3))
}
