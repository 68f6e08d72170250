package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEntity(t *testing.T) {
	e := NewBaseEntity()

	require.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
}

func TestBaseEntity_Touch(t *testing.T) {
	e := NewBaseEntity()
	created := e.CreatedAt

	e.Touch()

	assert.Equal(t, created, e.CreatedAt)
	assert.False(t, e.UpdatedAt.Before(created))
}
