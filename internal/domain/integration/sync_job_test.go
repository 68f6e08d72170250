package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unavailable", ErrPlatformUnavailable, true},
		{"timeout", ErrPlatformTimeout, true},
		{"rate limited", ErrPlatformRateLimited, true},
		{"wrapped transient", fmt.Errorf("push: %w", ErrPlatformTimeout), true},
		{"context deadline", context.DeadlineExceeded, true},
		{"auth failure", ErrPlatformAuthFailed, false},
		{"not found", ErrPlatformProductNotFound, false},
		{"generic", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestSyncJob_Lifecycle(t *testing.T) {
	productID := uuid.New()

	t.Run("new job is pending", func(t *testing.T) {
		job, err := NewStockPushJob(PlatformCodeWooCommerce, productID)

		require.NoError(t, err)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.Equal(t, 1, job.TotalItems)
		assert.Zero(t, job.Attempts)
	})

	t.Run("start counts attempts", func(t *testing.T) {
		job, err := NewStockPushJob(PlatformCodeShopify, productID)
		require.NoError(t, err)

		job.Start()
		job.Start()
		assert.Equal(t, JobStatusProcessing, job.Status)
		assert.Equal(t, 2, job.Attempts)
		assert.NotNil(t, job.StartedAt)
	})

	t.Run("complete clears error state and emits event", func(t *testing.T) {
		job, err := NewStockPushJob(PlatformCodeShopify, productID)
		require.NoError(t, err)

		job.Start()
		job.Complete()
		assert.Equal(t, JobStatusCompleted, job.Status)
		assert.Equal(t, 1, job.ProcessedItems)
		assert.Zero(t, job.FailedItems)
		assert.NotNil(t, job.CompletedAt)

		events := job.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSyncCompleted, events[0].EventType())
	})

	t.Run("fail records final error and emits event", func(t *testing.T) {
		job, err := NewStockPushJob(PlatformCodePrestaShop, productID)
		require.NoError(t, err)

		job.Start()
		job.Fail("timeout after 3 attempts")
		assert.Equal(t, JobStatusFailed, job.Status)
		assert.Equal(t, 1, job.FailedItems)
		assert.Equal(t, "timeout after 3 attempts", job.LastError)

		events := job.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSyncFailed, events[0].EventType())
	})

	t.Run("requeue only allowed from failed", func(t *testing.T) {
		job, err := NewStockPushJob(PlatformCodeWooCommerce, productID)
		require.NoError(t, err)

		require.Error(t, job.Requeue())

		job.Start()
		job.Fail("boom")
		require.NoError(t, job.Requeue())
		assert.Equal(t, JobStatusPending, job.Status)
		assert.Empty(t, job.LastError)
		assert.Nil(t, job.CompletedAt)
	})

	t.Run("rejects invalid platform and nil product", func(t *testing.T) {
		_, err := NewStockPushJob(PlatformCode("EBAY"), productID)
		require.Error(t, err)

		_, err = NewStockPushJob(PlatformCodeWooCommerce, uuid.Nil)
		require.Error(t, err)
	})
}
