package orderflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/shared"
)

type failingSettingsRepo struct {
	loadErr error
	stored  *StockDeductionSettings
}

func (r *failingSettingsRepo) Load(context.Context) (*StockDeductionSettings, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.stored == nil {
		return nil, shared.ErrNotFound
	}
	copied := *r.stored
	return &copied, nil
}

func (r *failingSettingsRepo) Save(_ context.Context, settings *StockDeductionSettings) error {
	copied := *settings
	r.stored = &copied
	return nil
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()

	t.Run("starts with defaults when nothing is stored", func(t *testing.T) {
		svc, err := NewSettingsService(ctx, &memSettingsRepo{}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, svc.Current().AutoDeductEnabled)
	})

	t.Run("refuses to start when the store is broken", func(t *testing.T) {
		repo := &failingSettingsRepo{loadErr: errors.New("connection refused")}
		_, err := NewSettingsService(ctx, repo, zap.NewNop())
		require.ErrorIs(t, err, shared.ErrSettingsUnavailable)
	})

	t.Run("save validates and hot-swaps the cached settings", func(t *testing.T) {
		svc, err := NewSettingsService(ctx, &memSettingsRepo{}, zap.NewNop())
		require.NoError(t, err)

		next := enabledSettings()
		require.NoError(t, svc.Save(ctx, next))
		assert.Equal(t, ActionDeduct, svc.Current().ActionFor("shipped"))

		invalid := enabledSettings()
		invalid.DeductionStatus = ""
		require.Error(t, svc.Save(ctx, invalid))
		// The cache keeps the last valid settings.
		assert.Equal(t, ActionDeduct, svc.Current().ActionFor("shipped"))
	})

	t.Run("failed reload keeps serving the cached settings", func(t *testing.T) {
		repo := &failingSettingsRepo{}
		svc, err := NewSettingsService(ctx, repo, zap.NewNop())
		require.NoError(t, err)
		require.NoError(t, svc.Save(ctx, enabledSettings()))

		repo.loadErr = errors.New("connection refused")
		require.ErrorIs(t, svc.Reload(ctx), shared.ErrSettingsUnavailable)
		assert.Equal(t, ActionDeduct, svc.Current().ActionFor("shipped"))
	})

	t.Run("validation rejects identical deduction and restore statuses", func(t *testing.T) {
		s := enabledSettings()
		s.RestoreStatus = s.DeductionStatus
		require.Error(t, s.Validate())
	})
}
