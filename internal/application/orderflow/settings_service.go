package orderflow

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// SettingsService holds the cached, hot-reloadable StockDeductionSettings.
// Readers get the cached copy without touching storage; the cache refreshes
// on explicit save and falls back to the last known good copy when the store
// is unreachable, so a storage blip never halts order processing.
type SettingsService struct {
	repo   SettingsRepository
	logger *zap.Logger

	mu      sync.RWMutex
	current *StockDeductionSettings
}

// NewSettingsService creates a SettingsService and loads the initial settings.
// A missing row is not an error; the state machine starts disabled.
func NewSettingsService(ctx context.Context, repo SettingsRepository, logger *zap.Logger) (*SettingsService, error) {
	s := &SettingsService{
		repo:   repo,
		logger: logger.Named("settings"),
	}

	settings, err := repo.Load(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		settings = DefaultSettings()
	} else if err != nil {
		// Unreachable settings store at startup is structural and fatal.
		return nil, shared.ErrSettingsUnavailable
	}

	s.current = settings
	return s, nil
}

// Current returns the cached settings. The returned value must be treated as
// read-only.
func (s *SettingsService) Current() *StockDeductionSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates, persists and hot-reloads the settings. A changed setting
// affects future transitions only.
func (s *SettingsService) Save(ctx context.Context, settings *StockDeductionSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	s.logger.Info("stock deduction settings updated",
		zap.Bool("auto_deduct_enabled", settings.AutoDeductEnabled),
		zap.String("reservation_status", settings.ReservationStatus),
		zap.String("deduction_status", settings.DeductionStatus),
		zap.String("restore_status", settings.RestoreStatus),
	)
	return nil
}

// Reload re-reads the settings from storage. On failure the cached copy
// stays in place.
func (s *SettingsService) Reload(ctx context.Context) error {
	settings, err := s.repo.Load(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		settings = DefaultSettings()
	} else if err != nil {
		s.logger.Warn("settings reload failed, keeping cached copy", zap.Error(err))
		return shared.ErrSettingsUnavailable
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}
