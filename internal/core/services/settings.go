package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyMaxRounds        = "engine.max_rounds"
	keyRoundTimeout     = "engine.round_timeout"
	keyProvidersEnabled = "providers.enabled"
	keyComputeEndpoint  = "compute.endpoint"
	keyComputeRPS       = "compute.requests_per_second"
	keyComputeBurst     = "compute.burst"
	keyStorageBackend   = "storage.backend"
	keyStorageDataDir   = "storage.data_dir"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Engine: domain.EngineSettings{
			MaxRounds:    s.getInt(keyMaxRounds, defaults.Engine.MaxRounds),
			RoundTimeout: s.getDuration(keyRoundTimeout, defaults.Engine.RoundTimeout),
		},
		Providers: domain.ProviderSettings{
			Enabled: s.getStringSlice(keyProvidersEnabled, defaults.Providers.Enabled),
		},
		Compute: domain.ComputeSettings{
			Endpoint:          s.configStore.GetString(keyComputeEndpoint), // Empty selects the built-in engine
			RequestsPerSecond: s.getFloat(keyComputeRPS, defaults.Compute.RequestsPerSecond),
			Burst:             s.getInt(keyComputeBurst, defaults.Compute.Burst),
		},
		Storage: domain.StorageSettings{
			Backend: s.getBackend(defaults.Storage.Backend),
			DataDir: s.configStore.GetString(keyStorageDataDir),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyMaxRounds, settings.Engine.MaxRounds},
		{keyRoundTimeout, settings.Engine.RoundTimeout.String()},
		{keyProvidersEnabled, settings.Providers.Enabled},
		{keyComputeEndpoint, settings.Compute.Endpoint},
		{keyComputeRPS, settings.Compute.RequestsPerSecond},
		{keyComputeBurst, settings.Compute.Burst},
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyStorageDataDir, settings.Storage.DataDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("set %s: %w", v.key, err)
		}
	}
	return s.configStore.Save()
}

// Keys lists the settable keys.
func (s *SettingsService) Keys() []string {
	return []string{
		keyMaxRounds, keyRoundTimeout, keyProvidersEnabled,
		keyComputeEndpoint, keyComputeRPS, keyComputeBurst,
		keyStorageBackend, keyStorageDataDir,
	}
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch key {
	case keyMaxRounds:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		settings.Engine.MaxRounds = n
	case keyRoundTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: %s must be a duration such as 30s", domain.ErrInvalidInput, key)
		}
		settings.Engine.RoundTimeout = d
	case keyProvidersEnabled:
		settings.Providers.Enabled = splitList(value)
	case keyComputeEndpoint:
		settings.Compute.Endpoint = value
	case keyComputeRPS:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%w: %s must be a positive number", domain.ErrInvalidInput, key)
		}
		settings.Compute.RequestsPerSecond = f
	case keyComputeBurst:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		settings.Compute.Burst = n
	case keyStorageBackend:
		b := domain.StorageBackend(value)
		if !b.IsValid() {
			return fmt.Errorf("%w: %s must be sqlite or memory", domain.ErrInvalidInput, key)
		}
		settings.Storage.Backend = b
	case keyStorageDataDir:
		settings.Storage.DataDir = value
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.Save(settings)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return slices.Clone(defaultVal)
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	b := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !b.IsValid() {
		return defaultVal
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
