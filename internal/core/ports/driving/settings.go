package driving

import "github.com/custodia-labs/mathnb/internal/core/domain"

// SettingsService reads and writes application settings.
type SettingsService interface {
	// Get returns the current settings, with defaults for unset keys.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// Set validates and stores a single key given as text, as typed on
	// the command line.
	Set(key, value string) error

	// Keys lists the settable keys.
	Keys() []string
}
