package domain

import "time"

// DefaultMaxRounds is the propagation round budget.
const DefaultMaxRounds = 10

// Settings holds user configuration for the engine and its collaborators.
type Settings struct {
	Engine    EngineSettings
	Providers ProviderSettings
	Compute   ComputeSettings
	Storage   StorageSettings
}

// EngineSettings configures the propagation engine.
type EngineSettings struct {
	// MaxRounds is the number of provider dispatches allowed per call.
	MaxRounds int

	// RoundTimeout bounds how long one round waits for providers.
	// Zero waits indefinitely.
	RoundTimeout time.Duration
}

// ProviderSettings selects which providers are attached to open notebooks.
type ProviderSettings struct {
	// Enabled lists provider names in registration order.
	Enabled []string
}

// ComputeSettings configures the computation and ink backends.
type ComputeSettings struct {
	// Endpoint is the base URL of a remote backend. Empty uses the
	// built-in simplifier and disables ink recognition.
	Endpoint string

	// RequestsPerSecond and Burst rate limit the remote backend.
	RequestsPerSecond float64
	Burst             int
}

// StorageBackend names a snapshot store implementation.
type StorageBackend string

const (
	StorageSQLite StorageBackend = "sqlite"
	StorageMemory StorageBackend = "memory"
)

// IsValid reports whether b is a known backend.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StorageMemory
}

// StorageSettings configures persistence.
type StorageSettings struct {
	Backend StorageBackend

	// DataDir holds the sqlite database. Empty uses ~/.mathnb.
	DataDir string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Engine: EngineSettings{
			MaxRounds:    DefaultMaxRounds,
			RoundTimeout: 30 * time.Second,
		},
		Providers: ProviderSettings{
			Enabled: []string{"symbols", "algebra", "notation", "ink"},
		},
		Compute: ComputeSettings{
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
	}
}
