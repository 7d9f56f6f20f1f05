package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mathnb/internal/adapters/driven/compute/local"
	"github.com/custodia-labs/mathnb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/core/services"
	"github.com/custodia-labs/mathnb/internal/providers/algebra"
)

// setupTestServices installs a notebook service backed by memory storage
// with the algebra provider over the built-in simplifier.
func setupTestServices() func() {
	nbService := services.NewNotebookService(
		memory.NewSnapshotStore(),
		[]driven.ProviderFactory{algebra.Factory(local.New())},
	)
	SetServices(&Services{
		Notebook: nbService,
		Settings: services.NewSettingsService(memory.NewConfigStore()),
	})

	return func() {
		_ = nbService.Close()
		SetServices(nil)
	}
}

// setupMockServices installs a mock notebook service.
func setupMockServices(m *mockNotebookService) func() {
	SetServices(&Services{Notebook: m})
	return func() {
		SetServices(nil)
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not leak
// values into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "mathnb", rootCmd.Use)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	commands := rootCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "notebook")
	assert.Contains(t, commandNames, "cell")
	assert.Contains(t, commandNames, "apply")
	assert.Contains(t, commandNames, "tool")
	assert.Contains(t, commandNames, "watch")
	assert.Contains(t, commandNames, "serve")
	assert.Contains(t, commandNames, "config")
	assert.Contains(t, commandNames, "version")
	assert.Contains(t, commandNames, "tui")
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config-dir"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("data-dir"))
}

func TestSetServices_Nil(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	SetServices(nil)

	assert.Nil(t, notebookService)
	assert.Nil(t, settingsService)
	assert.Nil(t, closeServices)
}

func TestExecute_BootstrapsAndCloses(t *testing.T) {
	SetServices(nil)
	defer SetServices(nil)

	var gotOpts Options
	closed := false
	b := func(opts Options) (*Services, error) {
		gotOpts = opts
		return &Services{
			Notebook: services.NewNotebookService(memory.NewSnapshotStore(), nil),
			Settings: services.NewSettingsService(memory.NewConfigStore()),
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"--data-dir", "/tmp/mathnb-test", "notebook", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		bootstrap = nil
	}()

	err := Execute(context.Background(), b)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/mathnb-test", gotOpts.DataDir)
	assert.True(t, closed)
	assert.Contains(t, buf.String(), "No notebooks found.")
}

func TestExecute_BootstrapError(t *testing.T) {
	SetServices(nil)

	b := func(Options) (*Services, error) {
		return nil, errors.New("no database")
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"notebook", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
		bootstrap = nil
	}()

	err := Execute(context.Background(), b)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")
}

func TestExecute_JoinsCloseError(t *testing.T) {
	SetServices(nil)

	b := func(Options) (*Services, error) {
		return &Services{
			Notebook: &mockNotebookService{},
			Close:    func() error { return errors.New("close failed") },
		}, nil
	}

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"notebook", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
		bootstrap = nil
		SetServices(nil)
	}()

	err := Execute(context.Background(), b)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
}

func TestTUICmd_NotConfigured(t *testing.T) {
	SetServices(nil)

	_, err := executeCommand("tui", "nb")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "notebook service not configured")
}

func TestTUICmd_UnknownNotebook(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("tui", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
