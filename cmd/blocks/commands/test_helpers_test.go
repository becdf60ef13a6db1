package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// setupCLI points viper at a fresh config file holding content and swaps the
// keyring for an in-memory one. Commands share viper's global state, so tests
// using it do not run in parallel.
func setupCLI(t *testing.T, content string) (string, keyring.Keyring) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	configFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o600))

	viper.SetConfigFile(configFile)
	require.NoError(t, viper.ReadInConfig())

	ring := keyring.NewArrayKeyring(nil)
	original := openKeyring
	openKeyring = func() (keyring.Keyring, error) {
		return ring, nil
	}

	t.Cleanup(func() { openKeyring = original })

	return configFile, ring
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}
