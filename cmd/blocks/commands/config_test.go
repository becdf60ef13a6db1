package commands

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewConfigCommand(t *testing.T) {
	cmd := NewConfigCommand()
	assert.Equal(t, "config", cmd.Use)

	for _, name := range []string{"show", "set", "unset"} {
		assert.NotNil(t, findSubcommand(cmd, name), "subcommand %s should exist", name)
	}
}

//nolint:funlen // Test functions can be longer for detailed testing
func TestConfigSetAndUnset(t *testing.T) {
	configFile, _ := setupCLI(t, "output: table\n")

	steps := [][]string{
		{"set", "block.identity", "https://identity.example.com"},
		{"set", "block.commerce", "http://localhost:8081"},
		{"set", "api_key", "key-123456"},
		{"set", "output", "json"},
		{"set", "timeout", "5s"},
		{"set", "max_retries", "1"},
		{"set", "token_store", "redis"},
		{"set", "redis_addr", "localhost:6380"},
	}

	for _, args := range steps {
		_, err := execute(t, NewConfigCommand(), args...)
		require.NoError(t, err, "config %v", args)
	}

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	var saved Config
	require.NoError(t, yaml.Unmarshal(data, &saved))

	assert.Equal(t, map[string]string{
		"identity": "https://identity.example.com",
		"commerce": "http://localhost:8081",
	}, saved.Blocks)
	assert.Equal(t, "key-123456", saved.APIKey)
	assert.Equal(t, "json", saved.Output)
	assert.Equal(t, "5s", saved.Timeout)
	require.NotNil(t, saved.MaxRetries)
	assert.Equal(t, 1, *saved.MaxRetries)
	assert.Equal(t, TokenStoreRedis, saved.TokenStore)
	assert.Equal(t, "localhost:6380", saved.RedisAddr)

	_, err = execute(t, NewConfigCommand(), "unset", "block.commerce")
	require.NoError(t, err)

	_, err = execute(t, NewConfigCommand(), "unset", "max_retries")
	require.NoError(t, err)

	config := loadConfig()
	assert.Equal(t, map[string]string{"identity": "https://identity.example.com"}, config.Blocks)
	assert.Nil(t, config.MaxRetries)
}

func TestConfigSet_Validation(t *testing.T) {
	setupCLI(t, "")

	tests := []struct {
		args []string
		err  error
	}{
		{[]string{"set", "colour", "blue"}, constants.ErrUnknownConfigKey},
		{[]string{"set", "output", "xml"}, constants.ErrUnsupportedOutput},
		{[]string{"set", "token_store", "vault"}, constants.ErrInvalidConfigValue},
		{[]string{"set", "max_retries", "-1"}, constants.ErrInvalidConfigValue},
		{[]string{"unset", "colour"}, constants.ErrUnknownConfigKey},
	}

	for _, tt := range tests {
		_, err := execute(t, NewConfigCommand(), tt.args...)
		require.ErrorIs(t, err, tt.err, "config %v", tt.args)
	}

	_, err := execute(t, NewConfigCommand(), "set", "timeout", "soon")
	require.Error(t, err)
}

func TestConfigShow_MasksAPIKey(t *testing.T) {
	setupCLI(t, "api_key: secret-abcd\nblocks:\n  identity: https://identity.example.com\n")
	viper.Set("output", constants.FormatJSON)

	out, err := execute(t, NewConfigCommand(), "show")
	require.NoError(t, err)

	var shown Config
	require.NoError(t, json.Unmarshal([]byte(out), &shown))

	assert.Equal(t, "***abcd", shown.APIKey)
	assert.Equal(t, "https://identity.example.com", shown.Blocks["identity"])

	viper.Set("output", constants.FormatTable)

	out, err = execute(t, NewConfigCommand(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "https://identity.example.com")
	assert.NotContains(t, out, "secret-abcd")
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "***", maskSecret("abc"))
	assert.Equal(t, "***6789", maskSecret("0123456789"))
}
