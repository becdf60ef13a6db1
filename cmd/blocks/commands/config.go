package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Token store backends selectable with token_store.
const (
	TokenStoreKeyring = "keyring"
	TokenStoreRedis   = "redis"
)

const blockKeyPrefix = "block."

// Config represents the CLI configuration.
type Config struct {
	Blocks     map[string]string `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	APIKey     string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Output     string            `json:"output" yaml:"output"`
	Timeout    string            `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries *int              `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	TokenStore string            `json:"token_store,omitempty" yaml:"token_store,omitempty"`
	RedisAddr  string            `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	NATSURL    string            `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage blocks CLI configuration including block URLs and credentials",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			masked := *config
			if masked.APIKey != "" {
				masked.APIKey = maskSecret(masked.APIKey)
			}

			return render(cmd, masked, func(out io.Writer) error {
				return displayConfigTable(out, &masked)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Keys:
  block.<name>   base URL of a block, e.g. block.identity https://identity.example.com
  api_key        API key sent as X-API-Key
  output         default output format (table, json, yaml)
  timeout        per-attempt timeout, e.g. 10s
  max_retries    retries after the first attempt
  token_store    keyring or redis
  redis_addr     Redis address for the redis token store
  nats_url       NATS server receiving request events`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := setConfigValue(config, args[0], args[1]); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := unsetConfigValue(config, args[0]); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func loadConfig() *Config {
	config := &Config{
		Blocks:     map[string]string{},
		APIKey:     viper.GetString("api_key"),
		Output:     viper.GetString("output"),
		Timeout:    viper.GetString("timeout"),
		TokenStore: viper.GetString("token_store"),
		RedisAddr:  viper.GetString("redis_addr"),
		NATSURL:    viper.GetString("nats_url"),
	}

	for name, url := range viper.GetStringMapString("blocks") {
		config.Blocks[name] = url
	}

	if viper.IsSet("max_retries") {
		retries := viper.GetInt("max_retries")
		config.MaxRetries = &retries
	}

	if config.Output == "" {
		config.Output = constants.FormatTable
	}

	return config
}

func setConfigValue(config *Config, key, value string) error {
	if name, ok := strings.CutPrefix(key, blockKeyPrefix); ok && name != "" {
		if config.Blocks == nil {
			config.Blocks = map[string]string{}
		}

		config.Blocks[name] = value

		return nil
	}

	switch key {
	case "api_key":
		config.APIKey = value
	case "output":
		if value != constants.FormatTable && value != constants.FormatJSON && value != constants.FormatYAML {
			return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, value)
		}

		config.Output = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}

		config.Timeout = value
	case "max_retries":
		var retries int
		if _, err := fmt.Sscanf(value, "%d", &retries); err != nil || retries < 0 {
			return fmt.Errorf("%w: max_retries must be a non-negative integer", constants.ErrInvalidConfigValue)
		}

		config.MaxRetries = &retries
	case "token_store":
		if value != TokenStoreKeyring && value != TokenStoreRedis {
			return fmt.Errorf("%w: token_store must be %s or %s", constants.ErrInvalidConfigValue, TokenStoreKeyring, TokenStoreRedis)
		}

		config.TokenStore = value
	case "redis_addr":
		config.RedisAddr = value
	case "nats_url":
		config.NATSURL = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	if name, ok := strings.CutPrefix(key, blockKeyPrefix); ok && name != "" {
		delete(config.Blocks, name)

		return nil
	}

	switch key {
	case "api_key":
		config.APIKey = ""
	case "output":
		config.Output = constants.FormatTable
	case "timeout":
		config.Timeout = ""
	case "max_retries":
		config.MaxRetries = nil
	case "token_store":
		config.TokenStore = ""
	case "redis_addr":
		config.RedisAddr = ""
	case "nats_url":
		config.NATSURL = ""
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// configDir returns the directory holding the config file.
func configDir() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return filepath.Dir(configFile), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".blocks"), nil
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}

		configFile = filepath.Join(dir, "config.yml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.SetConfigFile(configFile)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	return nil
}

func displayConfigTable(out io.Writer, config *Config) error {
	table := newTable(out, "Property", "Value")

	_ = table.Append([]string{"Output", config.Output})
	_ = table.Append([]string{"API Key", valueOrDefault(config.APIKey, "not set")})
	_ = table.Append([]string{"Timeout", valueOrDefault(config.Timeout, constants.DefaultHTTPTimeout.String())})
	_ = table.Append([]string{"Token Store", valueOrDefault(config.TokenStore, TokenStoreKeyring)})

	if config.MaxRetries != nil {
		_ = table.Append([]string{"Max Retries", fmt.Sprint(*config.MaxRetries)})
	}

	if config.RedisAddr != "" {
		_ = table.Append([]string{"Redis Address", config.RedisAddr})
	}

	if config.NATSURL != "" {
		_ = table.Append([]string{"NATS URL", config.NATSURL})
	}

	names := make([]string, 0, len(config.Blocks))
	for name := range config.Blocks {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		_ = table.Append([]string{"Block " + name, config.Blocks[name]})
	}

	return renderTable(table)
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func maskSecret(secret string) string {
	const visible = 4

	if len(secret) <= visible {
		return "***"
	}

	return "***" + secret[len(secret)-visible:]
}
