//go:build integration

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	IdentityURL string
	CommerceURL string
	AccessToken string
	APIKey      string
	RedisAddr   string
	BlocksPath  string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		IdentityURL: os.Getenv("BLOCKS_IT_IDENTITY_URL"),
		CommerceURL: os.Getenv("BLOCKS_IT_COMMERCE_URL"),
		AccessToken: os.Getenv("BLOCKS_IT_ACCESS_TOKEN"),
		APIKey:      os.Getenv("BLOCKS_IT_API_KEY"),
		RedisAddr:   os.Getenv("BLOCKS_IT_REDIS_ADDR"),
		BlocksPath:  getBlocksPath(),
		Verbose:     os.Getenv("BLOCKS_IT_VERBOSE") == "true",
	}
}

// getBlocksPath determines the path to the blocks binary.
func getBlocksPath() string {
	if path := os.Getenv("BLOCKS_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../blocks",
		"./blocks",
		"../blocks",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "blocks"
}

// SkipIfMissingConfig skips the test when no block or binary is available.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.IdentityURL == "" {
		t.Skip("BLOCKS_IT_IDENTITY_URL not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BlocksPath); err != nil {
		t.Skipf("blocks binary not found at %s, skipping integration test", config.BlocksPath)
	}
}

// CommandRunner runs the blocks binary against a private config file.
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a runner with its own config file.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a blocks command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a blocks command with stdin input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.BlocksPath, args...)
	cmd.Stdin = strings.NewReader(input)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BlocksPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// MustRun executes a blocks command and fails the test on error.
func (runner *CommandRunner) MustRun(args ...string) string {
	stdout, stderr, err := runner.Run(args...)
	require.NoError(runner.t, err, "blocks %s: %s", strings.Join(args, " "), stderr)

	return stdout
}

// Setup writes the block URLs and credentials into the config file.
func (runner *CommandRunner) Setup() error {
	settings := [][]string{{"block.identity", runner.config.IdentityURL}}

	if runner.config.CommerceURL != "" {
		settings = append(settings, []string{"block.commerce", runner.config.CommerceURL})
	}

	if runner.config.APIKey != "" {
		settings = append(settings, []string{"api_key", runner.config.APIKey})
	}

	if runner.config.RedisAddr != "" {
		settings = append(settings,
			[]string{"token_store", "redis"},
			[]string{"redis_addr", runner.config.RedisAddr})
	}

	for _, setting := range settings {
		if _, stderr, err := runner.Run("config", "set", setting[0], setting[1]); err != nil {
			return fmt.Errorf("failed to set %s: %s", setting[0], stderr)
		}
	}

	if runner.config.AccessToken == "" {
		return nil
	}

	if _, stderr, err := runner.RunWithInput(runner.config.AccessToken+"\n", "login"); err != nil {
		return fmt.Errorf("failed to log in: %s", stderr)
	}

	return nil
}

// WaitForCondition waits for a condition to be met with timeout.
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	timeoutChan := time.After(timeout)

	for {
		select {
		case <-ticker.C:
			if condition() {
				return
			}
		case <-timeoutChan:
			t.Fatalf("Timeout waiting for condition: %s", message)
		}
	}
}

// AssertJSONOutput verifies command output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if !strings.HasPrefix(output, "{") && !strings.HasPrefix(output, "[") && !strings.HasPrefix(output, "\"") {
		t.Errorf("Output does not appear to be JSON: %s", output)
	}
}
