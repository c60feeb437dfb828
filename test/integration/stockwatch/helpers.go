package stockwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/stockwatch/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "stockwatch"
	}

	// go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("STOCKWATCH_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("stockwatch binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "STOCKWATCH_INTEGRATION"
		envBinary     = "STOCKWATCH_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunCmd runs a stockwatch command without config file and logs, polling fast.
func RunCmd(ctx context.Context, config Config, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--config= --poll-interval 10ms %s", cmdArgs)
	return testutils.RunStockwatch(ctx, nil, config.Binary, args, true)
}

// RunAnalyze runs an analysis on the server at serverURL, the fake backend is used when it's empty.
func RunAnalyze(ctx context.Context, config Config, serverURL, kind, extraArgs string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, fmt.Sprintf("%s analyze %s --no-progress --format json %s", backendArgs(serverURL), kind, extraArgs))
}

// RunStatus gets the status of a task on the server at serverURL.
func RunStatus(ctx context.Context, config Config, serverURL, taskID string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, fmt.Sprintf("%s status %s --format json", backendArgs(serverURL), taskID))
}

// RunWatch tracks a task on the server at serverURL.
func RunWatch(ctx context.Context, config Config, serverURL, taskID string) (stdout, stderr []byte, err error) {
	return RunCmd(ctx, config, fmt.Sprintf("%s watch %s --no-progress --format json", backendArgs(serverURL), taskID))
}

func backendArgs(serverURL string) string {
	if serverURL == "" {
		return "--fake-backend"
	}
	return "--server-url " + serverURL
}
