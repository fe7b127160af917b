package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prtrack/prtrack/internal/github"
	"github.com/prtrack/prtrack/internal/output"
	"github.com/prtrack/prtrack/internal/tracker"
)

// testEnv sets up isolated config dir, viper, and output for testing.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Override configDirFunc for tests
	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	// Reset viper
	viper.Reset()
	viper.SetDefault("github.api_url", github.DefaultBaseURL)
	viper.SetDefault("github.owner", "")
	viper.SetDefault("github.repo", "")
	viper.SetDefault("report.workers", tracker.DefaultWorkers)
	viper.SetDefault("report.closed_days", 7)
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	ui = &output.UI{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}}

	return dir
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := testEnv(t)

	configForce = false
	err := configInitRun()
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prtrack configuration")
	assert.Contains(t, string(data), "confluence")
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0o644))

	configForce = false
	err := configInitRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigInit_ForceOverwrite(t *testing.T) {
	dir := testEnv(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0o644))

	configForce = true
	err := configInitRun()
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.NotEqual(t, "existing", string(data))
}

func TestConfigShow_RedactsSecrets(t *testing.T) {
	testEnv(t)
	viper.Set("github.token", "ghp_supersecret")
	viper.Set("anthropic.api_key", "sk-ant-secret")

	err := configShowRun()
	require.NoError(t, err)

	got := ui.Out.(*bytes.Buffer).String()
	assert.NotContains(t, got, "ghp_supersecret")
	assert.NotContains(t, got, "sk-ant-secret")
	assert.Contains(t, got, "****")
}

func TestGetGitHubClient_RequiresToken(t *testing.T) {
	testEnv(t)
	viper.Set("github.owner", "acme")
	viper.Set("github.repo", "widgets")

	_, err := getGitHubClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}

func TestGetGitHubClient_RequiresRepo(t *testing.T) {
	testEnv(t)
	viper.Set("github.token", "tok")

	_, err := getGitHubClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github.owner")
}

func TestGetGitHubClient_Configured(t *testing.T) {
	testEnv(t)
	viper.Set("github.token", "tok")
	viper.Set("github.owner", "acme")
	viper.Set("github.repo", "widgets")
	viper.Set("github.api_url", "https://ghe.example.com/api/v3")

	client, err := getGitHubClient()
	require.NoError(t, err)

	rest, ok := client.(*github.RESTClient)
	require.True(t, ok)
	assert.Equal(t, "acme", rest.Owner)
	assert.Equal(t, "https://ghe.example.com/api/v3", rest.BaseURL)
}
