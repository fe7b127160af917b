package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prtrack/prtrack/internal/github"
	"github.com/prtrack/prtrack/internal/output"
	"github.com/prtrack/prtrack/internal/tracker"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "prtrack",
	Short: "Track open pull requests and their review state",
	Long: `prtrack polls a GitHub repository for open pull requests, enriches
them with reviewer and comment data, classifies them by age and approval
state, and emits a CSV or Markdown report, optionally published to
Confluence.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	// Bare `prtrack` runs a report with defaults.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return reportRun(cmd.Context())
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/prtrack/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "prtrack")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PRTRACK")
	viper.AutomaticEnv()

	// The original tracking script was configured through these variables;
	// keep honoring them so existing cron entries survive the switch.
	_ = viper.BindEnv("github.token", "PRTRACK_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = viper.BindEnv("github.owner", "PRTRACK_GITHUB_OWNER", "GITHUB_REPO_OWNER")
	_ = viper.BindEnv("github.repo", "PRTRACK_GITHUB_REPO", "GITHUB_REPO_NAME")

	// Defaults via viper.SetDefault()
	viper.SetDefault("github.api_url", github.DefaultBaseURL)
	viper.SetDefault("github.owner", "")
	viper.SetDefault("github.repo", "")
	viper.SetDefault("report.workers", tracker.DefaultWorkers)
	viper.SetDefault("report.closed_days", 7)
	viper.SetDefault("confluence.base_url", "")
	viper.SetDefault("confluence.user", "")
	viper.SetDefault("confluence.space", "")
	viper.SetDefault("confluence.page_id", "")
	viper.SetDefault("confluence.token", "")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
}

// getGitHubClient builds the API client from configuration. A missing token
// or repository is a configuration error, caught before any network call.
func getGitHubClient() (github.Client, error) {
	owner := viper.GetString("github.owner")
	repo := viper.GetString("github.repo")
	token := viper.GetString("github.token")

	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github.owner and github.repo must be configured (or set GITHUB_REPO_OWNER / GITHUB_REPO_NAME)")
	}

	c := github.NewClient(owner, repo, token)
	if base := viper.GetString("github.api_url"); base != "" {
		c.BaseURL = base
	}
	return c, nil
}
