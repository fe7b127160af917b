package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "prtrack"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage prtrack configuration.

Running bare 'prtrack config' is the same as 'prtrack config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# prtrack configuration
# Tokens can also come from the environment: GITHUB_TOKEN, PRTRACK_CONFLUENCE_TOKEN.

github:
  # Repository to report on
  owner: "{{ .GitHubOwner }}"
  repo: "{{ .GitHubRepo }}"

  # API endpoint (change for GitHub Enterprise)
  # api_url: "{{ .GitHubAPIURL }}"

report:
  # Concurrent reviewer lookups (default: {{ .Workers }})
  # workers: {{ .Workers }}

  # Closed-PR lookback window in days for --closed (default: {{ .ClosedDays }})
  # closed_days: {{ .ClosedDays }}

# Confluence publishing (used by --publish)
confluence:
  # base_url: "https://example.atlassian.net/wiki"
  # user: "bot@example.com"
  # space: "ENG"
  # page_id: ""   # set to append to an existing page instead of creating one

# AI executive summary (used by --ai-summary)
anthropic:
  # api_key: ""
  # model: "{{ .AnthropicModel }}"
`

type configTemplateData struct {
	GitHubOwner    string
	GitHubRepo     string
	GitHubAPIURL   string
	Workers        int
	ClosedDays     int
	AnthropicModel string
}

func configInitRun() error {
	dir, err := configDirFunc()
	if err != nil {
		return fmt.Errorf("find config directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("parse config template: %w", err)
	}

	data := configTemplateData{
		GitHubOwner:    viper.GetString("github.owner"),
		GitHubRepo:     viper.GetString("github.repo"),
		GitHubAPIURL:   viper.GetString("github.api_url"),
		Workers:        viper.GetInt("report.workers"),
		ClosedDays:     viper.GetInt("report.closed_days"),
		AnthropicModel: viper.GetString("anthropic.model"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render config template: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	ui.Success("wrote %s", path)
	return nil
}

func configShowRun() error {
	settings := viper.AllSettings()
	redactSecrets(settings)

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprint(ui.Out, string(out))
	return nil
}

// redactSecrets masks token-like values so `config show` is safe to paste.
func redactSecrets(settings map[string]any) {
	for key, val := range settings {
		switch v := val.(type) {
		case map[string]any:
			redactSecrets(v)
		case string:
			if v != "" && (key == "token" || key == "api_key") {
				settings[key] = "****"
			}
		}
	}
}

func configEditRun() error {
	dir, err := configDirFunc()
	if err != nil {
		return fmt.Errorf("find config directory: %w", err)
	}
	path := filepath.Join(dir, "config.yaml")

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
