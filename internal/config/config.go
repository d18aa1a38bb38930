// Package config loads bridge configuration from a YAML file and
// environment variables.
//
// Sources, in precedence order: explicit --config file, ./bridge.yaml,
// $HOME/.config/bridge/bridge.yaml, then environment variables. Credentials
// are normally supplied through the environment:
//
//	JIRA_URL (or JIRA_SERVER)     Jira base URL
//	JIRA_USERNAME (or JIRA_EMAIL) account email (Cloud) or username (Server)
//	JIRA_API_TOKEN                API token (Cloud, preferred)
//	JIRA_PASSWORD                 password (Server, fallback)
//	JIRA_PROJECT                  default project key
//	ANTHROPIC_API_KEY             chat model key
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config is the resolved bridge configuration.
type Config struct {
	JiraURL      string
	JiraUsername string
	JiraToken    string
	JiraPassword string
	Project      string

	AnthropicKey string
	Model        string

	ExportFile       string
	ExportFormat     string
	ExcludedStatuses []string
	MaxResults       int
}

// Load reads configuration. path may be empty, in which case the standard
// locations are searched; a missing config file is not an error because the
// environment alone can be sufficient.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bridge")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/bridge")
	}

	v.SetDefault("export.file", "issues_export.json")
	v.SetDefault("export.format", "json")
	v.SetDefault("export.excluded_statuses", []string{"Done"})
	v.SetDefault("search.max_results", 50)

	_ = v.BindEnv("jira.url", "JIRA_URL", "JIRA_SERVER")
	_ = v.BindEnv("jira.username", "JIRA_USERNAME", "JIRA_EMAIL")
	_ = v.BindEnv("jira.api_token", "JIRA_API_TOKEN")
	_ = v.BindEnv("jira.password", "JIRA_PASSWORD")
	_ = v.BindEnv("jira.project", "JIRA_PROJECT")
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("anthropic.model", "BRIDGE_MODEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{
		JiraURL:          v.GetString("jira.url"),
		JiraUsername:     v.GetString("jira.username"),
		JiraToken:        v.GetString("jira.api_token"),
		JiraPassword:     v.GetString("jira.password"),
		Project:          v.GetString("jira.project"),
		AnthropicKey:     v.GetString("anthropic.api_key"),
		Model:            v.GetString("anthropic.model"),
		ExportFile:       v.GetString("export.file"),
		ExportFormat:     v.GetString("export.format"),
		ExcludedStatuses: v.GetStringSlice("export.excluded_statuses"),
		MaxResults:       v.GetInt("search.max_results"),
	}, nil
}

// ValidateJira checks that enough is configured to reach Jira: URL and
// username always, plus an API token (Cloud) or password (Server).
func (c *Config) ValidateJira() error {
	if c.JiraURL == "" || c.JiraUsername == "" {
		return errors.New("JIRA_URL and JIRA_USERNAME (or JIRA_EMAIL) must be set")
	}
	if c.Credential() == "" {
		return errors.New("set JIRA_API_TOKEN (Cloud) or JIRA_PASSWORD (Server)")
	}
	return nil
}

// Credential returns the secret used for Jira auth, preferring the API token.
func (c *Config) Credential() string {
	if c.JiraToken != "" {
		return c.JiraToken
	}
	return c.JiraPassword
}
