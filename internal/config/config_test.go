package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearJiraEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"JIRA_URL", "JIRA_SERVER", "JIRA_USERNAME", "JIRA_EMAIL",
		"JIRA_API_TOKEN", "JIRA_PASSWORD", "JIRA_PROJECT",
		"ANTHROPIC_API_KEY", "BRIDGE_MODEL",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearJiraEnv(t)
	t.Setenv("JIRA_URL", "https://example.atlassian.net")
	t.Setenv("JIRA_EMAIL", "user@example.com")
	t.Setenv("JIRA_API_TOKEN", "tok")
	t.Setenv("JIRA_PROJECT", "KAN")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		// explicit missing file is an error; fall back to search-path load
		t.Fatal("expected error for explicit missing config file")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.JiraURL != "https://example.atlassian.net" {
		t.Errorf("JiraURL = %q", cfg.JiraURL)
	}
	if cfg.JiraUsername != "user@example.com" {
		t.Errorf("JiraUsername = %q (JIRA_EMAIL should bind)", cfg.JiraUsername)
	}
	if cfg.Project != "KAN" {
		t.Errorf("Project = %q", cfg.Project)
	}
	if err := cfg.ValidateJira(); err != nil {
		t.Errorf("ValidateJira() = %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearJiraEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	content := `
jira:
  url: https://file.atlassian.net
  username: file@example.com
  api_token: file-token
  project: PRJ
export:
  file: tasks.yaml
  format: yaml
  excluded_statuses: [Done, Closed]
search:
  max_results: 25
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.JiraURL != "https://file.atlassian.net" || cfg.Project != "PRJ" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ExportFile != "tasks.yaml" || cfg.ExportFormat != "yaml" {
		t.Errorf("export config = %q/%q", cfg.ExportFile, cfg.ExportFormat)
	}
	if len(cfg.ExcludedStatuses) != 2 || cfg.ExcludedStatuses[1] != "Closed" {
		t.Errorf("ExcludedStatuses = %v", cfg.ExcludedStatuses)
	}
	if cfg.MaxResults != 25 {
		t.Errorf("MaxResults = %d", cfg.MaxResults)
	}
}

func TestDefaults(t *testing.T) {
	clearJiraEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ExportFile != "issues_export.json" {
		t.Errorf("ExportFile = %q", cfg.ExportFile)
	}
	if cfg.MaxResults != 50 {
		t.Errorf("MaxResults = %d", cfg.MaxResults)
	}
	if len(cfg.ExcludedStatuses) != 1 || cfg.ExcludedStatuses[0] != "Done" {
		t.Errorf("ExcludedStatuses = %v", cfg.ExcludedStatuses)
	}
}

func TestValidateJira(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"complete with token", Config{JiraURL: "u", JiraUsername: "n", JiraToken: "t"}, false},
		{"complete with password", Config{JiraURL: "u", JiraUsername: "n", JiraPassword: "p"}, false},
		{"missing url", Config{JiraUsername: "n", JiraToken: "t"}, true},
		{"missing username", Config{JiraURL: "u", JiraToken: "t"}, true},
		{"missing credential", Config{JiraURL: "u", JiraUsername: "n"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateJira()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateJira() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCredentialPrefersToken(t *testing.T) {
	cfg := Config{JiraToken: "tok", JiraPassword: "pw"}
	if cfg.Credential() != "tok" {
		t.Errorf("Credential() = %q, want token", cfg.Credential())
	}
}
