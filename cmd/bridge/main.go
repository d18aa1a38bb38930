// Command bridge translates natural-language and JSON commands into Jira
// operations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shamsa07/bridge/internal/config"
	"github.com/shamsa07/bridge/internal/jira"
	"github.com/shamsa07/bridge/internal/telemetry"
	"github.com/shamsa07/bridge/internal/translator"
)

const version = "0.1.0"

var (
	cfgFile    string
	jsonOutput bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Natural-language and JSON command bridge for Jira",
	Long: `Bridge executes structured JSON commands against Jira and, in chat
mode, lets a language model produce those commands from plain English.

Configuration comes from bridge.yaml or the environment:
  JIRA_URL, JIRA_USERNAME (or JIRA_EMAIL), JIRA_API_TOKEN, JIRA_PROJECT
  ANTHROPIC_API_KEY (chat mode only)

Examples:
  bridge run '{"type": "GetMyOpenIssues"}'
  echo '{"type": "GetIssue", "issueKey": "KAN-1"}' | bridge run
  bridge issue search 'project = KAN AND status = "In Progress"'
  bridge chat
  bridge export --output tasks.yaml --format yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := telemetry.Init(cmd.Context(), "bridge", version); err != nil {
			fmt.Fprintf(os.Stderr, "warning: telemetry init failed: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./bridge.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw response envelopes as JSON")
	rootCmd.Version = version
}

// jiraClient builds the process-wide Jira client from config. One client
// serves every command in the invocation.
func jiraClient() (*jira.Client, error) {
	if err := cfg.ValidateJira(); err != nil {
		return nil, err
	}
	return jira.NewClient(cfg.JiraURL, cfg.JiraUsername, cfg.Credential()), nil
}

func printEnvelope(env *translator.Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
