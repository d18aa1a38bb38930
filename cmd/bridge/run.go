package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shamsa07/bridge/internal/translator"
)

var runCmd = &cobra.Command{
	Use:   "run [command-json]",
	Short: "Execute one JSON command document",
	Long: `Execute a single JSON command against Jira and print the response
envelope. The document is taken from the argument, or from stdin when no
argument is given.

Remote rejections (unknown issue, invalid transition, permissions) come back
inside the envelope with ok=false; malformed documents fail with a non-zero
exit instead.

Examples:
  bridge run '{"type": "GetMyOpenIssues"}'
  bridge run '{"type": "Edit", "issueKey": "KAN-3", "changeStatus": "Done"}'
  cat command.json | bridge run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	client, err := jiraClient()
	if err != nil {
		return err
	}

	env, err := translator.New(client).Execute(cmd.Context(), text)
	if err != nil {
		return err
	}
	return printEnvelope(env)
}
