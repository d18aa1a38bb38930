package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shamsa07/bridge/internal/chat"
	"github.com/shamsa07/bridge/internal/export"
	"github.com/shamsa07/bridge/internal/jira"
	"github.com/shamsa07/bridge/internal/translator"
	"github.com/shamsa07/bridge/internal/ui"
)

// currentTasksLimit caps how many issues are sent to the model as context.
const currentTasksLimit = 100

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive natural-language session",
	Long: `Start an interactive session. Each message is sent to the language
model together with a snapshot of the project's open tasks; the model's JSON
command is validated and executed against Jira, and the result printed.

Session commands:
  /export   write all issues to the export file
  /quit     exit the session`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("chat requires an interactive terminal (use 'bridge run' for scripted commands)")
	}

	client, err := jiraClient()
	if err != nil {
		return err
	}
	model, err := chat.NewClient(cfg.AnthropicKey, cfg.Model, cfg.Project)
	if err != nil {
		return err
	}
	tr := translator.New(client)

	banner := "Jira bridge ready."
	hint := "Type a request in plain English. /export writes a snapshot, /quit exits."
	if ui.ColorEnabled() {
		banner = ui.AccentStyle.Render(banner)
		hint = ui.MutedStyle.Render(hint)
	}
	fmt.Println(banner)
	fmt.Println(hint)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(ui.PromptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "/quit", "/exit", "exit":
			return nil
		case "/export":
			if err := writeSnapshot(cmd.Context(), client); err != nil {
				printFail(err)
			}
			continue
		}

		if err := handleMessage(cmd.Context(), tr, model, client, line); err != nil {
			printFail(err)
		}
	}
}

// handleMessage runs one chat turn: snapshot tasks, ask the model for a
// command, execute it, print the envelope.
func handleMessage(ctx context.Context, tr *translator.Translator, model *chat.Client, client *jira.Client, message string) error {
	fmt.Println(ui.MutedStyle.Render("Fetching current tasks..."))
	tasks, err := export.CurrentTasksText(ctx, client, cfg.Project, currentTasksLimit)
	if err != nil {
		return fmt.Errorf("fetch tasks: %w", err)
	}

	fmt.Println(ui.MutedStyle.Render("Asking the model for a command..."))
	raw, err := model.Ask(ctx, message, tasks)
	if err != nil {
		return fmt.Errorf("chat model: %w", err)
	}

	env, err := tr.Execute(ctx, chat.StripFences(raw))
	if err != nil {
		// Validation and parse failures mean the model produced a bad
		// command; show the raw output so the user can see why.
		fmt.Println(ui.MutedStyle.Render("Model output: " + raw))
		return err
	}

	if !env.OK {
		fmt.Printf("%s %s\n", ui.FailStyle.Render(ui.IconFail), env.Message)
	}
	return printEnvelope(env)
}

func writeSnapshot(ctx context.Context, client *jira.Client) error {
	doc, err := export.Snapshot(ctx, client, export.Options{
		Project:          cfg.Project,
		IncludeComments:  true,
		ExcludedStatuses: cfg.ExcludedStatuses,
	})
	if err != nil {
		return err
	}
	if err := doc.WriteFile(cfg.ExportFile, export.Format(cfg.ExportFormat)); err != nil {
		return err
	}
	fmt.Printf("%s Exported %d issues to %s\n", ui.OKStyle.Render(ui.IconOK), doc.Total, cfg.ExportFile)
	return nil
}

func printFail(err error) {
	fmt.Printf("%s %v\n", ui.FailStyle.Render(ui.IconFail), err)
}
