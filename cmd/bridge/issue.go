package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shamsa07/bridge/internal/translator"
	"github.com/shamsa07/bridge/internal/ui"
)

// The direct verbs build command documents and run them through the same
// translator as chat and run, so every path shares one validation and
// dispatch pipeline.

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Direct issue operations",
}

var issueFetchCmd = &cobra.Command{
	Use:   "fetch <key>",
	Short: "Fetch one issue by key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeDoc(cmd, map[string]interface{}{"type": "GetIssue", "issueKey": args[0]})
	},
}

var (
	createProject     string
	createSummary     string
	createDescription string
	createType        string
)

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		project := createProject
		if project == "" {
			project = cfg.Project
		}
		return executeDoc(cmd, map[string]interface{}{
			"type":        "Create",
			"project":     project,
			"summary":     createSummary,
			"description": createDescription,
			"issueType":   createType,
		})
	},
}

var searchMax int

var issueSearchCmd = &cobra.Command{
	Use:   "search <jql>",
	Short: "Search issues with JQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeDoc(cmd, map[string]interface{}{
			"type":       "Search",
			"jql":        args[0],
			"maxResults": searchMax,
		})
	},
}

var issueMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your open issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeDoc(cmd, map[string]interface{}{
			"type":       "GetMyOpenIssues",
			"maxResults": searchMax,
		})
	},
}

var issueStatusCmd = &cobra.Command{
	Use:   "status <key> <transition>",
	Short: "Transition an issue (e.g. 'In Progress', 'Done')",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeDoc(cmd, map[string]interface{}{
			"type":         "Edit",
			"issueKey":     args[0],
			"changeStatus": args[1],
		})
	},
}

var issueCommentCmd = &cobra.Command{
	Use:   "comment <key> <text>",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeDoc(cmd, map[string]interface{}{
			"type":       "Edit",
			"issueKey":   args[0],
			"addComment": args[1],
		})
	},
}

var issueCommentsCmd = &cobra.Command{
	Use:   "comments <key>",
	Short: "List comments on an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeDoc(cmd, map[string]interface{}{"type": "GetComments", "issueKey": args[0]})
	},
}

var issueTransitionsCmd = &cobra.Command{
	Use:   "transitions <key>",
	Short: "List available transitions for an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeDoc(cmd, map[string]interface{}{"type": "GetTransitions", "issueKey": args[0]})
	},
}

func init() {
	issueCreateCmd.Flags().StringVarP(&createProject, "project", "p", "", "project key (default from config)")
	issueCreateCmd.Flags().StringVarP(&createSummary, "summary", "s", "", "issue summary")
	issueCreateCmd.Flags().StringVarP(&createDescription, "description", "d", "", "issue description")
	issueCreateCmd.Flags().StringVarP(&createType, "type", "t", "Task", "issue type")
	_ = issueCreateCmd.MarkFlagRequired("summary")

	issueSearchCmd.Flags().IntVar(&searchMax, "max", 50, "max results")
	issueMineCmd.Flags().IntVar(&searchMax, "max", 50, "max results")

	issueCmd.AddCommand(issueFetchCmd, issueCreateCmd, issueSearchCmd, issueMineCmd,
		issueStatusCmd, issueCommentCmd, issueCommentsCmd, issueTransitionsCmd)
	rootCmd.AddCommand(issueCmd)
}

func executeDoc(cmd *cobra.Command, doc map[string]interface{}) error {
	client, err := jiraClient()
	if err != nil {
		return err
	}

	env, err := translator.New(client).Execute(cmd.Context(), doc)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printEnvelope(env)
	}
	renderEnvelope(env)
	if !env.OK {
		os.Exit(1)
	}
	return nil
}

// renderEnvelope prints a compact human view of an envelope.
func renderEnvelope(env *translator.Envelope) {
	if !env.OK {
		fmt.Printf("%s %s\n", ui.FailStyle.Render(ui.IconFail), env.Message)
		return
	}

	switch {
	case env.Issue != nil:
		renderIssue(env.Issue)
		if env.Actions != nil {
			fmt.Printf("  %s\n", ui.MutedStyle.Render(fmt.Sprintf("applied: %v", *env.Actions)))
		}
	case env.Comments != nil:
		for _, c := range env.Comments {
			fmt.Printf("%s %s\n", ui.AccentStyle.Render(c.Author), ui.MutedStyle.Render(c.Created))
			fmt.Printf("  %s\n", c.Body)
		}
		if len(env.Comments) == 0 {
			fmt.Println(ui.MutedStyle.Render("no comments"))
		}
	case env.Transitions != nil:
		for _, t := range env.Transitions {
			fmt.Printf("  %s %s\n", ui.AccentStyle.Render(t.Name), ui.MutedStyle.Render("("+t.ID+")"))
		}
	default:
		for i := range env.Issues {
			renderIssueLine(&env.Issues[i])
		}
		if env.Total != nil {
			fmt.Println(ui.MutedStyle.Render(fmt.Sprintf("%d issue(s)", *env.Total)))
		}
	}
}

func renderIssue(issue *translator.IssueSummary) {
	fmt.Printf("%s %s: %s [%s]\n", ui.OKStyle.Render(ui.IconOK),
		ui.AccentStyle.Render(issue.Key), issue.Summary, issue.Status)
	if issue.Assignee != "" {
		fmt.Printf("  %s\n", ui.MutedStyle.Render("assignee: "+issue.Assignee))
	}
	if issue.Description != "" {
		fmt.Printf("  %s\n", issue.Description)
	}
}

func renderIssueLine(issue *translator.IssueSummary) {
	fmt.Printf("  %s: %s [%s]\n", ui.AccentStyle.Render(issue.Key), issue.Summary, issue.Status)
}
