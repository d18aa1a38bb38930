package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shamsa07/bridge/internal/export"
	"github.com/shamsa07/bridge/internal/ui"
)

var (
	exportOutput     string
	exportJQL        string
	exportFormat     string
	exportMax        int
	exportNoComments bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a snapshot of issues to a file",
	Long: `Fetch issues (by project or explicit JQL), convert them to an
extended JSON or YAML projection, and write them to a file. Finished issues
are excluded; configure the statuses with export.excluded_statuses.

Examples:
  bridge export
  bridge export --output tasks.yaml --format yaml
  bridge export --jql 'labels = urgent' --no-comments`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default from config)")
	exportCmd.Flags().StringVar(&exportJQL, "jql", "", "explicit JQL query (overrides project scope)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: json or yaml (default from config)")
	exportCmd.Flags().IntVar(&exportMax, "max", 0, "max issues to export (0 = all)")
	exportCmd.Flags().BoolVar(&exportNoComments, "no-comments", false, "skip fetching comments")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	client, err := jiraClient()
	if err != nil {
		return err
	}

	doc, err := export.Snapshot(cmd.Context(), client, export.Options{
		Project:          cfg.Project,
		JQL:              exportJQL,
		MaxResults:       exportMax,
		IncludeComments:  !exportNoComments,
		ExcludedStatuses: cfg.ExcludedStatuses,
	})
	if err != nil {
		return err
	}

	path := exportOutput
	if path == "" {
		path = cfg.ExportFile
	}
	format := exportFormat
	if format == "" {
		format = cfg.ExportFormat
	}

	if err := doc.WriteFile(path, export.Format(format)); err != nil {
		return err
	}

	fmt.Printf("%s Exported %d issues to %s\n", ui.OKStyle.Render(ui.IconOK), doc.Total, path)
	return nil
}
