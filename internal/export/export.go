// Package export builds JSON/YAML snapshots of Jira issues, used both for
// file exports and as the current-tasks context handed to the chat model.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shamsa07/bridge/internal/jira"
)

// IssueSource is the slice of the Jira client the exporter needs.
type IssueSource interface {
	SearchIssues(ctx context.Context, jql string, opts jira.SearchOptions) ([]jira.Issue, error)
	GetComments(ctx context.Context, key string) ([]jira.Comment, error)
}

// Format selects the snapshot file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Options controls what a snapshot contains. JQL takes precedence over
// Project; with neither set the snapshot covers the current user's issues.
type Options struct {
	Project         string
	JQL             string
	MaxResults      int // 0 = everything
	IncludeComments bool
	// ExcludedStatuses are filtered out of the snapshot (finished work is
	// noise for the model). Nil means the default of excluding "Done".
	ExcludedStatuses []string
}

// DefaultExcludedStatuses hides finished work from snapshots.
var DefaultExcludedStatuses = []string{"Done"}

// IssueRecord is the extended issue projection used in snapshots. It carries
// more than the translator's envelope projection because it feeds the model.
type IssueRecord struct {
	Key         string          `json:"key" yaml:"key"`
	ID          string          `json:"id" yaml:"id"`
	Project     string          `json:"project" yaml:"project"`
	Summary     string          `json:"summary" yaml:"summary"`
	Description string          `json:"description" yaml:"description"`
	Status      string          `json:"status" yaml:"status"`
	IssueType   string          `json:"issue_type" yaml:"issue_type"`
	Assignee    string          `json:"assignee" yaml:"assignee"`
	Reporter    string          `json:"reporter" yaml:"reporter"`
	Priority    string          `json:"priority" yaml:"priority"`
	Created     string          `json:"created" yaml:"created"`
	Updated     string          `json:"updated" yaml:"updated"`
	Labels      []string        `json:"labels" yaml:"labels"`
	Comments    []CommentRecord `json:"comments" yaml:"comments"`
}

// CommentRecord is a snapshot comment.
type CommentRecord struct {
	Author  string `json:"author" yaml:"author"`
	Body    string `json:"body" yaml:"body"`
	Created string `json:"created" yaml:"created"`
}

// Document is a complete snapshot.
type Document struct {
	ExportedAt string        `json:"exported_at" yaml:"exported_at"`
	Total      int           `json:"total" yaml:"total"`
	Query      string        `json:"query" yaml:"query"`
	Issues     []IssueRecord `json:"issues" yaml:"issues"`
}

// Snapshot fetches issues per opts and assembles a Document. Comment fetch
// failures degrade to an empty comment list rather than failing the export.
func Snapshot(ctx context.Context, src IssueSource, opts Options) (*Document, error) {
	query := buildQuery(opts)

	issues, err := src.SearchIssues(ctx, query, jira.SearchOptions{MaxResults: opts.MaxResults})
	if err != nil {
		return nil, fmt.Errorf("snapshot search: %w", err)
	}

	excluded := opts.ExcludedStatuses
	if excluded == nil {
		excluded = DefaultExcludedStatuses
	}

	doc := &Document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Query:      query,
		Issues:     []IssueRecord{},
	}

	for i := range issues {
		issue := &issues[i]
		if statusExcluded(issue, excluded) {
			continue
		}
		rec := toRecord(issue)
		if opts.IncludeComments {
			if comments, err := src.GetComments(ctx, issue.Key); err == nil {
				for j := range comments {
					c := &comments[j]
					cr := CommentRecord{Body: c.BodyText(), Created: c.Created}
					if c.Author != nil {
						cr.Author = c.Author.DisplayName
					}
					rec.Comments = append(rec.Comments, cr)
				}
			}
		}
		doc.Issues = append(doc.Issues, rec)
	}

	doc.Total = len(doc.Issues)
	return doc, nil
}

// CurrentTasksText returns the non-finished tasks of a project as JSON text
// for the chat model's context window. Comments are left out to keep the
// prompt small.
func CurrentTasksText(ctx context.Context, src IssueSource, project string, maxResults int) (string, error) {
	doc, err := Snapshot(ctx, src, Options{Project: project, MaxResults: maxResults})
	if err != nil {
		return "", err
	}

	payload := struct {
		Total  int           `json:"total"`
		Issues []IssueRecord `json:"issues"`
	}{Total: doc.Total, Issues: doc.Issues}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize tasks: %w", err)
	}
	return string(data), nil
}

// WriteFile writes the snapshot to path in the given format.
func (d *Document) WriteFile(path string, format Format) error {
	var data []byte
	var err error
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(d)
	case FormatJSON, "":
		data, err = json.MarshalIndent(d, "", "  ")
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func buildQuery(opts Options) string {
	switch {
	case opts.JQL != "":
		return opts.JQL
	case opts.Project != "":
		return fmt.Sprintf("project = %s ORDER BY updated DESC", opts.Project)
	default:
		return "assignee = currentUser() ORDER BY updated DESC"
	}
}

func statusExcluded(issue *jira.Issue, excluded []string) bool {
	if issue.Fields.Status == nil {
		return false
	}
	for _, s := range excluded {
		if issue.Fields.Status.Name == s {
			return true
		}
	}
	return false
}

func toRecord(issue *jira.Issue) IssueRecord {
	rec := IssueRecord{
		Key:         issue.Key,
		ID:          issue.ID,
		Summary:     issue.Fields.Summary,
		Description: jira.DescriptionToPlainText(issue.Fields.Description),
		Created:     issue.Fields.Created,
		Updated:     issue.Fields.Updated,
		Labels:      issue.Fields.Labels,
		Comments:    []CommentRecord{},
	}
	if issue.Fields.Project != nil {
		rec.Project = issue.Fields.Project.Key
	}
	if issue.Fields.Status != nil {
		rec.Status = issue.Fields.Status.Name
	}
	if issue.Fields.IssueType != nil {
		rec.IssueType = issue.Fields.IssueType.Name
	}
	if issue.Fields.Assignee != nil {
		rec.Assignee = issue.Fields.Assignee.DisplayName
	}
	if issue.Fields.Reporter != nil {
		rec.Reporter = issue.Fields.Reporter.DisplayName
	}
	if issue.Fields.Priority != nil {
		rec.Priority = issue.Fields.Priority.Name
	}
	return rec
}
