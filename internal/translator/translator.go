// Package translator turns untrusted JSON command documents into sequences
// of Jira operations and uniform response envelopes.
//
// Supported command types (case-insensitive):
//
//   - "Create": create a new issue, optionally transition and/or comment
//   - "Edit": edit an existing issue (summary, description, fields, status, comments)
//   - "GetIssue": fetch a single issue
//   - "Search": search with JQL
//   - "GetProjectIssues": fetch issues for a project (optional status filter)
//   - "GetMyOpenIssues": fetch the current user's open issues
//   - "GetComments": list comments for an issue
//   - "GetTransitions": list available transitions for an issue
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shamsa07/bridge/internal/jira"
)

// IssueService is the remote issue-tracker capability the translator
// dispatches to. *jira.Client implements it; tests substitute a recorder.
type IssueService interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
	SearchIssues(ctx context.Context, jql string, opts jira.SearchOptions) ([]jira.Issue, error)
	CreateIssue(ctx context.Context, project, summary, description, issueType string, overrides map[string]interface{}) (*jira.Issue, error)
	UpdateSummary(ctx context.Context, key, summary string) error
	UpdateDescription(ctx context.Context, key, description string) error
	UpdateFields(ctx context.Context, key string, fields map[string]interface{}) error
	TransitionIssue(ctx context.Context, key, name string) error
	AddComment(ctx context.Context, key, body string) (*jira.Comment, error)
	GetComments(ctx context.Context, key string) ([]jira.Comment, error)
	ListTransitions(ctx context.Context, key string) ([]jira.Transition, error)
}

// defaultMaxResults bounds search-style commands when the document does not
// specify maxResults.
const defaultMaxResults = 50

// myOpenIssuesJQL scopes GetMyOpenIssues to the authenticated user,
// excluding finished work, most recently updated first.
const myOpenIssuesJQL = `assignee = currentUser() AND status != Done ORDER BY updated DESC`

// Translator executes command documents against an IssueService. It holds no
// per-command state; one instance serves the process lifetime.
type Translator struct {
	svc IssueService
}

// New creates a Translator backed by the given issue service.
func New(svc IssueService) *Translator {
	return &Translator{svc: svc}
}

// Execute runs one command document and returns its envelope.
//
// Validation, unsupported-type, and parse errors are returned as errors and
// never produce an envelope; a command that fails validation issues no
// remote calls. Jira rejections during dispatch are the one recovered path:
// they come back as a {ok:false, error:"RemoteError"} envelope with a nil
// error, so callers can react programmatically.
func (t *Translator) Execute(ctx context.Context, doc interface{}) (*Envelope, error) {
	data, err := parseDocument(doc)
	if err != nil {
		return nil, err
	}

	rawType, ok := data["type"].(string)
	if !ok {
		return nil, &ValidationError{Reason: `command must include string field "type"`}
	}

	var env *Envelope
	switch strings.ToLower(rawType) {
	case "create":
		env, err = t.create(ctx, data)
	case "edit":
		env, err = t.edit(ctx, data)
	case "getissue":
		env, err = t.getIssue(ctx, data)
	case "search":
		env, err = t.search(ctx, data)
	case "getprojectissues":
		env, err = t.projectIssues(ctx, data)
	case "getmyopenissues":
		env, err = t.myOpenIssues(ctx, data)
	case "getcomments":
		env, err = t.comments(ctx, data)
	case "gettransitions":
		env, err = t.transitions(ctx, data)
	default:
		return nil, &UnsupportedCommandError{Type: rawType}
	}

	if err != nil {
		var apiErr *jira.APIError
		if errors.As(err, &apiErr) {
			return remoteErrorEnvelope(apiErr), nil
		}
		return nil, err
	}
	return env, nil
}

// create handles the Create command. Side effects run in documented order:
// create, then the optional transition, then each comment, then a final
// re-fetch. The sequence is not transactional: a failing later step leaves
// earlier steps committed on the remote system.
func (t *Translator) create(ctx context.Context, data map[string]interface{}) (*Envelope, error) {
	project, okP := stringField(data, "project")
	summary, okS := stringField(data, "summary")
	if !okP || !okS {
		return nil, &ValidationError{Reason: `Create requires "project" (string) and "summary" (string)`}
	}

	description, _ := stringField(data, "description")
	issueType, ok := stringField(data, "issueType")
	if !ok {
		issueType, ok = stringField(data, "issue_type")
	}
	if !ok {
		issueType = "Task"
	}

	overrides, err := fieldOverrides(data)
	if err != nil {
		return nil, err
	}
	changeStatus, _ := stringField(data, "changeStatus")
	comments := normalizeComments(data["addComment"])

	issue, err := t.svc.CreateIssue(ctx, project, summary, description, issueType, overrides)
	if err != nil {
		return nil, err
	}

	if changeStatus != "" {
		if err := t.svc.TransitionIssue(ctx, issue.Key, changeStatus); err != nil {
			return nil, err
		}
	}

	for _, body := range comments {
		if _, err := t.svc.AddComment(ctx, issue.Key, body); err != nil {
			return nil, err
		}
	}

	refreshed, err := t.svc.GetIssue(ctx, issue.Key)
	if err != nil {
		return nil, err
	}

	return &Envelope{OK: true, Type: "Create", Issue: summarizeIssue(refreshed)}, nil
}

// edit handles the Edit command, applying each present action independently
// in fixed order: summary, description, fields, status, comments. The
// envelope records which actions were applied. All shape validation happens
// before the first remote call.
func (t *Translator) edit(ctx context.Context, data map[string]interface{}) (*Envelope, error) {
	key, err := issueKeyOf(data, "Edit")
	if err != nil {
		return nil, err
	}

	var overrides map[string]interface{}
	_, fieldsPresent := data["fields"]
	if fieldsPresent {
		m, ok := data["fields"].(map[string]interface{})
		if !ok {
			return nil, &ValidationError{Reason: `"fields" must be an object when present`}
		}
		overrides = m
	}

	actions := []string{}

	if summary, ok := stringField(data, "summary"); ok {
		if err := t.svc.UpdateSummary(ctx, key, summary); err != nil {
			return nil, err
		}
		actions = append(actions, "summary")
	}

	if description, ok := stringField(data, "description"); ok {
		if err := t.svc.UpdateDescription(ctx, key, description); err != nil {
			return nil, err
		}
		actions = append(actions, "description")
	}

	if fieldsPresent {
		if err := t.svc.UpdateFields(ctx, key, overrides); err != nil {
			return nil, err
		}
		actions = append(actions, "fields")
	}

	if status, ok := stringField(data, "changeStatus"); ok {
		if err := t.svc.TransitionIssue(ctx, key, status); err != nil {
			return nil, err
		}
		actions = append(actions, "status")
	}

	if comments := normalizeComments(data["addComment"]); len(comments) > 0 {
		for _, body := range comments {
			if _, err := t.svc.AddComment(ctx, key, body); err != nil {
				return nil, err
			}
		}
		actions = append(actions, "comments")
	}

	refreshed, err := t.svc.GetIssue(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Envelope{OK: true, Type: "Edit", Issue: summarizeIssue(refreshed), Actions: &actions}, nil
}

func (t *Translator) getIssue(ctx context.Context, data map[string]interface{}) (*Envelope, error) {
	key, err := issueKeyOf(data, "GetIssue")
	if err != nil {
		return nil, err
	}

	issue, err := t.svc.GetIssue(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Envelope{OK: true, Type: "GetIssue", Issue: summarizeIssue(issue)}, nil
}

func (t *Translator) search(ctx context.Context, data map[string]interface{}) (*Envelope, error) {
	jql, ok := stringField(data, "jql")
	if !ok {
		return nil, &ValidationError{Reason: `Search requires "jql" (string)`}
	}
	max, err := intField(data, "maxResults", defaultMaxResults)
	if err != nil {
		return nil, err
	}

	issues, err := t.svc.SearchIssues(ctx, jql, jira.SearchOptions{MaxResults: max})
	if err != nil {
		return nil, err
	}

	return &Envelope{
		OK:     true,
		Type:   "Search",
		JQL:    jql,
		Total:  intPtr(len(issues)),
		Issues: summarizeIssues(issues),
	}, nil
}

func (t *Translator) projectIssues(ctx context.Context, data map[string]interface{}) (*Envelope, error) {
	project, ok := stringField(data, "project")
	if !ok {
		return nil, &ValidationError{Reason: `GetProjectIssues requires "project" (string)`}
	}
	status, _ := stringField(data, "status")
	max, err := intField(data, "maxResults", defaultMaxResults)
	if err != nil {
		return nil, err
	}

	jql := fmt.Sprintf("project = %s", project)
	if status != "" {
		jql += fmt.Sprintf(" AND status = %q", status)
	}

	issues, err := t.svc.SearchIssues(ctx, jql, jira.SearchOptions{MaxResults: max})
	if err != nil {
		return nil, err
	}

	return &Envelope{
		OK:      true,
		Type:    "GetProjectIssues",
		Project: project,
		Status:  status,
		Total:   intPtr(len(issues)),
		Issues:  summarizeIssues(issues),
	}, nil
}

func (t *Translator) myOpenIssues(ctx context.Context, data map[string]interface{}) (*Envelope, error) {
	max, err := intField(data, "maxResults", defaultMaxResults)
	if err != nil {
		return nil, err
	}

	issues, err := t.svc.SearchIssues(ctx, myOpenIssuesJQL, jira.SearchOptions{MaxResults: max})
	if err != nil {
		return nil, err
	}

	return &Envelope{
		OK:     true,
		Type:   "GetMyOpenIssues",
		Total:  intPtr(len(issues)),
		Issues: summarizeIssues(issues),
	}, nil
}

func (t *Translator) comments(ctx context.Context, data map[string]interface{}) (*Envelope, error) {
	key, err := issueKeyOf(data, "GetComments")
	if err != nil {
		return nil, err
	}

	comments, err := t.svc.GetComments(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		OK:       true,
		Type:     "GetComments",
		IssueKey: key,
		Total:    intPtr(len(comments)),
		Comments: summarizeComments(comments),
	}, nil
}

func (t *Translator) transitions(ctx context.Context, data map[string]interface{}) (*Envelope, error) {
	key, err := issueKeyOf(data, "GetTransitions")
	if err != nil {
		return nil, err
	}

	transitions, err := t.svc.ListTransitions(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		OK:          true,
		Type:        "GetTransitions",
		IssueKey:    key,
		Transitions: summarizeTransitions(transitions),
	}, nil
}
