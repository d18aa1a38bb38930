package translator

import (
	"github.com/shamsa07/bridge/internal/jira"
)

// Envelope is the uniform response returned for every executed command:
// {ok: true, type: ..., kind-specific payload} on success, or
// {ok: false, error: "RemoteError", status_code, message} when Jira rejected
// an operation. Exactly one envelope is produced per command.
//
// Empty collections and zero values are omitted from the wire format; the
// exceptions are "total" and "actions", which stay meaningful at zero.
type Envelope struct {
	OK          bool                `json:"ok"`
	Type        string              `json:"type,omitempty"`
	Error       string              `json:"error,omitempty"`
	StatusCode  int                 `json:"status_code,omitempty"`
	Message     string              `json:"message,omitempty"`
	Issue       *IssueSummary       `json:"issue,omitempty"`
	Actions     *[]string           `json:"actions,omitempty"`
	JQL         string              `json:"jql,omitempty"`
	Project     string              `json:"project,omitempty"`
	Status      string              `json:"status,omitempty"`
	IssueKey    string              `json:"issueKey,omitempty"`
	Total       *int                `json:"total,omitempty"`
	Issues      []IssueSummary      `json:"issues,omitempty"`
	Comments    []CommentSummary    `json:"comments,omitempty"`
	Transitions []TransitionSummary `json:"transitions,omitempty"`
}

// IssueSummary is the reduced issue projection used in envelopes, not the
// full remote representation. Missing remote fields serialize as "".
type IssueSummary struct {
	Key         string `json:"key"`
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
	Reporter    string `json:"reporter"`
	Project     string `json:"project"`
}

// CommentSummary is the comment projection used in GetComments envelopes.
type CommentSummary struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

// TransitionSummary describes one available workflow transition.
type TransitionSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   string `json:"to,omitempty"`
}

func summarizeIssue(issue *jira.Issue) *IssueSummary {
	s := &IssueSummary{
		Key:         issue.Key,
		ID:          issue.ID,
		Summary:     issue.Fields.Summary,
		Description: jira.DescriptionToPlainText(issue.Fields.Description),
	}
	if issue.Fields.Status != nil {
		s.Status = issue.Fields.Status.Name
	}
	if issue.Fields.Assignee != nil {
		s.Assignee = issue.Fields.Assignee.DisplayName
	}
	if issue.Fields.Reporter != nil {
		s.Reporter = issue.Fields.Reporter.DisplayName
	}
	if issue.Fields.Project != nil {
		s.Project = issue.Fields.Project.Key
	}
	return s
}

func summarizeIssues(issues []jira.Issue) []IssueSummary {
	out := make([]IssueSummary, 0, len(issues))
	for i := range issues {
		out = append(out, *summarizeIssue(&issues[i]))
	}
	return out
}

func summarizeComments(comments []jira.Comment) []CommentSummary {
	out := make([]CommentSummary, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		s := CommentSummary{
			ID:      c.ID,
			Body:    c.BodyText(),
			Created: c.Created,
		}
		if c.Author != nil {
			s.Author = c.Author.DisplayName
		}
		out = append(out, s)
	}
	return out
}

func summarizeTransitions(transitions []jira.Transition) []TransitionSummary {
	out := make([]TransitionSummary, 0, len(transitions))
	for _, t := range transitions {
		s := TransitionSummary{ID: t.ID, Name: t.Name}
		if t.To != nil {
			s.To = t.To.Name
		}
		out = append(out, s)
	}
	return out
}

func remoteErrorEnvelope(err *jira.APIError) *Envelope {
	return &Envelope{
		OK:         false,
		Error:      "RemoteError",
		StatusCode: err.StatusCode,
		Message:    err.Message,
	}
}

func intPtr(n int) *int { return &n }
