// Package jira provides a client for the Jira Cloud / Data Center REST API (v3).
package jira

import "encoding/json"

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the fields of a Jira issue.
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"` // ADF (Atlassian Document Format) or plain text
	Status      *StatusField    `json:"status"`
	Priority    *PriorityField  `json:"priority"`
	IssueType   *IssueTypeField `json:"issuetype"`
	Project     *ProjectField   `json:"project"`
	Assignee    *UserField      `json:"assignee"`
	Reporter    *UserField      `json:"reporter"`
	Labels      []string        `json:"labels"`
	Created     string          `json:"created"`
	Updated     string          `json:"updated"`
}

// StatusField represents a Jira issue status.
type StatusField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PriorityField represents a Jira issue priority.
type PriorityField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueTypeField represents a Jira issue type.
type IssueTypeField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectField represents a Jira project.
type ProjectField struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// UserField represents a Jira user.
type UserField struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Comment represents a comment on a Jira issue.
type Comment struct {
	ID      string          `json:"id"`
	Author  *UserField      `json:"author"`
	Body    json.RawMessage `json:"body"` // ADF or plain text
	Created string          `json:"created"`
}

// BodyText returns the comment body as plain text.
func (c *Comment) BodyText() string {
	return DescriptionToPlainText(c.Body)
}

// Transition represents a workflow transition available for an issue.
type Transition struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	To   *StatusField `json:"to,omitempty"`
}

// SearchResult represents a Jira JQL search response.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// SearchOptions controls paging and field selection for SearchIssues.
// A zero MaxResults fetches every matching issue in batches.
type SearchOptions struct {
	StartAt    int
	MaxResults int
	Fields     []string
}
