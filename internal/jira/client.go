package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is returned when Jira rejects a request (non-2xx response).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira API returned %d: %s", e.StatusCode, e.Message)
}

// Client provides HTTP access to a Jira instance.
type Client struct {
	URL        string
	Username   string
	APIToken   string
	HTTPClient *http.Client
}

// NewClient creates a new Jira client. For Jira Cloud pass the account email
// as username and an API token; for Server/DC pass username and password (or
// leave username empty for bearer-token auth).
func NewClient(url, username, apiToken string) *Client {
	return &Client{
		URL:      strings.TrimSuffix(url, "/"),
		Username: username,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// issueFields is the default set of fields to request in search/get queries.
const issueFields = "summary,description,status,priority,issuetype,project,assignee,reporter,labels,created,updated"

// GetIssue fetches a single Jira issue by key (e.g., "KAN-123").
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s?fields=%s", c.URL, url.PathEscape(key), issueFields)

	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("parse issue response: %w", err)
	}

	return &issue, nil
}

// batchSize is how many issues a single search page requests when the caller
// asked for everything (MaxResults == 0).
const batchSize = 100

// SearchIssues queries Jira using JQL. With opts.MaxResults > 0 a single page
// of at most that many issues is returned; with MaxResults == 0 all matching
// issues are fetched, handling pagination.
func (c *Client) SearchIssues(ctx context.Context, jql string, opts SearchOptions) ([]Issue, error) {
	fields := issueFields
	if len(opts.Fields) > 0 {
		fields = strings.Join(opts.Fields, ",")
	}

	var all []Issue
	startAt := opts.StartAt
	for {
		pageSize := batchSize
		if opts.MaxResults > 0 {
			pageSize = opts.MaxResults - len(all)
		}

		params := url.Values{
			"jql":        {jql},
			"fields":     {fields},
			"startAt":    {fmt.Sprintf("%d", startAt)},
			"maxResults": {fmt.Sprintf("%d", pageSize)},
		}

		apiURL := fmt.Sprintf("%s/rest/api/3/search?%s", c.URL, params.Encode())

		body, err := c.doRequest(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("search issues: %w", err)
		}

		var result SearchResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parse search response: %w", err)
		}

		all = append(all, result.Issues...)

		if opts.MaxResults > 0 && len(all) >= opts.MaxResults {
			return all[:opts.MaxResults], nil
		}
		if len(result.Issues) == 0 || startAt+len(result.Issues) >= result.Total {
			return all, nil
		}
		startAt += len(result.Issues)
	}
}

// CreateIssue creates a new issue. Extra Jira fields (priority, labels,
// assignee, custom fields) may be passed in overrides and are sent verbatim,
// overriding the standard fields on key collision. The create response only
// carries id/key/self, so the full issue is fetched before returning.
func (c *Client) CreateIssue(ctx context.Context, project, summary, description, issueType string, overrides map[string]interface{}) (*Issue, error) {
	fields := map[string]interface{}{
		"project":   map[string]string{"key": project},
		"summary":   summary,
		"issuetype": map[string]string{"name": issueType},
	}
	if description != "" {
		fields["description"] = PlainTextToADF(description)
	}
	for k, v := range overrides {
		fields[k] = v
	}

	payload := map[string]interface{}{"fields": fields}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal create request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/rest/api/3/issue", c.URL)

	body, err := c.doRequest(ctx, "POST", apiURL, data)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	var created struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Self string `json:"self"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse create response: %w", err)
	}

	return c.GetIssue(ctx, created.Key)
}

// UpdateFields updates arbitrary fields on an existing issue. The field map
// is sent verbatim; Jira interprets the field semantics.
func (c *Client) UpdateFields(ctx context.Context, key string, fields map[string]interface{}) error {
	payload := map[string]interface{}{"fields": fields}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal update request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s", c.URL, url.PathEscape(key))

	if _, err := c.doRequest(ctx, "PUT", apiURL, data); err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}

	return nil
}

// UpdateSummary updates an issue's summary/title.
func (c *Client) UpdateSummary(ctx context.Context, key, summary string) error {
	return c.UpdateFields(ctx, key, map[string]interface{}{"summary": summary})
}

// UpdateDescription updates an issue's description.
func (c *Client) UpdateDescription(ctx context.Context, key, description string) error {
	return c.UpdateFields(ctx, key, map[string]interface{}{"description": PlainTextToADF(description)})
}

// ListTransitions returns the workflow transitions currently available for an
// issue. The set depends on the issue's status and the project workflow, so
// it is always queried live.
func (c *Client) ListTransitions(ctx context.Context, key string) ([]Transition, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s/transitions", c.URL, url.PathEscape(key))

	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("list transitions for %s: %w", key, err)
	}

	var result struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse transitions response: %w", err)
	}

	return result.Transitions, nil
}

// TransitionIssue moves an issue to a new status by transition name (e.g.
// "In Progress", "Done"). The name is resolved against the issue's currently
// available transitions; an unavailable name fails with an APIError.
func (c *Client) TransitionIssue(ctx context.Context, key, name string) error {
	transitions, err := c.ListTransitions(ctx, key)
	if err != nil {
		return err
	}

	var id string
	for _, t := range transitions {
		if strings.EqualFold(t.Name, name) {
			id = t.ID
			break
		}
	}
	if id == "" {
		return &APIError{
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("transition %q is not available for %s", name, key),
		}
	}

	payload := map[string]interface{}{
		"transition": map[string]string{"id": id},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal transition request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s/transitions", c.URL, url.PathEscape(key))

	if _, err := c.doRequest(ctx, "POST", apiURL, data); err != nil {
		return fmt.Errorf("transition issue %s: %w", key, err)
	}

	return nil
}

// AddComment adds a comment to an issue and returns the created comment.
func (c *Client) AddComment(ctx context.Context, key, body string) (*Comment, error) {
	payload := map[string]interface{}{"body": PlainTextToADF(body)}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal comment request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s/comment", c.URL, url.PathEscape(key))

	respBody, err := c.doRequest(ctx, "POST", apiURL, data)
	if err != nil {
		return nil, fmt.Errorf("add comment to %s: %w", key, err)
	}

	var comment Comment
	if err := json.Unmarshal(respBody, &comment); err != nil {
		return nil, fmt.Errorf("parse comment response: %w", err)
	}

	return &comment, nil
}

// GetComments returns all comments on an issue, oldest first.
func (c *Client) GetComments(ctx context.Context, key string) ([]Comment, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s/comment", c.URL, url.PathEscape(key))

	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get comments for %s: %w", key, err)
	}

	var result struct {
		Comments []Comment `json:"comments"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse comments response: %w", err)
	}

	return result.Comments, nil
}

// doRequest executes an authenticated HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bridge/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// PUT and POST-transition return 204 No Content on success
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	return respBody, nil
}

// setAuth sets the appropriate authentication header on the request.
func (c *Client) setAuth(req *http.Request) {
	if c.Username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.APIToken))
		req.Header.Set("Authorization", "Basic "+auth)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
}

// errorMessage extracts a readable message from a Jira error body, which
// usually looks like {"errorMessages":["..."],"errors":{"field":"..."}}.
func errorMessage(body []byte) string {
	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var parts []string
		parts = append(parts, payload.ErrorMessages...)
		for field, msg := range payload.Errors {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return strings.TrimSpace(string(body))
}
