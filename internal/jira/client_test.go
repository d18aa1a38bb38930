package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "user@example.com", "token")
	return c
}

func TestGetIssue(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{
			"id": "10001",
			"key": "KAN-1",
			"fields": {
				"summary": "Fix login bug",
				"status": {"id": "3", "name": "In Progress"},
				"project": {"id": "100", "key": "KAN"},
				"assignee": {"displayName": "Jane Doe"}
			}
		}`)
	})

	issue, err := c.GetIssue(context.Background(), "KAN-1")
	if err != nil {
		t.Fatalf("GetIssue() error: %v", err)
	}
	if gotPath != "/rest/api/3/issue/KAN-1" {
		t.Errorf("path = %q, want %q", gotPath, "/rest/api/3/issue/KAN-1")
	}
	if gotAuth == "" || gotAuth[:6] != "Basic " {
		t.Errorf("Authorization = %q, want basic auth", gotAuth)
	}
	if issue.Key != "KAN-1" || issue.Fields.Summary != "Fix login bug" {
		t.Errorf("issue = %+v", issue)
	}
	if issue.Fields.Status == nil || issue.Fields.Status.Name != "In Progress" {
		t.Errorf("status = %+v", issue.Fields.Status)
	}
}

func TestGetIssueNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errorMessages":["Issue does not exist or you do not have permission to see it."],"errors":{}}`)
	})

	_, err := c.GetIssue(context.Background(), "KAN-999")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "Issue does not exist or you do not have permission to see it." {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestSearchIssuesSinglePage(t *testing.T) {
	var gotMax string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("maxResults")
		fmt.Fprint(w, `{"startAt":0,"maxResults":5,"total":2,"issues":[{"key":"KAN-1"},{"key":"KAN-2"}]}`)
	})

	issues, err := c.SearchIssues(context.Background(), "project = KAN", SearchOptions{MaxResults: 5})
	if err != nil {
		t.Fatalf("SearchIssues() error: %v", err)
	}
	if gotMax != "5" {
		t.Errorf("maxResults param = %q, want %q", gotMax, "5")
	}
	if len(issues) != 2 || issues[0].Key != "KAN-1" || issues[1].Key != "KAN-2" {
		t.Errorf("issues = %+v", issues)
	}
}

func TestSearchIssuesPagination(t *testing.T) {
	// MaxResults == 0 fetches everything in batches.
	pages := []string{
		`{"startAt":0,"maxResults":2,"total":3,"issues":[{"key":"KAN-1"},{"key":"KAN-2"}]}`,
		`{"startAt":2,"maxResults":2,"total":3,"issues":[{"key":"KAN-3"}]}`,
	}
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[calls])
		calls++
	})

	issues, err := c.SearchIssues(context.Background(), "project = KAN", SearchOptions{})
	if err != nil {
		t.Fatalf("SearchIssues() error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(issues) != 3 || issues[2].Key != "KAN-3" {
		t.Errorf("issues = %+v", issues)
	}
}

func TestSearchIssuesCapsAtMaxResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"startAt":0,"maxResults":1,"total":3,"issues":[{"key":"KAN-1"},{"key":"KAN-2"}]}`)
	})

	issues, err := c.SearchIssues(context.Background(), "project = KAN", SearchOptions{MaxResults: 1})
	if err != nil {
		t.Fatalf("SearchIssues() error: %v", err)
	}
	if len(issues) != 1 || issues[0].Key != "KAN-1" {
		t.Errorf("issues = %+v", issues)
	}
}

func TestCreateIssueRefetches(t *testing.T) {
	var createBody map[string]interface{}
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == "POST" {
			_ = json.NewDecoder(r.Body).Decode(&createBody)
			fmt.Fprint(w, `{"id":"10002","key":"KAN-7","self":"..."}`)
			return
		}
		fmt.Fprint(w, `{"id":"10002","key":"KAN-7","fields":{"summary":"New task","status":{"name":"To Do"}}}`)
	})

	issue, err := c.CreateIssue(context.Background(), "KAN", "New task", "details", "Task",
		map[string]interface{}{"priority": map[string]string{"name": "High"}})
	if err != nil {
		t.Fatalf("CreateIssue() error: %v", err)
	}
	if issue.Key != "KAN-7" || issue.Fields.Status.Name != "To Do" {
		t.Errorf("issue = %+v", issue)
	}

	want := []string{"POST /rest/api/3/issue", "GET /rest/api/3/issue/KAN-7"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	fields := createBody["fields"].(map[string]interface{})
	if fields["summary"] != "New task" {
		t.Errorf("summary = %v", fields["summary"])
	}
	if _, ok := fields["priority"]; !ok {
		t.Error("priority override not sent")
	}
	if _, ok := fields["description"]; !ok {
		t.Error("description not sent")
	}
}

func TestTransitionIssue(t *testing.T) {
	var transitionBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, `{"transitions":[{"id":"11","name":"To Do"},{"id":"31","name":"Done"}]}`)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&transitionBody)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.TransitionIssue(context.Background(), "KAN-1", "done"); err != nil {
		t.Fatalf("TransitionIssue() error: %v", err)
	}
	tr := transitionBody["transition"].(map[string]interface{})
	if tr["id"] != "31" {
		t.Errorf("transition id = %v, want 31 (name match is case-insensitive)", tr["id"])
	}
}

func TestTransitionIssueUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"transitions":[{"id":"11","name":"To Do"}]}`)
	})

	err := c.TransitionIssue(context.Background(), "KAN-1", "Done")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
}

func TestAddComment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/KAN-1/comment" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"id":"201","author":{"displayName":"Jane Doe"},"body":"looks good","created":"2024-05-01T10:00:00.000+0000"}`)
	})

	comment, err := c.AddComment(context.Background(), "KAN-1", "looks good")
	if err != nil {
		t.Fatalf("AddComment() error: %v", err)
	}
	if comment.ID != "201" || comment.BodyText() != "looks good" {
		t.Errorf("comment = %+v", comment)
	}
}

func TestGetComments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"comments":[
			{"id":"1","author":{"displayName":"A"},"body":"first"},
			{"id":"2","author":{"displayName":"B"},"body":"second"}
		]}`)
	})

	comments, err := c.GetComments(context.Background(), "KAN-1")
	if err != nil {
		t.Fatalf("GetComments() error: %v", err)
	}
	if len(comments) != 2 || comments[0].BodyText() != "first" || comments[1].BodyText() != "second" {
		t.Errorf("comments = %+v", comments)
	}
}

func TestBearerAuthWithoutUsername(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"key":"KAN-1","fields":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "pat-token")
	if _, err := c.GetIssue(context.Background(), "KAN-1"); err != nil {
		t.Fatalf("GetIssue() error: %v", err)
	}
	if gotAuth != "Bearer pat-token" {
		t.Errorf("Authorization = %q, want bearer", gotAuth)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"errorMessages":["boom"],"errors":{}}`, "boom"},
		{`{"errorMessages":[],"errors":{"summary":"required"}}`, "summary: required"},
		{`not json`, "not json"},
		{`{"unrelated":true}`, `{"unrelated":true}`},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("errorMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
