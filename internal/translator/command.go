package translator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// issueKeySynonyms are the accepted spellings of an issue reference, probed
// in this order; the first non-empty value wins.
var issueKeySynonyms = []string{"issueKey", "key", "issue"}

// parseDocument accepts an already-parsed command object or raw JSON text.
func parseDocument(doc interface{}) (map[string]interface{}, error) {
	switch v := doc.(type) {
	case map[string]interface{}:
		return v, nil
	case string:
		return parseText(v)
	case []byte:
		return parseText(string(v))
	case json.RawMessage:
		return parseText(string(v))
	case nil:
		return nil, &ValidationError{Reason: "command document is empty"}
	default:
		return nil, validationf("command must be a JSON object or text, got %T", doc)
	}
}

// parseText parses command text as strict JSON. When that fails and the text
// looks single-quoted throughout (no double quotes at all), a naive quote
// substitution is attempted before giving up. Text mixing both quote styles
// is rejected rather than risking corruption of embedded quotes.
func parseText(text string) (map[string]interface{}, error) {
	text = strings.TrimSpace(text)

	var data map[string]interface{}
	strictErr := json.Unmarshal([]byte(text), &data)
	if strictErr == nil {
		return data, nil
	}

	if strings.Contains(text, "'") && !strings.Contains(text, `"`) {
		fixed := strings.ReplaceAll(text, "'", `"`)
		if err := json.Unmarshal([]byte(fixed), &data); err == nil {
			return data, nil
		}
	}

	return nil, &ParseError{Err: strictErr}
}

// issueKeyOf resolves the issue reference from its synonym fields. A present
// but non-string value fails rather than being skipped.
func issueKeyOf(data map[string]interface{}, kind string) (string, error) {
	for _, name := range issueKeySynonyms {
		v, ok := data[name]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", validationf("%s requires %q as a string", kind, name)
		}
		if s == "" {
			continue
		}
		return s, nil
	}
	return "", validationf(`%s requires "issueKey" (or "key"/"issue") as a string`, kind)
}

// stringField returns data[name] when it is a non-empty string.
func stringField(data map[string]interface{}, name string) (string, bool) {
	s, ok := data[name].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intField returns data[name] as an int, or def when absent or null.
// JSON numbers arrive as float64; numeric strings are accepted too.
func intField(data map[string]interface{}, name string, def int) (int, error) {
	v, ok := data[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, validationf("%q must be an integer", name)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, validationf("%q must be an integer", name)
		}
		return i, nil
	default:
		return 0, validationf("%q must be an integer", name)
	}
}

// fieldOverrides validates the optional open "fields" map. The values are
// passed through to Jira without interpretation.
func fieldOverrides(data map[string]interface{}) (map[string]interface{}, error) {
	v, ok := data["fields"]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, &ValidationError{Reason: `"fields" must be an object when present`}
	}
	return m, nil
}

// normalizeComments resolves the addComment variants into an ordered list of
// bodies: absent/null yields none, a string yields one, an array yields its
// stringified elements in order, and any other scalar its string form.
func normalizeComments(v interface{}) []string {
	switch c := v.(type) {
	case nil:
		return nil
	case string:
		return []string{c}
	case []interface{}:
		out := make([]string, 0, len(c))
		for _, item := range c {
			out = append(out, stringify(item))
		}
		return out
	default:
		return []string{stringify(v)}
	}
}

// stringify renders a comment element as text. Scalars format naturally;
// objects and arrays fall back to their JSON encoding.
func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return "null"
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
