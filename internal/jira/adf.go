package jira

import (
	"encoding/json"
	"strings"
)

// adfNode is a minimal view of an ADF (Atlassian Document Format) node, deep
// enough to pull text out of paragraphs.
type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

// DescriptionToPlainText extracts plain text from Jira's ADF. The v3 API
// returns descriptions and comment bodies as ADF JSON; Server instances may
// still return plain strings, which are passed through.
func DescriptionToPlainText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Type != "doc" {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return string(raw)
	}

	var lines []string
	for _, block := range doc.Content {
		if line := flattenADF(block); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// flattenADF concatenates the text of a block node and its children.
func flattenADF(node adfNode) string {
	if node.Text != "" {
		return node.Text
	}
	var parts []string
	for _, child := range node.Content {
		if text := flattenADF(child); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "")
}

// PlainTextToADF converts plain text to an ADF document, one paragraph per
// line. Empty input yields nil so callers can omit the field entirely.
func PlainTextToADF(text string) json.RawMessage {
	if text == "" {
		return nil
	}

	var content []interface{}
	for _, para := range strings.Split(text, "\n") {
		if para == "" {
			content = append(content, map[string]interface{}{
				"type":    "paragraph",
				"content": []interface{}{},
			})
			continue
		}
		content = append(content, map[string]interface{}{
			"type": "paragraph",
			"content": []interface{}{
				map[string]interface{}{
					"type": "text",
					"text": para,
				},
			},
		})
	}

	doc := map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": content,
	}

	data, _ := json.Marshal(doc)
	return data
}
