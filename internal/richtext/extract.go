// Package richtext interprets the rich-text document format the editor
// produces. Documents are node maps: {"type": "doc", "content": [...]};
// everything outside this package treats them as opaque.
package richtext

import (
	"strings"

	"canopy/internal/domain/models"
)

// ExtractText flattens a document to plain text by concatenating
// text-bearing leaves, inserting a newline after each block-level node so
// block boundaries survive extraction.
func ExtractText(doc models.Document) string {
	if doc == nil {
		return ""
	}

	var sb strings.Builder
	content, ok := doc["content"].([]interface{})
	if !ok {
		return ""
	}

	for _, node := range content {
		nodeMap, ok := node.(map[string]interface{})
		if !ok {
			continue
		}
		extractNode(&sb, nodeMap)
	}

	return strings.TrimSpace(sb.String())
}

func extractNode(sb *strings.Builder, node map[string]interface{}) {
	nodeType, _ := node["type"].(string)

	if nodeType == "text" {
		text, _ := node["text"].(string)
		sb.WriteString(text)
		return
	}

	if content, ok := node["content"].([]interface{}); ok {
		for _, child := range content {
			if childNode, ok := child.(map[string]interface{}); ok {
				extractNode(sb, childNode)
			}
		}
	}

	if isBlockNode(nodeType) {
		sb.WriteString("\n")
	}
}

// isBlockNode reports whether a node type ends a line of extracted text.
func isBlockNode(nodeType string) bool {
	switch nodeType {
	case "paragraph", "heading", "listItem", "codeBlock", "blockquote":
		return true
	}
	return false
}
