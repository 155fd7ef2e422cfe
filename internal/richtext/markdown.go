package richtext

import (
	"regexp"
	"strings"

	"canopy/internal/domain/models"
)

var orderedLinePattern = regexp.MustCompile(`^\d+\.\s+`)

// MarkdownToDocument converts generated markdown-like text into the document
// format, line by line:
//   - #, ##, ### prefixes become headings of that level
//   - contiguous -/* lines become one unordered list
//   - contiguous "N." lines become one ordered list
//   - every other non-blank line becomes its own paragraph
//
// The converter is deliberately flat: no nested lists, no inline marks.
func MarkdownToDocument(text string) models.Document {
	lines := strings.Split(text, "\n")

	var blocks []interface{}
	var listItems []string
	var listType string // "bulletList" or "orderedList", "" when not in a list

	flushList := func() {
		if listType == "" {
			return
		}
		blocks = append(blocks, listNode(listType, listItems))
		listItems = nil
		listType = ""
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			flushList()
			continue
		}

		switch {
		case strings.HasPrefix(line, "### "):
			flushList()
			blocks = append(blocks, headingNode(3, strings.TrimPrefix(line, "### ")))
		case strings.HasPrefix(line, "## "):
			flushList()
			blocks = append(blocks, headingNode(2, strings.TrimPrefix(line, "## ")))
		case strings.HasPrefix(line, "# "):
			flushList()
			blocks = append(blocks, headingNode(1, strings.TrimPrefix(line, "# ")))
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			if listType != "bulletList" {
				flushList()
				listType = "bulletList"
			}
			listItems = append(listItems, strings.TrimSpace(line[2:]))
		case orderedLinePattern.MatchString(line):
			if listType != "orderedList" {
				flushList()
				listType = "orderedList"
			}
			listItems = append(listItems, strings.TrimSpace(orderedLinePattern.ReplaceAllString(line, "")))
		default:
			flushList()
			blocks = append(blocks, paragraphNode(line))
		}
	}
	flushList()

	return models.Document{
		"type":    "doc",
		"content": blocks,
	}
}

func textNode(text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "text",
		"text": text,
	}
}

func paragraphNode(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "paragraph",
		"content": []interface{}{textNode(text)},
	}
}

func headingNode(level int, text string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "heading",
		"attrs":   map[string]interface{}{"level": level},
		"content": []interface{}{textNode(text)},
	}
}

func listNode(listType string, items []string) map[string]interface{} {
	listItems := make([]interface{}, 0, len(items))
	for _, item := range items {
		listItems = append(listItems, map[string]interface{}{
			"type":    "listItem",
			"content": []interface{}{paragraphNode(item)},
		})
	}
	return map[string]interface{}{
		"type":    listType,
		"content": listItems,
	}
}
