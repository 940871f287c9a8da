package gcp

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/dmorozov/docling-orchestrator/internal/markdown"
)

// docAIToMarkdown walks a Document AI response into the engine-neutral
// markdown.Document shape: one page per Document AI page, paragraphs folded
// into a single text item, tables translated into an ItemTable block.
func docAIToMarkdown(doc *documentaipb.Document) markdown.Document {
	if doc == nil {
		return markdown.Document{Pages: []markdown.Page{{Number: 1}}}
	}

	out := markdown.Document{}
	for i, p := range doc.Pages {
		if p == nil {
			continue
		}
		pageNum := int(p.PageNumber)
		if pageNum == 0 {
			pageNum = i + 1
		}

		items := []markdown.Item{}

		var paraText strings.Builder
		for _, para := range p.Paragraphs {
			if para == nil || para.Layout == nil || para.Layout.TextAnchor == nil {
				continue
			}
			t := strings.TrimSpace(textFromAnchor(doc.Text, para.Layout.TextAnchor))
			if t == "" {
				continue
			}
			if paraText.Len() > 0 {
				paraText.WriteString("\n\n")
			}
			paraText.WriteString(t)
		}
		if paraText.Len() > 0 {
			items = append(items, markdown.Item{Kind: markdown.ItemText, Text: paraText.String()})
		}

		for _, table := range p.Tables {
			rows := tableToRows(doc.Text, table)
			if len(rows) > 0 {
				items = append(items, markdown.Item{Kind: markdown.ItemTable, TableRows: rows})
			}
		}

		out.Pages = append(out.Pages, markdown.Page{Number: pageNum, Items: items})
	}

	if len(out.Pages) == 0 {
		text := strings.TrimSpace(doc.Text)
		out.Pages = []markdown.Page{{Number: 1, Items: []markdown.Item{{Kind: markdown.ItemText, Text: text}}}}
	}
	return out
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func tableToRows(full string, t *documentaipb.Document_Page_Table) [][]string {
	if t == nil {
		return nil
	}

	var header []string
	if len(t.HeaderRows) > 0 && t.HeaderRows[0] != nil {
		header = tableRowToCells(full, t.HeaderRows[0])
	}

	bodyRows := t.BodyRows
	if len(header) == 0 && len(bodyRows) > 0 && bodyRows[0] != nil {
		header = tableRowToCells(full, bodyRows[0])
		bodyRows = bodyRows[1:]
	}
	if len(header) == 0 {
		return nil
	}

	rows := [][]string{header}
	for _, r := range bodyRows {
		if r == nil {
			continue
		}
		rows = append(rows, tableRowToCells(full, r))
	}
	return rows
}

func tableRowToCells(full string, row *documentaipb.Document_Page_Table_TableRow) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, 0, len(row.Cells))
	for _, c := range row.Cells {
		if c == nil || c.Layout == nil || c.Layout.TextAnchor == nil {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, strings.TrimSpace(textFromAnchor(full, c.Layout.TextAnchor)))
	}
	return cells
}
