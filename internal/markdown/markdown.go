// Package markdown serializes a converted document into page-annotated
// Markdown. It is a pure function over a Document value — no I/O, no
// conversion-engine awareness.
package markdown

import (
	"fmt"
	"strings"
)

// ItemKind tags the variant cases a Document's body may contain. Modeling
// this as an explicit sum type (per the dynamic-dispatch -> tagged-variant
// design note) keeps Render a plain switch instead of a dispatch table.
type ItemKind string

const (
	ItemText     ItemKind = "text"
	ItemHeading  ItemKind = "heading"
	ItemListItem ItemKind = "list_item"
	ItemCode     ItemKind = "code"
	ItemFormula  ItemKind = "formula"
	ItemPicture  ItemKind = "picture"
	ItemTable    ItemKind = "table"
)

// Item is one block-level element of a converted page.
type Item struct {
	Kind ItemKind

	Text string // ItemText, ItemHeading, ItemListItem, ItemFormula

	HeadingLevel int // ItemHeading, 1-based

	ListMarker string // ItemListItem, e.g. "-" or "1."

	CodeLanguage string // ItemCode
	CodeBody     string // ItemCode

	PictureCaption string // ItemPicture

	TableRows [][]string // ItemTable
}

// Page is one page's worth of items.
type Page struct {
	Number int
	Items  []Item
}

// Document is the converted document handed to Render.
type Document struct {
	Pages []Page
}

// Render turns doc into page-annotated Markdown: every page opens with an
// HTML comment marker so downstream consumers can recover page boundaries
// from the flattened text.
func Render(doc Document) string {
	var b strings.Builder
	for _, page := range doc.Pages {
		fmt.Fprintf(&b, "<!-- page: %d -->\n\n", page.Number)
		for _, item := range page.Items {
			renderItem(&b, item)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderItem(b *strings.Builder, item Item) {
	switch item.Kind {
	case ItemHeading:
		level := item.HeadingLevel
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", level), item.Text)
	case ItemListItem:
		marker := item.ListMarker
		if marker == "" {
			marker = "-"
		}
		fmt.Fprintf(b, "%s %s\n", marker, item.Text)
	case ItemCode:
		fmt.Fprintf(b, "```%s\n%s\n```\n\n", item.CodeLanguage, item.CodeBody)
	case ItemFormula:
		fmt.Fprintf(b, "$$%s$$\n\n", item.Text)
	case ItemPicture:
		fmt.Fprintf(b, "![%s](attachment)\n\n", item.PictureCaption)
	case ItemTable:
		renderTable(b, item.TableRows)
	case ItemText:
		fallthrough
	default:
		fmt.Fprintf(b, "%s\n\n", item.Text)
	}
}

func renderTable(b *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	writeRow := func(cols []string) {
		b.WriteString("| ")
		b.WriteString(strings.Join(cols, " | "))
		b.WriteString(" |\n")
	}
	writeRow(rows[0])
	sep := make([]string, len(rows[0]))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range rows[1:] {
		writeRow(row)
	}
	b.WriteString("\n")
}
