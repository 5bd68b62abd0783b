package clients

import (
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
)

var headingPrefixes = map[string]string{
	"TITLE":     "# ",
	"SUBTITLE":  "## ",
	"HEADING_1": "# ",
	"HEADING_2": "## ",
	"HEADING_3": "### ",
	"HEADING_4": "#### ",
	"HEADING_5": "##### ",
	"HEADING_6": "###### ",
}

// DocumentToMarkdown renders the body of a Google Doc as Markdown.
// Headings, bold/italic/strikethrough runs, links, nested lists, inline images
// and simple tables are kept; everything else is reduced to its text.
func DocumentToMarkdown(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	r := &markdownRenderer{doc: doc}
	r.renderContent(doc.Body.Content)
	return strings.TrimRight(r.b.String(), "\n") + "\n"
}

type markdownRenderer struct {
	doc      *docs.Document
	b        strings.Builder
	lastList bool
}

func (r *markdownRenderer) renderContent(content []*docs.StructuralElement) {
	for _, el := range content {
		switch {
		case el.Paragraph != nil:
			r.renderParagraph(el.Paragraph)
		case el.Table != nil:
			r.renderTable(el.Table)
		}
	}
}

func (r *markdownRenderer) renderParagraph(p *docs.Paragraph) {
	text := r.inlineText(p.Elements)
	if strings.TrimSpace(text) == "" {
		return
	}

	if p.Bullet != nil {
		if !r.lastList && r.b.Len() > 0 {
			r.b.WriteString("\n")
		}
		indent := strings.Repeat("  ", int(p.Bullet.NestingLevel))
		fmt.Fprintf(&r.b, "%s%s%s\n", indent, r.bulletMarker(p.Bullet), text)
		r.lastList = true
		return
	}

	if r.b.Len() > 0 {
		r.b.WriteString("\n")
	}
	prefix := ""
	if p.ParagraphStyle != nil {
		prefix = headingPrefixes[p.ParagraphStyle.NamedStyleType]
	}
	r.b.WriteString(prefix + text + "\n")
	r.lastList = false
}

func (r *markdownRenderer) bulletMarker(b *docs.Bullet) string {
	list, ok := r.doc.Lists[b.ListId]
	if !ok || list.ListProperties == nil {
		return "- "
	}
	levels := list.ListProperties.NestingLevels
	if int(b.NestingLevel) >= len(levels) || levels[b.NestingLevel] == nil {
		return "- "
	}
	level := levels[b.NestingLevel]
	if level.GlyphSymbol == "" && level.GlyphType != "" && level.GlyphType != "GLYPH_TYPE_UNSPECIFIED" {
		return "1. "
	}
	return "- "
}

func (r *markdownRenderer) renderTable(t *docs.Table) {
	if len(t.TableRows) == 0 {
		return
	}
	if r.b.Len() > 0 {
		r.b.WriteString("\n")
	}
	for i, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			cells = append(cells, r.cellText(cell))
		}
		r.b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			r.b.WriteString("|" + strings.Repeat(" --- |", len(cells)) + "\n")
		}
	}
	r.lastList = false
}

func (r *markdownRenderer) cellText(cell *docs.TableCell) string {
	var parts []string
	for _, el := range cell.Content {
		if el.Paragraph == nil {
			continue
		}
		if text := strings.TrimSpace(r.inlineText(el.Paragraph.Elements)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.ReplaceAll(strings.Join(parts, " "), "|", `\|`)
}

func (r *markdownRenderer) inlineText(elements []*docs.ParagraphElement) string {
	var b strings.Builder
	for _, el := range elements {
		switch {
		case el.TextRun != nil:
			b.WriteString(styleRun(el.TextRun))
		case el.InlineObjectElement != nil:
			b.WriteString(r.image(el.InlineObjectElement.InlineObjectId))
		case el.HorizontalRule != nil:
			b.WriteString("---")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *markdownRenderer) image(id string) string {
	obj, ok := r.doc.InlineObjects[id]
	if !ok || obj.InlineObjectProperties == nil || obj.InlineObjectProperties.EmbeddedObject == nil {
		return ""
	}
	embedded := obj.InlineObjectProperties.EmbeddedObject
	if embedded.ImageProperties == nil || embedded.ImageProperties.ContentUri == "" {
		return ""
	}
	alt := embedded.Description
	if alt == "" {
		alt = embedded.Title
	}
	return fmt.Sprintf("![%s](%s)", alt, embedded.ImageProperties.ContentUri)
}

// styleRun wraps the non-whitespace core of a run so markers hug the text.
func styleRun(run *docs.TextRun) string {
	content := strings.TrimRight(run.Content, "\n")
	style := run.TextStyle
	core := strings.TrimSpace(content)
	if style == nil || core == "" {
		return content
	}
	lead := content[:strings.Index(content, core)]
	trail := content[len(lead)+len(core):]

	if style.Link != nil && style.Link.Url != "" {
		core = fmt.Sprintf("[%s](%s)", core, style.Link.Url)
	}
	if style.Strikethrough {
		core = "~~" + core + "~~"
	}
	if style.Italic {
		core = "_" + core + "_"
	}
	if style.Bold {
		core = "**" + core + "**"
	}
	return lead + core + trail
}
