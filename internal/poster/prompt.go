package poster

import (
	"fmt"
	"strings"

	"github.com/csheth/posterize/internal/paper"
)

func buildPosterPrompt(cfg Config, info paper.Info, whatIf string) string {
	var b strings.Builder

	b.WriteString("Create an academic poster")
	if cfg.SidePanel != PanelNone {
		b.WriteString(" with " + panelDescription(cfg.SidePanel))
	}
	if whatIf != "" {
		b.WriteString(" (variation incorporating a 'what if' idea)")
	}
	b.WriteString(" for this research paper.\n")

	if context := paperContext(info); context != "" {
		b.WriteString("\nPAPER CONTEXT:\n")
		b.WriteString(context)
	}

	if whatIf != "" {
		b.WriteString(whatIfSection(whatIf))
	}

	b.WriteString(layoutStructure(cfg.SidePanel))
	b.WriteString(`- Traditional academic poster layout with all key research information
- Use a clear grid-based layout with well-defined sections
- The number of sections, rows, and columns should be determined by the content
`)
	b.WriteString(orderingPrinciple(cfg.Orientation))
	b.WriteString(`- Ensure proper spacing between elements and a logical content flow
- Use visual separators to distinguish sections; keep margins consistent
`)
	b.WriteString(panelSection(cfg.SidePanel))

	b.WriteString("\nPOSTER SPECIFICATIONS:\n")
	fmt.Fprintf(&b, "- Orientation: %s (%s aspect ratio)\n", strings.ToUpper(string(cfg.Orientation)), cfg.AspectRatio)
	if cfg.Resolution != "" {
		fmt.Fprintf(&b, "- Resolution: %s\n", cfg.Resolution)
	}
	fmt.Fprintf(&b, "- Language: generate all poster text and labels in %s\n", cfg.Language)

	b.WriteString(`
POSTER CONTENT STRATEGY:
- Title: large, bold, prominent
- Key insights: main contributions and findings, not lengthy descriptions
- Visual elements: important figures and diagrams from the paper
- Methodology: highlight the approach, not exhaustive details
- Results: key results and conclusions with visual emphasis

IMPORTANT: prioritize visual communication over text. Use insights,
highlights, and key points rather than descriptive paragraphs.
`)
	return b.String()
}

// contextFieldLimit caps the free-text fields so one long abstract cannot
// crowd out the layout instructions.
const contextFieldLimit = 1_500

func paperContext(info paper.Info) string {
	var b strings.Builder
	if info.Title != "" {
		b.WriteString("- Title: " + info.Title + "\n")
	}
	if line := info.AuthorLine(); line != "" {
		b.WriteString("- Authors: " + line + "\n")
	}
	if len(info.Subjects) > 0 {
		b.WriteString("- Subjects: " + strings.Join(info.Subjects, ", ") + "\n")
	}
	if info.Pages > 0 {
		fmt.Fprintf(&b, "- Length: %d pages\n", info.Pages)
	}
	if info.Abstract != "" {
		b.WriteString("- Abstract: " + clipField(info.Abstract) + "\n")
	}
	if info.Excerpt != "" {
		b.WriteString("- Opening text: " + clipField(info.Excerpt) + "\n")
	}
	return b.String()
}

func clipField(text string) string {
	runes := []rune(text)
	if len(runes) <= contextFieldLimit {
		return text
	}
	return string(runes[:contextFieldLimit]) + "…"
}

func whatIfSection(whatIf string) string {
	return fmt.Sprintf(`
WHAT IF IDEA TO INCORPORATE:
- The user wants to explore: %q
- Incorporate this idea into the poster while maintaining the core research content
- Show how it relates to or extends the existing work, and make visually clear
  that it is an extension of the original research
`, whatIf)
}

func layoutStructure(panel SidePanel) string {
	if panel == PanelNone {
		return "\nLAYOUT STRUCTURE:\nThe image is a single, full-width academic poster:\n"
	}
	return fmt.Sprintf(`
LAYOUT STRUCTURE:
The image must be divided into TWO DISTINCT SECTIONS side by side, with a
clear vertical separator between them:

LEFT SIDE (60-65%% of width): ACADEMIC POSTER
RIGHT SIDE (35-40%% of width): %s
`, strings.ToUpper(panelDescription(panel)))
}

func orderingPrinciple(orientation Orientation) string {
	if orientation == Landscape {
		return `- Sections follow column-first ordering: read top to bottom within each
  column, then move to the next column (left to right)
`
	}
	return `- Sections follow row-first ordering: read left to right within each row,
  then move to the next row (top to bottom)
`
}

func panelSection(panel SidePanel) string {
	switch panel {
	case PanelQA:
		return `
Q&A SIDE PANEL (right side):
- Design a modern chat interface with a header such as "Q&A About This Paper"
- Show up to 4 question/answer pairs in chat-bubble style: questions as user
  messages, answers as assistant messages, visually distinct
- Questions cover methodology, key findings, applications, and limitations;
  answers are concise and grounded in the paper
`
	case PanelHistory:
		return `
RESEARCH HISTORY SIDE PANEL (right side):
- Design a vertical timeline of the research lineage leading to this paper
- Use current web search results to place the paper among its most relevant
  prior and follow-up work
- Each timeline entry names the work, its year, and a one-line contribution
- Visually connect entries to show how ideas evolved toward this paper
`
	default:
		return ""
	}
}

func panelDescription(panel SidePanel) string {
	switch panel {
	case PanelQA:
		return "a Q&A chat interface"
	case PanelHistory:
		return "a research-history timeline"
	default:
		return ""
	}
}
