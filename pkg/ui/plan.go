package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	joinWords     = []string{"NestedLoop", "BlockNested", "SortMerge", "Join"}
	operatorWords = []string{"Select", "Project", "Distinct", "OrderBy"}
)

// PlanHighlighter colors the output of optimizer.Explain: join methods,
// unary operators and scans each get their own style and the trailing
// schema of a line is dimmed.
type PlanHighlighter struct {
	styles map[string]lipgloss.Style
}

func NewPlanHighlighter() *PlanHighlighter {
	h := &PlanHighlighter{styles: make(map[string]lipgloss.Style)}
	for _, w := range joinWords {
		h.styles[w] = methodStyle
	}
	for _, w := range operatorWords {
		h.styles[w] = operatorStyle
	}
	h.styles["Scan"] = scanStyle
	return h
}

// Highlight styles every line of an explained plan, keeping indentation.
func (h *PlanHighlighter) Highlight(plan string) string {
	lines := strings.Split(strings.TrimRight(plan, "\n"), "\n")
	for i, line := range lines {
		lines[i] = h.line(line)
	}
	return strings.Join(lines, "\n")
}

func (h *PlanHighlighter) line(line string) string {
	body := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(body)]

	head, rest, _ := strings.Cut(body, " ")
	if style, ok := h.styles[head]; ok {
		head = style.Render(head)
	}

	if before, schema, ok := strings.Cut(rest, " -> "); ok {
		rest = before + " -> " + schemaStyle.Render(schema)
	}
	if rest == "" {
		return indent + head
	}
	return indent + head + " " + rest
}

// PlanBox renders a highlighted plan under a title.
func PlanBox(title, plan string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		NewPlanHighlighter().Highlight(plan))
}
