package dump

import (
	"fmt"
	"strings"

	"github.com/jdecomp/jdecomp/internal/domain"
)

func renderView(d domain.StageDump, s styles) string {
	var b strings.Builder
	b.WriteString(s.title.Render("== " + string(d.Stage) + " =="))
	b.WriteString(" ")
	b.WriteString(s.meta.Render(fmt.Sprintf("(%d lines)", d.LineCount)))
	b.WriteString("\n")

	structure := strings.TrimSuffix(d.Structure, "\n")
	if structure == "" {
		b.WriteString(s.empty.Render("(empty)"))
		b.WriteString("\n")
		return b.String()
	}

	for _, line := range strings.Split(structure, "\n") {
		b.WriteString(renderLine(line, s))
		b.WriteString("\n")
	}

	return b.String()
}

// renderLine styles one "<indent><kind>[ [line N]][ text]" dump line.
func renderLine(line string, s styles) string {
	body := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(body)]

	kind, rest, _ := strings.Cut(body, " ")
	out := indent + s.kind.Render(kind)

	if strings.HasPrefix(rest, "[line ") {
		if end := strings.IndexByte(rest, ']'); end > 0 {
			out += " " + s.line.Render(rest[:end+1])
			rest = strings.TrimPrefix(rest[end+1:], " ")
		}
	}
	if rest != "" {
		out += " " + s.text.Render(rest)
	}

	return out
}
