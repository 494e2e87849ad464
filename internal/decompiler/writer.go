package decompiler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jdecomp/jdecomp/internal/domain"
)

// lineWriter tracks the output position while lines are laid out.
type lineWriter struct {
	w    *bufio.Writer
	opts domain.WriteOptions

	row     int  // number of the last started output line
	open    bool // a line was started and not yet terminated
	claimed int  // expected line number of the open line, 0 if none
}

// WriteLines writes lines with opts.Indent repeated per indent level. When
// opts.RespectLineNumbers is set, blank lines are inserted so numbered lines
// land on their expected row, and lines sharing the row of the open line are
// appended to it. With opts.DumpLineNumbers each line is prefixed by a
// comment holding its expected number.
func WriteLines(w io.Writer, lines []domain.SourceLine, opts domain.WriteOptions) error {
	lw := &lineWriter{w: bufio.NewWriter(w), opts: opts}

	for _, line := range lines {
		lw.write(line)
	}
	if lw.open {
		lw.w.WriteString(opts.LineSeparator)
	}

	return lw.w.Flush()
}

func (lw *lineWriter) write(line domain.SourceLine) {
	if lw.opts.RespectLineNumbers && line.Expected > 0 {
		if lw.open && lw.claimed > 0 && line.Expected == lw.claimed {
			lw.w.WriteString(" " + line.Text)
			return
		}
		for lw.row+1 < line.Expected {
			lw.newline()
			lw.open = true
			lw.claimed = 0
		}
	}

	lw.newline()
	if lw.opts.DumpLineNumbers {
		if line.Expected > 0 {
			fmt.Fprintf(lw.w, "/* %4d */ ", line.Expected)
		} else {
			lw.w.WriteString("/*      */ ")
		}
	}
	lw.w.WriteString(strings.Repeat(lw.opts.Indent, line.Indent))
	lw.w.WriteString(line.Text)
	lw.open = true
	lw.claimed = line.Expected
}

// newline terminates the open line, if any, and starts counting the next.
func (lw *lineWriter) newline() {
	if lw.open {
		lw.w.WriteString(lw.opts.LineSeparator)
	}
	lw.row++
	lw.open = false
}
