package domain

import (
	"fmt"
	"strings"
)

type BlockKind string

const (
	BlockFile      BlockKind = "file"
	BlockPackage   BlockKind = "package"
	BlockImports   BlockKind = "imports"
	BlockImport    BlockKind = "import"
	BlockClass     BlockKind = "class"
	BlockField     BlockKind = "field"
	BlockMethod    BlockKind = "method"
	BlockStatement BlockKind = "statement"
	BlockLabel     BlockKind = "label"
)

// SourceLine is one line of generated text. Expected is the line number the
// text had in the original source, or 0 when unknown.
type SourceLine struct {
	Text     string
	Indent   int
	Expected int
}

// SourceBlock is a node of the reconstructed source tree. A block with a
// Header indents its children one level; Footer closes it at the header's
// level.
type SourceBlock struct {
	Kind     BlockKind
	Header   *SourceLine
	Footer   *SourceLine
	Children []*SourceBlock
	// Outdent renders the header one level left of its siblings (labels).
	Outdent bool
}

// NewLeaf returns a block holding a single line.
func NewLeaf(kind BlockKind, text string, expected int) *SourceBlock {
	return &SourceBlock{Kind: kind, Header: &SourceLine{Text: text, Expected: expected}}
}

func (b *SourceBlock) Add(children ...*SourceBlock) {
	b.Children = append(b.Children, children...)
}

// FirstExpected returns the first numbered line below the header, or 0.
func (b *SourceBlock) FirstExpected() int {
	for _, c := range b.Children {
		if c.Header != nil && c.Header.Expected > 0 {
			return c.Header.Expected
		}
		if n := c.FirstExpected(); n > 0 {
			return n
		}
		if c.Footer != nil && c.Footer.Expected > 0 {
			return c.Footer.Expected
		}
	}

	return 0
}

func (b *SourceBlock) collect(out *[]SourceLine, depth int) {
	childDepth := depth
	if b.Header != nil {
		line := *b.Header
		line.Indent = depth
		if b.Outdent && depth > 0 {
			line.Indent = depth - 1
		}
		*out = append(*out, line)
		childDepth = depth + 1
	}

	for _, c := range b.Children {
		c.collect(out, childDepth)
	}

	if b.Footer != nil {
		line := *b.Footer
		line.Indent = depth
		*out = append(*out, line)
	}
}

func (b *SourceBlock) walk(fn func(*SourceLine)) {
	if b.Header != nil {
		fn(b.Header)
	}
	for _, c := range b.Children {
		c.walk(fn)
	}
	if b.Footer != nil {
		fn(b.Footer)
	}
}

func (b *SourceBlock) dump(buf *strings.Builder, depth int) {
	buf.WriteString(strings.Repeat("  ", depth))
	buf.WriteString(string(b.Kind))
	if b.Header != nil {
		if b.Header.Expected > 0 {
			fmt.Fprintf(buf, " [line %d]", b.Header.Expected)
		}
		buf.WriteString(" ")
		buf.WriteString(b.Header.Text)
	}
	buf.WriteString("\n")

	for _, c := range b.Children {
		c.dump(buf, depth+1)
	}
}

// lowerHeaders visits blocks children-first so that inner headers claim the
// line right above their body before enclosing headers are placed.
func (b *SourceBlock) lowerHeaders(prev int) {
	last := prev
	if b.Header != nil && b.Header.Expected > 0 {
		last = b.Header.Expected
	}
	for _, c := range b.Children {
		c.lowerHeaders(last)
		c.walk(func(l *SourceLine) {
			if l.Expected > 0 {
				last = l.Expected
			}
		})
	}

	if b.Header == nil || b.Header.Expected > 0 || len(b.Children) == 0 {
		return
	}
	if first := b.FirstExpected(); first > 1 && first-1 > prev {
		b.Header.Expected = first - 1
	}
}

// BlockList is the reconstructed source of one class.
type BlockList struct {
	Root *SourceBlock
}

func NewBlockList(root *SourceBlock) *BlockList {
	return &BlockList{Root: root}
}

// CollectLines appends every line in document order, starting at indent
// level depth.
func (l *BlockList) CollectLines(out *[]SourceLine, depth int) {
	if l.Root == nil {
		return
	}
	l.Root.collect(out, depth)
}

// Dump writes an indented outline of the block tree.
func (l *BlockList) Dump(buf *strings.Builder, depth int) {
	if l.Root == nil {
		return
	}
	l.Root.dump(buf, depth)
}

// LowerExpectedLines makes expected line numbers non-decreasing in document
// order: a numbered line below the running cursor (initially start) sinks to
// the cursor. Applying it twice changes nothing.
func (l *BlockList) LowerExpectedLines(start int) {
	if l.Root == nil {
		return
	}

	cursor := start
	l.Root.walk(func(line *SourceLine) {
		if line.Expected == 0 {
			return
		}
		if line.Expected < cursor {
			line.Expected = cursor
		}
		cursor = line.Expected
	})
}

// LowerHeaderLines gives unnumbered headers the line directly above the
// first numbered line of their body, when that line is still free. Applying
// it twice changes nothing.
func (l *BlockList) LowerHeaderLines() {
	if l.Root == nil {
		return
	}
	l.Root.lowerHeaders(0)
}

// Lines is shorthand for collecting from depth 0 into a fresh slice.
func (l *BlockList) Lines() []SourceLine {
	var out []SourceLine
	l.CollectLines(&out, 0)
	return out
}
