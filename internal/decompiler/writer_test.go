package decompiler

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdecomp/jdecomp/internal/domain"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteLines(t *testing.T) {
	t.Parallel()

	class := []domain.SourceLine{
		{Text: "class X {", Indent: 0},
		{Text: "foo();", Indent: 1, Expected: 3},
		{Text: "bar();", Indent: 1, Expected: 3},
		{Text: "baz();", Indent: 1, Expected: 2},
		{Text: "}", Indent: 0},
	}

	tests := []struct {
		name  string
		lines []domain.SourceLine
		opts  domain.WriteOptions
		want  string
	}{
		{
			name:  "plain",
			lines: class,
			opts:  domain.WriteOptions{Indent: "  ", LineSeparator: "\n"},
			want:  "class X {\n  foo();\n  bar();\n  baz();\n}\n",
		},
		{
			name:  "respect line numbers",
			lines: class,
			opts:  domain.WriteOptions{Indent: "    ", LineSeparator: "\n", RespectLineNumbers: true},
			want:  "class X {\n\n    foo(); bar();\n    baz();\n}\n",
		},
		{
			name:  "dump line numbers",
			lines: []domain.SourceLine{{Text: "a", Expected: 2}, {Text: "b", Indent: 1}},
			opts:  domain.WriteOptions{Indent: "\t", LineSeparator: "\r\n", RespectLineNumbers: true, DumpLineNumbers: true},
			want:  "\r\n/*    2 */ a\r\n/*      */ \tb\r\n",
		},
		{
			name:  "empty",
			lines: nil,
			opts:  domain.DefaultWriteOptions(),
			want:  "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, WriteLines(&buf, tc.lines, tc.opts))
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestWriteLinesReportsWriteErrors(t *testing.T) {
	t.Parallel()

	err := WriteLines(failingWriter{}, []domain.SourceLine{{Text: "x"}}, domain.DefaultWriteOptions())
	assert.ErrorContains(t, err, "disk full")
}

func TestJavaString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"a\"b\\c\n\u0001"`, javaString("a\"b\\c\n\x01"))
	assert.Equal(t, `"\ud83d\ude00"`, javaString("\U0001F600"))
	assert.Equal(t, `'\''`, javaChar('\''))
}

func TestNumericLiterals(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.0F", floatLiteral(1))
	assert.Equal(t, "0.5", doubleLiteral(0.5))
	assert.Equal(t, "1e+10", doubleLiteral(1e10))
	assert.Equal(t, "Double.NaN", doubleLiteral(zero()/zero()))
	assert.Equal(t, "-3L", longLiteral(-3))
	assert.Equal(t, "true", coerceInt(1, "1", "Z"))
	assert.Equal(t, "'A'", coerceInt(65, "65", "C"))
	assert.Equal(t, "7", coerceInt(7, "7", "I"))
}

func zero() float64 { return 0 }
