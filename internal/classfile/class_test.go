package classfile_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/classfile/classfiletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHello(t *testing.T) {
	t.Parallel()

	c, err := classfile.Parse(classfiletest.Hello())
	require.NoError(t, err)

	name, err := c.Name()
	require.NoError(t, err)
	assert.Equal(t, "com/example/Hello", name)

	super, err := c.SuperName()
	require.NoError(t, err)
	assert.Equal(t, "java/lang/Object", super)

	assert.Equal(t, uint16(52), c.MajorVersion)
	assert.True(t, c.AccessFlags.Has(classfile.AccPublic))

	source, ok := c.SourceFile()
	require.True(t, ok)
	assert.Equal(t, "Hello.java", source)

	require.Len(t, c.Fields, 2)
	assert.Equal(t, "ANSWER", c.Fields[0].Name)
	value, ok := c.ConstantValue(&c.Fields[0])
	require.True(t, ok)
	assert.Equal(t, classfile.TagInteger, value.Tag)
	assert.Equal(t, int32(42), value.Int)

	require.Len(t, c.Methods, 3)
	names := []string{c.Methods[0].Name, c.Methods[1].Name, c.Methods[2].Name}
	assert.Equal(t, []string{"<init>", "main", "max"}, names)
}

func TestCodeAttributeLineNumbers(t *testing.T) {
	t.Parallel()

	c, err := classfile.Parse(classfiletest.Hello())
	require.NoError(t, err)

	code, err := c.Code(&c.Methods[1])
	require.NoError(t, err)
	require.NotNil(t, code)

	assert.Equal(t, 2, code.MaxStack)
	assert.Equal(t, 2, code.MaxLocals)
	assert.Len(t, code.Bytecode, 14)
	assert.Equal(t, 5, code.LineAt(0))
	assert.Equal(t, 5, code.LineAt(7))
	assert.Equal(t, 6, code.LineAt(8))
	assert.Equal(t, 7, code.LineAt(13))

	first, last := code.LineRange()
	assert.Equal(t, 5, first)
	assert.Equal(t, 7, last)
}

func TestCodeReturnsNilForAbstractMethods(t *testing.T) {
	t.Parallel()

	b := classfiletest.New("a/Shape", "java/lang/Object")
	b.SetAccess(classfile.AccPublic | classfile.AccAbstract)
	b.AddMethod(classfiletest.Method{Access: classfile.AccPublic | classfile.AccAbstract, Name: "area", Descriptor: "()D"})

	c, err := classfile.Parse(b.Bytes())
	require.NoError(t, err)

	code, err := c.Code(&c.Methods[0])
	require.NoError(t, err)
	assert.Nil(t, code)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	hello := classfiletest.Hello()
	tests := []struct {
		name    string
		data    []byte
		wantEOF bool
		wantErr string
	}{
		{name: "empty", data: nil, wantEOF: true},
		{name: "bad magic", data: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52}, wantErr: "bad magic 0xDEADBEEF"},
		{name: "truncated", data: hello[:len(hello)-3], wantEOF: true},
		{name: "trailing bytes", data: append(append([]byte{}, hello...), 0, 0), wantErr: "2 trailing bytes"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := classfile.Parse(tc.data)
			require.Error(t, err)
			if tc.wantEOF {
				assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
				return
			}
			var formatErr classfile.FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestConstantPoolTypeChecks(t *testing.T) {
	t.Parallel()

	b := classfiletest.New("a/B", "java/lang/Object")
	longIdx := b.Long(1 << 40)
	strIdx := b.StringConst("text")

	c, err := classfile.Parse(b.Bytes())
	require.NoError(t, err)

	long, err := c.ConstantPool.Get(longIdx, classfile.TagLong)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), long.Long)

	_, err = c.ConstantPool.Entry(longIdx + 1)
	assert.ErrorContains(t, err, "out of range")

	_, err = c.ConstantPool.ClassName(strIdx)
	assert.ErrorContains(t, err, "is String, want Class")

	_, err = c.ConstantPool.UTF8(999)
	assert.ErrorContains(t, err, "out of range")
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Hello.class")
	require.NoError(t, os.WriteFile(path, classfiletest.Hello(), 0o644))

	c, err := classfile.ReadFile(path)
	require.NoError(t, err)
	name, err := c.Name()
	require.NoError(t, err)
	assert.Equal(t, "com/example/Hello", name)

	_, err = classfile.ReadFile(filepath.Join(t.TempDir(), "missing.class"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
