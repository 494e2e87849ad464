package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jdecomp/jdecomp/internal/adapters/classpath"
	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/classfile/classfiletest"
	"github.com/jdecomp/jdecomp/internal/domain"
	"github.com/jdecomp/jdecomp/internal/ports"
)

type openerMock struct {
	mock.Mock
}

func (m *openerMock) OpenClassPath(entries ...string) (ports.ClassPath, error) {
	args := m.Called(entries)
	cp, _ := args.Get(0).(ports.ClassPath)
	return cp, args.Error(1)
}

func (m *openerMock) OpenArchive(path string) (ports.ClassArchive, error) {
	args := m.Called(path)
	archive, _ := args.Get(0).(ports.ClassArchive)
	return archive, args.Error(1)
}

func writeClass(t *testing.T, root, internalName string, data []byte) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(internalName)+".class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func brokenClass() []byte {
	b := classfiletest.New("a/Broken", "java/lang/Object")
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "bad", Descriptor: "()V",
		MaxStack: 1, MaxLocals: 0,
		Code: classfiletest.Code(classfile.Pop, classfile.Return),
	})
	return b.Bytes()
}

func TestServiceReconstructCapturesEachStage(t *testing.T) {
	t.Parallel()

	input := writeClass(t, t.TempDir(), "com/example/Hello", classfiletest.Hello())
	service := NewService(classpath.Opener{}, nil, nil)

	got, err := service.Reconstruct(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "com/example/Hello", got.ClassName)
	require.Len(t, got.Stages, 3)
	assert.Equal(t, domain.StageNoCorrections, got.Stages[0].Stage)
	assert.Equal(t, domain.StageExpectedLinesLowered, got.Stages[1].Stage)
	assert.Equal(t, domain.StageHeaderLinesLowered, got.Stages[2].Stage)

	for _, stage := range got.Stages {
		assert.Equal(t, 19, stage.LineCount, "line count after %s", stage.Stage)
		assert.True(t, strings.HasPrefix(stage.Structure, "file\n"))
		assert.Contains(t, stage.Structure, `statement [line 5] System.out.println("Hello");`)
	}

	assert.Contains(t, got.Stages[0].Structure, "method public Hello() {")
	assert.Contains(t, got.Stages[2].Structure, "method [line 2] public Hello() {")
	assert.Contains(t, got.Stages[2].Structure, "method [line 10] static int max(int arg0, int arg1) {")
	assert.Contains(t, got.Stages[2].Structure, "class [line 1] public class Hello {")

	require.Len(t, got.Lines, 19)
	assert.Equal(t, "import java.util.List;", got.Lines[1].Text)
	assert.Equal(t, 2, got.Lines[5].Expected)
}

func TestServiceReconstructPassesClassRootToClassPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	input := writeClass(t, root, "com/example/Hello", classfiletest.Hello())

	opener := &openerMock{}
	opener.On("OpenClassPath", []string{"lib.jar", root}).Return(nil, errors.New("boom")).Once()

	service := NewService(opener, []string{"lib.jar"}, nil)
	_, err := service.Reconstruct(context.Background(), input)
	require.Error(t, err)
	assert.ErrorContains(t, err, "open class path: boom")
	opener.AssertExpectations(t)
}

func TestServiceReconstructErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := filepath.Join(dir, "Missing.class")
	garbage := filepath.Join(dir, "Garbage.class")
	require.NoError(t, os.WriteFile(garbage, []byte("not a class"), 0o644))
	broken := writeClass(t, dir, "a/Broken", brokenClass())

	service := NewService(nil, nil, nil)

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "missing input", input: missing, want: []string{"read class file", missing}},
		{name: "not a class file", input: garbage, want: []string{"read class file", garbage, "invalid format"}},
		{name: "bad bytecode", input: broken, want: []string{"decompile", broken, "operand stack underflow"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := service.Reconstruct(context.Background(), tc.input)
			require.Error(t, err)
			for _, want := range tc.want {
				assert.ErrorContains(t, err, want)
			}
		})
	}

	_, err := service.Reconstruct(context.Background(), missing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestServiceReconstructHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(nil, nil, nil).Reconstruct(ctx, "Hello.class")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServiceWriteSourceReplacesExistingFile(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "Out.java")
	require.NoError(t, os.WriteFile(out, []byte("stale content that is longer than the new one\n"), 0o644))

	lines := []domain.SourceLine{
		{Text: "class A {"},
		{Text: "x();", Indent: 1, Expected: 3},
		{Text: "}"},
	}
	opts := domain.WriteOptions{Indent: "    ", LineSeparator: "\n", RespectLineNumbers: true}

	service := NewService(nil, nil, nil)
	require.NoError(t, service.WriteSource(context.Background(), out, lines, opts))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "class A {\n\n    x();\n}\n", string(data))
}

func TestServiceWriteSourceReportsPath(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "missing", "Out.java")

	err := NewService(nil, nil, nil).WriteSource(context.Background(), out, nil, domain.DefaultWriteOptions())
	require.Error(t, err)
	assert.ErrorContains(t, err, "write source file")
	assert.ErrorContains(t, err, out)
}

func TestServiceInspect(t *testing.T) {
	t.Parallel()

	input := writeClass(t, t.TempDir(), "com/example/Hello", classfiletest.Hello())

	got, err := NewService(nil, nil, nil).Inspect(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.ClassSummary{
		Name:         "com/example/Hello",
		SourceFile:   "Hello.java",
		MajorVersion: 52,
		Access:       []string{"public", "class"},
		Super:        "java/lang/Object",
		Fields: []domain.MemberSummary{
			{Name: "ANSWER", Descriptor: "I", Access: []string{"private", "static", "final"}},
			{Name: "items", Descriptor: "Ljava/util/List;", Access: []string{"private"}},
		},
		Methods: []domain.MemberSummary{
			{Name: "<init>", Descriptor: "()V", Access: []string{"public"}, CodeLength: 5, FirstLine: 3, LastLine: 3},
			{Name: "main", Descriptor: "([Ljava/lang/String;)V", Access: []string{"public", "static"}, CodeLength: 14, FirstLine: 5, LastLine: 7},
			{Name: "max", Descriptor: "(II)I", Access: []string{"static"}, CodeLength: 9, FirstLine: 11, LastLine: 14},
		},
	}, got)
}

func TestClassRoot(t *testing.T) {
	t.Parallel()

	path := filepath.Join("build", "classes", "com", "example", "Hello.class")
	assert.Equal(t, filepath.Join("build", "classes"), classRoot(path, "com/example/Hello"))
	assert.Equal(t, "build", classRoot(filepath.Join("build", "Main.class"), "Main"))
}
