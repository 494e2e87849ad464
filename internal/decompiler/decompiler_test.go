package decompiler_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/classfile/classfiletest"
	"github.com/jdecomp/jdecomp/internal/decompiler"
	"github.com/jdecomp/jdecomp/internal/domain"
)

type loaderMock struct {
	mock.Mock
}

func (m *loaderMock) LoadClass(name string) (*classfile.Class, error) {
	args := m.Called(name)
	class, _ := args.Get(0).(*classfile.Class)
	return class, args.Error(1)
}

func parse(t *testing.T, data []byte) *classfile.Class {
	t.Helper()

	class, err := classfile.Parse(data)
	require.NoError(t, err)
	return class
}

func texts(lines []domain.SourceLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func blockLines(t *testing.T, data []byte) []domain.SourceLine {
	t.Helper()

	d, err := decompiler.New(decompiler.Java, parse(t, data), nil)
	require.NoError(t, err)
	blocks, err := d.BlockList()
	require.NoError(t, err)
	return blocks.Lines()
}

func TestNewRejectsOtherLanguages(t *testing.T) {
	t.Parallel()

	class := parse(t, classfiletest.Hello())

	tests := []struct {
		name     string
		language string
		wantErr  error
	}{
		{name: "java", language: "java"},
		{name: "case insensitive", language: "JAVA"},
		{name: "kotlin", language: "kotlin", wantErr: domain.ErrUnsupportedLanguage},
		{name: "empty", language: "", wantErr: domain.ErrUnsupportedLanguage},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := decompiler.New(tc.language, class, nil)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestBlockListIsBuiltOnce(t *testing.T) {
	t.Parallel()

	d, err := decompiler.New(decompiler.Java, parse(t, classfiletest.Hello()), nil)
	require.NoError(t, err)

	first, err := d.BlockList()
	require.NoError(t, err)
	first.LowerExpectedLines(0)

	second, err := d.BlockList()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestHelloSource(t *testing.T) {
	t.Parallel()

	lines := blockLines(t, classfiletest.Hello())

	want := []string{
		"package com.example;",
		"import java.util.List;",
		"public class Hello {",
		"private static final int ANSWER = 42;",
		"private List items;",
		"public Hello() {",
		"super();",
		"}",
		"public static void main(String[] arg0) {",
		`System.out.println("Hello");`,
		"int local1 = 2 + arg0.length;",
		"}",
		"static int max(int arg0, int arg1) {",
		"if (arg0 <= arg1) goto L7;",
		"return arg0;",
		"L7:",
		"return arg1;",
		"}",
		"}",
	}
	if diff := cmp.Diff(want, texts(lines)); diff != "" {
		t.Fatalf("source mismatch (-want +got):\n%s", diff)
	}

	indents := []int{0, 0, 0, 1, 1, 1, 2, 1, 1, 2, 2, 1, 1, 2, 2, 1, 2, 1, 0}
	for i, l := range lines {
		assert.Equal(t, indents[i], l.Indent, "indent of %q", l.Text)
	}

	expected := map[string]int{
		"super();":                      3,
		`System.out.println("Hello");`:  5,
		"int local1 = 2 + arg0.length;": 6,
		"if (arg0 <= arg1) goto L7;":    11,
		"return arg0;":                  12,
		"return arg1;":                  14,
		"public class Hello {":          0,
		"L7:":                           0,
	}
	for _, l := range lines {
		if want, ok := expected[l.Text]; ok {
			assert.Equal(t, want, l.Expected, "expected line of %q", l.Text)
		}
	}
}

func TestUnresolvedImportsAreAnnotatedAndLogged(t *testing.T) {
	t.Parallel()

	b := classfiletest.New("com/example/Widget", "java/lang/Object")
	b.AddField(classfile.AccPrivate, "gadget", "Lcom/acme/Gadget;", 0)
	b.AddField(classfile.AccPrivate, "known", "Lcom/acme/Known;", 0)
	b.AddField(classfile.AccPrivate, "index", "Ljava/util/Map;", 0)

	loader := &loaderMock{}
	loader.On("LoadClass", "com/acme/Gadget").Return(nil, fmt.Errorf("%w: com/acme/Gadget", domain.ErrClassNotFound))
	loader.On("LoadClass", "com/acme/Known").Return(&classfile.Class{}, nil)

	core, logs := observer.New(zapcore.WarnLevel)
	d, err := decompiler.New(decompiler.Java, parse(t, b.Bytes()), loader, decompiler.WithLogger(zap.New(core)))
	require.NoError(t, err)

	blocks, err := d.BlockList()
	require.NoError(t, err)

	lines := texts(blocks.Lines())
	assert.Equal(t, []string{
		"import com.acme.Gadget; // unresolved",
		"import com.acme.Known;",
		"import java.util.Map;",
	}, lines[1:4])

	loader.AssertExpectations(t)
	entries := logs.FilterMessage("unresolved import").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "com.acme.Gadget", entries[0].ContextMap()["import"])
}

// shapes builds a class exercising the expression forms javac emits.
func shapes() []byte {
	b := classfiletest.New("com/example/Shapes", "java/lang/Object")

	concatFactory := b.Methodref("java/lang/invoke/StringConcatFactory", "makeConcatWithConstants",
		"(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;Ljava/lang/String;[Ljava/lang/Object;)Ljava/lang/invoke/CallSite;")
	concat := b.AddBootstrapMethod(b.MethodHandle(6, concatFactory), b.StringConst("Hi \u0001 x\u0001!"))
	greetSite := b.InvokeDynamic(concat, "makeConcatWithConstants", "(Ljava/lang/String;I)Ljava/lang/String;")
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "greet", Descriptor: "(Ljava/lang/String;I)Ljava/lang/String;",
		MaxStack: 2, MaxLocals: 2,
		Code: classfiletest.Code(classfile.Aload0, classfile.Iload1, classfile.Invokedynamic, classfiletest.U2(greetSite), 0, 0, classfile.Areturn),
	})

	list := b.Class("java/util/ArrayList")
	listInit := b.Methodref("java/util/ArrayList", "<init>", "()V")
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "make", Descriptor: "()Ljava/lang/Object;",
		MaxStack: 2, MaxLocals: 1,
		Code: classfiletest.Code(
			classfile.New, classfiletest.U2(list), classfile.Dup, classfile.Invokespecial, classfiletest.U2(listInit),
			classfile.Astore0, classfile.Aload0, classfile.Areturn,
		),
	})

	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "nums", Descriptor: "()[I",
		MaxStack: 4, MaxLocals: 0,
		Code: classfiletest.Code(
			classfile.Iconst2, classfile.Newarray, 10,
			classfile.Dup, classfile.Iconst0, classfile.Iconst5, classfile.Iastore,
			classfile.Dup, classfile.Iconst1, classfile.Bipush, 7, classfile.Iastore,
			classfile.Areturn,
		),
	})

	b.AddMethod(classfiletest.Method{
		Name: "isPositive", Descriptor: "(I)Z",
		MaxStack: 1, MaxLocals: 2,
		Code: classfiletest.Code(
			classfile.Iload1, classfile.Ifle, classfiletest.U2(5),
			classfile.Iconst1, classfile.Ireturn,
			classfile.Iconst0, classfile.Ireturn,
		),
		Locals: []classfile.LocalVariable{
			{StartPC: 0, Length: 8, Name: "this", Descriptor: "Lcom/example/Shapes;", Slot: 0},
			{StartPC: 0, Length: 8, Name: "x", Descriptor: "I", Slot: 1},
		},
	})

	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "pick", Descriptor: "(Z)I",
		MaxStack: 1, MaxLocals: 1,
		Code: classfiletest.Code(
			classfile.Iload0, classfile.Ifeq, classfiletest.U2(7),
			classfile.Iconst1, classfile.Goto, classfiletest.U2(4),
			classfile.Iconst2, classfile.Ireturn,
		),
	})

	work := b.Methodref("com/example/Shapes", "work", "()V")
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "guarded", Descriptor: "()V",
		MaxStack: 1, MaxLocals: 1,
		Code: classfiletest.Code(
			classfile.Invokestatic, classfiletest.U2(work),
			classfile.Goto, classfiletest.U2(4),
			classfile.Astore0,
			classfile.Return,
		),
		Handlers: []classfile.ExceptionHandler{{StartPC: 0, EndPC: 3, HandlerPC: 6, CatchType: "java/lang/Exception"}},
	})

	lambdaFactory := b.Methodref("java/lang/invoke/LambdaMetafactory", "metafactory",
		"(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodType;Ljava/lang/invoke/MethodHandle;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/CallSite;")
	body := b.Methodref("com/example/Shapes", "lambda$task$0", "()V")
	lambda := b.AddBootstrapMethod(b.MethodHandle(6, lambdaFactory), b.MethodType("()V"), b.MethodHandle(6, body), b.MethodType("()V"))
	taskSite := b.InvokeDynamic(lambda, "run", "()Ljava/lang/Runnable;")
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "task", Descriptor: "()Ljava/lang/Runnable;",
		MaxStack: 1, MaxLocals: 0,
		Code: classfiletest.Code(classfile.Invokedynamic, classfiletest.U2(taskSite), 0, 0, classfile.Areturn),
	})

	b.AddMethod(classfiletest.Method{
		Access: classfile.AccPublic | classfile.AccStatic | classfile.AccVarargs, Name: "run", Descriptor: "([Ljava/lang/String;)V",
		MaxStack: 0, MaxLocals: 1,
		Code:       classfiletest.Code(classfile.Return),
		Exceptions: []string{"java/io/IOException"},
	})

	b.AddMethod(classfiletest.Method{
		Access: classfile.AccPublic | classfile.AccAbstract, Name: "area", Descriptor: "()D",
	})

	return b.Bytes()
}

func TestExpressionForms(t *testing.T) {
	t.Parallel()

	got := texts(blockLines(t, shapes()))

	tests := []struct {
		name string
		want []string
	}{
		{name: "string concatenation", want: []string{
			"static String greet(String arg0, int arg1) {",
			`return "Hi " + arg0 + " x" + arg1 + "!";`,
		}},
		{name: "constructor call", want: []string{
			"static Object make() {",
			"ArrayList local0 = new ArrayList();",
			"return local0;",
		}},
		{name: "array initializer", want: []string{
			"static int[] nums() {",
			"return new int[]{5, 7};",
		}},
		{name: "boolean returns with named locals", want: []string{
			"boolean isPositive(int x) {",
			"if (x <= 0) goto L6;",
			"return true;",
			"L6:",
			"return false;",
		}},
		{name: "conditional value spilled at merge", want: []string{
			"static int pick(boolean arg0) {",
			"if (!arg0) goto L8;",
			"$s0 = 1;",
			"goto L9;",
			"L8:",
			"$s0 = 2;",
			"L9:",
			"return $s0;",
		}},
		{name: "exception handler", want: []string{
			"static void guarded() {",
			"work();",
			"goto L7;",
			"L6: // catch Exception",
			"Exception local0 = $ex;",
			"L7:",
			"return;",
		}},
		{name: "lambda", want: []string{
			"static Runnable task() {",
			"return Shapes::lambda$task$0;",
		}},
		{name: "varargs and throws", want: []string{
			"public static void run(String... arg0) throws IOException {",
			"}",
			"public abstract double area();",
		}},
	}

	for _, tc := range tests {
		assert.Subset(t, got, tc.want, tc.name)
		assertInOrder(t, got, tc.want, tc.name)
	}

	assert.Contains(t, got, "import java.io.IOException;")
	assert.Contains(t, got, "import java.util.ArrayList;")
}

// counter builds a class whose methods leave values on the operand stack
// across a write.
func counter() []byte {
	b := classfiletest.New("com/example/Counter", "java/lang/Object")
	b.AddField(classfile.AccPrivate, "elements", "[Ljava/lang/Object;", 0)
	b.AddField(classfile.AccPrivate, "size", "I", 0)
	b.AddField(classfile.AccPrivate, "total", "J", 0)
	elements := b.Fieldref("com/example/Counter", "elements", "[Ljava/lang/Object;")
	size := b.Fieldref("com/example/Counter", "size", "I")
	total := b.Fieldref("com/example/Counter", "total", "J")
	next := b.Methodref("com/example/Counter", "next", "()I")

	// elements[size++] = e
	b.AddMethod(classfiletest.Method{
		Name: "push", Descriptor: "(Ljava/lang/Object;)V",
		MaxStack: 5, MaxLocals: 2,
		Code: classfiletest.Code(
			classfile.Aload0, classfile.Getfield, classfiletest.U2(elements),
			classfile.Aload0, classfile.Dup, classfile.Getfield, classfiletest.U2(size),
			classfile.DupX1, classfile.Iconst1, classfile.Iadd, classfile.Putfield, classfiletest.U2(size),
			classfile.Aload1, classfile.Aastore,
			classfile.Return,
		),
	})

	// return ++total
	b.AddMethod(classfiletest.Method{
		Name: "bump", Descriptor: "()J",
		MaxStack: 5, MaxLocals: 1,
		Code: classfiletest.Code(
			classfile.Aload0, classfile.Dup, classfile.Getfield, classfiletest.U2(total),
			classfile.Lconst1, classfile.Ladd, classfile.Dup2X1, classfile.Putfield, classfiletest.U2(total),
			classfile.Lreturn,
		),
	})

	// return x + (x = 5)
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "reset", Descriptor: "(I)I",
		MaxStack: 3, MaxLocals: 1,
		Code: classfiletest.Code(
			classfile.Iload0, classfile.Iconst5, classfile.Dup, classfile.Istore0, classfile.Iadd, classfile.Ireturn,
		),
	})

	// return next() + (x = 1)
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "mix", Descriptor: "(I)I",
		MaxStack: 2, MaxLocals: 1,
		Code: classfiletest.Code(
			classfile.Invokestatic, classfiletest.U2(next), classfile.Iconst1, classfile.Istore0,
			classfile.Iload0, classfile.Iadd, classfile.Ireturn,
		),
	})

	// y = x; x = 0; return y; with y still on the stack
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "swapOut", Descriptor: "(I)I",
		MaxStack: 2, MaxLocals: 1,
		Code: classfiletest.Code(
			classfile.Iload0, classfile.Iconst0, classfile.Istore0, classfile.Ireturn,
		),
	})

	// a local read is untouched by a field write
	b.AddMethod(classfiletest.Method{
		Name: "assign", Descriptor: "(I)I",
		MaxStack: 3, MaxLocals: 2,
		Code: classfiletest.Code(
			classfile.Iload1, classfile.Aload0, classfile.Iconst0, classfile.Putfield, classfiletest.U2(size),
			classfile.Ireturn,
		),
	})

	return b.Bytes()
}

func TestPendingValuesKeepEvaluationOrder(t *testing.T) {
	t.Parallel()

	got := texts(blockLines(t, counter()))

	tests := []struct {
		name string
		want []string
	}{
		{name: "field post-increment as array index", want: []string{
			"void push(Object arg0) {",
			"$s1 = this.size;",
			"this.size = this.size + 1;",
			"this.elements[$s1] = arg0;",
		}},
		{name: "long field pre-increment returned", want: []string{
			"long bump() {",
			"$s0 = this.total + 1L;",
			"this.total = this.total + 1L;",
			"return $s0;",
		}},
		{name: "local read before assignment in the same expression", want: []string{
			"static int reset(int arg0) {",
			"$s0 = arg0;",
			"arg0 = 5;",
			"return $s0 + 5;",
		}},
		{name: "call result pending across a store", want: []string{
			"static int mix(int arg0) {",
			"$s0 = next();",
			"arg0 = 1;",
			"return $s0 + arg0;",
		}},
		{name: "stored local still pending", want: []string{
			"static int swapOut(int arg0) {",
			"$s0 = arg0;",
			"arg0 = 0;",
			"return $s0;",
		}},
		{name: "unrelated local stays inline", want: []string{
			"int assign(int arg0) {",
			"this.size = 0;",
			"return arg0;",
		}},
	}

	for _, tc := range tests {
		assert.Subset(t, got, tc.want, tc.name)
		assertInOrder(t, got, tc.want, tc.name)
	}
}

func TestReusedSlotGetsNewVariable(t *testing.T) {
	t.Parallel()

	b := classfiletest.New("com/example/Slots", "java/lang/Object")
	text := b.StringConst("x")
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "reuse", Descriptor: "()Ljava/lang/Object;",
		MaxStack: 1, MaxLocals: 1,
		Code: classfiletest.Code(
			classfile.Iconst5, classfile.Istore0,
			classfile.Iinc, byte(0), byte(1),
			classfile.Ldc, byte(text), classfile.Astore0,
			classfile.Aload0, classfile.Areturn,
		),
	})

	got := texts(blockLines(t, b.Bytes()))

	want := []string{
		"static Object reuse() {",
		"int local0 = 5;",
		"local0++;",
		`String local0_1 = "x";`,
		"return local0_1;",
	}
	assertInOrder(t, got, want, "reused slot")
}

func TestClashingClassNamesAreQualified(t *testing.T) {
	t.Parallel()

	b := classfiletest.New("com/example/Hello", "java/lang/Object")
	b.Class("com/example/Integer")
	b.AddField(classfile.AccPrivate, "twin", "Lcom/other/Hello;", 0)
	b.AddField(classfile.AccPrivate, "text", "Lcom/other/String;", 0)
	b.AddField(classfile.AccPrivate, "name", "Ljava/lang/String;", 0)
	b.AddField(classfile.AccPrivate, "boxed", "Ljava/lang/Integer;", 0)
	b.AddField(classfile.AccPrivate, "local", "Lcom/example/Integer;", 0)

	got := texts(blockLines(t, b.Bytes()))

	assert.Subset(t, got, []string{
		"import com.other.String;",
		"private com.other.Hello twin;",
		"private String text;",
		"private java.lang.String name;",
		"private java.lang.Integer boxed;",
		"private Integer local;",
	})
	assert.NotContains(t, got, "import com.other.Hello;")
}

// assertInOrder checks that want appears in got as a contiguous run.
func assertInOrder(t *testing.T, got, want []string, name string) {
	t.Helper()

	for i := range got {
		if i+len(want) <= len(got) && cmp.Equal(got[i:i+len(want)], want) {
			return
		}
	}
	t.Errorf("%s: %q not found in order", name, want)
}

func TestMalformedBytecodeIsReported(t *testing.T) {
	t.Parallel()

	b := classfiletest.New("a/Broken", "java/lang/Object")
	b.AddMethod(classfiletest.Method{
		Access: classfile.AccStatic, Name: "bad", Descriptor: "()V",
		MaxStack: 1, MaxLocals: 0,
		Code: classfiletest.Code(classfile.Pop, classfile.Return),
	})

	d, err := decompiler.New(decompiler.Java, parse(t, b.Bytes()), nil)
	require.NoError(t, err)

	_, err = d.BlockList()
	require.Error(t, err)
	assert.ErrorContains(t, err, "method bad()V")
	assert.ErrorContains(t, err, "operand stack underflow")
}
