package classfiletest

import "github.com/jdecomp/jdecomp/internal/classfile"

// Hello returns a class file shaped like javac output without local
// variable tables for:
//
//	package com.example;
//
//	public class Hello {
//	    private static final int ANSWER = 42;
//	    private java.util.List items;
//
//	    public static void main(String[] args) {
//	        System.out.println("Hello");
//	        int n = 2 + args.length;
//	    }
//
//	    static int max(int a, int b) {
//	        if (a > b) {
//	            return a;
//	        }
//	        return b;
//	    }
//	}
//
// Line tables: constructor 3, main 5..7, max 11, 12 and 14.
func Hello() []byte {
	b := New("com/example/Hello", "java/lang/Object")
	b.SourceFile("Hello.java")

	b.AddField(classfile.AccPrivate|classfile.AccStatic|classfile.AccFinal, "ANSWER", "I", b.Integer(42))
	b.AddField(classfile.AccPrivate, "items", "Ljava/util/List;", 0)

	objectInit := b.Methodref("java/lang/Object", "<init>", "()V")
	b.AddMethod(Method{
		Access:     classfile.AccPublic,
		Name:       "<init>",
		Descriptor: "()V",
		MaxStack:   1,
		MaxLocals:  1,
		Code:       Code(classfile.Aload0, classfile.Invokespecial, U2(objectInit), classfile.Return),
		Lines:      []classfile.LineNumber{{StartPC: 0, Line: 3}},
	})

	out := b.Fieldref("java/lang/System", "out", "Ljava/io/PrintStream;")
	hello := b.StringConst("Hello")
	printlnRef := b.Methodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	b.AddMethod(Method{
		Access:     classfile.AccPublic | classfile.AccStatic,
		Name:       "main",
		Descriptor: "([Ljava/lang/String;)V",
		MaxStack:   2,
		MaxLocals:  2,
		Code: Code(
			classfile.Getstatic, U2(out),
			classfile.Ldc, byte(hello),
			classfile.Invokevirtual, U2(printlnRef),
			classfile.Iconst2,
			classfile.Aload0,
			classfile.Arraylength,
			classfile.Iadd,
			classfile.Istore1,
			classfile.Return,
		),
		Lines: []classfile.LineNumber{{StartPC: 0, Line: 5}, {StartPC: 8, Line: 6}, {StartPC: 13, Line: 7}},
	})

	b.AddMethod(Method{
		Access:     classfile.AccStatic,
		Name:       "max",
		Descriptor: "(II)I",
		MaxStack:   2,
		MaxLocals:  2,
		Code: Code(
			classfile.Iload0,
			classfile.Iload1,
			classfile.IfIcmple, U2(5),
			classfile.Iload0,
			classfile.Ireturn,
			classfile.Iload1,
			classfile.Ireturn,
		),
		Lines: []classfile.LineNumber{{StartPC: 0, Line: 11}, {StartPC: 5, Line: 12}, {StartPC: 7, Line: 14}},
	})

	return b.Bytes()
}

// Code flattens opcodes, raw bytes and U2 operands into a bytecode array.
func Code(parts ...any) []byte {
	var out []byte
	for _, p := range parts {
		switch v := p.(type) {
		case classfile.Opcode:
			out = append(out, byte(v))
		case byte:
			out = append(out, v)
		case []byte:
			out = append(out, v...)
		case int:
			out = append(out, byte(v))
		}
	}

	return out
}

// U2 encodes a big-endian two-byte operand.
func U2(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}
