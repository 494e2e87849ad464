package decompiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/jdecomp/jdecomp/internal/classfile"
)

// javaString quotes s as a Java string literal.
func javaString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		writeEscaped(&b, r, '"')
	}
	b.WriteByte('"')

	return b.String()
}

func javaChar(r rune) string {
	var b strings.Builder
	b.WriteByte('\'')
	writeEscaped(&b, r, '\'')
	b.WriteByte('\'')

	return b.String()
}

func writeEscaped(b *strings.Builder, r rune, quote rune) {
	switch r {
	case quote, '\\':
		b.WriteByte('\\')
		b.WriteRune(r)
	case '\n':
		b.WriteString(`\n`)
	case '\t':
		b.WriteString(`\t`)
	case '\r':
		b.WriteString(`\r`)
	case '\b':
		b.WriteString(`\b`)
	case '\f':
		b.WriteString(`\f`)
	default:
		switch {
		case r < 0x20 || r == 0x7F:
			fmt.Fprintf(b, `\u%04x`, r)
		case r > 0xFFFF:
			// outside the BMP Java needs a surrogate pair
			r -= 0x10000
			fmt.Fprintf(b, `\u%04x\u%04x`, 0xD800+(r>>10), 0xDC00+(r&0x3FF))
		default:
			b.WriteRune(r)
		}
	}
}

func floatLiteral(v float32) string {
	switch {
	case math.IsNaN(float64(v)):
		return "Float.NaN"
	case math.IsInf(float64(v), 1):
		return "Float.POSITIVE_INFINITY"
	case math.IsInf(float64(v), -1):
		return "Float.NEGATIVE_INFINITY"
	}

	return withPoint(strconv.FormatFloat(float64(v), 'g', -1, 32)) + "F"
}

func doubleLiteral(v float64) string {
	switch {
	case math.IsNaN(v):
		return "Double.NaN"
	case math.IsInf(v, 1):
		return "Double.POSITIVE_INFINITY"
	case math.IsInf(v, -1):
		return "Double.NEGATIVE_INFINITY"
	}

	return withPoint(strconv.FormatFloat(v, 'g', -1, 64))
}

func withPoint(s string) string {
	if strings.ContainsAny(s, ".eEn") {
		return s
	}

	return s + ".0"
}

func longLiteral(v int64) string {
	return strconv.FormatInt(v, 10) + "L"
}

// constantLiteral renders a loadable constant pool entry.
func (d *Decompiler) constantLiteral(c *classfile.Constant) (string, classfile.FieldType, error) {
	pool := d.class.ConstantPool
	switch c.Tag {
	case classfile.TagInteger:
		return strconv.Itoa(int(c.Int)), "I", nil
	case classfile.TagFloat:
		return floatLiteral(c.Float), "F", nil
	case classfile.TagLong:
		return longLiteral(c.Long), "J", nil
	case classfile.TagDouble:
		return doubleLiteral(c.Double), "D", nil
	case classfile.TagString:
		s, err := pool.UTF8(c.Index)
		if err != nil {
			return "", "", err
		}
		return javaString(s), "Ljava/lang/String;", nil
	case classfile.TagClass:
		name, err := pool.UTF8(c.Index)
		if err != nil {
			return "", "", err
		}
		return d.names.className(name) + ".class", "Ljava/lang/Class;", nil
	case classfile.TagMethodType:
		desc, err := pool.UTF8(c.Index)
		if err != nil {
			return "", "", err
		}
		return "/* method type */ " + javaString(desc), "Ljava/lang/invoke/MethodType;", nil
	case classfile.TagMethodHandle:
		ref, err := pool.Ref(c.Index2)
		if err != nil {
			return "", "", err
		}
		return d.names.className(ref.Owner) + "::" + ref.Name, "Ljava/lang/invoke/MethodHandle;", nil
	default:
		return "", "", fmt.Errorf("constant of kind %s is not loadable", c.Tag)
	}
}

// coerceInt rewrites an int literal for boolean and char contexts.
func coerceInt(v int64, text string, t classfile.FieldType) string {
	switch t {
	case "Z":
		switch v {
		case 0:
			return "false"
		case 1:
			return "true"
		}
	case "C":
		if v >= 0x20 && v < 0xD800 && unicode.IsPrint(rune(v)) {
			return javaChar(rune(v))
		}
	}

	return text
}

// zeroValue is the default element value of an array of t.
func zeroValue(t classfile.FieldType) string {
	switch t {
	case "Z":
		return "false"
	case "J":
		return "0L"
	case "F":
		return "0.0F"
	case "D":
		return "0.0"
	case "C":
		return `'\u0000'`
	case "B", "S", "I":
		return "0"
	default:
		return "null"
	}
}
