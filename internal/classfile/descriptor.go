package classfile

import (
	"fmt"
	"strings"
)

// FieldType is a single field descriptor such as "I" or "[Ljava/lang/String;".
type FieldType string

// Void is the return descriptor of methods returning nothing.
const Void FieldType = "V"

// Size returns the number of local/stack slots the type occupies.
func (t FieldType) Size() int {
	switch t {
	case "J", "D":
		return 2
	case Void:
		return 0
	default:
		return 1
	}
}

// IsReference reports whether t is a class or array type.
func (t FieldType) IsReference() bool {
	return strings.HasPrefix(string(t), "L") || strings.HasPrefix(string(t), "[")
}

// ArrayDims returns the number of leading '[' and the element type.
func (t FieldType) ArrayDims() (int, FieldType) {
	s := string(t)
	n := 0
	for n < len(s) && s[n] == '[' {
		n++
	}

	return n, FieldType(s[n:])
}

// ClassName returns the internal name of a class type, or "".
func (t FieldType) ClassName() string {
	s := string(t)
	if len(s) > 2 && s[0] == 'L' && s[len(s)-1] == ';' {
		return s[1 : len(s)-1]
	}

	return ""
}

// ObjectType builds the descriptor of the class with the given internal name.
// Array class names (from CONSTANT_Class) are already descriptors.
func ObjectType(internalName string) FieldType {
	if strings.HasPrefix(internalName, "[") {
		return FieldType(internalName)
	}

	return FieldType("L" + internalName + ";")
}

// MethodDescriptor is a parsed method descriptor.
type MethodDescriptor struct {
	Params []FieldType
	Return FieldType
}

// ArgSlots returns the number of local slots the parameters occupy.
func (d MethodDescriptor) ArgSlots() int {
	n := 0
	for _, p := range d.Params {
		n += p.Size()
	}

	return n
}

// ParseFieldType parses exactly one field descriptor.
func ParseFieldType(desc string) (FieldType, error) {
	t, rest, err := nextFieldType(desc)
	if err != nil {
		return "", err
	}
	if rest != "" {
		return "", FormatError(fmt.Sprintf("trailing data in field descriptor %q", desc))
	}

	return t, nil
}

// ParseMethodDescriptor parses a descriptor such as "(I[Ljava/lang/String;)V".
func ParseMethodDescriptor(desc string) (MethodDescriptor, error) {
	if !strings.HasPrefix(desc, "(") {
		return MethodDescriptor{}, FormatError(fmt.Sprintf("method descriptor %q does not start with '('", desc))
	}

	var md MethodDescriptor
	rest := desc[1:]
	for !strings.HasPrefix(rest, ")") {
		t, next, err := nextFieldType(rest)
		if err != nil {
			return MethodDescriptor{}, fmt.Errorf("method descriptor %q: %w", desc, err)
		}
		md.Params = append(md.Params, t)
		rest = next
	}
	rest = rest[1:]

	if rest == string(Void) {
		md.Return = Void
		return md, nil
	}

	ret, err := ParseFieldType(rest)
	if err != nil {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q: %w", desc, err)
	}
	md.Return = ret

	return md, nil
}

func nextFieldType(s string) (FieldType, string, error) {
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return "", "", FormatError(fmt.Sprintf("incomplete descriptor %q", s))
	}

	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return FieldType(s[:i+1]), s[i+1:], nil
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end <= 1 {
			return "", "", FormatError(fmt.Sprintf("unterminated class descriptor %q", s))
		}
		end += i
		return FieldType(s[:end+1]), s[end+1:], nil
	default:
		return "", "", FormatError(fmt.Sprintf("bad descriptor character %q in %q", s[i], s))
	}
}
