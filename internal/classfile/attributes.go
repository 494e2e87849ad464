package classfile

import (
	"fmt"
	"sort"
)

// ExceptionHandler is one exception_table entry of a Code attribute.
// CatchType is "" for finally handlers.
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType string
}

// LineNumber maps a bytecode offset to a source line.
type LineNumber struct {
	StartPC int
	Line    int
}

// LocalVariable is a LocalVariableTable entry.
type LocalVariable struct {
	StartPC    int
	Length     int
	Name       string
	Descriptor string
	Slot       int
}

// Covers reports whether pc lies in the variable's live range.
func (v LocalVariable) Covers(pc int) bool {
	return pc >= v.StartPC && pc < v.StartPC+v.Length
}

// Code is a decoded Code attribute.
type Code struct {
	MaxStack       int
	MaxLocals      int
	Bytecode       []byte
	Handlers       []ExceptionHandler
	LineNumbers    []LineNumber
	LocalVariables []LocalVariable
	Attributes     []Attribute
}

// Code decodes the method's Code attribute. It returns nil, nil for abstract
// and native methods.
func (c *Class) Code(m *Member) (*Code, error) {
	attr, ok := m.Attribute("Code")
	if !ok {
		return nil, nil
	}

	r := &reader{data: attr.Data}
	code := &Code{
		MaxStack:  int(r.u2()),
		MaxLocals: int(r.u2()),
	}
	length := int(r.u4())
	code.Bytecode = r.bytes(length)

	handlers := int(r.u2())
	for i := 0; i < handlers && r.err == nil; i++ {
		h := ExceptionHandler{
			StartPC:   int(r.u2()),
			EndPC:     int(r.u2()),
			HandlerPC: int(r.u2()),
		}
		catchIdx := r.u2()
		if r.err != nil {
			break
		}
		if catchIdx != 0 {
			name, err := c.ConstantPool.ClassName(catchIdx)
			if err != nil {
				return nil, fmt.Errorf("%s exception handler %d: %w", m.Name, i, err)
			}
			h.CatchType = name
		}
		code.Handlers = append(code.Handlers, h)
	}
	if r.err != nil {
		return nil, fmt.Errorf("%s code attribute: %w", m.Name, r.err)
	}

	attrs, err := readAttributes(r, c.ConstantPool)
	if err != nil {
		return nil, fmt.Errorf("%s code attributes: %w", m.Name, err)
	}
	code.Attributes = attrs

	for _, a := range attrs {
		switch a.Name {
		case "LineNumberTable":
			lines, err := decodeLineNumbers(a.Data)
			if err != nil {
				return nil, fmt.Errorf("%s line number table: %w", m.Name, err)
			}
			code.LineNumbers = append(code.LineNumbers, lines...)
		case "LocalVariableTable":
			vars, err := c.decodeLocalVariables(a.Data)
			if err != nil {
				return nil, fmt.Errorf("%s local variable table: %w", m.Name, err)
			}
			code.LocalVariables = append(code.LocalVariables, vars...)
		}
	}

	sort.SliceStable(code.LineNumbers, func(i, j int) bool {
		return code.LineNumbers[i].StartPC < code.LineNumbers[j].StartPC
	})

	return code, nil
}

// LineAt returns the source line for the instruction at pc, or 0.
func (c *Code) LineAt(pc int) int {
	line := 0
	for _, ln := range c.LineNumbers {
		if ln.StartPC > pc {
			break
		}
		line = ln.Line
	}

	return line
}

// LineRange returns the smallest and largest line in the table.
func (c *Code) LineRange() (first, last int) {
	for _, ln := range c.LineNumbers {
		if first == 0 || ln.Line < first {
			first = ln.Line
		}
		if ln.Line > last {
			last = ln.Line
		}
	}

	return first, last
}

// LocalAt finds the named local variable occupying slot at pc.
func (c *Code) LocalAt(slot, pc int) (LocalVariable, bool) {
	for _, v := range c.LocalVariables {
		if v.Slot == slot && v.Covers(pc) {
			return v, true
		}
	}

	return LocalVariable{}, false
}

func decodeLineNumbers(data []byte) ([]LineNumber, error) {
	r := &reader{data: data}
	n := int(r.u2())
	lines := make([]LineNumber, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		lines = append(lines, LineNumber{StartPC: int(r.u2()), Line: int(r.u2())})
	}

	return lines, r.err
}

func (c *Class) decodeLocalVariables(data []byte) ([]LocalVariable, error) {
	r := &reader{data: data}
	n := int(r.u2())
	vars := make([]LocalVariable, 0, n)
	for i := 0; i < n; i++ {
		start, length := r.u2(), r.u2()
		nameIdx, descIdx := r.u2(), r.u2()
		slot := r.u2()
		if r.err != nil {
			return nil, r.err
		}

		name, err := c.ConstantPool.UTF8(nameIdx)
		if err != nil {
			return nil, err
		}
		desc, err := c.ConstantPool.UTF8(descIdx)
		if err != nil {
			return nil, err
		}
		vars = append(vars, LocalVariable{
			StartPC:    int(start),
			Length:     int(length),
			Name:       name,
			Descriptor: desc,
			Slot:       int(slot),
		})
	}

	return vars, nil
}

// ConstantValue returns the constant pool entry of a field's ConstantValue
// attribute.
func (c *Class) ConstantValue(f *Member) (*Constant, bool) {
	attr, ok := f.Attribute("ConstantValue")
	if !ok || len(attr.Data) != 2 {
		return nil, false
	}

	entry, err := c.ConstantPool.Entry(uint16(attr.Data[0])<<8 | uint16(attr.Data[1]))
	if err != nil {
		return nil, false
	}

	return entry, true
}

// Exceptions returns the checked exceptions a method declares.
func (c *Class) Exceptions(m *Member) ([]string, error) {
	attr, ok := m.Attribute("Exceptions")
	if !ok {
		return nil, nil
	}

	r := &reader{data: attr.Data}
	n := int(r.u2())
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := r.u2()
		if r.err != nil {
			return nil, r.err
		}
		name, err := c.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}

// BootstrapMethod is a BootstrapMethods attribute entry.
type BootstrapMethod struct {
	MethodRef uint16
	Arguments []uint16
}

// BootstrapMethods decodes the class-level BootstrapMethods attribute.
func (c *Class) BootstrapMethods() ([]BootstrapMethod, error) {
	attr, ok := c.Attribute("BootstrapMethods")
	if !ok {
		return nil, nil
	}

	r := &reader{data: attr.Data}
	n := int(r.u2())
	methods := make([]BootstrapMethod, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		bm := BootstrapMethod{MethodRef: r.u2()}
		argc := int(r.u2())
		for j := 0; j < argc && r.err == nil; j++ {
			bm.Arguments = append(bm.Arguments, r.u2())
		}
		methods = append(methods, bm)
	}
	if r.err != nil {
		return nil, fmt.Errorf("bootstrap methods: %w", r.err)
	}

	return methods, nil
}
