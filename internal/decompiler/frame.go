package decompiler

import (
	"fmt"

	"github.com/jdecomp/jdecomp/internal/classfile"
)

// frame names the local variable slots of one method. Names come from the
// LocalVariableTable when present, otherwise this, argN for parameters and
// localN for everything else.
type frame struct {
	code       *classfile.Code
	static     bool
	this       classfile.FieldType
	params     map[int]int
	paramTypes map[int]classfile.FieldType
	vars       map[int]slotVar
	reuses     map[int]int
	declared   map[string]bool
	count      int
}

func newFrame(m *classfile.Member, desc classfile.MethodDescriptor, code *classfile.Code, owner string) *frame {
	f := &frame{
		code:       code,
		static:     m.AccessFlags.Has(classfile.AccStatic),
		this:       classfile.ObjectType(owner),
		params:     map[int]int{},
		paramTypes: map[int]classfile.FieldType{},
		vars:       map[int]slotVar{},
		reuses:     map[int]int{},
		declared:   map[string]bool{},
		count:      len(desc.Params),
	}

	slot := 0
	if !f.static {
		f.declared[declKey("this", 0)] = true
		slot = 1
	}
	for i, p := range desc.Params {
		f.params[slot] = i
		f.paramTypes[slot] = p
		slot += p.Size()
	}
	for s := range f.params {
		name, _ := f.load(s, 0)
		f.declared[declKey(name, s)] = true
	}

	return f
}

func declKey(name string, slot int) string {
	return fmt.Sprintf("%s#%d", name, slot)
}

func (f *frame) lookup(slot, pc int) (classfile.LocalVariable, bool) {
	if f.code == nil {
		return classfile.LocalVariable{}, false
	}

	return f.code.LocalAt(slot, pc)
}

// paramNames lists the parameter names in declaration order.
func (f *frame) paramNames() []string {
	names := make([]string, f.count)
	for slot, i := range f.params {
		names[i], _ = f.load(slot, 0)
	}

	return names
}

// load names the variable read from slot at pc.
func (f *frame) load(slot, pc int) (string, classfile.FieldType) {
	if v, ok := f.lookup(slot, pc); ok {
		return v.Name, classfile.FieldType(v.Descriptor)
	}
	if !f.static && slot == 0 {
		return "this", f.this
	}
	if i, ok := f.params[slot]; ok {
		return fmt.Sprintf("arg%d", i), f.paramTypes[slot]
	}

	if v, ok := f.vars[slot]; ok {
		return v.name, v.typ
	}

	return fmt.Sprintf("local%d", slot), ""
}

// store names the variable written by the instruction at pc. A variable
// table entry usually starts right after its first store, so next is tried
// first. declare is set on the first store to a variable; fallback is the
// type to declare it with when the table does not say.
func (f *frame) store(slot, pc, next int, fallback classfile.FieldType) (name string, typ classfile.FieldType, declare bool) {
	v, ok := f.lookup(slot, next)
	if !ok {
		v, ok = f.lookup(slot, pc)
	}

	switch {
	case ok:
		name, typ = v.Name, classfile.FieldType(v.Descriptor)
	case !f.static && slot == 0:
		name, typ = "this", f.this
	default:
		if i, isParam := f.params[slot]; isParam {
			name, typ = fmt.Sprintf("arg%d", i), f.paramTypes[slot]
			break
		}
		name, typ = f.localVar(slot, fallback)
	}

	key := declKey(name, slot)
	declare = !f.declared[key]
	f.declared[key] = true

	return name, typ, declare
}

// slotVar is the variable a slot without table entries currently holds.
type slotVar struct {
	name string
	typ  classfile.FieldType
}

// localVar names the variable stored to a slot without table entries. The
// slot keeps its variable while values of the same kind are stored; a value
// of another kind starts a new one, named local3_1, local3_2 and so on.
func (f *frame) localVar(slot int, typ classfile.FieldType) (string, classfile.FieldType) {
	v, ok := f.vars[slot]
	if ok && kindOf(v.typ) == kindOf(typ) {
		return v.name, v.typ
	}

	v = slotVar{name: fmt.Sprintf("local%d", slot), typ: typ}
	if ok {
		f.reuses[slot]++
		v.name = fmt.Sprintf("local%d_%d", slot, f.reuses[slot])
	}
	f.vars[slot] = v

	return v.name, v.typ
}

// kindOf groups the types that can share a slot variable: the int-like
// primitives, references, and each of long, float and double.
func kindOf(t classfile.FieldType) byte {
	if t == "" {
		return 'L'
	}
	switch c := t[0]; c {
	case 'Z', 'B', 'C', 'S', 'I':
		return 'I'
	case 'L', '[':
		return 'L'
	default:
		return c
	}
}
