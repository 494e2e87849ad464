// Package classfiletest assembles small but valid class files for tests.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/jdecomp/jdecomp/internal/classfile"
)

// Method describes a method_info to emit.
type Method struct {
	Access     classfile.AccessFlags
	Name       string
	Descriptor string
	MaxStack   int
	MaxLocals  int
	Code       []byte // nil emits no Code attribute
	Lines      []classfile.LineNumber
	Locals     []classfile.LocalVariable
	Handlers   []classfile.ExceptionHandler
	Exceptions []string
}

// Builder accumulates a constant pool and members, then serializes them.
type Builder struct {
	pool    [][]byte
	index   map[string]uint16
	access  classfile.AccessFlags
	this    uint16
	super   uint16
	ifaces  []uint16
	fields  [][]byte
	methods [][]byte
	attrs   [][]byte
	major   uint16

	bootstrap [][]byte
}

// New starts a public class with the given internal names. An empty super
// produces a class without a superclass, as java/lang/Object has.
func New(name, super string) *Builder {
	b := &Builder{
		index:  map[string]uint16{},
		access: classfile.AccPublic | classfile.AccSynchronized,
		major:  52,
	}
	b.this = b.Class(name)
	if super != "" {
		b.super = b.Class(super)
	}

	return b
}

func (b *Builder) SetAccess(flags classfile.AccessFlags) { b.access = flags }

func (b *Builder) SetMajorVersion(v uint16) { b.major = v }

func (b *Builder) AddInterface(name string) {
	b.ifaces = append(b.ifaces, b.Class(name))
}

func (b *Builder) add(key string, entry []byte, slots int) uint16 {
	if idx, ok := b.index[key]; ok {
		return idx
	}

	b.pool = append(b.pool, entry)
	idx := uint16(len(b.pool))
	if slots == 2 {
		b.pool = append(b.pool, nil)
	}
	b.index[key] = idx

	return idx
}

func (b *Builder) UTF8(s string) uint16 {
	buf := []byte{byte(classfile.TagUTF8)}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	buf = append(buf, s...)
	return b.add("u:"+s, buf, 1)
}

func (b *Builder) Class(name string) uint16 {
	return b.ref2("c:"+name, classfile.TagClass, b.UTF8(name))
}

func (b *Builder) StringConst(s string) uint16 {
	return b.ref2("s:"+s, classfile.TagString, b.UTF8(s))
}

func (b *Builder) Integer(v int32) uint16 {
	buf := binary.BigEndian.AppendUint32([]byte{byte(classfile.TagInteger)}, uint32(v))
	return b.add("i:"+string(buf), buf, 1)
}

func (b *Builder) Float(v float32) uint16 {
	buf := binary.BigEndian.AppendUint32([]byte{byte(classfile.TagFloat)}, math.Float32bits(v))
	return b.add("f:"+string(buf), buf, 1)
}

func (b *Builder) Long(v int64) uint16 {
	buf := binary.BigEndian.AppendUint64([]byte{byte(classfile.TagLong)}, uint64(v))
	return b.add("j:"+string(buf), buf, 2)
}

func (b *Builder) Double(v float64) uint16 {
	buf := binary.BigEndian.AppendUint64([]byte{byte(classfile.TagDouble)}, math.Float64bits(v))
	return b.add("d:"+string(buf), buf, 2)
}

func (b *Builder) NameAndType(name, desc string) uint16 {
	n, d := b.UTF8(name), b.UTF8(desc)
	buf := []byte{byte(classfile.TagNameAndType)}
	buf = binary.BigEndian.AppendUint16(buf, n)
	buf = binary.BigEndian.AppendUint16(buf, d)
	return b.add("nt:"+name+":"+desc, buf, 1)
}

func (b *Builder) Fieldref(owner, name, desc string) uint16 {
	return b.memberRef(classfile.TagFieldref, owner, name, desc)
}

func (b *Builder) Methodref(owner, name, desc string) uint16 {
	return b.memberRef(classfile.TagMethodref, owner, name, desc)
}

func (b *Builder) InterfaceMethodref(owner, name, desc string) uint16 {
	return b.memberRef(classfile.TagInterfaceMethodref, owner, name, desc)
}

func (b *Builder) memberRef(tag classfile.Tag, owner, name, desc string) uint16 {
	c, nt := b.Class(owner), b.NameAndType(name, desc)
	buf := []byte{byte(tag)}
	buf = binary.BigEndian.AppendUint16(buf, c)
	buf = binary.BigEndian.AppendUint16(buf, nt)
	return b.add("r:"+tag.String()+":"+owner+"."+name+":"+desc, buf, 1)
}

// MethodHandle adds a CONSTANT_MethodHandle of the given reference kind.
func (b *Builder) MethodHandle(kind uint8, ref uint16) uint16 {
	buf := []byte{byte(classfile.TagMethodHandle), kind}
	buf = binary.BigEndian.AppendUint16(buf, ref)
	return b.add("mh:"+string(buf), buf, 1)
}

func (b *Builder) MethodType(desc string) uint16 {
	return b.ref2("mt:"+desc, classfile.TagMethodType, b.UTF8(desc))
}

// InvokeDynamic adds a call site bound to bootstrap method bsm.
func (b *Builder) InvokeDynamic(bsm uint16, name, desc string) uint16 {
	nt := b.NameAndType(name, desc)
	buf := []byte{byte(classfile.TagInvokeDynamic)}
	buf = binary.BigEndian.AppendUint16(buf, bsm)
	buf = binary.BigEndian.AppendUint16(buf, nt)
	return b.add("indy:"+string(buf), buf, 1)
}

// AddBootstrapMethod appends a BootstrapMethods entry and returns its index.
func (b *Builder) AddBootstrapMethod(handle uint16, args ...uint16) uint16 {
	entry := binary.BigEndian.AppendUint16(nil, handle)
	entry = binary.BigEndian.AppendUint16(entry, uint16(len(args)))
	for _, a := range args {
		entry = binary.BigEndian.AppendUint16(entry, a)
	}
	b.bootstrap = append(b.bootstrap, entry)

	return uint16(len(b.bootstrap) - 1)
}

func (b *Builder) ref2(key string, tag classfile.Tag, idx uint16) uint16 {
	buf := binary.BigEndian.AppendUint16([]byte{byte(tag)}, idx)
	return b.add(key, buf, 1)
}

// SourceFile adds a SourceFile attribute.
func (b *Builder) SourceFile(name string) {
	b.attrs = append(b.attrs, b.attribute("SourceFile", binary.BigEndian.AppendUint16(nil, b.UTF8(name))))
}

// AddField adds a field; constValue is a pool index or 0.
func (b *Builder) AddField(access classfile.AccessFlags, name, desc string, constValue uint16) {
	var attrs [][]byte
	if constValue != 0 {
		attrs = append(attrs, b.attribute("ConstantValue", binary.BigEndian.AppendUint16(nil, constValue)))
	}
	b.fields = append(b.fields, b.member(access, name, desc, attrs))
}

func (b *Builder) AddMethod(m Method) {
	var attrs [][]byte
	if m.Code != nil {
		attrs = append(attrs, b.codeAttribute(m))
	}
	if len(m.Exceptions) > 0 {
		data := binary.BigEndian.AppendUint16(nil, uint16(len(m.Exceptions)))
		for _, e := range m.Exceptions {
			data = binary.BigEndian.AppendUint16(data, b.Class(e))
		}
		attrs = append(attrs, b.attribute("Exceptions", data))
	}
	b.methods = append(b.methods, b.member(m.Access, m.Name, m.Descriptor, attrs))
}

func (b *Builder) codeAttribute(m Method) []byte {
	var data []byte
	data = binary.BigEndian.AppendUint16(data, uint16(m.MaxStack))
	data = binary.BigEndian.AppendUint16(data, uint16(m.MaxLocals))
	data = binary.BigEndian.AppendUint32(data, uint32(len(m.Code)))
	data = append(data, m.Code...)

	data = binary.BigEndian.AppendUint16(data, uint16(len(m.Handlers)))
	for _, h := range m.Handlers {
		data = binary.BigEndian.AppendUint16(data, uint16(h.StartPC))
		data = binary.BigEndian.AppendUint16(data, uint16(h.EndPC))
		data = binary.BigEndian.AppendUint16(data, uint16(h.HandlerPC))
		var catch uint16
		if h.CatchType != "" {
			catch = b.Class(h.CatchType)
		}
		data = binary.BigEndian.AppendUint16(data, catch)
	}

	var attrs [][]byte
	if len(m.Lines) > 0 {
		lnt := binary.BigEndian.AppendUint16(nil, uint16(len(m.Lines)))
		for _, ln := range m.Lines {
			lnt = binary.BigEndian.AppendUint16(lnt, uint16(ln.StartPC))
			lnt = binary.BigEndian.AppendUint16(lnt, uint16(ln.Line))
		}
		attrs = append(attrs, b.attribute("LineNumberTable", lnt))
	}
	if len(m.Locals) > 0 {
		lvt := binary.BigEndian.AppendUint16(nil, uint16(len(m.Locals)))
		for _, v := range m.Locals {
			lvt = binary.BigEndian.AppendUint16(lvt, uint16(v.StartPC))
			lvt = binary.BigEndian.AppendUint16(lvt, uint16(v.Length))
			lvt = binary.BigEndian.AppendUint16(lvt, b.UTF8(v.Name))
			lvt = binary.BigEndian.AppendUint16(lvt, b.UTF8(v.Descriptor))
			lvt = binary.BigEndian.AppendUint16(lvt, uint16(v.Slot))
		}
		attrs = append(attrs, b.attribute("LocalVariableTable", lvt))
	}

	data = binary.BigEndian.AppendUint16(data, uint16(len(attrs)))
	for _, a := range attrs {
		data = append(data, a...)
	}

	return b.attribute("Code", data)
}

func (b *Builder) member(access classfile.AccessFlags, name, desc string, attrs [][]byte) []byte {
	var buf []byte
	buf = binary.BigEndian.AppendUint16(buf, uint16(access))
	buf = binary.BigEndian.AppendUint16(buf, b.UTF8(name))
	buf = binary.BigEndian.AppendUint16(buf, b.UTF8(desc))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(attrs)))
	for _, a := range attrs {
		buf = append(buf, a...)
	}

	return buf
}

func (b *Builder) attribute(name string, data []byte) []byte {
	buf := binary.BigEndian.AppendUint16(nil, b.UTF8(name))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	attrs := b.attrs
	if len(b.bootstrap) > 0 {
		data := binary.BigEndian.AppendUint16(nil, uint16(len(b.bootstrap)))
		for _, entry := range b.bootstrap {
			data = append(data, entry...)
		}
		// the attribute name joins the pool before the pool is written
		attrs = append(attrs[:len(attrs):len(attrs)], b.attribute("BootstrapMethods", data))
	}

	var out bytes.Buffer
	w := func(v any) { _ = binary.Write(&out, binary.BigEndian, v) }

	w(uint32(0xCAFEBABE))
	w(uint16(0))
	w(b.major)
	w(uint16(len(b.pool) + 1))
	for _, entry := range b.pool {
		out.Write(entry)
	}
	w(uint16(b.access))
	w(b.this)
	w(b.super)
	w(uint16(len(b.ifaces)))
	for _, i := range b.ifaces {
		w(i)
	}
	for _, group := range [][][]byte{b.fields, b.methods} {
		w(uint16(len(group)))
		for _, m := range group {
			out.Write(m)
		}
	}
	w(uint16(len(attrs)))
	for _, a := range attrs {
		out.Write(a)
	}

	return out.Bytes()
}
