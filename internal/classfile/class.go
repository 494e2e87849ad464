// Package classfile reads compiled JVM class files into a traversable form.
package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const magic = 0xCAFEBABE

// A FormatError reports that the input is not a valid class file.
type FormatError string

func (e FormatError) Error() string { return "classfile: invalid format: " + string(e) }

// AccessFlags is the access_flags bit set of a class, field or method.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSynchronized AccessFlags = 0x0020 // methods; ACC_SUPER on classes
	AccVolatile     AccessFlags = 0x0040 // fields; ACC_BRIDGE on methods
	AccTransient    AccessFlags = 0x0080 // fields; ACC_VARARGS on methods
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000

	AccBridge  = AccVolatile
	AccVarargs = AccTransient
)

// Has reports whether every bit of flag is set.
func (f AccessFlags) Has(flag AccessFlags) bool {
	return f&flag == flag
}

// Attribute is a raw attribute; its content is decoded on demand.
type Attribute struct {
	Name string
	Data []byte
}

// Member is a field_info or method_info structure.
type Member struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	Attributes  []Attribute
}

// Attribute returns the first attribute called name.
func (m *Member) Attribute(name string) (Attribute, bool) {
	return findAttribute(m.Attributes, name)
}

// Class is a parsed class file.
type Class struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// ReadFile reads and parses the class file at path.
func ReadFile(path string) (*Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes a complete class file held in data.
func Parse(data []byte) (*Class, error) {
	r := &reader{data: data}

	if m := r.u4(); r.err == nil && m != magic {
		return nil, FormatError(fmt.Sprintf("bad magic 0x%08X", m))
	}

	c := &Class{}
	c.MinorVersion = r.u2()
	c.MajorVersion = r.u2()
	if r.err != nil {
		return nil, r.err
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	c.ConstantPool = pool

	c.AccessFlags = AccessFlags(r.u2())
	c.ThisClass = r.u2()
	c.SuperClass = r.u2()
	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		c.Interfaces = append(c.Interfaces, r.u2())
	}
	if r.err != nil {
		return nil, r.err
	}

	if c.Fields, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("read fields: %w", err)
	}
	if c.Methods, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("read methods: %w", err)
	}
	if c.Attributes, err = readAttributes(r, pool); err != nil {
		return nil, fmt.Errorf("read class attributes: %w", err)
	}

	if r.off != len(data) {
		return nil, FormatError(fmt.Sprintf("%d trailing bytes", len(data)-r.off))
	}

	if _, err := c.Name(); err != nil {
		return nil, fmt.Errorf("resolve this_class: %w", err)
	}

	return c, nil
}

// Name returns the internal name of this class, e.g. "com/example/Hello".
func (c *Class) Name() (string, error) {
	return c.ConstantPool.ClassName(c.ThisClass)
}

// SuperName returns the internal name of the superclass, or "" for java/lang/Object.
func (c *Class) SuperName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}

	return c.ConstantPool.ClassName(c.SuperClass)
}

// InterfaceNames resolves the direct superinterfaces.
func (c *Class) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(c.Interfaces))
	for _, idx := range c.Interfaces {
		name, err := c.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}

// Attribute returns the first class attribute called name.
func (c *Class) Attribute(name string) (Attribute, bool) {
	return findAttribute(c.Attributes, name)
}

// SourceFile returns the SourceFile attribute value, if present.
func (c *Class) SourceFile() (string, bool) {
	attr, ok := c.Attribute("SourceFile")
	if !ok || len(attr.Data) != 2 {
		return "", false
	}

	name, err := c.ConstantPool.UTF8(binary.BigEndian.Uint16(attr.Data))
	if err != nil {
		return "", false
	}

	return name, true
}

func findAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, attr := range attrs {
		if attr.Name == name {
			return attr, true
		}
	}

	return Attribute{}, false
}

func readMembers(r *reader, pool ConstantPool) ([]Member, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}

	members := make([]Member, 0, count)
	for i := 0; i < count; i++ {
		var m Member
		m.AccessFlags = AccessFlags(r.u2())
		nameIdx := r.u2()
		descIdx := r.u2()
		if r.err != nil {
			return nil, r.err
		}

		var err error
		if m.Name, err = pool.UTF8(nameIdx); err != nil {
			return nil, fmt.Errorf("member %d name: %w", i, err)
		}
		if m.Descriptor, err = pool.UTF8(descIdx); err != nil {
			return nil, fmt.Errorf("member %d descriptor: %w", i, err)
		}
		if m.Attributes, err = readAttributes(r, pool); err != nil {
			return nil, fmt.Errorf("member %s attributes: %w", m.Name, err)
		}
		members = append(members, m)
	}

	return members, nil
}

func readAttributes(r *reader, pool ConstantPool) ([]Attribute, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}

	attrs := make([]Attribute, 0, count)
	for i := 0; i < count; i++ {
		nameIdx := r.u2()
		length := r.u4()
		data := r.bytes(int(length))
		if r.err != nil {
			return nil, r.err
		}

		name, err := pool.UTF8(nameIdx)
		if err != nil {
			return nil, fmt.Errorf("attribute %d name: %w", i, err)
		}
		attrs = append(attrs, Attribute{Name: name, Data: data})
	}

	return attrs, nil
}

// reader is a big-endian cursor; the first failure sticks in err.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || len(r.data)-r.off < n {
		r.err = fmt.Errorf("read %d bytes at offset %d: %w", n, r.off, io.ErrUnexpectedEOF)
		return false
	}

	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.off : r.off+n]
	r.off += n
	return v
}
