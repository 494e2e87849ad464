package classfile

import (
	"fmt"
	"math"
	"unicode/utf16"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

const (
	TagUTF8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

func (t Tag) String() string {
	switch t {
	case TagUTF8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Constant is a single constant pool entry. Only the fields relevant to Tag
// are populated.
type Constant struct {
	Tag Tag

	// Utf8
	String string
	// Integer, Float, Long, Double
	Int    int32
	Long   int64
	Float  float32
	Double float64

	// Class, String, MethodType, Module, Package: the referenced Utf8.
	// Fieldref/Methodref/InterfaceMethodref: the Class entry.
	// Dynamic/InvokeDynamic: the bootstrap method attribute index.
	// MethodHandle: the reference kind.
	Index uint16
	// Fieldref/Methodref/InterfaceMethodref/Dynamic/InvokeDynamic: NameAndType.
	// NameAndType: descriptor Utf8. MethodHandle: the reference entry.
	Index2 uint16
}

// ConstantPool is indexed the way the JVM indexes it: entry 0 is unused and
// the slot after a Long or Double is empty.
type ConstantPool []*Constant

func readConstantPool(r *reader) (ConstantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	if count == 0 {
		return nil, FormatError("constant_pool_count is zero")
	}

	pool := make(ConstantPool, count)
	for i := 1; i < count; i++ {
		c := &Constant{Tag: Tag(r.u1())}
		switch c.Tag {
		case TagUTF8:
			n := int(r.u2())
			c.String = decodeModifiedUTF8(r.bytes(n))
		case TagInteger:
			c.Int = int32(r.u4())
		case TagFloat:
			c.Float = math.Float32frombits(r.u4())
		case TagLong:
			hi, lo := r.u4(), r.u4()
			c.Long = int64(uint64(hi)<<32 | uint64(lo))
		case TagDouble:
			hi, lo := r.u4(), r.u4()
			c.Double = math.Float64frombits(uint64(hi)<<32 | uint64(lo))
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			c.Index = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType,
			TagDynamic, TagInvokeDynamic:
			c.Index = r.u2()
			c.Index2 = r.u2()
		case TagMethodHandle:
			c.Index = uint16(r.u1())
			c.Index2 = r.u2()
		default:
			if r.err != nil {
				return nil, r.err
			}
			return nil, FormatError(fmt.Sprintf("unknown constant pool tag %d at index %d", c.Tag, i))
		}
		if r.err != nil {
			return nil, r.err
		}

		pool[i] = c
		if c.Tag == TagLong || c.Tag == TagDouble {
			i++
		}
	}

	return pool, nil
}

// Get returns entry idx, checking bounds and the expected tag.
func (p ConstantPool) Get(idx uint16, want Tag) (*Constant, error) {
	if int(idx) >= len(p) || p[idx] == nil {
		return nil, FormatError(fmt.Sprintf("constant pool index %d out of range", idx))
	}

	c := p[idx]
	if c.Tag != want {
		return nil, FormatError(fmt.Sprintf("constant pool index %d is %s, want %s", idx, c.Tag, want))
	}

	return c, nil
}

// Entry returns entry idx regardless of tag.
func (p ConstantPool) Entry(idx uint16) (*Constant, error) {
	if int(idx) >= len(p) || p[idx] == nil {
		return nil, FormatError(fmt.Sprintf("constant pool index %d out of range", idx))
	}

	return p[idx], nil
}

func (p ConstantPool) UTF8(idx uint16) (string, error) {
	c, err := p.Get(idx, TagUTF8)
	if err != nil {
		return "", err
	}

	return c.String, nil
}

// ClassName resolves a Class entry to its internal name.
func (p ConstantPool) ClassName(idx uint16) (string, error) {
	c, err := p.Get(idx, TagClass)
	if err != nil {
		return "", err
	}

	return p.UTF8(c.Index)
}

func (p ConstantPool) NameAndType(idx uint16) (name, descriptor string, err error) {
	c, err := p.Get(idx, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.UTF8(c.Index); err != nil {
		return "", "", err
	}
	if descriptor, err = p.UTF8(c.Index2); err != nil {
		return "", "", err
	}

	return name, descriptor, nil
}

// MemberRef is a resolved Fieldref, Methodref or InterfaceMethodref.
type MemberRef struct {
	Tag        Tag
	Owner      string
	Name       string
	Descriptor string
}

// Ref resolves a field or method reference.
func (p ConstantPool) Ref(idx uint16) (MemberRef, error) {
	c, err := p.Entry(idx)
	if err != nil {
		return MemberRef{}, err
	}
	switch c.Tag {
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
	default:
		return MemberRef{}, FormatError(fmt.Sprintf("constant pool index %d is %s, want a member reference", idx, c.Tag))
	}

	owner, err := p.ClassName(c.Index)
	if err != nil {
		return MemberRef{}, err
	}
	name, desc, err := p.NameAndType(c.Index2)
	if err != nil {
		return MemberRef{}, err
	}

	return MemberRef{Tag: c.Tag, Owner: owner, Name: name, Descriptor: desc}, nil
}

// MethodHandle is a resolved CONSTANT_MethodHandle.
type MethodHandle struct {
	Kind uint8
	Ref  MemberRef
}

func (p ConstantPool) MethodHandle(idx uint16) (MethodHandle, error) {
	c, err := p.Get(idx, TagMethodHandle)
	if err != nil {
		return MethodHandle{}, err
	}

	ref, err := p.Ref(c.Index2)
	if err != nil {
		return MethodHandle{}, err
	}

	return MethodHandle{Kind: uint8(c.Index), Ref: ref}, nil
}

// DynamicRef is a resolved CONSTANT_Dynamic or CONSTANT_InvokeDynamic.
type DynamicRef struct {
	BootstrapIndex uint16
	Name           string
	Descriptor     string
}

func (p ConstantPool) Dynamic(idx uint16) (DynamicRef, error) {
	c, err := p.Entry(idx)
	if err != nil {
		return DynamicRef{}, err
	}
	if c.Tag != TagInvokeDynamic && c.Tag != TagDynamic {
		return DynamicRef{}, FormatError(fmt.Sprintf("constant pool index %d is %s, want a dynamic constant", idx, c.Tag))
	}

	name, desc, err := p.NameAndType(c.Index2)
	if err != nil {
		return DynamicRef{}, err
	}

	return DynamicRef{BootstrapIndex: c.Index, Name: name, Descriptor: desc}, nil
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8, where NUL is encoded in
// two bytes and supplementary characters as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, 0xFFFD)
			i++
		}
	}

	return string(utf16.Decode(units))
}
