// Package decompiler turns a parsed class file into a tree of source blocks
// whose lines read like Java. Method bodies are linear pseudo-code: control
// flow is rendered with labels and gotos rather than structured statements.
package decompiler

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/domain"
	"github.com/jdecomp/jdecomp/internal/ports"
)

// Java is the only output language.
const Java = "java"

type Decompiler struct {
	class     *classfile.Class
	loader    ports.ClassLoader
	logger    *zap.Logger
	name      string
	super     string
	names     *typeNamer
	bootstrap []classfile.BootstrapMethod

	once   sync.Once
	blocks *domain.BlockList
	err    error
}

type Option func(*Decompiler)

// WithLogger sets the logger used for diagnostics such as unresolved imports.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decompiler) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New prepares a decompiler for class. The loader may be nil, in which case
// imports are not checked against a class path.
func New(language string, class *classfile.Class, loader ports.ClassLoader, opts ...Option) (*Decompiler, error) {
	if !strings.EqualFold(language, Java) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, language)
	}
	if class == nil {
		return nil, fmt.Errorf("decompile: nil class")
	}

	name, err := class.Name()
	if err != nil {
		return nil, fmt.Errorf("resolve class name: %w", err)
	}
	super, err := class.SuperName()
	if err != nil {
		return nil, fmt.Errorf("resolve superclass: %w", err)
	}
	bootstrap, err := class.BootstrapMethods()
	if err != nil {
		return nil, err
	}

	d := &Decompiler{
		class:     class,
		loader:    loader,
		logger:    zap.NewNop(),
		name:      name,
		super:     super,
		names:     newTypeNamer(name, loader),
		bootstrap: bootstrap,
	}
	d.names.reservePackage(class.ConstantPool)
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// BlockList builds the source tree on first use and returns the same list on
// later calls, so corrections applied by the caller are kept.
func (d *Decompiler) BlockList() (*domain.BlockList, error) {
	d.once.Do(func() {
		root, err := d.build()
		if err != nil {
			d.err = err
			return
		}
		d.blocks = domain.NewBlockList(root)
	})

	return d.blocks, d.err
}

func (d *Decompiler) build() (*domain.SourceBlock, error) {
	class, err := d.classBlock()
	if err != nil {
		return nil, err
	}

	root := &domain.SourceBlock{Kind: domain.BlockFile}
	if pkg := packageOf(d.name); pkg != "" {
		root.Add(domain.NewLeaf(domain.BlockPackage, "package "+qualifiedName(pkg)+";", 0))
	}

	lines, unresolved := d.names.importLines()
	if len(lines) > 0 {
		imports := &domain.SourceBlock{Kind: domain.BlockImports}
		for _, line := range lines {
			imports.Add(domain.NewLeaf(domain.BlockImport, line, 0))
		}
		root.Add(imports)
	}
	for _, name := range unresolved {
		d.logger.Warn("unresolved import", zap.String("class", d.name), zap.String("import", qualifiedName(name)))
	}

	root.Add(class)

	return root, nil
}

// declName is the name a class or constructor is declared with: the part
// after the last '$' for nested classes.
func (d *Decompiler) declName() string {
	base := path.Base(d.name)
	if i := strings.LastIndexByte(base, '$'); i >= 0 && i < len(base)-1 {
		return base[i+1:]
	}

	return base
}

func (d *Decompiler) isInterface() bool {
	return d.class.AccessFlags.Has(classfile.AccInterface)
}

func (d *Decompiler) classBlock() (*domain.SourceBlock, error) {
	mods, keyword := classModifiers(d.class.AccessFlags)
	header := strings.Join(append(mods, keyword, d.declName()), " ")

	if d.super != "" && d.super != "java/lang/Object" && keyword == "class" {
		header += " extends " + d.names.className(d.super)
	}

	ifaces, err := d.class.InterfaceNames()
	if err != nil {
		return nil, fmt.Errorf("resolve interfaces: %w", err)
	}
	var shown []string
	for _, iface := range ifaces {
		if keyword == "@interface" && iface == "java/lang/annotation/Annotation" {
			continue
		}
		shown = append(shown, d.names.className(iface))
	}
	if len(shown) > 0 {
		verb := " implements "
		if keyword == "interface" || keyword == "@interface" {
			verb = " extends "
		}
		header += verb + strings.Join(shown, ", ")
	}

	block := &domain.SourceBlock{
		Kind:   domain.BlockClass,
		Header: &domain.SourceLine{Text: header + " {"},
		Footer: &domain.SourceLine{Text: "}"},
	}

	for i := range d.class.Fields {
		field, err := d.fieldBlock(&d.class.Fields[i])
		if err != nil {
			return nil, err
		}
		block.Add(field)
	}

	for i := range d.class.Methods {
		m := &d.class.Methods[i]
		method, err := d.methodBlock(m)
		if err != nil {
			return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
		}
		block.Add(method)
	}

	return block, nil
}

func (d *Decompiler) fieldBlock(f *classfile.Member) (*domain.SourceBlock, error) {
	t, err := classfile.ParseFieldType(f.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}

	parts := append(fieldModifiers(f.AccessFlags), d.names.fieldType(t), f.Name)
	text := strings.Join(parts, " ")

	if c, ok := d.class.ConstantValue(f); ok {
		lit, _, err := d.constantLiteral(c)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if c.Tag == classfile.TagInteger {
			lit = coerceInt(int64(c.Int), lit, t)
		}
		text += " = " + lit
	}

	return domain.NewLeaf(domain.BlockField, text+";", 0), nil
}

// methodSignature renders everything before the body of a method.
func (d *Decompiler) methodSignature(m *classfile.Member, desc classfile.MethodDescriptor, params []string) (string, error) {
	if m.Name == "<clinit>" {
		return "static", nil
	}

	mods := methodModifiers(m.AccessFlags)
	if d.isInterface() {
		mods = without(mods, "public", "abstract")
		if !m.AccessFlags.Has(classfile.AccAbstract) && !m.AccessFlags.Has(classfile.AccStatic) &&
			!m.AccessFlags.Has(classfile.AccPrivate) {
			mods = append(mods, "default")
		}
	}

	var decl []string
	if m.Name == "<init>" {
		decl = []string{d.declName()}
	} else {
		decl = []string{d.names.fieldType(desc.Return), m.Name}
	}

	args := make([]string, len(desc.Params))
	for i, p := range desc.Params {
		typ := d.names.fieldType(p)
		if i == len(desc.Params)-1 && m.AccessFlags.Has(classfile.AccVarargs) && strings.HasSuffix(typ, "[]") {
			typ = strings.TrimSuffix(typ, "[]") + "..."
		}
		args[i] = typ + " " + params[i]
	}

	sig := strings.Join(append(mods, decl...), " ") + "(" + strings.Join(args, ", ") + ")"

	throws, err := d.class.Exceptions(m)
	if err != nil {
		return "", err
	}
	if len(throws) > 0 {
		names := make([]string, len(throws))
		for i, t := range throws {
			names[i] = d.names.className(t)
		}
		sig += " throws " + strings.Join(names, ", ")
	}

	return sig, nil
}

func (d *Decompiler) methodBlock(m *classfile.Member) (*domain.SourceBlock, error) {
	desc, err := classfile.ParseMethodDescriptor(m.Descriptor)
	if err != nil {
		return nil, err
	}
	code, err := d.class.Code(m)
	if err != nil {
		return nil, err
	}

	frame := newFrame(m, desc, code, d.name)
	sig, err := d.methodSignature(m, desc, frame.paramNames())
	if err != nil {
		return nil, err
	}

	if code == nil {
		return domain.NewLeaf(domain.BlockMethod, sig+";", 0), nil
	}

	block := &domain.SourceBlock{
		Kind:   domain.BlockMethod,
		Header: &domain.SourceLine{Text: sig + " {"},
		Footer: &domain.SourceLine{Text: "}"},
	}

	body := &methodBody{d: d, m: m, desc: desc, code: code, frame: frame}
	stmts, err := body.generate()
	if err != nil {
		return nil, err
	}
	block.Add(stmts...)

	return block, nil
}

func without(mods []string, drop ...string) []string {
	out := mods[:0:0]
	for _, m := range mods {
		keep := true
		for _, d := range drop {
			if m == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, m)
		}
	}

	return out
}
