package decompiler

import (
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/domain"
	"github.com/jdecomp/jdecomp/internal/ports"
)

var primitiveNames = map[classfile.FieldType]string{
	"B": "byte",
	"C": "char",
	"D": "double",
	"F": "float",
	"I": "int",
	"J": "long",
	"S": "short",
	"Z": "boolean",
	"V": "void",
}

// platformPrefixes are packages the class path is not expected to contain.
var platformPrefixes = []string{"java/", "javax/", "jdk/", "sun/", "com/sun/"}

// typeNamer renders internal names as Java source names and records the
// imports that make the short forms valid. A short name stands for one
// top-level class per file; any other class with that name is printed
// qualified.
type typeNamer struct {
	pkg     string
	loader  ports.ClassLoader
	imports map[string]string // simple name -> internal name
	shown   map[string]string // simple name -> top-level internal name
}

func newTypeNamer(thisClass string, loader ports.ClassLoader) *typeNamer {
	n := &typeNamer{
		pkg:     packageOf(thisClass),
		loader:  loader,
		imports: map[string]string{},
		shown:   map[string]string{},
	}
	n.reserve(thisClass)

	return n
}

// reserve claims the short name of a class that is in scope whether or not
// it is printed: the class itself and the classes of its own package, which
// shadow java.lang.
func (n *typeNamer) reserve(internal string) {
	if strings.HasPrefix(internal, "[") || packageOf(internal) != n.pkg {
		return
	}
	top := topLevel(internal)
	if _, ok := n.shown[path.Base(top)]; !ok {
		n.shown[path.Base(top)] = top
	}
}

// reservePackage reserves the classes of this package named in the pool.
func (n *typeNamer) reservePackage(pool classfile.ConstantPool) {
	for _, c := range pool {
		if c == nil || c.Tag != classfile.TagClass {
			continue
		}
		if name, err := pool.UTF8(c.Index); err == nil {
			n.reserve(name)
		}
	}
}

// topLevel strips nested class names: "a/b/Outer$Inner" becomes "a/b/Outer".
func topLevel(internal string) string {
	base := path.Base(internal)
	if i := strings.IndexByte(base, '$'); i >= 0 {
		return internal[:len(internal)-len(base)+i]
	}

	return internal
}

func packageOf(internal string) string {
	if i := strings.LastIndexByte(internal, '/'); i >= 0 {
		return internal[:i]
	}

	return ""
}

// simpleName turns "a/b/Outer$Inner" into "Outer.Inner".
func simpleName(internal string) string {
	return strings.ReplaceAll(path.Base(internal), "$", ".")
}

func qualifiedName(internal string) string {
	return strings.NewReplacer("/", ".", "$", ".").Replace(internal)
}

// className returns the name to print for a class reference.
func (n *typeNamer) className(internal string) string {
	if strings.HasPrefix(internal, "[") {
		return n.fieldType(classfile.FieldType(internal))
	}

	// imports name the top-level class; nested classes are reached through it
	top := topLevel(internal)
	short := path.Base(top)
	if owner, ok := n.shown[short]; ok && owner != top {
		return qualifiedName(internal)
	}
	n.shown[short] = top

	if pkg := packageOf(internal); pkg != "" && pkg != n.pkg && pkg != "java/lang" {
		n.imports[short] = top
	}

	return simpleName(internal)
}

func (n *typeNamer) fieldType(t classfile.FieldType) string {
	dims, elem := t.ArrayDims()
	name, ok := primitiveNames[elem]
	if !ok {
		name = n.className(elem.ClassName())
	}

	return name + strings.Repeat("[]", dims)
}

// importLines lists the recorded imports in sorted order. Types outside the
// platform packages that the loader cannot resolve are flagged.
func (n *typeNamer) importLines() (lines []string, unresolved []string) {
	names := make([]string, 0, len(n.imports))
	for _, internal := range n.imports {
		names = append(names, internal)
	}
	sort.Strings(names)

	for _, internal := range names {
		line := "import " + qualifiedName(internal) + ";"
		if n.isUnresolved(internal) {
			line += " // unresolved"
			unresolved = append(unresolved, internal)
		}
		lines = append(lines, line)
	}

	return lines, unresolved
}

func (n *typeNamer) isUnresolved(internal string) bool {
	if n.loader == nil {
		return false
	}
	for _, prefix := range platformPrefixes {
		if strings.HasPrefix(internal, prefix) {
			return false
		}
	}

	_, err := n.loader.LoadClass(internal)
	return errors.Is(err, domain.ErrClassNotFound)
}

func classModifiers(flags classfile.AccessFlags) (mods []string, keyword string) {
	switch {
	case flags.Has(classfile.AccAnnotation):
		keyword = "@interface"
	case flags.Has(classfile.AccInterface):
		keyword = "interface"
	case flags.Has(classfile.AccEnum):
		keyword = "enum"
	default:
		keyword = "class"
	}

	if flags.Has(classfile.AccPublic) {
		mods = append(mods, "public")
	}
	if flags.Has(classfile.AccAbstract) && keyword == "class" {
		mods = append(mods, "abstract")
	}
	if flags.Has(classfile.AccFinal) && keyword == "class" {
		mods = append(mods, "final")
	}

	return mods, keyword
}

func fieldModifiers(flags classfile.AccessFlags) []string {
	return modifiers(flags, []flagName{
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccTransient, "transient"},
		{classfile.AccVolatile, "volatile"},
	})
}

func methodModifiers(flags classfile.AccessFlags) []string {
	return modifiers(flags, []flagName{
		{classfile.AccPublic, "public"},
		{classfile.AccPrivate, "private"},
		{classfile.AccProtected, "protected"},
		{classfile.AccAbstract, "abstract"},
		{classfile.AccStatic, "static"},
		{classfile.AccFinal, "final"},
		{classfile.AccSynchronized, "synchronized"},
		{classfile.AccNative, "native"},
		{classfile.AccStrict, "strictfp"},
	})
}

// AccessNames lists the Java keywords for flags as used in class summaries.
func AccessNames(flags classfile.AccessFlags, method bool) []string {
	if method {
		return methodModifiers(flags)
	}

	return fieldModifiers(flags)
}

// ClassAccessNames lists the modifiers of a class followed by its keyword.
func ClassAccessNames(flags classfile.AccessFlags) []string {
	mods, keyword := classModifiers(flags)

	return append(mods, keyword)
}

type flagName struct {
	flag classfile.AccessFlags
	name string
}

func modifiers(flags classfile.AccessFlags, table []flagName) []string {
	var mods []string
	for _, f := range table {
		if flags.Has(f.flag) {
			mods = append(mods, f.name)
		}
	}
	if flags.Has(classfile.AccSynthetic) {
		mods = append([]string{"/* synthetic */"}, mods...)
	}

	return mods
}
