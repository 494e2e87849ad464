package decompiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jdecomp/jdecomp/internal/classfile"
	"github.com/jdecomp/jdecomp/internal/domain"
)

// Java operator precedence, higher binds tighter.
const (
	precBitOr          = 5
	precXor            = 6
	precBitAnd         = 7
	precEquality       = 8
	precRelational     = 9
	precShift          = 10
	precAdditive       = 11
	precMultiplicative = 12
	precCast           = 13
	precUnary          = 14
	precPostfix        = 15
	precPrimary        = 16
)

const stringType classfile.FieldType = "Ljava/lang/String;"

var errStackUnderflow = errors.New("operand stack underflow")

// arrayInit collects the elements stored into a freshly created array while
// it is still on the stack, so that the creation renders as an initializer.
type arrayInit struct {
	prefix string
	elem   classfile.FieldType
	size   int
	values []string
}

func (a *arrayInit) text() string {
	values := append([]string(nil), a.values...)
	for len(values) < a.size {
		values = append(values, zeroValue(a.elem))
	}

	return a.prefix + "{" + strings.Join(values, ", ") + "}"
}

// expr is a value on the simulated operand stack.
type expr struct {
	text       string
	prec       int
	typ        classfile.FieldType
	sideEffect bool

	// int constants keep their value for boolean and char rendering
	lit bool
	val int64

	// newID identifies the copies of an uninitialized `new` result
	newID int
	init  *arrayInit

	// operands of lcmp, fcmp and dcmp, consumed by the following if
	cmpL, cmpR *expr
}

func (e expr) wrap(prec int) string {
	if e.prec < prec {
		return "(" + e.text + ")"
	}

	return e.text
}

func (e expr) slots() int {
	if e.typ.Size() == 2 {
		return 2
	}

	return 1
}

// settled reports whether e reads no state, so evaluating it later gives
// the same value.
func (e expr) settled() bool {
	if e.lit || e.newID != 0 || e.init != nil {
		return true
	}
	switch e.text {
	case "this", "null", "true", "false":
		return true
	}
	if strings.HasSuffix(e.text, ".class") && !strings.ContainsAny(e.text, " ([") {
		return true
	}

	t := strings.TrimPrefix(e.text, "-")
	if t == "" {
		return false
	}
	switch c := t[0]; {
	case c == '$':
		return !strings.ContainsAny(t, " .[")
	case c == '"', c == '\'', c >= '0' && c <= '9':
		return !e.sideEffect && !readsMemory(t)
	}

	return false
}

func identByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// readsMemory reports whether text reads a field, an array element or a
// call result.
func readsMemory(text string) bool {
	for i := 1; i < len(text); i++ {
		switch text[i] {
		case '[':
			return true
		case '(':
			if identByte(text[i-1]) {
				return true
			}
		case '.':
			if i+1 < len(text) && identByte(text[i-1]) && identByte(text[i+1]) && (text[i+1] < '0' || text[i+1] > '9') {
				return true
			}
		}
	}

	return false
}

// mentions reports whether text uses name as a whole identifier.
func mentions(text, name string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], name)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(name)
		if (start == 0 || !identByte(text[start-1])) && (end == len(text) || !identByte(text[end])) {
			return true
		}
		i = start + 1
	}
}

func coerce(e expr, t classfile.FieldType) expr {
	if e.lit {
		e.text = coerceInt(e.val, e.text, t)
	}

	return e
}

func intExpr(v int64) expr {
	e := expr{text: strconv.FormatInt(v, 10), prec: precPrimary, typ: "I", lit: true, val: v}
	if v < 0 {
		e.prec = precUnary
	}

	return e
}

func binary(l expr, op string, r expr, prec int) string {
	return l.wrap(prec) + " " + op + " " + r.wrap(prec+1)
}

type binaryOp struct {
	op   string
	prec int
	typ  classfile.FieldType
}

var binaryOps = map[classfile.Opcode]binaryOp{
	classfile.Iadd:  {"+", precAdditive, "I"},
	classfile.Ladd:  {"+", precAdditive, "J"},
	classfile.Fadd:  {"+", precAdditive, "F"},
	classfile.Dadd:  {"+", precAdditive, "D"},
	classfile.Isub:  {"-", precAdditive, "I"},
	classfile.Lsub:  {"-", precAdditive, "J"},
	classfile.Fsub:  {"-", precAdditive, "F"},
	classfile.Dsub:  {"-", precAdditive, "D"},
	classfile.Imul:  {"*", precMultiplicative, "I"},
	classfile.Lmul:  {"*", precMultiplicative, "J"},
	classfile.Fmul:  {"*", precMultiplicative, "F"},
	classfile.Dmul:  {"*", precMultiplicative, "D"},
	classfile.Idiv:  {"/", precMultiplicative, "I"},
	classfile.Ldiv:  {"/", precMultiplicative, "J"},
	classfile.Fdiv:  {"/", precMultiplicative, "F"},
	classfile.Ddiv:  {"/", precMultiplicative, "D"},
	classfile.Irem:  {"%", precMultiplicative, "I"},
	classfile.Lrem:  {"%", precMultiplicative, "J"},
	classfile.Frem:  {"%", precMultiplicative, "F"},
	classfile.Drem:  {"%", precMultiplicative, "D"},
	classfile.Ishl:  {"<<", precShift, "I"},
	classfile.Lshl:  {"<<", precShift, "J"},
	classfile.Ishr:  {">>", precShift, "I"},
	classfile.Lshr:  {">>", precShift, "J"},
	classfile.Iushr: {">>>", precShift, "I"},
	classfile.Lushr: {">>>", precShift, "J"},
	classfile.Iand:  {"&", precBitAnd, "I"},
	classfile.Land:  {"&", precBitAnd, "J"},
	classfile.Ior:   {"|", precBitOr, "I"},
	classfile.Lor:   {"|", precBitOr, "J"},
	classfile.Ixor:  {"^", precXor, "I"},
	classfile.Lxor:  {"^", precXor, "J"},
}

var conversions = map[classfile.Opcode]classfile.FieldType{
	classfile.I2l: "J", classfile.I2f: "F", classfile.I2d: "D",
	classfile.L2i: "I", classfile.L2f: "F", classfile.L2d: "D",
	classfile.F2i: "I", classfile.F2l: "J", classfile.F2d: "D",
	classfile.D2i: "I", classfile.D2l: "J", classfile.D2f: "F",
	classfile.I2b: "B", classfile.I2c: "C", classfile.I2s: "S",
}

var relations = map[classfile.Opcode]string{
	classfile.Ifeq: "==", classfile.Ifne: "!=", classfile.Iflt: "<",
	classfile.Ifge: ">=", classfile.Ifgt: ">", classfile.Ifle: "<=",
	classfile.IfIcmpeq: "==", classfile.IfIcmpne: "!=", classfile.IfIcmplt: "<",
	classfile.IfIcmpge: ">=", classfile.IfIcmpgt: ">", classfile.IfIcmple: "<=",
	classfile.IfAcmpeq: "==", classfile.IfAcmpne: "!=",
	classfile.Ifnull: "==", classfile.Ifnonnull: "!=",
}

// newarray element types by atype code
var arrayTypes = map[int]classfile.FieldType{
	4: "Z", 5: "C", 6: "F", 7: "D", 8: "B", 9: "S", 10: "I", 11: "J",
}

// slot groups in opcode order: int, long, float, double, reference
var slotTypes = []classfile.FieldType{"I", "J", "F", "D", ""}

// array element types in xaload/xastore opcode order
var elementTypes = []classfile.FieldType{"I", "J", "F", "D", "", "B", "C", "S"}

// method handle reference kinds
const (
	refInvokeVirtual   = 5
	refInvokeSpecial   = 7
	refInvokeInterface = 9
)

// methodBody renders the bytecode of one method as a flat statement list.
// The operand stack is simulated with expressions; values still on the stack
// when control flow merges are spilled into $sN variables.
type methodBody struct {
	d     *Decompiler
	m     *classfile.Member
	desc  classfile.MethodDescriptor
	code  *classfile.Code
	frame *frame

	ins      []classfile.Instruction
	labels   map[int]bool
	handlers map[int][]string
	spilled  map[int][]expr

	stack     []expr
	out       []*domain.SourceBlock
	pc        int
	start     int
	reachable bool
	err       error
}

func (b *methodBody) pool() classfile.ConstantPool {
	return b.d.class.ConstantPool
}

func (b *methodBody) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *methodBody) generate() ([]*domain.SourceBlock, error) {
	ins, err := classfile.Decode(b.code.Bytecode)
	if err != nil {
		return nil, err
	}
	b.ins = ins
	b.collectLabels()
	b.spilled = map[int][]expr{}
	b.reachable = true
	b.start = -1

	for i, in := range b.ins {
		b.pc = in.Offset
		if b.labels[in.Offset] {
			b.enterLabel(in.Offset)
		}
		if b.start < 0 {
			b.start = in.Offset
		}

		b.step(in, i == len(b.ins)-1)
		if b.err != nil {
			return nil, fmt.Errorf("pc %d (%s): %w", in.Offset, in.Op, b.err)
		}
		if len(b.stack) == 0 {
			b.start = -1
		}
	}

	return b.out, nil
}

func (b *methodBody) collectLabels() {
	b.labels = map[int]bool{}
	b.handlers = map[int][]string{}

	for _, in := range b.ins {
		if in.IsBranch() {
			b.labels[in.Target] = true
		}
		if in.Switch != nil {
			b.labels[in.Switch.Default] = true
			for _, t := range in.Switch.Targets {
				b.labels[t] = true
			}
		}
	}

	for _, h := range b.code.Handlers {
		b.labels[h.HandlerPC] = true
		b.handlers[h.HandlerPC] = append(b.handlers[h.HandlerPC], h.CatchType)
	}
}

func (b *methodBody) line() int {
	pc := b.start
	if pc < 0 {
		pc = b.pc
	}

	return b.code.LineAt(pc)
}

func (b *methodBody) emit(text string) {
	b.out = append(b.out, domain.NewLeaf(domain.BlockStatement, text, b.line()))
}

func (b *methodBody) enterLabel(pc int) {
	if b.reachable {
		b.spill()
		if _, ok := b.spilled[pc]; !ok {
			b.spilled[pc] = append([]expr(nil), b.stack...)
		}
	}

	text := fmt.Sprintf("L%d:", pc)
	catches, isHandler := b.handlers[pc]
	exType := classfile.ObjectType("java/lang/Throwable")
	if isHandler {
		names := make([]string, len(catches))
		finally := false
		for i, c := range catches {
			if c == "" {
				finally = true
				continue
			}
			names[i] = b.d.names.className(c)
		}
		switch {
		case finally:
			text += " // finally"
		default:
			text += " // catch " + strings.Join(names, " | ")
			if len(catches) == 1 {
				exType = classfile.ObjectType(catches[0])
			}
		}
	}

	label := domain.NewLeaf(domain.BlockLabel, text, 0)
	label.Outdent = true
	b.out = append(b.out, label)

	switch {
	case isHandler:
		b.stack = []expr{{text: "$ex", prec: precPrimary, typ: exType}}
	case !b.reachable:
		b.stack = append([]expr(nil), b.spilled[pc]...)
	}
	b.reachable = true
	b.start = -1
}

// spill assigns every evaluated stack value to its $sN slot variable.
func (b *methodBody) spill() {
	for k := range b.stack {
		b.spillAt(k)
	}
}

func (b *methodBody) spillAt(k int) {
	e := b.stack[k]
	if e.newID != 0 {
		return
	}

	name := fmt.Sprintf("$s%d", k)
	if e.text != name {
		b.emit(name + " = " + e.text + ";")
	}
	b.stack[k] = expr{text: name, prec: precPrimary, typ: e.typ}
}

// settle evaluates pending stack values into their $sN slots ahead of a
// statement that writes state. Values with side effects and values the
// write affects are settled. Memory reads pushed before a settled side
// effect go first so evaluation order is kept.
func (b *methodBody) settle(affected func(expr) bool) {
	needs := func(e expr) bool {
		return !e.settled() && (e.sideEffect || affected(e))
	}

	effect := -1
	for k, e := range b.stack {
		if needs(e) && e.sideEffect {
			effect = k
		}
	}
	for k, e := range b.stack {
		if needs(e) || (k < effect && !e.settled() && readsMemory(e.text)) {
			b.spillAt(k)
		}
	}
}

func reading(name string) func(expr) bool {
	return func(e expr) bool { return mentions(e.text, name) }
}

func readingMemory(e expr) bool { return readsMemory(e.text) }

func readingArrays(e expr) bool { return strings.Contains(e.text, "[") }

func readingNothing(expr) bool { return false }

// branchTo records the stack shape expected at target.
func (b *methodBody) branchTo(target int) {
	b.spill()
	if _, ok := b.spilled[target]; !ok {
		b.spilled[target] = append([]expr(nil), b.stack...)
	}
}

func (b *methodBody) jump() {
	b.reachable = false
	b.stack = nil
}

func (b *methodBody) push(e expr) {
	b.stack = append(b.stack, e)
}

func (b *methodBody) pop() expr {
	if len(b.stack) == 0 {
		b.fail(errStackUnderflow)
		return expr{text: "?", prec: precPrimary}
	}

	e := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	return e
}

func (b *methodBody) popArgs(params []classfile.FieldType) []expr {
	args := make([]expr, len(params))
	for i := len(params) - 1; i >= 0; i-- {
		args[i] = coerce(b.pop(), params[i])
	}

	return args
}

func texts(args []expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.text
	}

	return strings.Join(parts, ", ")
}

// result pushes a call result, or emits the call when it returns nothing.
func (b *methodBody) result(e expr) {
	if e.typ == classfile.Void {
		b.settle(readingMemory)
		b.emit(e.text + ";")
		return
	}
	b.push(e)
}

func (b *methodBody) step(in classfile.Instruction, last bool) {
	op := in.Op

	switch {
	case op == classfile.Nop:
	case op == classfile.AconstNull:
		b.push(expr{text: "null", prec: precPrimary})
	case op >= classfile.IconstM1 && op <= classfile.Iconst5:
		b.push(intExpr(int64(op) - int64(classfile.Iconst0)))
	case op == classfile.Lconst0 || op == classfile.Lconst1:
		b.push(expr{text: longLiteral(int64(op - classfile.Lconst0)), prec: precPrimary, typ: "J"})
	case op >= classfile.Fconst0 && op <= classfile.Fconst2:
		b.push(expr{text: floatLiteral(float32(op - classfile.Fconst0)), prec: precPrimary, typ: "F"})
	case op == classfile.Dconst0 || op == classfile.Dconst1:
		b.push(expr{text: doubleLiteral(float64(op - classfile.Dconst0)), prec: precPrimary, typ: "D"})
	case op == classfile.Bipush || op == classfile.Sipush:
		b.push(intExpr(int64(in.Value)))
	case op == classfile.Ldc || op == classfile.LdcW || op == classfile.Ldc2W:
		b.ldc(in)

	case op >= classfile.Iload && op <= classfile.Aload:
		b.load(in.Index, slotTypes[op-classfile.Iload])
	case op >= classfile.Iload0 && op <= classfile.Aload3:
		k := int(op - classfile.Iload0)
		b.load(k%4, slotTypes[k/4])
	case op >= classfile.Iaload && op <= classfile.Saload:
		b.arrayLoad(elementTypes[op-classfile.Iaload])
	case op >= classfile.Istore && op <= classfile.Astore:
		b.store(in, in.Index, slotTypes[op-classfile.Istore])
	case op >= classfile.Istore0 && op <= classfile.Astore3:
		k := int(op - classfile.Istore0)
		b.store(in, k%4, slotTypes[k/4])
	case op >= classfile.Iastore && op <= classfile.Sastore:
		b.arrayStore(elementTypes[op-classfile.Iastore])

	case op == classfile.Pop:
		b.discard(b.pop())
	case op == classfile.Pop2:
		if e := b.pop(); e.slots() == 1 {
			b.discard(b.pop())
			b.discard(e)
		} else {
			b.discard(e)
		}
	case op == classfile.Dup:
		b.dup(1, 0)
	case op == classfile.DupX1:
		b.dup(1, 1)
	case op == classfile.DupX2:
		b.dup(1, 2)
	case op == classfile.Dup2:
		b.dup(2, 0)
	case op == classfile.Dup2X1:
		b.dup(2, 1)
	case op == classfile.Dup2X2:
		b.dup(2, 2)
	case op == classfile.Swap:
		n := len(b.stack)
		if n < 2 {
			b.fail(errStackUnderflow)
			return
		}
		b.stack[n-1], b.stack[n-2] = b.stack[n-2], b.stack[n-1]

	case op >= classfile.Ineg && op <= classfile.Dneg:
		v := b.pop()
		text := v.wrap(precUnary)
		if strings.HasPrefix(text, "-") {
			text = "(" + text + ")"
		}
		b.push(expr{text: "-" + text, prec: precUnary, typ: v.typ})
	case op == classfile.Iinc:
		b.iinc(in)
	case op == classfile.Lcmp || (op >= classfile.Fcmpl && op <= classfile.Dcmpg):
		b.compare(op)

	case op >= classfile.Ifeq && op <= classfile.IfAcmpne, op == classfile.Ifnull, op == classfile.Ifnonnull:
		cond := b.condition(op)
		b.branchTo(in.Target)
		b.emit(fmt.Sprintf("if (%s) goto L%d;", cond, in.Target))
	case op == classfile.Goto || op == classfile.GotoW:
		b.branchTo(in.Target)
		b.emit(fmt.Sprintf("goto L%d;", in.Target))
		b.jump()
	case op == classfile.Jsr || op == classfile.JsrW:
		b.spill()
		if _, ok := b.spilled[in.Target]; !ok {
			b.spilled[in.Target] = append(append([]expr(nil), b.stack...), expr{text: "$ret", prec: precPrimary})
		}
		b.emit(fmt.Sprintf("jsr L%d;", in.Target))
	case op == classfile.Ret:
		name, _ := b.frame.load(in.Index, in.Offset)
		b.emit("ret " + name + ";")
		b.jump()
	case op == classfile.Tableswitch || op == classfile.Lookupswitch:
		b.switchTable(in)

	case op >= classfile.Ireturn && op <= classfile.Areturn:
		v := coerce(b.pop(), b.desc.Return)
		b.emit("return " + v.text + ";")
		b.jump()
	case op == classfile.Return:
		// the implicit return closing a void method is left out
		if !last || b.labels[in.Offset] {
			b.emit("return;")
		}
		b.jump()

	case op >= classfile.Getstatic && op <= classfile.Putfield:
		b.field(in)
	case op >= classfile.Invokevirtual && op <= classfile.Invokeinterface:
		b.invoke(in)
	case op == classfile.Invokedynamic:
		b.invokeDynamic(in)

	case op == classfile.New:
		name, err := b.pool().ClassName(uint16(in.Index))
		if err != nil {
			b.fail(err)
			return
		}
		b.push(expr{text: "new " + b.d.names.className(name), prec: precPostfix, typ: classfile.ObjectType(name), newID: in.Offset + 1})
	case op == classfile.Newarray:
		elem, ok := arrayTypes[in.Index]
		if !ok {
			b.fail(fmt.Errorf("bad newarray type %d", in.Index))
			return
		}
		b.newArray(elem)
	case op == classfile.Anewarray:
		name, err := b.pool().ClassName(uint16(in.Index))
		if err != nil {
			b.fail(err)
			return
		}
		b.newArray(classfile.ObjectType(name))
	case op == classfile.Multianewarray:
		b.multiNewArray(in)
	case op == classfile.Arraylength:
		v := b.pop()
		b.push(expr{text: v.wrap(precPostfix) + ".length", prec: precPostfix, typ: "I"})
	case op == classfile.Athrow:
		v := b.pop()
		b.emit("throw " + v.text + ";")
		b.jump()
	case op == classfile.Checkcast:
		name, err := b.pool().ClassName(uint16(in.Index))
		if err != nil {
			b.fail(err)
			return
		}
		v := b.pop()
		b.push(expr{text: "(" + b.d.names.className(name) + ") " + v.wrap(precCast), prec: precCast, typ: classfile.ObjectType(name)})
	case op == classfile.Instanceof:
		name, err := b.pool().ClassName(uint16(in.Index))
		if err != nil {
			b.fail(err)
			return
		}
		v := b.pop()
		b.push(expr{text: v.wrap(precRelational) + " instanceof " + b.d.names.className(name), prec: precRelational, typ: "Z"})
	case op == classfile.Monitorenter:
		v := b.pop()
		b.settle(readingMemory)
		b.emit("monitorenter(" + v.text + ");")
	case op == classfile.Monitorexit:
		b.emit("monitorexit(" + b.pop().text + ");")

	default:
		if bin, ok := binaryOps[op]; ok {
			r := b.pop()
			l := b.pop()
			typ := bin.typ
			if bin.prec <= precBitAnd && l.typ == "Z" && r.typ == "Z" {
				typ = "Z"
			}
			b.push(expr{text: binary(l, bin.op, r, bin.prec), prec: bin.prec, typ: typ})
			return
		}
		if to, ok := conversions[op]; ok {
			v := b.pop()
			b.push(expr{text: "(" + primitiveNames[to] + ") " + v.wrap(precCast), prec: precCast, typ: to})
			return
		}
		b.fail(fmt.Errorf("unsupported instruction %s", op))
	}
}

func (b *methodBody) discard(e expr) {
	if e.sideEffect {
		b.settle(readingMemory)
		b.emit(e.text + ";")
	}
}

func (b *methodBody) ldc(in classfile.Instruction) {
	c, err := b.pool().Entry(uint16(in.Index))
	if err != nil {
		b.fail(err)
		return
	}
	if c.Tag == classfile.TagInteger {
		b.push(intExpr(int64(c.Int)))
		return
	}

	text, typ, err := b.d.constantLiteral(c)
	if err != nil {
		b.fail(err)
		return
	}
	prec := precPrimary
	if strings.HasPrefix(text, "-") || strings.HasPrefix(text, "/*") {
		prec = precUnary
	}
	b.push(expr{text: text, prec: prec, typ: typ})
}

func (b *methodBody) load(slot int, fallback classfile.FieldType) {
	name, typ := b.frame.load(slot, b.pc)
	if typ == "" {
		typ = fallback
	}
	b.push(expr{text: name, prec: precPrimary, typ: typ})
}

func (b *methodBody) store(in classfile.Instruction, slot int, opType classfile.FieldType) {
	v := b.pop()

	fallback := v.typ
	if fallback == "" || (opType != "" && opType != "I" && fallback != opType) {
		fallback = opType
	}
	if fallback == "" {
		fallback = classfile.ObjectType("java/lang/Object")
	}

	name, typ, declare := b.frame.store(slot, in.Offset, in.Next(), fallback)
	b.settle(reading(name))
	text := name + " = " + coerce(v, typ).text + ";"
	if declare {
		text = b.d.names.fieldType(typ) + " " + text
	}
	b.emit(text)
}

func (b *methodBody) iinc(in classfile.Instruction) {
	name, _ := b.frame.load(in.Index, in.Offset)

	// iload x; iinc x 1 is the postfix form used inside expressions
	if n := len(b.stack); n > 0 && b.stack[n-1].text == name && (in.Value == 1 || in.Value == -1) {
		suffix := "++"
		if in.Value < 0 {
			suffix = "--"
		}
		b.stack[n-1] = expr{text: name + suffix, prec: precPostfix, typ: b.stack[n-1].typ, sideEffect: true}
		return
	}

	b.settle(reading(name))

	switch {
	case in.Value == 1:
		b.emit(name + "++;")
	case in.Value == -1:
		b.emit(name + "--;")
	case in.Value < 0:
		b.emit(fmt.Sprintf("%s -= %d;", name, -in.Value))
	default:
		b.emit(fmt.Sprintf("%s += %d;", name, in.Value))
	}
}

func (b *methodBody) compare(op classfile.Opcode) {
	r := b.pop()
	l := b.pop()

	box := "Double"
	switch op {
	case classfile.Lcmp:
		box = "Long"
	case classfile.Fcmpl, classfile.Fcmpg:
		box = "Float"
	}
	b.push(expr{
		text: fmt.Sprintf("%s.compare(%s, %s)", box, l.text, r.text),
		prec: precPostfix,
		typ:  "I",
		cmpL: &l,
		cmpR: &r,
	})
}

func (b *methodBody) condition(op classfile.Opcode) string {
	rel := relations[op]

	switch {
	case op == classfile.Ifnull || op == classfile.Ifnonnull:
		v := b.pop()
		return v.wrap(precEquality) + " " + rel + " null"
	case op >= classfile.IfIcmpeq:
		r := b.pop()
		l := b.pop()
		return binary(l, rel, coerce(r, l.typ), precFor(rel))
	}

	v := b.pop()
	switch {
	case v.cmpL != nil:
		return binary(*v.cmpL, rel, *v.cmpR, precFor(rel))
	case v.typ == "Z" && op == classfile.Ifne:
		return v.text
	case v.typ == "Z" && op == classfile.Ifeq:
		return "!" + v.wrap(precUnary)
	default:
		return binary(v, rel, intExpr(0), precFor(rel))
	}
}

func precFor(rel string) int {
	if rel == "==" || rel == "!=" {
		return precEquality
	}

	return precRelational
}

func (b *methodBody) switchTable(in classfile.Instruction) {
	key := b.pop()
	sw := in.Switch

	var sb strings.Builder
	fmt.Fprintf(&sb, "switch (%s) {", key.text)
	for i, k := range sw.Keys {
		fmt.Fprintf(&sb, " case %d: goto L%d;", k, sw.Targets[i])
		b.branchTo(sw.Targets[i])
	}
	fmt.Fprintf(&sb, " default: goto L%d; }", sw.Default)
	b.branchTo(sw.Default)

	b.emit(sb.String())
	b.jump()
}

func (b *methodBody) arrayLoad(elem classfile.FieldType) {
	idx := b.pop()
	arr := b.pop()

	typ := elem
	if dims, _ := arr.typ.ArrayDims(); dims > 0 {
		typ = arr.typ[1:]
	}
	b.push(expr{text: arr.wrap(precPostfix) + "[" + idx.text + "]", prec: precPostfix, typ: typ})
}

func (b *methodBody) arrayStore(elem classfile.FieldType) {
	v := b.pop()
	idx := b.pop()
	arr := b.pop()

	if dims, _ := arr.typ.ArrayDims(); dims > 0 {
		elem = arr.typ[1:]
	}
	v = coerce(v, elem)

	if init := arr.init; init != nil && idx.lit && idx.val == int64(len(init.values)) && len(init.values) < init.size && b.holds(init) {
		init.values = append(init.values, v.text)
		for k := range b.stack {
			if b.stack[k].init == init {
				b.stack[k].text = init.text()
				b.stack[k].prec = precPrimary
			}
		}
		return
	}

	b.settle(readingArrays)
	b.emit(arr.wrap(precPostfix) + "[" + idx.text + "] = " + v.text + ";")
}

func (b *methodBody) holds(init *arrayInit) bool {
	for _, e := range b.stack {
		if e.init == init {
			return true
		}
	}

	return false
}

// newArrayText renders an array creation; elem may itself be an array type,
// in which case its brackets follow the dimension expressions.
func newArrayText(elem string, counts []string) string {
	base, suffix := elem, ""
	if i := strings.IndexByte(elem, '['); i >= 0 {
		base, suffix = elem[:i], elem[i:]
	}

	var sb strings.Builder
	sb.WriteString("new ")
	sb.WriteString(base)
	for _, c := range counts {
		sb.WriteString("[" + c + "]")
	}
	sb.WriteString(suffix)

	return sb.String()
}

func (b *methodBody) newArray(elem classfile.FieldType) {
	count := b.pop()
	elemText := b.d.names.fieldType(elem)

	e := expr{
		text: newArrayText(elemText, []string{count.text}),
		prec: precPostfix,
		typ:  "[" + elem,
	}
	if count.lit && count.val >= 0 {
		e.init = &arrayInit{prefix: "new " + elemText + "[]", elem: elem, size: int(count.val)}
	}
	b.push(e)
}

func (b *methodBody) multiNewArray(in classfile.Instruction) {
	name, err := b.pool().ClassName(uint16(in.Index))
	if err != nil {
		b.fail(err)
		return
	}

	counts := make([]string, in.Value)
	for i := in.Value - 1; i >= 0; i-- {
		counts[i] = b.pop().text
	}

	t := classfile.FieldType(name)
	total, base := t.ArrayDims()
	text := newArrayText(b.d.names.fieldType(base), counts) + strings.Repeat("[]", total-in.Value)
	b.push(expr{text: text, prec: precPostfix, typ: t})
}

// dup copies the top copySlots stack slots below the skipSlots slots beneath
// them, covering the whole dup family.
func (b *methodBody) dup(copySlots, skipSlots int) {
	top := b.takeSlots(len(b.stack), copySlots)
	under := b.takeSlots(top, skipSlots)
	if b.err != nil {
		return
	}

	// a copied call must run once
	for _, e := range b.stack[top:] {
		if e.sideEffect {
			b.settle(readingNothing)
			break
		}
	}

	group := append([]expr(nil), b.stack[top:]...)
	rest := append([]expr(nil), b.stack[under:]...)
	b.stack = append(append(b.stack[:under], group...), rest...)
}

func (b *methodBody) takeSlots(end, slots int) int {
	i := end
	for slots > 0 {
		if i == 0 {
			b.fail(errStackUnderflow)
			return 0
		}
		i--
		slots -= b.stack[i].slots()
	}

	return i
}

func (b *methodBody) field(in classfile.Instruction) {
	ref, err := b.pool().Ref(uint16(in.Index))
	if err != nil {
		b.fail(err)
		return
	}
	typ := classfile.FieldType(ref.Descriptor)

	switch in.Op {
	case classfile.Getstatic:
		b.push(expr{text: b.staticName(ref), prec: precPostfix, typ: typ})
	case classfile.Putstatic:
		v := coerce(b.pop(), typ)
		b.settle(reading(ref.Name))
		b.emit(b.staticName(ref) + " = " + v.text + ";")
	case classfile.Getfield:
		obj := b.pop()
		b.push(expr{text: obj.wrap(precPostfix) + "." + ref.Name, prec: precPostfix, typ: typ})
	case classfile.Putfield:
		v := coerce(b.pop(), typ)
		obj := b.pop()
		b.settle(reading(ref.Name))
		b.emit(obj.wrap(precPostfix) + "." + ref.Name + " = " + v.text + ";")
	}
}

// ownerPrefix qualifies static members of other classes.
func (b *methodBody) ownerPrefix(ref classfile.MemberRef) string {
	if ref.Owner == b.d.name {
		return ""
	}

	return b.d.names.className(ref.Owner) + "."
}

func (b *methodBody) staticName(ref classfile.MemberRef) string {
	return b.ownerPrefix(ref) + ref.Name
}

func (b *methodBody) invoke(in classfile.Instruction) {
	ref, err := b.pool().Ref(uint16(in.Index))
	if err != nil {
		b.fail(err)
		return
	}
	md, err := classfile.ParseMethodDescriptor(ref.Descriptor)
	if err != nil {
		b.fail(err)
		return
	}

	args := b.popArgs(md.Params)
	call := ref.Name + "(" + texts(args) + ")"

	if in.Op == classfile.Invokestatic {
		b.result(expr{text: b.ownerPrefix(ref) + call, prec: precPostfix, typ: md.Return, sideEffect: true})
		return
	}

	recv := b.pop()
	switch {
	case ref.Name == "<init>":
		b.construct(recv, ref, args)
		return
	case in.Op == classfile.Invokespecial && recv.text == "this" && ref.Owner != b.d.name:
		call = "super." + call
	default:
		call = recv.wrap(precPostfix) + "." + call
	}
	b.result(expr{text: call, prec: precPostfix, typ: md.Return, sideEffect: true})
}

// construct completes a `new` once its constructor runs, or renders an
// explicit super(...) or this(...) call.
func (b *methodBody) construct(recv expr, ref classfile.MemberRef, args []expr) {
	if recv.newID != 0 {
		e := expr{
			text:       "new " + b.d.names.className(ref.Owner) + "(" + texts(args) + ")",
			prec:       precPostfix,
			typ:        classfile.ObjectType(ref.Owner),
			sideEffect: true,
		}
		replaced := false
		for k := range b.stack {
			if b.stack[k].newID == recv.newID {
				b.stack[k] = e
				replaced = true
			}
		}
		if !replaced {
			b.settle(readingMemory)
			b.emit(e.text + ";")
		}
		return
	}

	target := "super"
	switch {
	case recv.text != "this":
		target = recv.wrap(precPostfix) + ".<init>"
	case ref.Owner == b.d.name:
		target = "this"
	}
	b.settle(readingMemory)
	b.emit(target + "(" + texts(args) + ");")
}

func (b *methodBody) invokeDynamic(in classfile.Instruction) {
	dyn, err := b.pool().Dynamic(uint16(in.Index))
	if err != nil {
		b.fail(err)
		return
	}
	md, err := classfile.ParseMethodDescriptor(dyn.Descriptor)
	if err != nil {
		b.fail(err)
		return
	}
	operands := b.popArgs(md.Params)

	if int(dyn.BootstrapIndex) >= len(b.d.bootstrap) {
		b.fail(classfile.FormatError(fmt.Sprintf("bootstrap method %d out of range", dyn.BootstrapIndex)))
		return
	}
	bm := b.d.bootstrap[dyn.BootstrapIndex]
	mh, err := b.pool().MethodHandle(bm.MethodRef)
	if err != nil {
		b.fail(err)
		return
	}

	var e expr
	switch mh.Ref.Owner {
	case "java/lang/invoke/StringConcatFactory":
		e, err = b.concat(mh.Ref.Name, bm, operands)
	case "java/lang/invoke/LambdaMetafactory":
		e, err = b.lambda(bm, md, operands)
	default:
		e = expr{text: "/* indy */ " + dyn.Name + "(" + texts(operands) + ")", prec: precUnary, typ: md.Return, sideEffect: true}
	}
	if err != nil {
		b.fail(err)
		return
	}
	b.result(e)
}

// concat rebuilds a string concatenation from its recipe: \u0001 marks an
// operand and \u0002 a bootstrap constant.
func (b *methodBody) concat(bootstrap string, bm classfile.BootstrapMethod, operands []expr) (expr, error) {
	parts := operands
	if bootstrap == "makeConcatWithConstants" && len(bm.Arguments) > 0 {
		recipeConst, err := b.pool().Get(bm.Arguments[0], classfile.TagString)
		if err != nil {
			return expr{}, err
		}
		recipe, err := b.pool().UTF8(recipeConst.Index)
		if err != nil {
			return expr{}, err
		}

		parts = nil
		consts := bm.Arguments[1:]
		var lit strings.Builder
		flush := func() {
			if lit.Len() > 0 {
				parts = append(parts, expr{text: javaString(lit.String()), prec: precPrimary, typ: stringType})
				lit.Reset()
			}
		}
		for _, r := range recipe {
			switch r {
			case '\u0001':
				flush()
				if len(operands) > 0 {
					parts = append(parts, operands[0])
					operands = operands[1:]
				}
			case '\u0002':
				flush()
				if len(consts) == 0 {
					continue
				}
				c, err := b.pool().Entry(consts[0])
				if err != nil {
					return expr{}, err
				}
				consts = consts[1:]
				text, typ, err := b.d.constantLiteral(c)
				if err != nil {
					return expr{}, err
				}
				parts = append(parts, expr{text: text, prec: precPrimary, typ: typ})
			default:
				lit.WriteRune(r)
			}
		}
		flush()
	}

	empty := expr{text: `""`, prec: precPrimary, typ: stringType}
	if len(parts) == 0 {
		return empty, nil
	}
	if parts[0].typ != stringType && (len(parts) == 1 || parts[1].typ != stringType) {
		parts = append([]expr{empty}, parts...)
	}

	text := parts[0].wrap(precAdditive)
	for _, p := range parts[1:] {
		text += " + " + p.wrap(precAdditive+1)
	}

	return expr{text: text, prec: precAdditive, typ: stringType}, nil
}

// lambda renders a LambdaMetafactory call site as a method reference to the
// implementation method.
func (b *methodBody) lambda(bm classfile.BootstrapMethod, md classfile.MethodDescriptor, captured []expr) (expr, error) {
	if len(bm.Arguments) < 2 {
		return expr{}, classfile.FormatError("lambda bootstrap without implementation handle")
	}
	impl, err := b.pool().MethodHandle(bm.Arguments[1])
	if err != nil {
		return expr{}, err
	}

	var text string
	switch {
	case impl.Ref.Name == "<init>":
		text = b.d.names.className(impl.Ref.Owner) + "::new"
	case len(captured) > 0 && (impl.Kind == refInvokeVirtual || impl.Kind == refInvokeInterface || impl.Kind == refInvokeSpecial):
		text = captured[0].wrap(precPostfix) + "::" + impl.Ref.Name
		captured = captured[1:]
	default:
		text = b.d.names.className(impl.Ref.Owner) + "::" + impl.Ref.Name
	}
	if len(captured) > 0 {
		text += " /* captures " + texts(captured) + " */"
	}

	return expr{text: text, prec: precPostfix, typ: md.Return}, nil
}
