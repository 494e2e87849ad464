package classfile

import (
	"encoding/binary"
	"fmt"
)

// Instruction is one decoded bytecode instruction. Operands are spread over
// Index, Value and Target depending on the opcode:
//
//	pool references, local slots, newarray type -> Index
//	bipush/sipush constants, iinc delta, dimensions, interface arg count -> Value
//	branch destinations (absolute) -> Target
type Instruction struct {
	Offset int
	Length int
	Op     Opcode
	Index  int
	Value  int
	Target int
	Wide   bool
	Switch *Switch
}

// Next returns the offset of the following instruction.
func (in Instruction) Next() int {
	return in.Offset + in.Length
}

// Switch holds the jump table of a tableswitch or lookupswitch. Targets are
// absolute offsets and Keys are sorted as they appear in the bytecode.
type Switch struct {
	Default int
	Keys    []int32
	Targets []int
}

// IsBranch reports whether the instruction transfers control to Target.
func (in Instruction) IsBranch() bool {
	f := opcodes[in.Op].format
	return f == operandBranch || f == operandBranchWide
}

// Decode splits a method's bytecode into instructions.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	for pc := 0; pc < len(code); {
		in, err := decodeAt(code, pc)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
		pc += in.Length
	}

	return out, nil
}

func decodeAt(code []byte, pc int) (Instruction, error) {
	op := Opcode(code[pc])
	info, ok := opcodes[op]
	if !ok {
		return Instruction{}, FormatError(fmt.Sprintf("unknown opcode 0x%02x at pc %d", uint8(op), pc))
	}

	in := Instruction{Offset: pc, Op: op}
	operands := code[pc+1:]
	need := func(n int) error {
		if len(operands) < n {
			return FormatError(fmt.Sprintf("truncated %s at pc %d", info.name, pc))
		}
		return nil
	}

	switch info.format {
	case operandNone:
		in.Length = 1
	case operandByte:
		if err := need(1); err != nil {
			return in, err
		}
		in.Length = 2
		if op == Newarray {
			in.Index = int(operands[0])
		} else {
			in.Value = int(int8(operands[0]))
		}
	case operandShort:
		if err := need(2); err != nil {
			return in, err
		}
		in.Length = 3
		in.Value = int(int16(binary.BigEndian.Uint16(operands)))
	case operandPoolByte, operandLocal:
		if err := need(1); err != nil {
			return in, err
		}
		in.Length = 2
		in.Index = int(operands[0])
	case operandPool:
		if err := need(2); err != nil {
			return in, err
		}
		in.Length = 3
		in.Index = int(binary.BigEndian.Uint16(operands))
	case operandIinc:
		if err := need(2); err != nil {
			return in, err
		}
		in.Length = 3
		in.Index = int(operands[0])
		in.Value = int(int8(operands[1]))
	case operandBranch:
		if err := need(2); err != nil {
			return in, err
		}
		in.Length = 3
		in.Target = pc + int(int16(binary.BigEndian.Uint16(operands)))
	case operandBranchWide:
		if err := need(4); err != nil {
			return in, err
		}
		in.Length = 5
		in.Target = pc + int(int32(binary.BigEndian.Uint32(operands)))
	case operandInvokeInterface:
		if err := need(4); err != nil {
			return in, err
		}
		in.Length = 5
		in.Index = int(binary.BigEndian.Uint16(operands))
		in.Value = int(operands[2])
	case operandInvokeDynamic:
		if err := need(4); err != nil {
			return in, err
		}
		in.Length = 5
		in.Index = int(binary.BigEndian.Uint16(operands))
	case operandMultiArray:
		if err := need(3); err != nil {
			return in, err
		}
		in.Length = 4
		in.Index = int(binary.BigEndian.Uint16(operands))
		in.Value = int(operands[2])
	case operandWide:
		return decodeWide(code, pc)
	case operandSwitch:
		return decodeSwitch(code, pc)
	}

	return in, nil
}

func decodeWide(code []byte, pc int) (Instruction, error) {
	if pc+4 > len(code) {
		return Instruction{}, FormatError(fmt.Sprintf("truncated wide at pc %d", pc))
	}

	op := Opcode(code[pc+1])
	in := Instruction{Offset: pc, Op: op, Wide: true, Index: int(binary.BigEndian.Uint16(code[pc+2:]))}
	switch op {
	case Iinc:
		if pc+6 > len(code) {
			return Instruction{}, FormatError(fmt.Sprintf("truncated wide iinc at pc %d", pc))
		}
		in.Value = int(int16(binary.BigEndian.Uint16(code[pc+4:])))
		in.Length = 6
	case Iload, Lload, Fload, Dload, Aload, Istore, Lstore, Fstore, Dstore, Astore, Ret:
		in.Length = 4
	default:
		return Instruction{}, FormatError(fmt.Sprintf("wide applied to %s at pc %d", op, pc))
	}

	return in, nil
}

func decodeSwitch(code []byte, pc int) (Instruction, error) {
	op := Opcode(code[pc])
	// operands start at the next 4-byte boundary after the opcode
	p := (pc + 4) &^ 3
	word := func(at int) (int32, error) {
		if at+4 > len(code) {
			return 0, FormatError(fmt.Sprintf("truncated %s at pc %d", op, pc))
		}
		return int32(binary.BigEndian.Uint32(code[at:])), nil
	}

	def, err := word(p)
	if err != nil {
		return Instruction{}, err
	}
	sw := &Switch{Default: pc + int(def)}

	if op == Tableswitch {
		low, err := word(p + 4)
		if err != nil {
			return Instruction{}, err
		}
		high, err := word(p + 8)
		if err != nil {
			return Instruction{}, err
		}
		if high < low || int64(high)-int64(low) > int64(len(code)) {
			return Instruction{}, FormatError(fmt.Sprintf("bad tableswitch bounds %d..%d at pc %d", low, high, pc))
		}
		p += 12
		for k := low; ; k++ {
			off, err := word(p)
			if err != nil {
				return Instruction{}, err
			}
			sw.Keys = append(sw.Keys, k)
			sw.Targets = append(sw.Targets, pc+int(off))
			p += 4
			if k == high {
				break
			}
		}
	} else {
		n, err := word(p + 4)
		if err != nil {
			return Instruction{}, err
		}
		if n < 0 || int64(n) > int64(len(code)) {
			return Instruction{}, FormatError(fmt.Sprintf("bad lookupswitch size %d at pc %d", n, pc))
		}
		p += 8
		for i := int32(0); i < n; i++ {
			key, err := word(p)
			if err != nil {
				return Instruction{}, err
			}
			off, err := word(p + 4)
			if err != nil {
				return Instruction{}, err
			}
			sw.Keys = append(sw.Keys, key)
			sw.Targets = append(sw.Targets, pc+int(off))
			p += 8
		}
	}

	return Instruction{Offset: pc, Op: op, Length: p - pc, Switch: sw}, nil
}
