package compiler

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// CodeGenerator turns a validated instruction list into the flat bytecode
// stream the VM consumes. It runs two internal passes: a size pass that
// fixes every label to the byte offset at which the instruction after its
// dfp begins, then a linear emit pass.
//
// The generator owns label addresses. The analyzer's label table counts
// instructions, not bytes, and is never consulted here.
type CodeGenerator struct {
	symbols        *SymbolTable
	bytecode       []byte
	labelAddresses map[string]int
}

func NewCodeGenerator(symbols *SymbolTable) *CodeGenerator {
	return &CodeGenerator{
		symbols:        symbols,
		labelAddresses: make(map[string]int),
	}
}

// Generate emits the bytecode for program against a populated symbol table.
func Generate(program []InstructionNode, symbols *SymbolTable) ([]byte, error) {
	return NewCodeGenerator(symbols).Generate(program)
}

// Generate runs both passes and returns the emitted byte vector.
func (g *CodeGenerator) Generate(program []InstructionNode) ([]byte, error) {
	g.bytecode = nil

	if err := g.buildLabelMap(program); err != nil {
		return nil, err
	}

	for _, node := range program {
		if err := g.generateInstruction(node); err != nil {
			return nil, err
		}
	}

	return g.bytecode, nil
}

// buildLabelMap walks the program computing per-instruction sizes. A label
// is recorded at the running address before its dfp's (zero) size is added.
func (g *CodeGenerator) buildLabelMap(program []InstructionNode) error {
	address := 0

	for _, node := range program {
		if opcodes[node.Mnemonic()] == OpDFP {
			g.labelAddresses[node.Operands[0].Lexeme] = address
		}
		size, err := g.instructionSize(node)
		if err != nil {
			return err
		}
		address += size
	}

	return nil
}

// instructionSize is the number of bytes generateInstruction will emit for
// node, including the opcode byte.
func (g *CodeGenerator) instructionSize(node InstructionNode) (int, error) {
	op, ok := opcodes[node.Mnemonic()]
	if !ok {
		return 0, &CodegenError{Msg: fmt.Sprintf("unknown instruction: %s", node.Mnemonic())}
	}

	size := 1 // opcode

	switch op {
	case OpCV:
		// [u32 name length][name][type tag]
		size += 4 + len(node.Operands[0].Lexeme) + 1
	case OpAV, OpAAV, OpSAV, OpMAV, OpDAV, OpMOAV:
		// [u32 variable offset][operand payload]
		n, err := operandSize(node.Operands[1])
		if err != nil {
			return 0, err
		}
		size += 4 + n
	case OpINC, OpDEC:
		size += 4
	case OpP, OpPL:
		for _, operand := range node.Operands {
			if operand.Type == STRING {
				size += 4 + len(operand.Lexeme)
			} else {
				size += 4
			}
		}
	case OpPK, OpRK, OpDL:
		n, err := operandSize(node.Operands[0])
		if err != nil {
			return 0, err
		}
		size += n
	case OpIKD:
		size += 4 + 4
	case OpMVM:
		for _, operand := range node.Operands {
			n, err := operandSize(operand)
			if err != nil {
				return 0, err
			}
			size += n
		}
	case OpDFP:
		size = 0
	case OpJMP:
		size += 4
	case OpCEJMP, OpCGJMP, OpCLJMP, OpCEGJMP, OpCELJMP:
		size += 4 + 4 + 4 + 4 // two variable offsets, two label addresses
	case OpNOP:
		// opcode only
	}

	return size, nil
}

// operandSize is the emitted size of a value operand: a 4-byte offset for a
// variable reference, or a type tag plus the value for a literal.
func operandSize(operand Token) (int, error) {
	if operand.Type != LITERAL {
		return 4, nil
	}
	t := inferLiteralType(operand.Lexeme)
	if t.Size() == 0 {
		return 0, &CodegenError{Msg: fmt.Sprintf("invalid literal type %s", t)}
	}
	return 1 + t.Size(), nil
}

// inferLiteralType maps a literal's lexeme shape to its default wire type:
// fractional literals are f32, negative ones i32, everything else ui32.
func inferLiteralType(lexeme string) Type {
	for i := 0; i < len(lexeme); i++ {
		if lexeme[i] == '.' {
			return TypeF32
		}
	}
	if len(lexeme) > 0 && lexeme[0] == '-' {
		return TypeI32
	}
	return TypeUI32
}

func (g *CodeGenerator) generateInstruction(node InstructionNode) error {
	op, ok := opcodes[node.Mnemonic()]
	if !ok {
		return &CodegenError{Msg: fmt.Sprintf("unknown instruction: %s", node.Mnemonic())}
	}

	if op == OpDFP {
		// Handled entirely by the label map; occupies no bytes.
		return nil
	}

	g.emitByte(byte(op))

	switch op {
	case OpCV:
		name := node.Operands[0].Lexeme
		info, err := g.symbols.Variable(name)
		if err != nil {
			return err
		}
		g.emitString(name)
		g.emitByte(byte(info.Type))
	case OpAV, OpAAV, OpSAV, OpMAV, OpDAV, OpMOAV:
		if err := g.emitVariable(node.Operands[0]); err != nil {
			return err
		}
		return g.emitOperand(node.Operands[1])
	case OpINC, OpDEC:
		return g.emitVariable(node.Operands[0])
	case OpP, OpPL:
		for _, operand := range node.Operands {
			if operand.Type == STRING {
				g.emitString(operand.Lexeme)
			} else if err := g.emitVariable(operand); err != nil {
				return err
			}
		}
	case OpPK, OpRK, OpDL:
		return g.emitOperand(node.Operands[0])
	case OpIKD:
		if err := g.emitVariable(node.Operands[0]); err != nil {
			return err
		}
		return g.emitVariable(node.Operands[1])
	case OpMVM:
		if err := g.emitOperand(node.Operands[0]); err != nil {
			return err
		}
		return g.emitOperand(node.Operands[1])
	case OpJMP:
		return g.emitLabel(node.Operands[0])
	case OpCEJMP, OpCGJMP, OpCLJMP, OpCEGJMP, OpCELJMP:
		if err := g.emitVariable(node.Operands[0]); err != nil {
			return err
		}
		if err := g.emitVariable(node.Operands[1]); err != nil {
			return err
		}
		if err := g.emitLabel(node.Operands[2]); err != nil {
			return err
		}
		return g.emitLabel(node.Operands[3])
	case OpNOP:
		// opcode only
	}

	return nil
}

// emitOperand writes a value operand's payload: a tagged literal, or the
// offset/address of the variable or label the identifier resolves to.
func (g *CodeGenerator) emitOperand(operand Token) error {
	switch operand.Type {
	case LITERAL:
		return g.emitLiteral(operand.Lexeme, inferLiteralType(operand.Lexeme))
	case IDENTIFIER:
		if g.symbols.IsVariable(operand.Lexeme) {
			return g.emitVariable(operand)
		}
		return g.emitLabel(operand)
	default:
		return &CodegenError{Msg: fmt.Sprintf("cannot encode operand %s '%s'", operand.Type, operand.Lexeme)}
	}
}

// emitLiteral writes a 1-byte type tag followed by the value, little-endian.
func (g *CodeGenerator) emitLiteral(lexeme string, t Type) error {
	badLiteral := func(err error) error {
		return &CodegenError{Msg: fmt.Sprintf("cannot encode literal %s as %s: %v", lexeme, t, err)}
	}

	g.emitByte(byte(t))

	switch t {
	case TypeI8, TypeI16, TypeI32:
		v, err := strconv.ParseInt(lexeme, 10, t.Size()*8)
		if err != nil {
			return badLiteral(err)
		}
		g.emitInt(uint64(v), t.Size())
	case TypeUI8, TypeUI16, TypeUI32:
		v, err := strconv.ParseUint(lexeme, 10, t.Size()*8)
		if err != nil {
			return badLiteral(err)
		}
		g.emitInt(v, t.Size())
	case TypeF32:
		v, err := strconv.ParseFloat(lexeme, 32)
		if err != nil {
			return badLiteral(err)
		}
		g.emitUint32(math.Float32bits(float32(v)))
	default:
		return &CodegenError{Msg: fmt.Sprintf("unsupported literal type %s", t)}
	}

	return nil
}

// emitVariable writes the variable's 4-byte memory offset.
func (g *CodeGenerator) emitVariable(tok Token) error {
	info, err := g.symbols.Variable(tok.Lexeme)
	if err != nil {
		return err
	}
	g.emitUint32(uint32(info.Offset))
	return nil
}

// emitLabel writes the label's 4-byte bytecode address.
func (g *CodeGenerator) emitLabel(tok Token) error {
	address, ok := g.labelAddresses[tok.Lexeme]
	if !ok {
		return &CodegenError{Msg: fmt.Sprintf("unknown label '%s'", tok.Lexeme)}
	}
	g.emitUint32(uint32(address))
	return nil
}

func (g *CodeGenerator) emitByte(b byte) {
	g.bytecode = append(g.bytecode, b)
}

// emitInt writes the low `size` bytes of v, little-endian. Two's complement
// representations of signed values pass through unchanged.
func (g *CodeGenerator) emitInt(v uint64, size int) {
	for i := 0; i < size; i++ {
		g.emitByte(byte(v >> (8 * i)))
	}
}

func (g *CodeGenerator) emitUint32(v uint32) {
	g.bytecode = binary.LittleEndian.AppendUint32(g.bytecode, v)
}

// emitString writes a u32 length prefix followed by the raw bytes. Strings
// are not null-terminated.
func (g *CodeGenerator) emitString(s string) {
	g.emitUint32(uint32(len(s)))
	g.bytecode = append(g.bytecode, s...)
}
