package compiler

import (
	"fmt"
	"strconv"
)

// declarableTypes are the value types a cv instruction may declare. nt and
// str are wire-format codes only.
var declarableTypes = map[string]Type{
	"i8":   TypeI8,
	"ui8":  TypeUI8,
	"i16":  TypeI16,
	"ui16": TypeUI16,
	"i32":  TypeI32,
	"ui32": TypeUI32,
	"f32":  TypeF32,
}

// SemanticAnalyzer validates an instruction list against a symbol table it
// populates itself. It runs two passes: the first registers declarations
// (variables and labels), the second checks every instruction's operands.
//
// The first pass counts addresses by instruction index, not by emitted
// size. Those addresses only establish that a referenced label exists; the
// byte addresses the VM sees are computed independently by the code
// generator.
type SemanticAnalyzer struct {
	symbols        *SymbolTable
	program        []InstructionNode
	currentAddress int
}

func NewSemanticAnalyzer(symbols *SymbolTable, program []InstructionNode) *SemanticAnalyzer {
	return &SemanticAnalyzer{symbols: symbols, program: program}
}

// Analyze validates program, populating symbols with its declarations.
func Analyze(program []InstructionNode, symbols *SymbolTable) error {
	return NewSemanticAnalyzer(symbols, program).Analyze()
}

// Analyze runs both validation passes.
func (a *SemanticAnalyzer) Analyze() error {
	if err := a.firstPass(); err != nil {
		return err
	}
	return a.secondPass()
}

// semErr wraps a check failure with the instruction that triggered it.
func semErr(node InstructionNode, err error) error {
	return &SemanticError{Mnemonic: node.Mnemonic(), Line: node.Instruction.Line, Err: err}
}

func (a *SemanticAnalyzer) firstPass() error {
	for _, node := range a.program {
		var err error
		switch opcodes[node.Mnemonic()] {
		case OpCV:
			err = a.declareVariable(node)
		case OpDFP:
			err = a.declareLabel(node)
		}
		if err != nil {
			return semErr(node, err)
		}
		a.currentAddress++
	}
	return nil
}

func (a *SemanticAnalyzer) secondPass() error {
	for _, node := range a.program {
		var err error
		switch opcodes[node.Mnemonic()] {
		case OpAV, OpAAV, OpSAV, OpMAV, OpDAV, OpMOAV:
			err = a.checkAssignment(node)
		case OpINC, OpDEC:
			err = a.checkIncDec(node)
		case OpP, OpPL:
			err = a.checkPrint(node)
		case OpPK, OpRK:
			err = a.checkKeyOperation(node)
		case OpIKD:
			err = a.checkIkd(node)
		case OpMVM:
			err = a.checkMvm(node)
		case OpJMP:
			err = a.checkJmp(node)
		case OpCEJMP, OpCGJMP, OpCLJMP, OpCEGJMP, OpCELJMP:
			err = a.checkConditionalJump(node)
		case OpDL:
			err = a.checkDl(node)
		}
		if err != nil {
			return semErr(node, err)
		}
	}
	return nil
}

func (a *SemanticAnalyzer) declareVariable(node InstructionNode) error {
	if len(node.Operands) != 2 {
		return fmt.Errorf("cv requires 2 operands")
	}
	typeTok := node.Operands[1]
	if typeTok.Type != TYPE {
		return fmt.Errorf("second operand must be a type")
	}
	t, ok := declarableTypes[typeTok.Lexeme]
	if !ok {
		return fmt.Errorf("invalid type specifier '%s'", typeTok.Lexeme)
	}
	return a.symbols.AddVariable(node.Operands[0].Lexeme, t)
}

func (a *SemanticAnalyzer) declareLabel(node InstructionNode) error {
	if len(node.Operands) != 1 {
		return fmt.Errorf("dfp requires 1 operand")
	}
	return a.symbols.AddLabel(node.Operands[0].Lexeme, a.currentAddress)
}

// checkAssignment covers av and the arithmetic assignments: the target must
// be a declared variable, and the value either a literal in range for the
// target's type or a variable of exactly the same type.
func (a *SemanticAnalyzer) checkAssignment(node InstructionNode) error {
	if err := expectOperands(node, 2); err != nil {
		return err
	}
	target, err := a.variable(node.Operands[0])
	if err != nil {
		return err
	}

	value := node.Operands[1]
	switch value.Type {
	case LITERAL:
		return checkLiteralRange(value.Lexeme, target.Type)
	case IDENTIFIER:
		src, err := a.variable(value)
		if err != nil {
			return err
		}
		return matchTypes(target.Type, src.Type)
	default:
		return fmt.Errorf("invalid operand type for %s", node.Mnemonic())
	}
}

func (a *SemanticAnalyzer) checkIncDec(node InstructionNode) error {
	if err := expectOperands(node, 1); err != nil {
		return err
	}
	_, err := a.variable(node.Operands[0])
	return err
}

func (a *SemanticAnalyzer) checkPrint(node InstructionNode) error {
	for _, operand := range node.Operands {
		switch operand.Type {
		case STRING:
		case IDENTIFIER:
			if _, err := a.variable(operand); err != nil {
				return err
			}
		default:
			return fmt.Errorf("print operands must be string literals or variables")
		}
	}
	return nil
}

// checkKeyOperation covers pk and rk: a UI8-range key code literal, or any
// declared variable.
func (a *SemanticAnalyzer) checkKeyOperation(node InstructionNode) error {
	if err := expectOperands(node, 1); err != nil {
		return err
	}

	operand := node.Operands[0]
	switch operand.Type {
	case LITERAL:
		return checkLiteralRange(operand.Lexeme, TypeUI8)
	case IDENTIFIER:
		_, err := a.variable(operand)
		return err
	default:
		return fmt.Errorf("key operation requires a ui8 literal or a variable")
	}
}

func (a *SemanticAnalyzer) checkIkd(node InstructionNode) error {
	if err := expectOperands(node, 2); err != nil {
		return err
	}
	if _, err := a.variable(node.Operands[0]); err != nil {
		return err
	}
	res, err := a.variable(node.Operands[1])
	if err != nil {
		return err
	}
	return matchTypes(TypeUI8, res.Type)
}

func (a *SemanticAnalyzer) checkMvm(node InstructionNode) error {
	if err := expectOperands(node, 2); err != nil {
		return err
	}
	for _, operand := range node.Operands {
		switch operand.Type {
		case LITERAL:
			if err := checkLiteralRange(operand.Lexeme, TypeI32); err != nil {
				return err
			}
		case IDENTIFIER:
			v, err := a.variable(operand)
			if err != nil {
				return err
			}
			if err := matchTypes(TypeI32, v.Type); err != nil {
				return err
			}
		default:
			return fmt.Errorf("mvm operands must be i32 literals or variables")
		}
	}
	return nil
}

func (a *SemanticAnalyzer) checkJmp(node InstructionNode) error {
	if err := expectOperands(node, 1); err != nil {
		return err
	}
	_, err := a.symbols.LabelAddress(node.Operands[0].Lexeme)
	return err
}

func (a *SemanticAnalyzer) checkConditionalJump(node InstructionNode) error {
	if err := expectOperands(node, 4); err != nil {
		return err
	}
	if _, err := a.variable(node.Operands[0]); err != nil {
		return err
	}
	if _, err := a.variable(node.Operands[1]); err != nil {
		return err
	}
	if _, err := a.symbols.LabelAddress(node.Operands[2].Lexeme); err != nil {
		return err
	}
	_, err := a.symbols.LabelAddress(node.Operands[3].Lexeme)
	return err
}

func (a *SemanticAnalyzer) checkDl(node InstructionNode) error {
	if err := expectOperands(node, 1); err != nil {
		return err
	}

	operand := node.Operands[0]
	switch operand.Type {
	case LITERAL:
		return checkLiteralRange(operand.Lexeme, TypeUI32)
	case IDENTIFIER:
		v, err := a.variable(operand)
		if err != nil {
			return err
		}
		return matchTypes(TypeUI32, v.Type)
	default:
		return fmt.Errorf("dl requires a ui32 literal or a variable")
	}
}

// variable resolves an operand token that must name a declared variable.
func (a *SemanticAnalyzer) variable(tok Token) (VariableInfo, error) {
	if tok.Type != IDENTIFIER {
		return VariableInfo{}, fmt.Errorf("expected a variable identifier")
	}
	return a.symbols.Variable(tok.Lexeme)
}

func expectOperands(node InstructionNode, n int) error {
	if len(node.Operands) != n {
		return fmt.Errorf("expected %d operands", n)
	}
	return nil
}

func matchTypes(expected, actual Type) error {
	if expected != actual {
		return fmt.Errorf("type mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

// checkLiteralRange verifies that a literal lexeme parses cleanly as
// decimal and lies within t's bounds. Integer literals with a fractional
// part never parse cleanly and are rejected outright.
func checkLiteralRange(lexeme string, t Type) error {
	outOfRange := func() error {
		return fmt.Errorf("value %s out of range for type %s", lexeme, t)
	}

	switch t {
	case TypeI8:
		if _, err := strconv.ParseInt(lexeme, 10, 8); err != nil {
			return outOfRange()
		}
	case TypeUI8:
		if _, err := strconv.ParseUint(lexeme, 10, 8); err != nil {
			return outOfRange()
		}
	case TypeI16:
		if _, err := strconv.ParseInt(lexeme, 10, 16); err != nil {
			return outOfRange()
		}
	case TypeUI16:
		if _, err := strconv.ParseUint(lexeme, 10, 16); err != nil {
			return outOfRange()
		}
	case TypeI32:
		if _, err := strconv.ParseInt(lexeme, 10, 32); err != nil {
			return outOfRange()
		}
	case TypeUI32:
		if _, err := strconv.ParseUint(lexeme, 10, 32); err != nil {
			return outOfRange()
		}
	case TypeF32:
		if _, err := strconv.ParseFloat(lexeme, 32); err != nil {
			return outOfRange()
		}
	default:
		return fmt.Errorf("invalid type for literal assignment")
	}
	return nil
}
