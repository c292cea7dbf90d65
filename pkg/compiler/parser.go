package compiler

import "fmt"

// Parser consumes the flat token slice produced by the Lexer and builds the
// instruction list.
//
// Grammar:
//
//	program     = instruction*
//	instruction = INSTRUCTION operands END_OF_LINE
//
// where the operand shape is fixed per mnemonic:
//
//	cv                              identifier type
//	av aav sav mav dav moav         identifier value
//	inc dec                         identifier
//	p pl                            (string | identifier)+
//	pk rk                           value
//	ikd                             identifier identifier
//	mvm                             value value
//	dfp jmp                         identifier
//	cejmp cgjmp cljmp cegjmp celjmp identifier identifier identifier identifier
//	dl                              value
//	nop                             (none)
//	value                           = LITERAL | IDENTIFIER
//
// No rule consumes a COMMA, so a comma anywhere inside an instruction line
// is an error.
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse builds the instruction list for an entire token sequence.
func Parse(tokens []Token) ([]InstructionNode, error) {
	return NewParser(tokens).Parse()
}

// Parse consumes every token, one instruction line at a time.
func (p *Parser) Parse() ([]InstructionNode, error) {
	var program []InstructionNode

	for !p.isAtEnd() {
		node, err := p.parseInstruction()
		if err != nil {
			return nil, err
		}
		program = append(program, node)
	}

	return program, nil
}

func (p *Parser) isAtEnd() bool {
	return p.pos >= len(p.tokens)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.isAtEnd() {
		return Token{Type: END_OF_LINE, Lexeme: "EOL", Line: p.lastLine()}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) lastLine() int {
	if len(p.tokens) == 0 {
		return 1
	}
	return p.tokens[len(p.tokens)-1].Line
}

// errorf builds a *ParseError at the current token's line.
func (p *Parser) errorf(format string, args ...any) error {
	line := p.lastLine()
	if !p.isAtEnd() {
		line = p.tokens[p.pos].Line
	}
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// consume advances past the current token if it matches tt, otherwise fails.
func (p *Parser) consume(tt TokenType, msg string) (Token, error) {
	if p.isAtEnd() || p.peek().Type != tt {
		return Token{}, p.errorf("%s", msg)
	}
	return p.advance(), nil
}

func (p *Parser) parseInstruction() (InstructionNode, error) {
	tok := p.advance()
	if tok.Type != INSTRUCTION {
		return InstructionNode{}, &ParseError{
			Line: tok.Line,
			Msg:  fmt.Sprintf("expected an instruction, got %s '%s'", tok.Type, tok.Lexeme),
		}
	}

	node := InstructionNode{Instruction: tok}
	op, ok := opcodes[tok.Lexeme]
	if !ok {
		return InstructionNode{}, &ParseError{Line: tok.Line, Msg: fmt.Sprintf("unknown instruction %s", tok.Lexeme)}
	}

	var err error
	switch op {
	case OpCV:
		err = p.parseCv(&node)
	case OpAV, OpAAV, OpSAV, OpMAV, OpDAV, OpMOAV:
		err = p.parseAssignment(&node)
	case OpINC, OpDEC:
		err = p.parseIncDec(&node)
	case OpP, OpPL:
		err = p.parsePrint(&node)
	case OpPK, OpRK:
		err = p.parseKeyOperation(&node)
	case OpIKD:
		err = p.parseIkd(&node)
	case OpMVM:
		err = p.parseMvm(&node)
	case OpDFP, OpJMP:
		err = p.parseLabelRef(&node)
	case OpCEJMP, OpCGJMP, OpCLJMP, OpCEGJMP, OpCELJMP:
		err = p.parseConditionalJmp(&node)
	case OpDL:
		err = p.parseDl(&node)
	case OpNOP:
		err = p.parseNop(&node)
	}
	if err != nil {
		return InstructionNode{}, err
	}

	if _, err := p.consume(END_OF_LINE, "expected end of line after instruction"); err != nil {
		return InstructionNode{}, err
	}

	return node, nil
}

func (p *Parser) parseCv(node *InstructionNode) error {
	name, err := p.consume(IDENTIFIER, "expected a variable name")
	if err != nil {
		return err
	}
	typ, err := p.consume(TYPE, "expected a variable type (e.g. ui8, i32)")
	if err != nil {
		return err
	}
	node.Operands = append(node.Operands, name, typ)
	return nil
}

func (p *Parser) parseAssignment(node *InstructionNode) error {
	name, err := p.consume(IDENTIFIER, "expected a variable name")
	if err != nil {
		return err
	}
	node.Operands = append(node.Operands, name)
	return p.consumeValueOperand(node)
}

func (p *Parser) parseIncDec(node *InstructionNode) error {
	name, err := p.consume(IDENTIFIER, "expected a variable name")
	if err != nil {
		return err
	}
	node.Operands = append(node.Operands, name)
	return nil
}

// parsePrint consumes operands greedily while the next token is a string or
// identifier. At least one operand is required.
func (p *Parser) parsePrint(node *InstructionNode) error {
	for p.peek().Type == STRING || p.peek().Type == IDENTIFIER {
		node.Operands = append(node.Operands, p.advance())
	}

	if len(node.Operands) == 0 {
		return p.errorf("print instruction requires at least one operand")
	}
	return nil
}

func (p *Parser) parseKeyOperation(node *InstructionNode) error {
	if tt := p.peek().Type; tt == LITERAL || tt == IDENTIFIER {
		node.Operands = append(node.Operands, p.advance())
		return nil
	}
	return p.errorf("key operation requires a literal or a variable")
}

func (p *Parser) parseIkd(node *InstructionNode) error {
	key, err := p.consume(IDENTIFIER, "expected a key variable")
	if err != nil {
		return err
	}
	res, err := p.consume(IDENTIFIER, "expected a result variable")
	if err != nil {
		return err
	}
	node.Operands = append(node.Operands, key, res)
	return nil
}

func (p *Parser) parseMvm(node *InstructionNode) error {
	if err := p.consumeValueOperand(node); err != nil {
		return err
	}
	return p.consumeValueOperand(node)
}

func (p *Parser) parseLabelRef(node *InstructionNode) error {
	name, err := p.consume(IDENTIFIER, "expected a label name")
	if err != nil {
		return err
	}
	node.Operands = append(node.Operands, name)
	return nil
}

func (p *Parser) parseConditionalJmp(node *InstructionNode) error {
	for _, msg := range [4]string{
		"expected first operand variable",
		"expected second operand variable",
		"expected true label",
		"expected false label",
	} {
		tok, err := p.consume(IDENTIFIER, msg)
		if err != nil {
			return err
		}
		node.Operands = append(node.Operands, tok)
	}
	return nil
}

func (p *Parser) parseDl(node *InstructionNode) error {
	return p.consumeValueOperand(node)
}

func (p *Parser) parseNop(node *InstructionNode) error {
	if p.peek().Type != END_OF_LINE {
		return p.errorf("nop takes no operands")
	}
	return nil
}

func (p *Parser) consumeValueOperand(node *InstructionNode) error {
	if tt := p.peek().Type; tt == LITERAL || tt == IDENTIFIER {
		node.Operands = append(node.Operands, p.advance())
		return nil
	}
	return p.errorf("expected a literal value or a variable")
}
