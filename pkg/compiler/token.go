package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	INSTRUCTION TokenType = iota // reserved mnemonic, e.g. "av"
	IDENTIFIER                   // variable or label name
	LITERAL                      // decimal number, optionally signed or fractional
	TYPE                         // reserved type name, e.g. "ui8"
	LABEL                        // reserved by the scanner; labels arrive as IDENTIFIER
	STRING                       // string literal "..."
	COMMA                        // ,
	END_OF_LINE                  // newline, or the synthetic terminator at end of input
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	INSTRUCTION: "INSTRUCTION",
	IDENTIFIER:  "IDENTIFIER",
	LITERAL:     "LITERAL",
	TYPE:        "TYPE",
	LABEL:       "LABEL",
	STRING:      "STRING",
	COMMA:       "COMMA",
	END_OF_LINE: "END_OF_LINE",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line on which the token started
}

func (t Token) String() string {
	return fmt.Sprintf("Line %d: %-12s '%s'", t.Line, t.Type, t.Lexeme)
}
