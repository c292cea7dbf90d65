package compiler

import (
	"fmt"
	"io"
)

// DumpTokens writes a token listing, one `Line N: KIND 'lexeme'` entry per
// token.
func DumpTokens(w io.Writer, name string, tokens []Token) {
	fmt.Fprintf(w, "\nToken Stream (%s):\n", name)
	fmt.Fprintln(w, "==============")
	for _, tok := range tokens {
		fmt.Fprintln(w, tok)
	}
	fmt.Fprintln(w, "==============")
	fmt.Fprintln(w)
}

// DumpProgram writes the parsed instruction list, one line per instruction
// with its operands bracketed as `[KIND: "lexeme"]`.
func DumpProgram(w io.Writer, name string, program []InstructionNode) {
	fmt.Fprintf(w, "Parsed Program (%s):\n", name)
	fmt.Fprintln(w, "----------------")
	for _, node := range program {
		fmt.Fprintln(w, node)
	}
	fmt.Fprintln(w, "----------------")
}
