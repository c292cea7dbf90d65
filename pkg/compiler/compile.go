package compiler

import (
	log "github.com/sirupsen/logrus"
)

// Compile runs the full pipeline over one source string and returns the
// unit's bytecode. Each stage completes before the next begins; the first
// failure aborts the unit.
func Compile(src string) ([]byte, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	log.Debugf("lexed %d tokens", len(tokens))

	program, err := Parse(tokens)
	if err != nil {
		return nil, err
	}
	log.Debugf("parsed %d instructions", len(program))

	symbols := NewSymbolTable()
	if err := Analyze(program, symbols); err != nil {
		return nil, err
	}
	log.Debugf("analyzed: %d bytes of variable memory", symbols.TotalMemorySize())

	bytecode, err := Generate(program, symbols)
	if err != nil {
		return nil, err
	}
	log.Debugf("generated %d bytes of bytecode", len(bytecode))

	return bytecode, nil
}
