package compiler

import "fmt"

// VariableInfo describes a declared variable: its type, its storage size,
// and its byte offset in the VM's flat variable memory.
type VariableInfo struct {
	Type   Type
	Size   int
	Offset int
}

// SymbolTable records the variables and labels declared by one compilation
// unit. Variables and labels live in separate namespaces. Offsets are
// assigned in declaration order with no alignment padding.
type SymbolTable struct {
	variables     map[string]VariableInfo
	labels        map[string]int
	currentOffset int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		variables: make(map[string]VariableInfo),
		labels:    make(map[string]int),
	}
}

// AddVariable declares a variable and assigns it the next offset.
// Declaration is once-only per name.
func (s *SymbolTable) AddVariable(name string, t Type) error {
	if _, ok := s.variables[name]; ok {
		return fmt.Errorf("redeclaration of variable '%s'", name)
	}

	size := t.Size()
	s.variables[name] = VariableInfo{Type: t, Size: size, Offset: s.currentOffset}
	s.currentOffset += size
	return nil
}

// Variable resolves a declared variable.
func (s *SymbolTable) Variable(name string) (VariableInfo, error) {
	info, ok := s.variables[name]
	if !ok {
		return VariableInfo{}, fmt.Errorf("undefined variable '%s'", name)
	}
	return info, nil
}

// IsVariable reports whether name is a declared variable.
func (s *SymbolTable) IsVariable(name string) bool {
	_, ok := s.variables[name]
	return ok
}

// AddLabel declares a label at the given address. Declaration is once-only
// per name.
func (s *SymbolTable) AddLabel(name string, address int) error {
	if _, ok := s.labels[name]; ok {
		return fmt.Errorf("redeclaration of label '%s'", name)
	}
	s.labels[name] = address
	return nil
}

// LabelAddress resolves a declared label.
func (s *SymbolTable) LabelAddress(name string) (int, error) {
	address, ok := s.labels[name]
	if !ok {
		return 0, fmt.Errorf("undefined label '%s'", name)
	}
	return address, nil
}

// TotalMemorySize is the number of bytes of variable memory the unit needs.
func (s *SymbolTable) TotalMemorySize() int {
	return s.currentOffset
}

// Reset clears all declarations so the table can serve another unit.
func (s *SymbolTable) Reset() {
	s.variables = make(map[string]VariableInfo)
	s.labels = make(map[string]int)
	s.currentOffset = 0
}
