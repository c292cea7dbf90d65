package compiler

import "fmt"

// Opcode is the 1-byte wire code emitted for a mnemonic.
type Opcode uint8

const (
	OpCV     Opcode = 0   // cv var type: declare a variable
	OpAV     Opcode = 1   // av var value: assign
	OpAAV    Opcode = 2   // aav var value: assign via addition
	OpSAV    Opcode = 3   // sav var value: assign via subtraction
	OpMAV    Opcode = 4   // mav var value: assign via multiplication
	OpDAV    Opcode = 5   // dav var value: assign via division
	OpMOAV   Opcode = 6   // moav var value: assign via modulus
	OpINC    Opcode = 7   // inc var
	OpDEC    Opcode = 8   // dec var
	OpP      Opcode = 9   // p args...: print consecutive strings/variables
	OpPL     Opcode = 10  // pl args...: print, then newline
	OpPK     Opcode = 11  // pk key: press the given key code
	OpRK     Opcode = 12  // rk key: release the given key code
	OpIKD    Opcode = 13  // ikd key res: is the key code down
	OpMVM    Opcode = 14  // mvm x y: move the mouse by x, y
	OpDFP    Opcode = 15  // dfp tag: define a jump position (emits no bytes)
	OpJMP    Opcode = 16  // jmp tag
	OpCEJMP  Opcode = 17  // cejmp a b t f: jump to t if a == b, else f
	OpCGJMP  Opcode = 18  // cgjmp a b t f: jump to t if a > b, else f
	OpCLJMP  Opcode = 19  // cljmp a b t f: jump to t if a < b, else f
	OpCEGJMP Opcode = 20  // cegjmp a b t f: jump to t if a >= b, else f
	OpCELJMP Opcode = 21  // celjmp a b t f: jump to t if a <= b, else f
	OpDL     Opcode = 22  // dl ms: delay
	OpNOP    Opcode = 255 // nop
)

// opcodes is the authoritative mnemonic table. The lexer's keyword set and
// the code generator's opcode bytes are both derived from it.
var opcodes = map[string]Opcode{
	"cv":     OpCV,
	"av":     OpAV,
	"aav":    OpAAV,
	"sav":    OpSAV,
	"mav":    OpMAV,
	"dav":    OpDAV,
	"moav":   OpMOAV,
	"inc":    OpINC,
	"dec":    OpDEC,
	"p":      OpP,
	"pl":     OpPL,
	"pk":     OpPK,
	"rk":     OpRK,
	"ikd":    OpIKD,
	"mvm":    OpMVM,
	"dfp":    OpDFP,
	"jmp":    OpJMP,
	"cejmp":  OpCEJMP,
	"cgjmp":  OpCGJMP,
	"cljmp":  OpCLJMP,
	"cegjmp": OpCEGJMP,
	"celjmp": OpCELJMP,
	"dl":     OpDL,
	"nop":    OpNOP,
}

// mnemonics is the reverse of opcodes, for listings and decoders.
var mnemonics = func() map[Opcode]string {
	m := make(map[Opcode]string, len(opcodes))
	for name, op := range opcodes {
		m[op] = name
	}
	return m
}()

func (op Opcode) String() string {
	if name, ok := mnemonics[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Mnemonic reports the opcode for a mnemonic, if it is one.
func Mnemonic(name string) (Opcode, bool) {
	op, ok := opcodes[name]
	return op, ok
}

// Valid reports whether op is an assigned opcode.
func (op Opcode) Valid() bool {
	_, ok := mnemonics[op]
	return ok
}

// Type is the 1-byte wire code for a value type.
type Type uint8

const (
	TypeNT   Type = 0 // no type
	TypeI8   Type = 1
	TypeUI8  Type = 2
	TypeI16  Type = 3
	TypeUI16 Type = 4
	TypeI32  Type = 5
	TypeUI32 Type = 6
	TypeF32  Type = 7
	TypeSTR  Type = 8
)

// types is the authoritative type-name table.
var types = map[string]Type{
	"nt":   TypeNT,
	"i8":   TypeI8,
	"ui8":  TypeUI8,
	"i16":  TypeI16,
	"ui16": TypeUI16,
	"i32":  TypeI32,
	"ui32": TypeUI32,
	"f32":  TypeF32,
	"str":  TypeSTR,
}

var typeNames = func() map[Type]string {
	m := make(map[Type]string, len(types))
	for name, t := range types {
		m[t] = name
	}
	return m
}()

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Valid reports whether t is an assigned type code.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Size returns the number of bytes a variable of this type occupies in the
// VM's variable memory. NT and STR variables occupy no storage.
func (t Type) Size() int {
	switch t {
	case TypeI8, TypeUI8:
		return 1
	case TypeI16, TypeUI16:
		return 2
	case TypeI32, TypeUI32, TypeF32:
		return 4
	default:
		return 0
	}
}
