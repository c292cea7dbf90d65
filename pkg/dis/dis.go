// Package dis decodes Decoy bytecode streams back into readable listings.
//
// The wire format is not fully self-describing: a value operand is either a
// tagged literal or a bare 4-byte offset whose low byte can collide with a
// type tag, and p/pl instructions carry no operand count. The decoder
// resolves both by backtracking: at each ambiguous point it tries every
// reading and keeps the first one under which the remainder of the stream
// decodes cleanly. Pathological streams can still decode differently from
// how they were encoded; the encoding itself is fixed by the VM contract.
package dis

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"decoyc/pkg/compiler"
)

// maxPrintOperands bounds the operand search for one p/pl instruction and
// maxPrintCandidates the total readings considered for it. Both limits only
// matter for adversarial streams where every payload parses both ways.
const (
	maxPrintOperands   = 64
	maxPrintCandidates = 1024
)

// Inst is one decoded instruction.
type Inst struct {
	Addr int // byte offset of the opcode within the stream
	Op   compiler.Opcode
	Args []string
}

func (i Inst) String() string {
	if len(i.Args) == 0 {
		return fmt.Sprintf("%04x: %s", i.Addr, i.Op)
	}
	return fmt.Sprintf("%04x: %-6s %s", i.Addr, i.Op, strings.Join(i.Args, " "))
}

// Decode parses an entire bytecode stream into instructions.
func Decode(data []byte) ([]Inst, error) {
	insts, ok := decodeFrom(data, 0)
	if !ok {
		return nil, fmt.Errorf("cannot decode bytecode stream (%d bytes)", len(data))
	}
	return insts, nil
}

// Listing decodes data and renders one instruction per line.
func Listing(data []byte) (string, error) {
	insts, err := Decode(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, inst := range insts {
		sb.WriteString(inst.String())
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// candidate is one possible reading of a single instruction.
type candidate struct {
	inst Inst
	end  int // position of the next opcode
}

// decodeFrom decodes the stream from pos to the end, backtracking across
// instruction readings until the whole remainder parses.
func decodeFrom(data []byte, pos int) ([]Inst, bool) {
	if pos >= len(data) {
		return nil, true
	}

	for _, cand := range instCandidates(data, pos) {
		rest, ok := decodeFrom(data, cand.end)
		if ok {
			return append([]Inst{cand.inst}, rest...), true
		}
	}

	return nil, false
}

// instCandidates enumerates the possible readings of the instruction whose
// opcode byte is at pos.
func instCandidates(data []byte, pos int) []candidate {
	op := compiler.Opcode(data[pos])
	if !op.Valid() {
		return nil
	}

	r := reader{data: data, pos: pos + 1}
	one := func(args []string, end int) []candidate {
		return []candidate{{inst: Inst{Addr: pos, Op: op, Args: args}, end: end}}
	}

	switch op {
	case compiler.OpCV:
		name, ok := r.str()
		if !ok {
			return nil
		}
		tag, ok := r.u8()
		if !ok || !compiler.Type(tag).Valid() {
			return nil
		}
		return one([]string{name, compiler.Type(tag).String()}, r.pos)

	case compiler.OpAV, compiler.OpAAV, compiler.OpSAV, compiler.OpMAV, compiler.OpDAV, compiler.OpMOAV:
		off, ok := r.u32()
		if !ok {
			return nil
		}
		return valueCandidates(data, pos, op, []string{varRef(off)}, r.pos, 1)

	case compiler.OpINC, compiler.OpDEC:
		off, ok := r.u32()
		if !ok {
			return nil
		}
		return one([]string{varRef(off)}, r.pos)

	case compiler.OpP, compiler.OpPL:
		var cands []candidate
		printCandidates(data, pos, op, nil, r.pos, &cands)
		return cands

	case compiler.OpPK, compiler.OpRK, compiler.OpDL:
		return valueCandidates(data, pos, op, nil, r.pos, 1)

	case compiler.OpIKD:
		key, ok := r.u32()
		if !ok {
			return nil
		}
		res, ok := r.u32()
		if !ok {
			return nil
		}
		return one([]string{varRef(key), varRef(res)}, r.pos)

	case compiler.OpMVM:
		return valueCandidates(data, pos, op, nil, r.pos, 2)

	case compiler.OpJMP:
		addr, ok := r.u32()
		if !ok {
			return nil
		}
		return one([]string{labelRef(addr)}, r.pos)

	case compiler.OpCEJMP, compiler.OpCGJMP, compiler.OpCLJMP, compiler.OpCEGJMP, compiler.OpCELJMP:
		var args []string
		for i := 0; i < 2; i++ {
			off, ok := r.u32()
			if !ok {
				return nil
			}
			args = append(args, varRef(off))
		}
		for i := 0; i < 2; i++ {
			addr, ok := r.u32()
			if !ok {
				return nil
			}
			args = append(args, labelRef(addr))
		}
		return one(args, r.pos)

	case compiler.OpNOP:
		return one(nil, r.pos)
	}

	return nil
}

// valueCandidates expands `remaining` value operands starting at pos, each
// of which may be a tagged literal or a bare offset.
func valueCandidates(data []byte, start int, op compiler.Opcode, args []string, pos, remaining int) []candidate {
	if remaining == 0 {
		return []candidate{{inst: Inst{Addr: start, Op: op, Args: args}, end: pos}}
	}

	var cands []candidate
	for _, v := range valueReadings(data, pos) {
		cands = append(cands, valueCandidates(data, start, op, append(append([]string{}, args...), v.text), v.end, remaining-1)...)
	}
	return cands
}

type valueReading struct {
	text string
	end  int
}

// valueReadings lists the possible readings of one value payload at pos:
// first as a tagged literal when the tag byte is a value type, then as a
// bare variable offset.
func valueReadings(data []byte, pos int) []valueReading {
	var readings []valueReading

	r := reader{data: data, pos: pos}
	if tag, ok := r.u8(); ok {
		t := compiler.Type(tag)
		if text, ok := r.literal(t); ok {
			readings = append(readings, valueReading{text: text, end: r.pos})
		}
	}

	r = reader{data: data, pos: pos}
	if off, ok := r.u32(); ok {
		readings = append(readings, valueReading{text: varRef(off), end: r.pos})
	}

	return readings
}

// printCandidates enumerates operand lists for a p/pl instruction: one or
// more operands, each a length-prefixed string or a bare offset. The stop
// reading is emitted first so the operand run does not swallow the next
// instruction when a shorter parse suffices. A non-empty length-prefixed run
// of printable text is tried as a string before the offset reading; in every
// other case the offset reading comes first, because a zero offset and an
// empty string are byte-identical on the wire.
func printCandidates(data []byte, start int, op compiler.Opcode, args []string, pos int, out *[]candidate) {
	if len(args) >= 1 {
		*out = append(*out, candidate{
			inst: Inst{Addr: start, Op: op, Args: append([]string{}, args...)},
			end:  pos,
		})
	}
	if len(args) >= maxPrintOperands || len(*out) >= maxPrintCandidates {
		return
	}

	sr := reader{data: data, pos: pos}
	s, strOK := sr.str()
	stringFirst := strOK && len(s) > 0
	for i := 0; stringFirst && i < len(s); i++ {
		stringFirst = s[i] >= 0x20 && s[i] != 0x7f
	}
	if stringFirst {
		printCandidates(data, start, op, append(args, fmt.Sprintf("%q", s)), sr.pos, out)
	}

	r := reader{data: data, pos: pos}
	if off, ok := r.u32(); ok {
		printCandidates(data, start, op, append(args, varRef(off)), r.pos, out)
	}

	if strOK && !stringFirst {
		printCandidates(data, start, op, append(args, fmt.Sprintf("%q", s)), sr.pos, out)
	}
}

func varRef(offset uint32) string {
	return fmt.Sprintf("@%d", offset)
}

func labelRef(address uint32) string {
	return fmt.Sprintf("0x%04x", address)
}

// reader is a bounds-checked cursor over the stream.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) u8() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	b := r.data[r.pos]
	r.pos++
	return b, true
}

func (r *reader) u32() (uint32, bool) {
	if r.pos+4 > len(r.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, true
}

func (r *reader) u16() (uint16, bool) {
	if r.pos+2 > len(r.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, true
}

// str reads a u32 length prefix followed by that many raw bytes.
func (r *reader) str() (string, bool) {
	n, ok := r.u32()
	if !ok || r.pos+int(n) > len(r.data) {
		return "", false
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, true
}

// literal reads the value that follows a type tag and renders it as
// type(value).
func (r *reader) literal(t compiler.Type) (string, bool) {
	switch t {
	case compiler.TypeI8:
		b, ok := r.u8()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%d)", t, int8(b)), true
	case compiler.TypeUI8:
		b, ok := r.u8()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%d)", t, b), true
	case compiler.TypeI16:
		v, ok := r.u16()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%d)", t, int16(v)), true
	case compiler.TypeUI16:
		v, ok := r.u16()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%d)", t, v), true
	case compiler.TypeI32:
		v, ok := r.u32()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%d)", t, int32(v)), true
	case compiler.TypeUI32:
		v, ok := r.u32()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%d)", t, v), true
	case compiler.TypeF32:
		v, ok := r.u32()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%g)", t, math.Float32frombits(v)), true
	default:
		return "", false
	}
}
