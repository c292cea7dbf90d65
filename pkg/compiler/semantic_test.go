package compiler

import (
	"errors"
	"strings"
	"testing"
)

// analyze is a test helper running lex, parse, and both semantic passes.
func analyze(t *testing.T, src string) (*SymbolTable, error) {
	t.Helper()
	program, err := Parse(mustLex(t, src))
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", src, err)
	}
	symbols := NewSymbolTable()
	return symbols, Analyze(program, symbols)
}

func TestAnalyzeDeclarations(t *testing.T) {
	symbols, err := analyze(t, "cv a ui8\ncv b i32\ndfp start\nnop\n")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	a, err := symbols.Variable("a")
	if err != nil || a.Type != TypeUI8 || a.Offset != 0 {
		t.Errorf("Variable(\"a\") = %+v, %v; want ui8 at offset 0", a, err)
	}
	b, err := symbols.Variable("b")
	if err != nil || b.Type != TypeI32 || b.Offset != 1 {
		t.Errorf("Variable(\"b\") = %+v, %v; want i32 at offset 1", b, err)
	}

	// First-pass label addresses count instructions, not bytes. They only
	// establish that the label exists.
	addr, err := symbols.LabelAddress("start")
	if err != nil || addr != 2 {
		t.Errorf("LabelAddress(\"start\") = %d, %v; want 2, nil", addr, err)
	}
}

func TestAnalyzeValidPrograms(t *testing.T) {
	sources := []string{
		"cv a ui8\nav a 5\n",
		"cv a ui8\ncv b ui8\nav a b\n",
		"cv a i8\nav a -128\naav a 127\n",
		"cv f f32\nav f 3.14\nsav f -0.5\n",
		"cv a ui8\ninc a\ndec a\n",
		"cv n ui8\np \"n=\" n\npl n\n",
		"pk 255\nrk 0\n",
		"cv k ui32\npk k\n", // key operations accept a variable of any type
		"cv k ui8\ncv down ui8\nikd k down\n",
		"mvm 5 -5\n",
		"cv dx i32\ncv dy i32\nmvm dx dy\n",
		"dfp loop\njmp loop\n",
		"cv x ui8\ncv y ui8\ndfp t\ndfp f\ncegjmp x y t f\n",
		"dl 4294967295\n",
		"cv ms ui32\ndl ms\n",
		"nop\n",
		"cv t ui8\ndfp t\njmp t\ninc t\n", // same name as variable and label
	}

	for _, src := range sources {
		if _, err := analyze(t, src); err != nil {
			t.Errorf("Analyze(%q) returned error: %v", src, err)
		}
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			"Variable Redeclaration",
			"cv a ui8\ncv a ui8\n",
			"At instruction cv (line 2): redeclaration of variable 'a'",
		},
		{
			"Label Redeclaration",
			"dfp x\ndfp x\n",
			"At instruction dfp (line 2): redeclaration of label 'x'",
		},
		{
			"Literal Out Of Range",
			"cv a ui8\nav a 300\n",
			"At instruction av (line 2): value 300 out of range for type ui8",
		},
		{
			"Negative For Unsigned",
			"cv a ui16\nav a -1\n",
			"value -1 out of range for type ui16",
		},
		{
			"Fractional For Integer",
			"cv a ui8\nav a 1.5\n",
			"value 1.5 out of range for type ui8",
		},
		{
			"Lone Minus",
			"cv a i8\nav a -\n",
			"value - out of range for type i8",
		},
		{
			"Type Mismatch",
			"cv a ui8\ncv b i8\nav a b\n",
			"At instruction av (line 3): type mismatch: expected ui8, got i8",
		},
		{
			"Assign Undefined Variable",
			"cv a ui8\nav b 5\n",
			"undefined variable 'b'",
		},
		{
			"Assign From Undefined Variable",
			"cv a ui8\nav a b\n",
			"undefined variable 'b'",
		},
		{
			"Increment Undefined",
			"inc a\n",
			"At instruction inc (line 1): undefined variable 'a'",
		},
		{
			"Print Undefined",
			"p \"x=\" x\n",
			"At instruction p (line 1): undefined variable 'x'",
		},
		{
			"Key Code Out Of Range",
			"pk 256\n",
			"value 256 out of range for type ui8",
		},
		{
			"Key Result Not UI8",
			"cv k ui8\ncv r i32\nikd k r\n",
			"At instruction ikd (line 3): type mismatch: expected ui8, got i32",
		},
		{
			"Mouse Operand Not I32",
			"cv dx ui8\nmvm dx 5\n",
			"At instruction mvm (line 2): type mismatch: expected i32, got ui8",
		},
		{
			"Mouse Literal Out Of Range",
			"mvm 2147483648 0\n",
			"value 2147483648 out of range for type i32",
		},
		{
			"Jump To Undefined Label",
			"jmp nowhere\n",
			"At instruction jmp (line 1): undefined label 'nowhere'",
		},
		{
			"Conditional Jump Undefined False Label",
			"cv x ui8\ncv y ui8\ndfp t\ncejmp x y t f\n",
			"At instruction cejmp (line 4): undefined label 'f'",
		},
		{
			"Delay Negative",
			"dl -1\n",
			"value -1 out of range for type ui32",
		},
		{
			"Delay Variable Not UI32",
			"cv ms ui16\ndl ms\n",
			"At instruction dl (line 2): type mismatch: expected ui32, got ui16",
		},
		{
			"Declare NT",
			"cv a nt\n",
			"At instruction cv (line 1): invalid type specifier 'nt'",
		},
		{
			"Declare STR",
			"cv s str\n",
			"At instruction cv (line 1): invalid type specifier 'str'",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := analyze(t, tc.input)
			if err == nil {
				t.Fatalf("Analyze(%q) succeeded; want error %q", tc.input, tc.wantMsg)
			}
			var sErr *SemanticError
			if !errors.As(err, &sErr) {
				t.Fatalf("Analyze(%q) error is %T; want *SemanticError", tc.input, err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("Analyze(%q) error = %q; want it to contain %q", tc.input, err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestLiteralRanges(t *testing.T) {
	tests := []struct {
		typ    Type
		accept []string
		reject []string
	}{
		{TypeI8, []string{"-128", "0", "127"}, []string{"-129", "128", "1.5", "-"}},
		{TypeUI8, []string{"0", "255"}, []string{"-1", "256"}},
		{TypeI16, []string{"-32768", "32767"}, []string{"-32769", "32768"}},
		{TypeUI16, []string{"0", "65535"}, []string{"-1", "65536"}},
		{TypeI32, []string{"-2147483648", "2147483647"}, []string{"-2147483649", "2147483648"}},
		{TypeUI32, []string{"0", "4294967295"}, []string{"-1", "4294967296"}},
		{TypeF32, []string{"3.14", "-0.5", "100", "0.0"}, []string{"-", "-."}},
	}

	for _, tc := range tests {
		for _, lit := range tc.accept {
			if err := checkLiteralRange(lit, tc.typ); err != nil {
				t.Errorf("checkLiteralRange(%q, %v) = %v; want nil", lit, tc.typ, err)
			}
		}
		for _, lit := range tc.reject {
			if err := checkLiteralRange(lit, tc.typ); err == nil {
				t.Errorf("checkLiteralRange(%q, %v) = nil; want error", lit, tc.typ)
			}
		}
	}
}
