package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"golang.org/x/term"

	"decoyc/pkg/compiler"
	"decoyc/pkg/xex"
)

// compilationUnit pairs a source path with its compiled bytecode.
type compilationUnit struct {
	sourcePath string
	bytecode   []byte
}

var compileCmd = &cobra.Command{
	Use:   "compile [flags] script_file(s)",
	Short: "compile Decoy scripts into a .xex archive.",
	Long: `Compile one or more Decoy scripts. Each script becomes one bytecode module
in the output archive, named after the script's file stem plus ".xexm".`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		output := getString(cmd, "output")
		debugLexer := getFlag(cmd, "debug-lexer")
		debugParser := getFlag(cmd, "debug-parser")

		var units []compilationUnit
		for _, input := range args {
			bytecode, err := compileFile(input, debugLexer, debugParser)
			if err != nil {
				reportFailure(err)
				atexit.Exit(1)
			}
			units = append(units, compilationUnit{sourcePath: input, bytecode: bytecode})
		}

		if err := writeArchive(output, units); err != nil {
			reportFailure(err)
			atexit.Exit(1)
		}

		log.Infof("successfully compiled %d scripts to %s", len(units), output)
	},
}

// compileFile runs the pipeline over one source file, emitting the optional
// diagnostic dumps between stages.
func compileFile(path string, debugLexer, debugParser bool) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open source file: %w", err)
	}
	log.Debugf("compiling %s (%d bytes)", path, len(src))

	tokens, err := compiler.Lex(string(src))
	if err != nil {
		return nil, err
	}
	if debugLexer {
		compiler.DumpTokens(os.Stdout, path, tokens)
	}

	program, err := compiler.Parse(tokens)
	if err != nil {
		return nil, err
	}
	if debugParser {
		compiler.DumpProgram(os.Stdout, path, program)
	}

	symbols := compiler.NewSymbolTable()
	if err := compiler.Analyze(program, symbols); err != nil {
		return nil, err
	}

	bytecode, err := compiler.Generate(program, symbols)
	if err != nil {
		return nil, err
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("generated bytecode is empty")
	}

	return bytecode, nil
}

// writeArchive packages the compiled units. A partially written archive is
// removed on any failure exit.
func writeArchive(path string, units []compilationUnit) error {
	w, err := xex.Create(path)
	if err != nil {
		return err
	}

	finalized := false
	atexit.Register(func() {
		if !finalized {
			os.Remove(path)
		}
	})

	for _, unit := range units {
		name := xex.ModuleName(unit.sourcePath)
		if err := w.Add(name, unit.bytecode); err != nil {
			w.Close()
			return err
		}
		log.Debugf("added %s (%d bytes)", name, len(unit.bytecode))
	}

	if err := w.Close(); err != nil {
		return err
	}
	finalized = true
	return nil
}

// reportFailure prints the error to stderr, in red when it is a terminal.
func reportFailure(err error) {
	msg := fmt.Sprintf("\nCompilation Failed!\nError: %v", err)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		msg = "\x1b[31m" + msg + "\x1b[0m"
	}
	fmt.Fprintln(os.Stderr, msg)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("output", "o", "out.xex", "specify output archive.")
	compileCmd.Flags().Bool("debug-lexer", false, "dump the token stream of each script")
	compileCmd.Flags().Bool("debug-parser", false, "dump the instruction list of each script")
	compileCmd.MarkFlagRequired("output")
}
