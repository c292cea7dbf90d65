package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"decoyc/pkg/dis"
	"decoyc/pkg/xex"
)

var disCmd = &cobra.Command{
	Use:   "dis [flags] archive_file [module]",
	Short: "disassemble modules from a .xex archive.",
	Long: `Decode the bytecode modules of a .xex archive back into a readable
listing. With a module name only that entry is decoded.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		archive, err := xex.Open(args[0])
		if err != nil {
			reportFailure(err)
			atexit.Exit(1)
		}
		defer archive.Close()

		modules := archive.Modules()
		if len(args) == 2 {
			modules = []string{args[1]}
		}

		for _, name := range modules {
			bytecode, err := archive.Read(name)
			if err != nil {
				reportFailure(err)
				atexit.Exit(1)
			}
			listing, err := dis.Listing(bytecode)
			if err != nil {
				reportFailure(fmt.Errorf("%s: %w", name, err))
				atexit.Exit(1)
			}
			fmt.Printf("%s (%d bytes):\n%s\n", name, len(bytecode), listing)
		}
	},
}

func init() {
	rootCmd.AddCommand(disCmd)
}
