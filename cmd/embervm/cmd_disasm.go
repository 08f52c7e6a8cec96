package main

import (
	"os"

	"github.com/spf13/cobra"

	"embervm/bytecode"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <program.ebc>",
	Short: "Disassembles a compiled bytecode program",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		prog, err := loadProgram(path)
		if err != nil {
			return err
		}
		bytecode.Disassemble(prog, os.Stdout, path)
		return nil
	},
}
