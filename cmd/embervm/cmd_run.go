package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <program.ebc>",
	Short: "Runs a compiled bytecode program",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		prog, err := loadProgram(path)
		if err != nil {
			return err
		}
		vm, pool, err := buildVM(prog, path)
		if err != nil {
			return err
		}
		defer pool.Shutdown()

		result, err := vm.Run()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if result != nil {
			fmt.Println(result.String())
		}
		return nil
	},
}
