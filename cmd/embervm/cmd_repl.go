package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"embervm/bytecode"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Starts an interactive instruction-at-a-time session",
	Long: `Accepts one textual instruction per line (e.g. "MAKE_LIST 0"),
assembles it with bytecode.Assemble, runs it through a persistent
interpreter, and prints the resulting stack top after each line. The
session's program has an empty constant pool, so PUSH_CONST reports an
out-of-range constant index.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := readline.New("embervm> ")
		if err != nil {
			return err
		}
		defer rl.Close()

		prog := &bytecode.Program{}
		vm, pool, err := buildVM(prog, ".")
		if err != nil {
			return err
		}
		defer pool.Shutdown()

		for {
			line, err := rl.Readline()
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			if err != nil {
				return err
			}
			if line == "" {
				continue
			}
			instr, err := bytecode.Assemble(line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			top, err := vm.Step(instr)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if top != nil {
				fmt.Println(top.String())
			}
		}
	},
}
