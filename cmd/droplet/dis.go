package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droplet-lang/droplet/bytecode"
	"github.com/droplet-lang/droplet/dis"
)

func disCommand() *cobra.Command {
	var funcName string
	cmd := &cobra.Command{
		Use:   "dis <file.dbc>",
		Short: "Disassemble a compiled Droplet module",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			module, err := bytecode.ReadFile(args[0])
			if err != nil {
				fatal(err)
			}
			functions := module.Functions
			if funcName != "" {
				fn := module.Function(funcName)
				if fn == nil {
					fatal(fmt.Errorf("function %q not found", funcName))
				}
				functions = []*bytecode.Function{fn}
			}
			for _, fn := range functions {
				fmt.Printf("%s (args=%d locals=%d)\n", fn.Name, fn.ArgCount, fn.LocalCount)
				instructions, err := dis.Disassemble(module, fn)
				if err != nil {
					fatal(err)
				}
				dis.Print(instructions, os.Stdout)
				fmt.Println()
			}
		},
	}
	cmd.Flags().StringVar(&funcName, "func", "", "Disassemble a single function")
	return cmd
}
