package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(msg any) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func main() {
	root := &cobra.Command{
		Use:   "droplet",
		Short: "Droplet bytecode virtual machine",
		Long:  "Run and inspect compiled Droplet bytecode modules (.dbc files).",
	}
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug diagnostics")
	if err := viper.BindPFlags(root.PersistentFlags()); err != nil {
		fatal(err)
	}
	viper.SetEnvPrefix("droplet")
	viper.AutomaticEnv()

	cobra.OnInitialize(func() {
		if viper.GetBool("no-color") {
			color.NoColor = true
		}
	})

	root.AddCommand(runCommand())
	root.AddCommand(disCommand())
	root.AddCommand(versionCommand())

	if err := root.Execute(); err != nil {
		fatal(err)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("droplet %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
