package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/droplet-lang/droplet"
	"github.com/droplet-lang/droplet/vm"
)

func runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file.dbc>",
		Short: "Run a compiled Droplet module",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts := []vm.Option{
				vm.WithLogger(newLogger()),
			}
			if entry := viper.GetString("entry"); entry != "" {
				opts = append(opts, vm.WithEntry(entry))
			}
			if threshold := viper.GetInt("gc-threshold"); threshold > 0 {
				opts = append(opts, vm.WithGCThreshold(threshold))
			}
			result, err := droplet.Run(context.Background(), args[0], opts...)
			if err != nil {
				fatal(err)
			}
			if !result.IsNil() {
				fmt.Println(result.Display())
			}
		},
	}
	cmd.Flags().String("entry", vm.DefaultEntry, "Entry function name")
	cmd.Flags().Int("gc-threshold", 0, "Override the GC trigger threshold")
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fatal(err)
	}
	return cmd
}

// newLogger builds the diagnostic logger for runtime faults. Human-readable
// console output on a terminal, JSON lines otherwise.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	if isatty.IsTerminal(os.Stderr.Fd()) && !viper.GetBool("no-color") {
		writer := zerolog.ConsoleWriter{Out: os.Stderr}
		return zerolog.New(writer).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
