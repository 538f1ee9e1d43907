package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func main() {
	defer klog.Flush()
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "wayfarer",
		Short:        "Multi-objective travelling salesman solver built on NSGA-II",
		SilenceUsage: true,
	}

	fs := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(fs)
	cmd.PersistentFlags().AddGoFlagSet(fs)

	cmd.AddCommand(newSolveCommand())
	cmd.AddCommand(newBenchmarkCommand())
	cmd.AddCommand(newRunsCommand())
	return cmd
}
