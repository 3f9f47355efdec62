package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tasnim.dev/hostprep/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "hostprep",
		Short:        "Provision an Amazon Linux host and publish the analysis image to ECR",
		SilenceUsage: true,
	}
	opts := cmd.BindGlobalFlags(rootCmd)

	rootCmd.AddCommand(cmd.NewRunCmd(opts))
	rootCmd.AddCommand(cmd.NewStepsCmd(opts))
	rootCmd.AddCommand(cmd.NewHistoryCmd(opts))
	rootCmd.AddCommand(cmd.NewImagesCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
