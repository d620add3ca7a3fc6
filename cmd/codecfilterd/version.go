package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the codecfilterd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codecfilterd %s (%s)\n", rootCmd.Version, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
