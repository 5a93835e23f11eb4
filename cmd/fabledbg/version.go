package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fabledbg",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("fabledbg version 0.3.0")
	},
}
