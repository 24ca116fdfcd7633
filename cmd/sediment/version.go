package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sediment"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sediment",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sediment version %s\n", strings.TrimSpace(sediment.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
