package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version подставляется при сборке через -ldflags "-X main.version=..."
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print planner version",
		// конфигурация не нужна
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "planner", version)
		},
	}
}
