package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ymori/dinnerbot/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "dinnerbot-configure",
		Short: "Administration tool for the dinner recommendation bot",
		Long:  "CLI tool for importing meal history, triggering pushes, and checking connectivity",
	}

	rootCmd.AddCommand(commands.NewImportMealsCmd())
	rootCmd.AddCommand(commands.NewDailyPushCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
