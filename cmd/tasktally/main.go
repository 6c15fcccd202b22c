package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tasktally/core/cmd/tasktally/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tasktally",
		Short: "TaskTally web application",
		Long:  `TaskTally is a personal productivity web application combining a task list with a monthly spending tracker.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
