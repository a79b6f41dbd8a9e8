package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCommand)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := database.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(stdout, "Schema is up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(stdout, "Applied %s\n", name)
	}
	return nil
}
