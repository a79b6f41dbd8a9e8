package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-evaluator/internal/export"
)

var exportCommand = &cobra.Command{
	Use:   "export",
	Short: "Export evaluations and probe records to an Excel workbook",
	RunE:  runExport,
}

var (
	exportJob string
	exportOut string
)

func init() {
	exportCommand.Flags().StringVar(&exportJob, "job", "", "Job position ID (default: all jobs)")
	exportCommand.Flags().StringVarP(&exportOut, "out", "o", "audit_report.xlsx", "Output file")

	rootCmd.AddCommand(exportCommand)
}

func runExport(_ *cobra.Command, _ []string) error {
	jobID := uuid.Nil
	if exportJob != "" {
		id, err := parseID("job", exportJob)
		if err != nil {
			return err
		}
		jobID = id
	}

	ctx, cancel := signalContext()
	defer cancel()

	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	report, err := export.Collect(ctx, database, jobID)
	if err != nil {
		return err
	}
	path, err := export.WriteFile(report, exportOut)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Wrote %d candidates and %d probe records to %s\n", len(report.Candidates), len(report.Probes), path)
	return nil
}
