package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-evaluator/internal/types"
)

var createJobCommand = &cobra.Command{
	Use:   "create-job",
	Short: "Create a job position",
	RunE:  runCreateJob,
}

var addCandidateCommand = &cobra.Command{
	Use:   "add-candidate",
	Short: "Add a candidate with a plain-text resume to a job position",
	Long:  `Stores the resume in stage "new" so that bulk or worker picks it up.`,
	RunE:  runAddCandidate,
}

var (
	jobTitle        string
	jobRequirements string
	jobMinYears     int
	jobRubric       string

	candJob       string
	candResume    string
	candFirstName string
	candLastName  string
	candEmail     string
)

func init() {
	createJobCommand.Flags().StringVar(&jobTitle, "title", "", "Job title (required)")
	createJobCommand.Flags().StringVar(&jobRequirements, "requirements", "", "Comma-separated skill requirements")
	createJobCommand.Flags().IntVar(&jobMinYears, "min-years", 0, "Minimum years of experience")
	createJobCommand.Flags().StringVar(&jobRubric, "rubric", "", "Rubric file for this job (default rubric when empty)")
	_ = createJobCommand.MarkFlagRequired("title")

	addCandidateCommand.Flags().StringVar(&candJob, "job", "", "Job position ID (required)")
	addCandidateCommand.Flags().StringVarP(&candResume, "resume", "r", "", "Path to plain-text resume (required)")
	addCandidateCommand.Flags().StringVar(&candFirstName, "first-name", "", "First name (the parser fills it when empty)")
	addCandidateCommand.Flags().StringVar(&candLastName, "last-name", "", "Last name")
	addCandidateCommand.Flags().StringVar(&candEmail, "email", "", "Email")
	_ = addCandidateCommand.MarkFlagRequired("job")
	_ = addCandidateCommand.MarkFlagRequired("resume")

	rootCmd.AddCommand(createJobCommand, addCandidateCommand)
}

func runCreateJob(_ *cobra.Command, _ []string) error {
	job := &types.Job{
		Title:              strings.TrimSpace(jobTitle),
		Requirements:       jobRequirements,
		MinExperienceYears: jobMinYears,
	}
	if jobRubric != "" {
		rubric, err := loadRubric(jobRubric)
		if err != nil {
			return err
		}
		job.Rubric = rubric
	}

	ctx, cancel := signalContext()
	defer cancel()

	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.CreateJob(ctx, job); err != nil {
		return err
	}
	fmt.Fprintln(stdout, job.ID)
	return nil
}

func runAddCandidate(_ *cobra.Command, _ []string) error {
	jobID, err := parseID("job", candJob)
	if err != nil {
		return err
	}
	text, err := readText(candResume)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("resume %s is empty", candResume)
	}

	ctx, cancel := signalContext()
	defer cancel()

	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if _, err := database.GetJob(ctx, jobID); err != nil {
		return err
	}
	c := &types.Candidate{
		JobID:      jobID,
		FirstName:  candFirstName,
		LastName:   candLastName,
		Email:      candEmail,
		ResumeText: text,
	}
	if err := database.CreateCandidate(ctx, c); err != nil {
		return err
	}
	fmt.Fprintln(stdout, c.ID)
	return nil
}
