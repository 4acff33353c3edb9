package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/evaluation"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Ingest a job description and a resume, score the resume and explain the result",
	Run: func(cmd *cobra.Command, _ []string) {
		evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("tenant", "", "tenant (company) id")
	evaluateCmd.Flags().String("job", "", "job id")
	evaluateCmd.Flags().String("candidate", "", "candidate id (default is a new UUID)")
	evaluateCmd.Flags().String("title", "", "job title copied into the report")
	evaluateCmd.Flags().String("job-file", "", "file with the job description")
	evaluateCmd.Flags().String("candidate-file", "", "file with the resume")
	evaluateCmd.MarkFlagRequired("tenant")
	evaluateCmd.MarkFlagRequired("job")
}

func evaluate(cmd *cobra.Command) {
	ctx, cancel := commandContext()
	defer cancel()

	logger, config := setup()

	jobDescription, err := readFile("job-file", stringFlag(cmd, "job-file"))
	fatalOnError(logger, "reading job description", err)

	candidate, err := readFile("candidate-file", stringFlag(cmd, "candidate-file"))
	fatalOnError(logger, "reading resume", err)

	evaluator, err := newEvaluator(ctx, config, logger)
	fatalOnError(logger, "building evaluator", err)

	result, err := evaluator.Evaluate(ctx, evaluation.Request{
		TenantID:       stringFlag(cmd, "tenant"),
		JobID:          stringFlag(cmd, "job"),
		CandidateID:    stringFlag(cmd, "candidate"),
		JobTitle:       stringFlag(cmd, "title"),
		JobDescription: jobDescription,
		Candidate:      candidate,
	})
	fatalOnError(logger, "evaluating", err)

	logger.Info("evaluation finished", zap.String("candidate_id", result.CandidateID), zap.String("status", result.Status))
	fatalOnError(logger, "printing result", printJSON(result))
}
