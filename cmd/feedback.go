package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/cv-align/internal/feedback"
	"github.com/spigell/cv-align/internal/utils"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Generate strengths, weaknesses and a role fit explanation",
	Run: func(cmd *cobra.Command, _ []string) {
		generateFeedback(cmd)
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().String("job-file", "", "file with the job description")
	feedbackCmd.Flags().String("candidate-file", "", "file with the resume")
	feedbackCmd.Flags().Float64("score", 0, "match score in [0, 100] mentioned in the role fit explanation")
}

func generateFeedback(cmd *cobra.Command) {
	ctx, cancel := commandContext()
	defer cancel()

	logger, config := setup()

	jobDescription, err := readFile("job-file", stringFlag(cmd, "job-file"))
	fatalOnError(logger, "reading job description", err)

	candidate, err := readFile("candidate-file", stringFlag(cmd, "candidate-file"))
	fatalOnError(logger, "reading resume", err)

	matchScore, err := cmd.Flags().GetFloat64("score")
	fatalOnError(logger, "reading score", err)

	generator, err := newFeedback(ctx, config, logger)
	fatalOnError(logger, "building feedback generator", err)

	result := generator.Generate(ctx, feedback.Request{
		JobDescription: jobDescription,
		Candidate:      utils.OneLine(candidate),
		Score:          matchScore,
	})

	fatalOnError(logger, "printing result", printJSON(result))
}
