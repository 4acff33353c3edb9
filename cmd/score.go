package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/cv-align/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score stored resumes against the stored job description",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("tenant", "", "tenant (company) id")
	scoreCmd.Flags().String("job", "", "job id")
	scoreCmd.Flags().String("candidate", "", "candidate id; empty scores every stored resume of the job")
	scoreCmd.MarkFlagRequired("tenant")
	scoreCmd.MarkFlagRequired("job")
}

func score(cmd *cobra.Command) {
	ctx, cancel := commandContext()
	defer cancel()

	logger, config := setup()

	store, err := newStore(config, logger)
	fatalOnError(logger, "opening vector store", err)

	engine, err := newEngine(config, store, logger)
	fatalOnError(logger, "building scoring engine", err)

	result, err := engine.Score(ctx, scoring.Request{
		TenantID:    stringFlag(cmd, "tenant"),
		JobID:       stringFlag(cmd, "job"),
		CandidateID: stringFlag(cmd, "candidate"),
	})
	fatalOnError(logger, "scoring", err)

	fatalOnError(logger, "printing result", printJSON(result))
}
