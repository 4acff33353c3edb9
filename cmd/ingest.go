package cmd

import (
	"errors"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/embedding"
	"github.com/spigell/cv-align/internal/vectorstore"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errAborted = errors.New("replacing the job description was not confirmed")

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Store job descriptions and resumes in the vector store",
}

var ingestQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Replace the job description of a job",
	Run: func(cmd *cobra.Command, _ []string) {
		ingestQuery(cmd)
	},
}

var ingestCandidateCmd = &cobra.Command{
	Use:   "candidate",
	Short: "Append a resume to the candidates of a job",
	Run: func(cmd *cobra.Command, _ []string) {
		ingestCandidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.AddCommand(ingestQueryCmd, ingestCandidateCmd)

	for _, c := range []*cobra.Command{ingestQueryCmd, ingestCandidateCmd} {
		c.Flags().String("tenant", "", "tenant (company) id")
		c.Flags().String("job", "", "job id")
		c.Flags().String("text", "", "document text")
		c.Flags().StringP("file", "f", "", "file with the document text")
		c.MarkFlagRequired("tenant")
		c.MarkFlagRequired("job")
	}

	ingestQueryCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before replacing an existing job description")
	ingestCandidateCmd.Flags().String("candidate", "", "candidate id used to score this resume separately")
}

func ingestQuery(cmd *cobra.Command) {
	ctx, cancel := commandContext()
	defer cancel()

	logger, config := setup()

	text, err := readText(stringFlag(cmd, "text"), stringFlag(cmd, "file"))
	fatalOnError(logger, "reading job description", err)

	pipeline, store, err := newPipeline(ctx, config, logger)
	fatalOnError(logger, "building pipeline", err)

	key := vectorstore.QueryKey(stringFlag(cmd, "tenant"), stringFlag(cmd, "job"))
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fatalOnError(logger, "confirming replacement", confirmReplace(store, key))
	}

	result, err := pipeline.IngestQuery(ctx, embedding.Document{
		TenantID: key.TenantID,
		JobID:    key.JobID,
		Text:     text,
	})
	fatalOnError(logger, "ingesting job description", err)

	fatalOnError(logger, "printing result", printJSON(result))
}

// confirmReplace asks before an existing query document is dropped.
func confirmReplace(store *vectorstore.Manager, key vectorstore.Key) error {
	exists, err := store.Exists(key)
	if err != nil || !exists {
		return err
	}

	prompt := promptui.Select{
		Label: "A job description is already stored for " + key.String() + ". Replace it?",
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return err
	}
	if action != PromptYes {
		return errAborted
	}
	return nil
}

func ingestCandidate(cmd *cobra.Command) {
	ctx, cancel := commandContext()
	defer cancel()

	logger, config := setup()

	text, err := readText(stringFlag(cmd, "text"), stringFlag(cmd, "file"))
	fatalOnError(logger, "reading resume", err)

	pipeline, _, err := newPipeline(ctx, config, logger)
	fatalOnError(logger, "building pipeline", err)

	result, err := pipeline.IngestCandidate(ctx, embedding.Document{
		TenantID:    stringFlag(cmd, "tenant"),
		JobID:       stringFlag(cmd, "job"),
		CandidateID: stringFlag(cmd, "candidate"),
		Text:        text,
	})
	fatalOnError(logger, "ingesting resume", err)

	logger.Debug("resume stored", zap.Strings("record_ids", result.RecordIDs))
	fatalOnError(logger, "printing result", printJSON(result))
}
