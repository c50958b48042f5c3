package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/importer"
	"github.com/sells-group/outreach-cli/internal/model"
)

var importFlags struct {
	jobID   string
	file    string
	charset string
	sheet   string
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import personal contact details for a job's candidates",
	Long:  "Matches rows of a CSV or .xlsx file (candidate_id, personal_email, personal_phone) against the job's candidates and saves the matched contacts as Bulk Import.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		b, err := env.loadBuild(ctx, importFlags.jobID, "", model.ChannelConfig{})
		if err != nil {
			return err
		}

		content, err := importer.ReadSource(ctx, importFlags.file, importer.SourceOptions{
			Charset: importFlags.charset,
			Sheet:   importFlags.sheet,
		})
		if err != nil {
			return err
		}

		res, err := env.importContacts(ctx, b, content)
		if err != nil {
			return eris.Wrap(err, "import contacts")
		}

		zap.L().Info("import complete",
			zap.String("job_id", importFlags.jobID),
			zap.Int("updated", res.Updated),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)

		if jsonOutput {
			return writeJSON(os.Stdout, res)
		}
		formatImportResult(os.Stdout, res)
		return nil
	},
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importFlags.jobID, "job-id", "", "job id (required)")
	f.StringVar(&importFlags.file, "file", "", "path to contact CSV or .xlsx (required)")
	f.StringVar(&importFlags.charset, "charset", "", "file text encoding (default utf-8)")
	f.StringVar(&importFlags.sheet, "sheet", "", "workbook sheet name (default first sheet)")
	_ = importCmd.MarkFlagRequired("job-id")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
