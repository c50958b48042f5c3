package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/importer"
	"github.com/sells-group/outreach-cli/internal/model"
)

var seedFlags struct {
	job     model.Job
	roster  string
	charset string
	sheet   string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a job and its candidate roster into the store",
	Long:  "Reads a roster (CSV or .xlsx) with candidate_id, first_name and last_name columns and upserts the job and every candidate.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		content, err := importer.ReadSource(ctx, seedFlags.roster, importer.SourceOptions{
			Charset: seedFlags.charset,
			Sheet:   seedFlags.sheet,
		})
		if err != nil {
			return err
		}
		cands, err := importer.ParseRoster(content, seedFlags.job.ID)
		if err != nil {
			return eris.Wrap(err, "parse roster")
		}

		if err := st.UpsertJob(ctx, seedFlags.job); err != nil {
			return eris.Wrap(err, "seed job")
		}
		n, err := st.UpsertCandidates(ctx, cands)
		if err != nil {
			return eris.Wrap(err, "seed candidates")
		}

		needing := 0
		for _, c := range cands {
			if c.NeedsEnrichment() {
				needing++
			}
		}
		zap.L().Info("seed complete",
			zap.String("job_id", seedFlags.job.ID),
			zap.Int64("candidates", n),
			zap.Int("needing_enrichment", needing),
			zap.String("roster", seedFlags.roster),
		)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedFlags.job.ID, "job-id", "", "job id (required)")
	f.StringVar(&seedFlags.job.Title, "title", "", "job title")
	f.StringVar(&seedFlags.job.Specialty, "specialty", "", "job specialty")
	f.StringVar(&seedFlags.job.City, "city", "", "job city")
	f.StringVar(&seedFlags.job.State, "state", "", "job state")
	f.StringVar(&seedFlags.roster, "roster", "", "path to roster CSV or .xlsx (required)")
	f.StringVar(&seedFlags.charset, "charset", "", "roster text encoding (default utf-8)")
	f.StringVar(&seedFlags.sheet, "sheet", "", "workbook sheet name (default first sheet)")
	_ = seedCmd.MarkFlagRequired("job-id")
	_ = seedCmd.MarkFlagRequired("roster")
	rootCmd.AddCommand(seedCmd)
}
