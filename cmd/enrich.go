package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var enrichJobID string

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Look up personal contacts for candidates with none",
	Long:  "Checks stored contact data first, then sends the remaining candidates to the paid lookup provider in small concurrent batches. Failed lookups are reported, never retried.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		b, err := env.loadBuild(ctx, enrichJobID, "", model.ChannelConfig{})
		if err != nil {
			return err
		}

		res, err := env.enrich(ctx, b)
		if res != nil {
			if jsonOutput {
				if werr := writeJSON(os.Stdout, res); werr != nil {
					return werr
				}
			} else {
				formatEnrichResult(os.Stdout, res)
			}
		}
		return err
	},
}

var manualFlags struct {
	candidateID string
	email       string
	mobile      string
}

var enrichManualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Record contact details entered by hand",
	Long:  "Saves an operator-supplied email and/or mobile for one candidate. Manual entries override automated results and never call the provider.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		b, err := env.loadBuild(ctx, enrichJobID, "", model.ChannelConfig{})
		if err != nil {
			return err
		}

		c, err := env.manualEntry(ctx, b, manualFlags.candidateID, manualFlags.email, manualFlags.mobile)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, c)
		}
		fmt.Fprintf(os.Stdout, "%s (%s): email=%s mobile=%s source=%s\n",
			c.FullName(), c.ID, c.PersonalEmail, c.PersonalMobile, c.EnrichmentSource)
		return nil
	},
}

func init() {
	enrichCmd.PersistentFlags().StringVar(&enrichJobID, "job-id", "", "job id (required)")
	_ = enrichCmd.MarkPersistentFlagRequired("job-id")

	f := enrichManualCmd.Flags()
	f.StringVar(&manualFlags.candidateID, "candidate", "", "candidate id (required)")
	f.StringVar(&manualFlags.email, "email", "", "personal email")
	f.StringVar(&manualFlags.mobile, "mobile", "", "personal mobile")
	_ = enrichManualCmd.MarkFlagRequired("candidate")

	enrichCmd.AddCommand(enrichManualCmd)
	rootCmd.AddCommand(enrichCmd)
}
