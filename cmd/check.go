package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/model"
)

var campaignFlags struct {
	jobID    string
	name     string
	channels string
}

func addCampaignFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&campaignFlags.jobID, "job-id", "", "job id (required)")
	f.StringVar(&campaignFlags.name, "name", "", "campaign name")
	f.StringVar(&campaignFlags.channels, "channels", "", "path to channel config YAML (required)")
	_ = cmd.MarkFlagRequired("job-id")
	_ = cmd.MarkFlagRequired("channels")
}

// progress prints pre-flight transitions to stderr.
func progress(_ int, c model.PreflightCheck) {
	if c.Status == model.CheckPending {
		return
	}
	fmt.Fprintf(os.Stderr, "  %-24s %s\n", c.Name, c.Status)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run connectivity, quality and pre-flight checks for a campaign",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		channels, err := loadChannels(campaignFlags.channels)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "launch")
		if err != nil {
			return err
		}
		defer env.Close()

		b, err := env.loadBuild(ctx, campaignFlags.jobID, campaignFlags.name, channels)
		if err != nil {
			return err
		}

		var obs func(int, model.PreflightCheck)
		if !jsonOutput {
			obs = progress
		}
		report := env.check(ctx, b, obs)

		if jsonOutput {
			if err := writeJSON(os.Stdout, report); err != nil {
				return err
			}
		} else {
			formatCheckReport(os.Stdout, report)
		}
		if !report.Ready() {
			return eris.New("campaign is not ready to launch")
		}
		return nil
	},
}

func init() {
	addCampaignFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
