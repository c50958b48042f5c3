package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/launch"
	"github.com/sells-group/outreach-cli/internal/model"
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Re-run every gate and launch the campaign",
	Long:  "Runs connectivity, quality and pre-flight checks from scratch, then launches through the campaign backend. When the backend fails the campaign is written directly to the store.",
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
		out, report, err := env.launch(ctx, b, obs)
		if err != nil {
			var pe *launch.PreconditionError
			if errors.As(err, &pe) && !jsonOutput {
				formatCheckReport(os.Stderr, report)
			}
			zap.L().Error("launch failed", zap.String("job_id", b.Job.ID), zap.Error(err))
			return err
		}

		if jsonOutput {
			return writeJSON(os.Stdout, out)
		}
		formatLaunchOutcome(os.Stdout, out)
		return nil
	},
}

func init() {
	addCampaignFlags(launchCmd)
	rootCmd.AddCommand(launchCmd)
}
