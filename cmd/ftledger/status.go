package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TransferSentinel/internal/collector"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(replayCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status ENTRY_ID",
	Short: "Print free transfers for the next gameweek",
	Long: `Print the manager's free transfers for the next gameweek as JSON.
While the current gameweek is still being played the status is indeterminate
and no number is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	entryID, err := parseEntryID(args[0])
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := collector.NewCollector(a.source).Status(cmd.Context(), entryID)
	if err != nil {
		a.log.Error("status", zap.Int("entry", entryID), zap.Error(err))
		return err
	}
	return writeJSON(cmd.OutOrStdout(), status)
}

var replayCmd = &cobra.Command{
	Use:   "replay ENTRY_ID",
	Short: "Print the gameweek-by-gameweek free transfer trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	entryID, err := parseEntryID(args[0])
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	trace, err := collector.NewCollector(a.source).Replay(cmd.Context(), entryID)
	if err != nil {
		a.log.Error("replay", zap.Int("entry", entryID), zap.Error(err))
		return err
	}
	return writeJSON(cmd.OutOrStdout(), trace)
}
