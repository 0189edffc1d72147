package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TransferSentinel/internal/collector"
)

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().String("from", "", "Payload directory to import (default source.payload_dir)")
}

var loadCmd = &cobra.Command{
	Use:   "load [ENTRY_ID...]",
	Short: "Import payload files into the SQLite source",
	Long: `Copy the season calendar and the given entries' histories from a payload
directory into the SQLite database. With no arguments the configured entries
are imported.`,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	entries := a.cfg.Entries
	if len(args) > 0 {
		entries = entries[:0:0]
		for _, arg := range args {
			id, err := parseEntryID(arg)
			if err != nil {
				return err
			}
			entries = append(entries, id)
		}
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries to load")
	}

	dir, _ := cmd.Flags().GetString("from")
	if dir == "" {
		dir = a.cfg.Source.PayloadDir
	}
	from := collector.NewPayloadSource(dir)

	db, err := collector.NewSQLiteSource(a.cfg.Source.SQLitePath, a.log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	events, err := from.Events(ctx)
	if err != nil {
		return err
	}
	if err := db.PutEvents(ctx, events); err != nil {
		return fmt.Errorf("store events: %w", err)
	}
	for _, id := range entries {
		h, err := from.EntryHistory(ctx, id)
		if err != nil {
			return err
		}
		if err := db.PutHistory(ctx, h); err != nil {
			return fmt.Errorf("store entry %d: %w", id, err)
		}
		a.log.Info("entry loaded", zap.Int("entry", id), zap.Int("gameweeks", len(h.Current)), zap.Int("chips", len(h.Chips)))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d events and %d entries into %s\n", len(events), len(entries), a.cfg.Source.SQLitePath)
	return nil
}
