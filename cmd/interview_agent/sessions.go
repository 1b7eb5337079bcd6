package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/db"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect persisted interviews",
}

var showSessionCmd = &cobra.Command{
	Use:   "show <session_id>",
	Short: "Print the durable record of a completed interview",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowSession,
}

func init() {
	sessionsCmd.AddCommand(showSessionCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runShowSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadDatabaseConfig()
	if err != nil {
		return err
	}
	database, err := db.Connect(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	rec, err := database.GetSessionState(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no persisted interview for session %s", args[0])
	}
	return writeSessionRecord(cmd.OutOrStdout(), rec)
}

func writeSessionRecord(out io.Writer, rec *db.SessionRecord) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	return nil
}
