package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/plans"
)

var (
	playbooksFile   string
	playbooksDryRun bool
)

var playbooksCmd = &cobra.Command{
	Use:   "playbooks",
	Short: "Manage interview playbooks",
}

var importPlaybooksCmd = &cobra.Command{
	Use:   "import",
	Short: "Import playbooks from a YAML file",
	Long: `Reads a YAML list of playbooks and upserts each one by role, skill and
seniority. Every playbook is checked by building its interview plan first;
with --dry-run nothing is written.`,
	RunE: runImportPlaybooks,
}

var listPlaybooksCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored playbooks",
	RunE:  runListPlaybooks,
}

func init() {
	importPlaybooksCmd.Flags().StringVarP(&playbooksFile, "file", "f", "", "playbooks YAML file (required)")
	importPlaybooksCmd.Flags().BoolVar(&playbooksDryRun, "dry-run", false, "validate without writing")
	_ = importPlaybooksCmd.MarkFlagRequired("file")

	playbooksCmd.AddCommand(importPlaybooksCmd)
	playbooksCmd.AddCommand(listPlaybooksCmd)
	rootCmd.AddCommand(playbooksCmd)
}

func runImportPlaybooks(cmd *cobra.Command, _ []string) error {
	playbooks, err := plans.LoadPlaybooksFile(playbooksFile)
	if err != nil {
		return err
	}
	for _, pb := range playbooks {
		if _, err := plans.BuildPlan(pb); err != nil {
			return err
		}
	}
	if playbooksDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%d playbooks valid\n", len(playbooks))
		return nil
	}

	cfg, err := loadDatabaseConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Connect(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	for _, pb := range playbooks {
		if err := database.UpsertPlaybook(cmd.Context(), pb); err != nil {
			return err
		}
		log.Debug("playbook imported",
			zap.String("role", pb.Role),
			zap.String("skill", pb.Skill),
			zap.String("seniority", pb.Seniority))
	}
	log.Info("playbooks imported", zap.Int("count", len(playbooks)), zap.String("file", playbooksFile))
	return nil
}

func runListPlaybooks(cmd *cobra.Command, _ []string) error {
	cfg, err := loadDatabaseConfig()
	if err != nil {
		return err
	}
	database, err := db.Connect(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	summaries, err := database.ListPlaybooks(cmd.Context())
	if err != nil {
		return err
	}
	return writePlaybookTable(cmd.OutOrStdout(), summaries)
}

func writePlaybookTable(out io.Writer, summaries []db.PlaybookSummary) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tSKILL\tSENIORITY\tARCHETYPE\tUPDATED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Role, s.Skill, s.Seniority, s.Archetype, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
