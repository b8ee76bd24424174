package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/caseflow/compliance/compliance"
	"github.com/caseflow/compliance/internal/logger"
)

func main() {
	root := &cobra.Command{
		Use:   "compliancectl",
		Short: "Operate the case compliance engine",
	}

	root.AddCommand(newSeedCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newReportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the rule catalog into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var rules []*compliance.ComplianceRule
			if catalogPath != "" {
				rules, err = compliance.LoadCatalog(catalogPath)
				if err != nil {
					return err
				}
			} else {
				rules = compliance.DefaultCatalog()
			}

			store := compliance.NewPostgresRuleStore(db)
			if err := compliance.SeedCatalog(store, rules); err != nil {
				return err
			}

			fmt.Printf("Seeded %d rules\n", len(rules))
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a catalog YAML file (defaults to the built-in catalog)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate compliance for every case",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			cases := compliance.NewPostgresCaseStore(db)
			engine := buildEngine(db, cases)

			ids, err := cases.ListIDs()
			if err != nil {
				return fmt.Errorf("list cases: %w", err)
			}

			// One bad case must not stop the rest of the portfolio.
			var failed int
			for _, id := range ids {
				report, err := engine.EvaluateCase(id)
				if err != nil {
					failed++
					logger.Error("sweep: case evaluation failed", "case_id", id, "error", err)
					continue
				}
				fmt.Printf("%s\t%s\tscore=%d\n", id, report.OverallStatus, report.ComplianceScore)
			}

			fmt.Printf("Swept %d cases (%d failed)\n", len(ids), failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d cases failed evaluation", failed, len(ids))
			}
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <case-id>",
		Short: "Evaluate one case and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			cases := compliance.NewPostgresCaseStore(db)
			engine := buildEngine(db, cases)

			report, err := engine.EvaluateCase(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func openDB() (*sql.DB, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func buildEngine(db *sql.DB, cases compliance.CaseStore) *compliance.Engine {
	return compliance.NewEngine(
		cases,
		compliance.NewPostgresCertificateStore(db),
		compliance.NewPostgresRuleStore(db),
		compliance.NewPostgresCheckStore(db),
		compliance.NewPostgresActionStore(db),
	)
}
