package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func referenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Manage the demographic reference table",
	}

	cmd.AddCommand(referenceImportCmd())
	cmd.AddCommand(referenceListCmd())
	return cmd
}

func referenceImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a reference CSV and replace the stored table with it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(bootOpts{requireDB: true, logToStderr: true})
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening %s: %w", file, err)
			}
			defer f.Close()

			repo := postgres.NewReferenceRepository(a.db)
			m := a.metrics

			var auditSvc *service.AuditService
			if a.cfg.Audit.Enabled {
				auditSvc = service.NewAuditService(postgres.NewAuditRepository(a.db), m, a.log)
				defer auditSvc.Shutdown()
			}

			svc := service.NewReferenceService(nil, repo, auditSvc, m, a.log)
			n, err := svc.Import(cmd.Context(), &service.ImportReferenceCommand{
				SourceName: filepath.Base(file),
				Data:       f,
				Subject:    "cli",
				Role:       string(domain.RoleAdmin),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d reference rows from %s\n", n, file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "reference CSV to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func referenceListCmd() *cobra.Command {
	var refPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tests of the active reference table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(bootOpts{dbIfConfigured: refPath == "", logToStderr: true})
			if err != nil {
				return err
			}
			defer a.close()

			source, err := a.referenceSource(refPath)
			if err != nil {
				return err
			}

			svc := service.NewReferenceService(source, nil, nil, nil, a.log)
			tests, err := svc.Tests(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TEST\tROWS")
			for _, t := range tests {
				fmt.Fprintf(w, "%s\t%d\n", t.Name, t.Rows)
			}
			a.log.Debug("reference listed", zap.String("source", source.Name()), zap.Int("tests", len(tests)))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&refPath, "reference", "", "reference CSV overriding the configured source")
	return cmd
}
