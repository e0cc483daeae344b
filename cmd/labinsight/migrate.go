package main

import (
	"github.com/dmehra2102/prod-golang-projects/labinsight/pkg/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the clinical and audit schemas and tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(bootOpts{requireDB: true})
			if err != nil {
				return err
			}
			defer a.close()

			return database.Migrate(a.db, a.log)
		},
	}
}
