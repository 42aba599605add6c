package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"notesync/internal/infrastructure/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Управление схемой базы данных",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Применить все новые миграции",
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := migration.NewMigration(conf.DB, nil).Up(); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Откатить все миграции",
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := migration.NewMigration(conf.DB, nil).Down(); err != nil {
			return err
		}
		log.Info("migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Показать текущую версию схемы",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := migration.NewMigration(conf.DB, nil).Version()
		if err != nil {
			return err
		}
		log.Debug("schema version", slog.Uint64("version", uint64(st.Version)), slog.Bool("dirty", st.Dirty))
		fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %t\n", st.Version, st.Dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}
