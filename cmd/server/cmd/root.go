package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/config"
	"notesync/internal/utils/logger"
)

var (
	conf *config.Config
	log  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "notesync",
	Short: "Notesync - сервер синхронизации заметок между устройствами",
	Long: `Notesync хранит заметки групп синхронизации в PostgreSQL, изображения в S3-совместимом
хранилище и уведомляет подключенные устройства об изменениях через websocket.

Устройства аутентифицируются подписью challenge своим RSA ключом.`,
	PersistentPreRun: setup,
	SilenceUsage:     true,
	SilenceErrors:    true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) {
	conf = config.MustLoad()
	log = logger.New(conf.Env, conf.Logger.LogLevel)
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, keygenCmd, signCmd)
}
