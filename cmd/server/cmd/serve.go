package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api"
	"notesync/internal/app/server/api/ws"
	"notesync/internal/infrastructure/blob"
	"notesync/internal/infrastructure/migration"
	"notesync/internal/infrastructure/storage/postgres"
	"notesync/internal/utils/logger"
)

var withMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP сервер",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&withMigrate, "migrate", false, "применить миграции перед запуском")
}

func serve(ctx context.Context) error {
	if withMigrate {
		if err := migration.NewMigration(conf.DB, nil).Up(); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	storage, err := postgres.New(ctx, conf.DB.DatabaseURI, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer storage.Close()

	var store blob.Store
	s3, err := blob.NewS3Store(conf.Blob)
	switch {
	case errors.Is(err, blob.ErrNotConfigured):
		log.Warn("blob storage is not configured, image endpoints will fail")
		store = blob.Disabled{}
	case err != nil:
		return fmt.Errorf("blob storage: %w", err)
	default:
		store = s3
	}

	remover := blob.NewRemover(store, log, blob.DefaultRemoverWorkers, blob.DefaultRemoverQueue, blob.DefaultRemoveTimeout)
	hub := ws.NewHub(log, ws.Config{})

	router := api.New(api.Deps{
		Config:  conf,
		Storage: storage,
		Blob:    store,
		Remover: remover,
		Hub:     hub,
		Log:     log,
	})

	srv := &http.Server{
		Addr:    conf.Server.RunAddress,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", conf.Server.RunAddress), slog.String("env", conf.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", logger.Err(err))
	}
	if err := remover.Close(shutdownCtx); err != nil {
		log.Error("blob remover did not drain", logger.Err(err))
	}

	log.Info("server stopped")
	return nil
}
