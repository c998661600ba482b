package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the auto-fill HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srvCfg := server.Config{
			Backend:         env.Backend,
			Mapper:          env.Mapper,
			Options:         env.Options,
			PersistAnalysis: cfg.Session.PersistAnalysis,
			ClearAfterApply: cfg.Mapping.ClearAfterApply,
			OptionWorkers:   cfg.Options.Concurrency,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
		}
		if cfg.Extractor.BaseURL != "" {
			srvCfg.Extractor = newExtractor()
		}
		app := server.New(srvCfg)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if maxAge := cfg.Session.MaxAge(); maxAge > 0 {
			go pruneLoop(ctx, env, app, maxAge, time.Hour)
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// pruneLoop removes abandoned sessions every interval until ctx is done.
func pruneLoop(ctx context.Context, env *appEnv, app *server.Server, maxAge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := env.Backend.PruneSessions(ctx, maxAge)
			if err != nil {
				zap.L().Warn("serve: prune sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				app.Forget()
				zap.L().Info("sessions pruned", zap.Int("entries", n))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
