/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/finsight-be/database"
	"github.com/tieubaoca/finsight-be/handler"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/middleware"
	"github.com/tieubaoca/finsight-be/service"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server",
	Long:  `Starts the HTTP and websocket server for statement upload, chat, insights and login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		log := logger.NewModuleLogger("cmd", "start")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := buildCore(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		blobs, err := database.NewAzureBlobStorage(ctx, cfg.AzureConnectionString, cfg.Blob.Container)
		if err != nil {
			return fmt.Errorf("failed to init blob storage: %w", err)
		}
		log.Info("blob storage ready", "container", blobs.Container())

		userRepo, err := newUserRepo(ctx, cfg, app)
		if err != nil {
			return err
		}
		userService := service.NewUserService(userRepo)
		authService := service.NewAuthService(
			service.NewGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.RedirectURI),
			service.NewGoogleVerifier(cfg.GoogleClientID),
			userService,
		)
		fileService, err := service.NewFileService(cfg.UploadDir, blobs, app.documents)
		if err != nil {
			return err
		}

		sessions := middleware.NewSessionManager(middleware.SessionConfig{
			CookieName: cfg.Auth.CookieName,
			Secret:     []byte(cfg.SessionSecret),
			TTL:        time.Duration(cfg.Auth.SessionHours) * time.Hour,
			Secure:     cfg.Auth.SecureCookies,
		})

		gin.SetMode(gin.ReleaseMode)
		router := handler.SetupRouter(handler.RouterDeps{
			Sessions:  sessions,
			Upload:    handler.NewUploadHandler(fileService),
			Chat:      handler.NewChatHandler(app.router),
			Insights:  handler.NewInsightHandler(app.insights),
			Login:     handler.NewLoginHandler(authService, sessions, cfg.FrontendURL, cfg.Auth.SecureCookies),
			Files:     handler.NewFileHandler(fileService),
			WebSocket: service.NewWebSocketService(app.router),
		})

		return serve(ctx, log, ":"+cfg.Port, router)
	},
}

func serve(ctx context.Context, log *slog.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
