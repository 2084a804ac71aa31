// cmd_serve.go - The HTTP server command

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	// Blob drivers selected by storage.bucket_url
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"kkmt-store/auth"
	"kkmt-store/database"
	"kkmt-store/handlers"
	"kkmt-store/mailer"
	"kkmt-store/middleware"
	"kkmt-store/models"
	"kkmt-store/notify"
	"kkmt-store/settings"
	"kkmt-store/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront and admin HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// STEP 1: Database, schema and the bootstrap admin
	db, err := openDB()
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := database.EnsureAdmin(ctx, db, cfg.Admin, logger); err != nil {
		return err
	}

	// STEP 2: Outbound collaborators
	var sender mailer.Sender
	if cfg.Email.Host != "" {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			Timeout:  cfg.EmailTimeout(),
		})
	} else {
		logger.Warn("smtp host not configured, emails will only be logged")
		sender = mailer.NewLogSender(logger)
	}

	var uploads handlers.Uploader
	if cfg.Storage.BucketURL != "" {
		store, err := storage.Open(ctx, cfg.Storage.BucketURL, cfg.Storage.PublicBaseURL, cfg.Storage.MaxUploadBytes)
		if err != nil {
			return err
		}
		defer store.Close()
		uploads = store
	} else {
		logger.Warn("blob storage not configured, image uploads are disabled")
	}

	var publisher notify.Publisher
	if cfg.MQTT.Broker != "" {
		mq, err := notify.ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic, logger)
		if err != nil {
			return err
		}
		defer mq.Close()
		publisher = mq
	}

	settingsRepo := models.NewSettingsRepository(db)
	effective := settings.NewProvider(settingsRepo, settings.Defaults{
		StoreName:  cfg.Store.Name,
		StoreEmail: cfg.Email.StoreEmail,
		SMTPUser:   cfg.Email.Username,
		From:       cfg.Email.From,
	}, cfg.SettingsTTL())

	// STEP 3: Router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logger(logger))

	h := handlers.New(handlers.Deps{
		Products:  models.NewProductsRepository(db),
		Orders:    models.NewOrdersRepository(db, cfg.Store.OrderPrefix),
		Users:     models.NewUsersRepository(db),
		Catalog:   models.NewCatalogRepository(db),
		Blogs:     models.NewBlogRepository(db),
		Settings:  settingsRepo,
		Effective: effective,
		Issuer:    auth.NewIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL()),
		Uploads:   uploads,
		Notifier:  notify.NewDispatcher(sender, effective, publisher, logger, cfg.EmailTimeout()),
		Store:     cfg.Store,
		Auth:      cfg.Auth,
		Log:       logger,
	})
	if cfg.Storage.ServeDir != "" && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.ServeDir)
	}
	h.Mount(r)

	// STEP 4: Serve until a signal arrives, then drain
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr), zap.String("base_url", cfg.Server.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
