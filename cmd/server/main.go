// @title           Song Request API
// @version         1.0.0
// @description     Backend for a custom song marketplace: checkout and payment verification, producer assignment over Discord, expiry refunds, revisions and delivery, and producer payouts.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"song-request-backend/internal/config"
	"song-request-backend/internal/database"
	"song-request-backend/internal/discord"
	"song-request-backend/internal/email"
	"song-request-backend/internal/events"
	"song-request-backend/internal/gdrive"
	"song-request-backend/internal/logging"
	"song-request-backend/internal/payments"
	"song-request-backend/internal/scheduler"
	"song-request-backend/internal/services"
	"song-request-backend/internal/supabase"
	"song-request-backend/internal/tasks"
)

const taskTimeout = 30 * time.Second

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "song-request-server",
		Short: "Song request marketplace backend",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	config.ApplyDefaults(viper.GetViper())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().String("port", viper.GetString("PORT"), "HTTP port")
	rootCmd.PersistentFlags().String("log-level", viper.GetString("LOG_LEVEL"), "Log level (debug, info, warn, error)")
	bindFlag(rootCmd, "PORT", "port")
	bindFlag(rootCmd, "LOG_LEVEL", "log-level")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	return viper.ReadInConfig()
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.NewMigrator(db.DB(), logger).Run(); err != nil {
		return err
	}

	roles, err := supabase.NewClient(cfg)
	if err != nil {
		return err
	}
	storage, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqp, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			return err
		}
		publisher = amqp
	}
	defer publisher.Close()

	var chat services.Chat
	if cfg.DiscordWebhookURL != "" {
		client, err := discord.NewClient(cfg.DiscordWebhookURL)
		if err != nil {
			return err
		}
		chat = client
	} else {
		logger.Warn("DISCORD_WEBHOOK_URL not set, assignment offers go out by email only")
	}

	var publicKey ed25519.PublicKey
	if cfg.DiscordEnabled() {
		if publicKey, err = discord.ParsePublicKey(cfg.DiscordPublicKey); err != nil {
			return err
		}
	}

	runner := tasks.NewRunner(logger, taskTimeout)
	processor := payments.NewStripeClient(cfg.StripeSecretKey)
	mailer := email.NewMailer(email.NewResendSender(cfg.ResendAPIKey), cfg.EmailFrom, cfg.InternalFilesEmail)
	drive := gdrive.NewClient(
		gdrive.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		db, gdrive.DefaultAPIBase)

	rt := &services.Runtime{
		Logger: logger,
		Tasks:  runner,
		Events: publisher,
		Settings: services.Settings{
			PlatformFeePercent: cfg.PlatformFeePercent,
			AcceptanceWindow:   cfg.AcceptanceWindow,
			Currency:           cfg.StripeCurrency,
			FrontendURL:        cfg.FrontendURL,
			SweeperStatuses:    cfg.SweeperStatuses,
		},
	}

	assigner := services.NewAssignmentNotifier(rt, db, db, chat, mailer, nil)
	svc := serviceSet{
		orders:     services.NewOrderService(rt, db, db, db, processor, mailer, assigner, roles),
		assigner:   assigner,
		acceptance: services.NewAcceptanceService(rt, db, db, chat, mailer, assigner),
		sweeper:    services.NewExpirySweeper(rt, db, processor, mailer),
		payouts:    services.NewPayoutService(rt, db, db, processor),
		revisions:  services.NewRevisionService(rt, db, db, db, mailer, roles),
		producers:  services.NewProducerService(rt, db, processor),
		drive:      services.NewDriveService(rt, db, db, drive),
		uploads:    services.NewUploadService(storage),
		db:         db.DB(),
	}

	sched := scheduler.New(logger)
	if err := sched.Add(scheduler.Job{Name: "expiry sweep", Schedule: cfg.SweeperSchedule, Run: svc.sweeper.Run}); err != nil {
		return err
	}
	sched.Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, logger, roles, publicKey, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
	}
	if waitErr := runner.Wait(shutdownCtx); waitErr != nil {
		logger.Warn("background tasks still running at shutdown", zap.Error(waitErr))
	}
	return err
}
