package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/paypal"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.LoadAPI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[API] %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[API] logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.Named("api")

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.APIConfig, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("starting storefront api",
		zap.String("env", cfg.Env),
		zap.String("user_store", cfg.UserStore),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.String("paypal", cfg.PayPalBaseURL))

	repo, closeRepo, err := openUserRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	// Payment events are optional
	var publisher payment.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer producer.Close()
		publisher = producer
	} else {
		logger.Info("KAFKA_BROKERS not set, payment events disabled")
	}

	if cfg.PayPalClientID == "" || cfg.PayPalClientSecret == "" {
		logger.Warn("PayPal credentials not set, payment routes will fail")
	}
	gateway := paypal.NewClient(paypal.Config{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		BaseURL:      cfg.PayPalBaseURL,
		Timeout:      cfg.PayPalTimeout,
	}, logger)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenExpiry)
	users := user.NewService(repo, auth.NewPasswordHasher(cfg.BcryptCost))
	payments := payment.NewService(gateway, publisher, logger)

	router := api.NewRouter(api.RouterConfig{
		AuthHandlers:    api.NewAuthHandlers(users, tokens, logger),
		PaymentHandlers: api.NewPaymentHandlers(payments, logger),
		Tokens:          tokens,
		Logger:          logger,
		StaticDir:       cfg.StaticDir,
		AllowedOrigins:  cfg.AllowedOrigins,
		RequestTimeout:  cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func openUserRepository(ctx context.Context, cfg *config.APIConfig, logger *zap.Logger) (user.Repository, func(), error) {
	switch cfg.UserStore {
	case config.UserStoreMemory:
		logger.Warn("using in-memory user store, accounts are lost on restart")
		return user.NewMemoryRepository(), func() {}, nil

	case config.UserStoreDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDBEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
			}
		})
		logger.Info("using DynamoDB user store", zap.String("table", cfg.DynamoDBTable))
		return store.NewDynamoUserStore(client, cfg.DynamoDBTable), func() {}, nil

	default:
		db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := store.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		logger.Info("connected to PostgreSQL")
		return store.NewPostgresUserStore(db), func() { db.Close() }, nil
	}
}
