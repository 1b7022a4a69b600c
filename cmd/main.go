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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/hosted-checkout/internal/api"
	"github.com/akylbek/payment-system/hosted-checkout/internal/config"
	"github.com/akylbek/payment-system/hosted-checkout/internal/events"
	"github.com/akylbek/payment-system/hosted-checkout/internal/gateway"
	"github.com/akylbek/payment-system/hosted-checkout/internal/repository"
	"github.com/akylbek/payment-system/hosted-checkout/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:          "hosted-checkout",
	Short:        "Backend for the HyperPay hosted checkout widget",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newGatewayClient(cfg *config.Config) *gateway.Client {
	return gateway.NewClient(gateway.Config{
		BaseURL:          cfg.HyperPay.BaseURL,
		EntityID:         cfg.HyperPay.EntityID,
		BearerToken:      cfg.HyperPay.BearerToken,
		BreakerThreshold: cfg.Breaker.Threshold,
		BreakerCooldown:  cfg.Breaker.Cooldown,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	if err := telemetry.InitTelemetry(api.ServiceName, cfg.OTLPEndpoint); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting hosted checkout service")

	gin.SetMode(gin.ReleaseMode)

	deps := api.Dependencies{
		Gateway:   newGatewayClient(cfg),
		AppScheme: cfg.AppScheme,
	}

	// Redis backs Idempotency-Key replay; without it every request reaches the gateway.
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
			telemetry.Logger.Warn("Redis not reachable, idempotency lookups will fail open", zap.Error(err))
		}
		deps.Idempotency = repository.NewIdempotencyRepository(redisClient, repository.DefaultIdempotencyTTL)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers))
	}
	defer publisher.Close()
	deps.Publisher = publisher

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Hosted checkout listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
	return nil
}
