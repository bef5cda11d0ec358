package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yungtweek/pollinations-proxy/internal/config"
	"github.com/yungtweek/pollinations-proxy/internal/grpc"
	"github.com/yungtweek/pollinations-proxy/internal/httpapi"
	"github.com/yungtweek/pollinations-proxy/internal/logger"
	"github.com/yungtweek/pollinations-proxy/internal/stream"
	"github.com/yungtweek/pollinations-proxy/internal/upstream"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadConfig()

	if err := logger.Init(cfg.Profile); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Log.Infow(
		"starting "+config.AppName,
		"version", config.AppVersion,
		"addr", cfg.Addr(),
		"profile", cfg.Profile,
		"auth", cfg.AuthEnabled(),
		"upstream", cfg.UpstreamBaseURL,
		"upstreamModel", cfg.UpstreamModel,
		"upstreamTimeoutMs", cfg.UpstreamTimeoutMs,
		"streamDelayMs", cfg.StreamDelayMs,
		"defaultModel", cfg.DefaultModel,
		"grpcPort", cfg.GRPCPort,
	)

	client := upstream.NewClient(cfg)
	translator := stream.NewTranslator(cfg, client)
	srv := httpapi.NewServer(cfg.Addr(), httpapi.NewRouter(cfg, translator))

	var health *grpc.Server
	if cfg.GRPCPort > 0 {
		health = grpc.NewGRPCServer(cfg.GRPCAddr())
		go func() {
			if err := health.Run(); err != nil {
				logger.Log.Errorw("[main] grpc health listener failed", "err", err)
			}
		}()
	}

	// Handle SIGINT/SIGTERM for a clean shutdown in local dev / docker.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-sigCh
		logger.Log.Info("[main] shutting down...")
		if health != nil {
			health.GracefulStop()
		}
		// Open streams are bounded by the upstream timeout plus replay time.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Log.Warnw("[main] http shutdown incomplete", "err", err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		logger.Log.Fatalw("[main] failed to listen", "addr", cfg.Addr(), "err", err)
	}
	if health != nil {
		health.SetServing(true)
	}
	if err := srv.Serve(lis); err != nil {
		logger.Log.Fatalw("[main] server error", "err", err)
	}
	<-stopped
}
