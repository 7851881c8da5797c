package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/config"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/console"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/logger"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	logLevel := flag.String("log-level", "warn", "log level written to stderr")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewConsole(*logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	token := sessionToken(cfg.Session)
	var claims session.Claims
	if token != "" {
		claims, err = session.ParseClaims(token)
		if err != nil {
			zapLogger.Fatal("Invalid session token", zap.Error(err))
		}
	} else {
		zapLogger.Warn("No session token configured, only public commands will work")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if token != "" {
		ctx = session.WithToken(ctx, token)
	}

	m := metrics.Discard()
	api := backend.NewAPI(backend.NewClient(
		cfg.Backend.URL,
		cfg.Backend.Timeout,
		session.Policy(cfg.Session.MissingToken),
		zapLogger,
		m,
	))

	shell := NewShell(api, ShellOptions{
		Claims:    claims,
		Validator: validation.New(time.Now),
		ScreenOptions: console.Options{
			PageSize: cfg.UI.PageSize,
			Banner:   console.NewBanner(cfg.UI.BannerTTL, nil),
			Logger:   zapLogger,
			Metrics:  m,
		},
		PollInterval: cfg.Notifications.PollInterval,
		Timeout:      cfg.Backend.Timeout,
		Out:          os.Stdout,
	})

	if claims.Subject != "" {
		fmt.Printf("Signed in as %s (%s). Type help for commands.\n", claims.Subject, claims.Role)
	}
	if err := shell.Run(ctx, os.Stdin); err != nil && err != context.Canceled {
		zapLogger.Error("Console stopped", zap.Error(err))
		os.Exit(1)
	}
}

// sessionToken accepts either a raw token or a Cookie header value
func sessionToken(cfg config.SessionConfig) string {
	tok, _ := session.FromCookieHeader(cfg.Token, cfg.CookieName)
	return tok
}
