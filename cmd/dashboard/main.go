// Command dashboard serves the startup news dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Adda-Baaj/startup-pulse/internal/config"
	"github.com/Adda-Baaj/startup-pulse/internal/crawler"
	"github.com/Adda-Baaj/startup-pulse/internal/dashboard"
	"github.com/Adda-Baaj/startup-pulse/internal/logger"
	"github.com/Adda-Baaj/startup-pulse/internal/web"
	"github.com/Adda-Baaj/startup-pulse/pkg/httpclient"
	"github.com/Adda-Baaj/startup-pulse/pkg/providers"
	"github.com/Adda-Baaj/startup-pulse/pkg/publishers"
)

func main() {
	cfgFile := flag.StringP("config", "c", "", "path to a config file (default ./dashboard.yaml)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the config")
	flag.Parse()

	if err := run(*cfgFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgFile, envFile string) error {
	envErr := godotenv.Load(envFile)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn("dotenv file could not be loaded", zap.String("path", envFile), zap.Error(envErr))
	}
	if !cfg.HasAPIKey() {
		log.Warn("search API key is not set; every search will fail",
			zap.String("env", config.APIKeyEnv))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps := dashboard.Deps{
		Fetcher: providers.NewNewsAPIFetcher(
			providers.DefaultHTTPClient(cfg.NewsAPI.Timeout),
			providers.NewsAPIConfig{BaseURL: cfg.NewsAPI.BaseURL, APIKey: cfg.NewsAPI.APIKey},
		),
		PlaceholderImage: cfg.Dashboard.PlaceholderImage,
		Logger:           log,
		EnrichTimeout:    cfg.Scraper.Timeout,
		Dispatch: publishers.DispatcherConfig{
			QueueSize: cfg.Publishers.QueueSize,
			Workers:   cfg.Publishers.Workers,
			Timeout:   cfg.Publishers.Timeout,
		},
	}

	if cfg.Scraper.EnrichImages {
		deps.Enricher = crawler.NewScraper(
			httpclient.NewRestyClient(cfg.NewsAPI.Timeout),
			cfg.Scraper.MaxWorkers,
			log.With(zap.String("component", "scraper")),
		)
	}

	if cfg.Publishers.File != "" {
		fanout, err := buildPublishers(ctx, cfg.Publishers.File, log)
		if err != nil {
			return err
		}
		if fanout.Len() > 0 {
			deps.Events = fanout
		}
	}

	dash, err := dashboard.New(deps)
	if err != nil {
		return err
	}

	srv, err := web.NewServer(web.Options{
		Dashboard:    dash,
		Sessions:     dashboard.NewSessionStore(cfg.Session.MaxSessions, cfg.Session.TTL),
		Logger:       log,
		SessionTTL:   cfg.Session.TTL,
		SecureCookie: cfg.Server.SecureCookie,
		RateLimit:    rate.Limit(cfg.Server.RateLimit),
		RateBurst:    cfg.Server.RateBurst,
	})
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down dashboard server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := dash.Close(shutdownCtx); err != nil {
			log.Warn("pending article events dropped at shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Info("dashboard server stopped")
	return nil
}

// buildPublishers loads the registry file and builds every enabled entry.
func buildPublishers(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), reg.Enabled(), log.With(zap.String("component", "publishers")))
	if err != nil {
		return nil, err
	}
	for _, p := range pubs {
		log.Info("publisher enabled", zap.String("publisher_id", p.ID()), zap.String("type", p.Type()))
	}
	return publishers.NewFanout(pubs...), nil
}
