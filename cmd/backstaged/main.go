package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"backstage/internal/config"
	"backstage/internal/daemon"
	"backstage/internal/feed"
	"backstage/internal/logging"
	"backstage/internal/match"
	"backstage/internal/notifications"
	"backstage/internal/programme"
	"backstage/internal/refresh"
	"backstage/internal/website"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	service, err := programme.OpenService(cfg, logger)
	if err != nil {
		logger.Error("open programme service", logging.Error(err))
		return
	}

	notifier := notifications.NewService(cfg)
	matcher := match.New(cfg.Matching.Threshold, logger)
	refresher := refresh.New(
		service,
		feed.NewClient(cfg),
		refresh.NewWebsiteFetcher(website.NewClient(cfg)),
		matcher,
		notifier,
		logger,
		refresh.Options{
			Stage:                cfg.Website.Stage,
			ActsInterval:         cfg.ActsInterval(),
			DescriptionsInterval: cfg.DescriptionsInterval(),
		},
	)

	d, err := daemon.New(cfg, service, refresher, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}
	defer d.Stop()

	<-ctx.Done()
	logger.Info("backstaged shutting down")
}
